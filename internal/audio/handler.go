package audio

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type trackLister interface {
	Tracks(ctx context.Context) ([]Track, error)
	Open(name string) (*os.File, os.FileInfo, error)
}

type TracksResponse struct {
	Tracks []Track `json:"tracks"`
	Error  string  `json:"error,omitempty"`
}

type Handler struct {
	library trackLister
}

func NewHandler(library trackLister) *Handler {
	return &Handler{
		library: library,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/audio", handler.HandleList).Methods("GET").Name("audio-list")
	r.HandleFunc("/audio/{file}", handler.HandleFile).Methods("GET", "HEAD").Name("audio-file")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.audio.list")
	defer span.End()

	tracks, err := handler.library.Tracks(ctx)
	if err != nil {
		log.Errorf("list audio tracks: %s", err)
		pkg.WriteJSON(w, http.StatusOK, TracksResponse{
			Tracks: []Track{},
			Error:  err.Error(),
		})
		return
	}

	pkg.WriteJSON(w, http.StatusOK, TracksResponse{Tracks: tracks})
}

func (handler *Handler) HandleFile(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.audio.file")
	defer span.End()

	name := mux.Vars(r)["file"]
	f, info, err := handler.library.Open(name)
	if err != nil {
		if errors.Is(err, ErrNotTrack) || errors.Is(err, os.ErrNotExist) {
			http.Error(w, "track not found", http.StatusNotFound)
			return
		}
		log.Errorf("open audio track [%s]: %s", name, err)
		http.Error(w, "failed to open track", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warnf("close audio track [%s]: %s", name, err)
		}
	}()

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
