package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittrack/internal/catalog"
	"github.com/2beens/fittrack/internal/schedule"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=tracker_test

type stateService interface {
	ReadState(ctx context.Context) StateResult
	SetCompletion(ctx context.Context, req CompletionRequest) WriteResult
	SetWeight(ctx context.Context, req WeightRequest) WriteResult
	WeekProgress(ctx context.Context, week schedule.WeekInfo) ProgressResult
}

type StateResponse struct {
	Status  map[string]any `json:"status"`
	Weights map[string]any `json:"weights"`
	Error   string         `json:"error,omitempty"`
}

type WriteResponse struct {
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	Kind  FailureKind `json:"kind,omitempty"`
}

type ProgressResponse struct {
	Progress
	Error string `json:"error,omitempty"`
}

type CatalogResponse struct {
	Days []catalog.Day `json:"days"`
}

type completeRequestBody struct {
	Week      string `json:"week"`
	Day       string `json:"day"`
	Key       any    `json:"key"`
	Completed any    `json:"completed"`
}

type weightRequestBody struct {
	Day     string `json:"day"`
	Key     string `json:"key"`
	Weights *struct {
		Andy      any `json:"Andy"`
		Petronela any `json:"Petronela"`
	} `json:"weights"`
}

type Handler struct {
	service stateService
	catalog *catalog.Catalog
	now     func() time.Time
}

func NewHandler(service stateService, catalog *catalog.Catalog, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		service: service,
		catalog: catalog,
		now:     now,
	}
}

// SetupRoutes registers the tracker routes. writeMiddleware wraps only the
// mutating routes.
func (handler *Handler) SetupRoutes(r *mux.Router, writeMiddleware ...func(http.Handler) http.Handler) {
	var complete, weight http.Handler = http.HandlerFunc(handler.HandleComplete), http.HandlerFunc(handler.HandleWeight)
	for i := len(writeMiddleware) - 1; i >= 0; i-- {
		complete = writeMiddleware[i](complete)
		weight = writeMiddleware[i](weight)
	}

	r.HandleFunc("/state", handler.HandleState).Methods("GET").Name("state")
	r.Handle("/complete", complete).Methods("POST", "OPTIONS").Name("complete")
	r.Handle("/weight", weight).Methods("POST", "OPTIONS").Name("weight")
	r.HandleFunc("/progress", handler.HandleProgress).Methods("GET").Name("progress")
	r.HandleFunc("/week", handler.HandleWeek).Methods("GET").Name("week")
	r.HandleFunc("/catalog", handler.HandleCatalog).Methods("GET").Name("catalog")
}

func (handler *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracker.state")
	defer span.End()

	result := handler.service.ReadState(ctx)
	resp := StateResponse{
		Status:  result.Status,
		Weights: result.Weights,
	}
	if result.Failure != nil {
		resp.Error = result.Failure.Message
	}
	pkg.WriteJSON(w, http.StatusOK, resp)
}

func (handler *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracker.complete")
	defer span.End()

	var body completeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Errorf("complete, unmarshal json body: %s", err)
		writeResult(w, WriteResult{Failure: validationFailure("invalid request body")})
		return
	}

	key, ok := keyString(body.Key)
	if !ok {
		writeResult(w, WriteResult{Failure: validationFailure("invalid key")})
		return
	}
	warnNonCanonical(body.Week, body.Day)

	writeResult(w, handler.service.SetCompletion(ctx, CompletionRequest{
		Week:      body.Week,
		Day:       body.Day,
		Key:       key,
		Completed: truthy(body.Completed),
	}))
}

func (handler *Handler) HandleWeight(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracker.weight")
	defer span.End()

	var body weightRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Errorf("weight, unmarshal json body: %s", err)
		writeResult(w, WriteResult{Failure: validationFailure("invalid request body")})
		return
	}
	warnNonCanonical("", body.Day)

	req := WeightRequest{
		Day: body.Day,
		Key: body.Key,
	}
	if body.Weights != nil {
		req.Weights = &WeightPair{
			Andy:      looseString(body.Weights.Andy),
			Petronela: looseString(body.Weights.Petronela),
		}
	}

	writeResult(w, handler.service.SetWeight(ctx, req))
}

func (handler *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracker.progress")
	defer span.End()

	week := schedule.WeekKeyOf(handler.now())
	if weekParam := r.URL.Query().Get("week"); weekParam != "" {
		year, weekNum, err := schedule.ParseWeekKey(weekParam)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid week [%s]", weekParam), http.StatusBadRequest)
			return
		}
		week = schedule.NewWeekInfo(year, weekNum)
	}

	result := handler.service.WeekProgress(ctx, week)
	resp := ProgressResponse{Progress: result.Progress}
	if result.Failure != nil {
		resp.Error = result.Failure.Message
	}
	pkg.WriteJSON(w, http.StatusOK, resp)
}

func (handler *Handler) HandleWeek(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, http.StatusOK, schedule.WeekKeyOf(handler.now()))
}

func (handler *Handler) HandleCatalog(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, http.StatusOK, CatalogResponse{Days: handler.catalog.Days()})
}

// RejectRateLimited answers a write denied by the rate limiter with the
// regular write response, so clients roll back the same way as on store
// failures.
func (handler *Handler) RejectRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	log.Warnf("write [%s] rate limited, retry after %s", r.URL.Path, retryAfter)
	writeResult(w, WriteResult{Failure: &Failure{
		Kind:    FailureRateLimited,
		Message: fmt.Sprintf("too many writes, retry after %d seconds", int(math.Ceil(retryAfter.Seconds()))),
	}})
}

func writeResult(w http.ResponseWriter, result WriteResult) {
	if result.OK() {
		pkg.WriteJSON(w, http.StatusOK, WriteResponse{OK: true})
		return
	}

	statusCode := http.StatusOK
	if result.Failure.Kind == FailureValidation {
		statusCode = http.StatusBadRequest
	}
	pkg.WriteJSON(w, statusCode, WriteResponse{
		Error: result.Failure.Message,
		Kind:  result.Failure.Kind,
	})
}

func warnNonCanonical(week, day string) {
	if week != "" && !schedule.IsWeekKey(week) {
		log.Warnf("write with non canonical week key [%s]", week)
	}
	if day != "" && !schedule.IsDay(day) {
		log.Warnf("write with unknown day [%s]", day)
	}
}

// keyString accepts the exercise key as a JSON string or number.
// A missing key yields "", which the service rejects.
func keyString(v any) (string, bool) {
	switch key := v.(type) {
	case nil:
		return "", true
	case string:
		return key, true
	case float64:
		if math.IsNaN(key) || math.IsInf(key, 0) {
			return "", false
		}
		return strconv.FormatFloat(key, 'f', -1, 64), true
	default:
		return "", false
	}
}

func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case float64:
		return value != 0 && !math.IsNaN(value)
	case string:
		return value != ""
	default:
		return true
	}
}

// looseString renders a weight value the way it was typed: numbers in their
// shortest form, strings as is, null as empty.
func looseString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}
