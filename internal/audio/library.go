package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracksCacheKey = "tracks"

var (
	ErrNotTrack = errors.New("not an audio track")

	// Extensions lists the file types served as tracks, compared lower-cased.
	Extensions = []string{".mp3", ".m4a", ".aac", ".ogg", ".wav", ".flac", ".webm"}

	separatorsRegex = regexp.MustCompile(`[-_]+`)
	spacesRegex     = regexp.MustCompile(`\s+`)
)

type Track struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	File string `json:"file"`
}

// Library lists the audio files of one directory. The listing is cached
// for cacheTTL, a zero TTL reads the directory on every call.
type Library struct {
	dir      string
	cache    *freecache.Cache
	cacheTTL time.Duration
}

func NewLibrary(dir string, cacheTTL time.Duration) *Library {
	megabyte := 1024 * 1024
	return &Library{
		dir:      dir,
		cache:    freecache.NewCache(megabyte),
		cacheTTL: cacheTTL,
	}
}

func (l *Library) Tracks(ctx context.Context) (tracks []Track, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "audio.library.tracks")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if l.cacheTTL > 0 {
		if cached, err := l.cache.Get([]byte(tracksCacheKey)); err == nil {
			if err := json.Unmarshal(cached, &tracks); err == nil {
				span.SetAttributes(attribute.Bool("cached", true))
				return tracks, nil
			}
			log.Errorf("unmarshal cached audio tracks: %s", err)
		}
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read audio dir: %w", err)
	}

	tracks = []Track{}
	for _, entry := range entries {
		if entry.IsDir() || !IsTrackFile(entry.Name()) {
			continue
		}
		tracks = append(tracks, NewTrack(entry.Name()))
	}
	sort.SliceStable(tracks, func(i, j int) bool {
		return lessFold(tracks[i].File, tracks[j].File)
	})

	if l.cacheTTL > 0 {
		if tracksJson, err := json.Marshal(tracks); err != nil {
			log.Errorf("marshal audio tracks for cache: %s", err)
		} else if err := l.cache.Set([]byte(tracksCacheKey), tracksJson, int(l.cacheTTL.Seconds())); err != nil {
			log.Errorf("set audio tracks cache: %s", err)
		}
	}

	log.Debugf("listed %d audio tracks in %s", len(tracks), l.dir)
	return tracks, nil
}

// Open returns the named track file. Only base names with a track
// extension are accepted.
func (l *Library) Open(name string) (*os.File, os.FileInfo, error) {
	if name == "" || name != filepath.Base(name) || !IsTrackFile(name) {
		return nil, nil, fmt.Errorf("%w: %q", ErrNotTrack, name)
	}

	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: %q is a directory", ErrNotTrack, name)
	}
	return f, info, nil
}

func IsTrackFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func NewTrack(file string) Track {
	return Track{
		Name: DisplayName(file),
		URL:  "/audio/" + escapeComponent(file),
		File: file,
	}
}

// DisplayName turns "my_song-name%20v2.mp3" into "my song name v2".
func DisplayName(file string) string {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	name := separatorsRegex.ReplaceAllString(base, " ")
	name = strings.TrimSpace(spacesRegex.ReplaceAllString(name, " "))
	if name == "" {
		return file
	}
	return name
}

// componentUnescaper restores the characters QueryEscape encodes but a URI
// component may carry as is.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
