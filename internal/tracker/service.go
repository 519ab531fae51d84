package tracker

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/2beens/fittrack/internal/catalog"
	"github.com/2beens/fittrack/internal/docstore"
	"github.com/2beens/fittrack/internal/schedule"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=tracker_test

type documentStore interface {
	Fetch(ctx context.Context, ids ...string) (map[string]docstore.Document, error)
	SetPath(ctx context.Context, id string, path []string, value any) error
}

type CompletionRequest struct {
	Week      string
	Day       string
	Key       string
	Completed bool
}

type WeightRequest struct {
	Day     string
	Key     string
	Weights *WeightPair
}

type Service struct {
	store          documentStore
	catalog        *catalog.Catalog
	metricsManager *metrics.Manager
}

func NewService(
	store documentStore,
	catalog *catalog.Catalog,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		store:          store,
		catalog:        catalog,
		metricsManager: metricsManager,
	}
}

// ReadState returns the completion flags (per week) and the weights (global,
// normalized). It never fails hard: on store errors both maps are empty and
// the failure is reported next to them.
func (s *Service) ReadState(ctx context.Context) StateResult {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.tracker.readstate")
	defer span.End()

	docs, err := s.store.Fetch(ctx, docstore.StatusDocID, docstore.WeightsDocID)
	if err != nil {
		log.Errorf("read state: %s", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metricsManager.CounterStateReadFailures.Inc()
		return StateResult{
			Status:  map[string]any{},
			Weights: map[string]any{},
			Failure: storeFailure(err),
		}
	}

	status := map[string]any(docs[docstore.StatusDocID])
	if status == nil {
		status = map[string]any{}
	}

	rawWeights := map[string]any(docs[docstore.WeightsDocID])
	shape := Classify(rawWeights)
	span.SetAttributes(attribute.String("weights.shape", string(shape)))
	switch shape {
	case ShapeLegacy:
		log.Debugf("read state: merging legacy per-week weights (%d top level keys)", len(rawWeights))
		s.metricsManager.CounterLegacyWeightReads.Inc()
	case ShapeUnrecognized:
		keys := make([]string, 0, len(rawWeights))
		for k := range rawWeights {
			keys = append(keys, k)
		}
		log.Warnf("read state: weights document has neither day nor week keys, returning no weights. keys: %v", keys)
		s.metricsManager.CounterUnrecognizedWeightDocs.Inc()
	}

	return StateResult{
		Status:  status,
		Weights: Normalize(rawWeights),
	}
}

// SetCompletion sets status.{week}.{day}.{key} = completed. Writing the same
// value twice leaves the document unchanged; different keys never overwrite
// each other.
func (s *Service) SetCompletion(ctx context.Context, req CompletionRequest) WriteResult {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.tracker.setcompletion")
	defer span.End()
	span.SetAttributes(
		attribute.String("week", req.Week),
		attribute.String("day", req.Day),
		attribute.String("key", req.Key),
		attribute.Bool("completed", req.Completed),
	)

	if req.Week == "" || req.Day == "" || req.Key == "" {
		return s.failed(span, "completion", validationFailure("missing fields: week, day and key are required"))
	}

	path := []string{req.Week, req.Day, req.Key}
	if failure := s.setPath(ctx, docstore.StatusDocID, path, req.Completed); failure != nil {
		return s.failed(span, "completion", failure)
	}

	s.metricsManager.CounterCompletionWrites.Inc()
	return WriteResult{}
}

// SetWeight sets weights.{day}.{key} to the sanitized pair. Weights are not
// kept per week, only the latest value per day and exercise.
func (s *Service) SetWeight(ctx context.Context, req WeightRequest) WriteResult {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.tracker.setweight")
	defer span.End()
	span.SetAttributes(
		attribute.String("day", req.Day),
		attribute.String("key", req.Key),
	)

	if req.Day == "" || req.Key == "" || req.Weights == nil {
		return s.failed(span, "weight", validationFailure("missing fields: day, key and weights are required"))
	}

	pair := req.Weights.Sanitized()
	if failure := s.setPath(ctx, docstore.WeightsDocID, []string{req.Day, req.Key}, pair); failure != nil {
		return s.failed(span, "weight", failure)
	}

	s.metricsManager.CounterWeightWrites.Inc()
	return WriteResult{}
}

func (s *Service) setPath(ctx context.Context, id string, path []string, value any) *Failure {
	if err := docstore.ValidatePath(path); err != nil {
		return validationFailure(err.Error())
	}
	if err := s.store.SetPath(ctx, id, path, value); err != nil {
		if errors.Is(err, docstore.ErrInvalidPath) {
			return validationFailure(err.Error())
		}
		log.Errorf("set %s %v: %s", id, path, err)
		return storeFailure(err)
	}
	return nil
}

func (s *Service) failed(span trace.Span, operation string, failure *Failure) WriteResult {
	span.SetStatus(codes.Error, failure.Error())
	s.metricsManager.CounterWriteFailures.With(prometheus.Labels{
		"operation": operation,
		"kind":      string(failure.Kind),
	}).Inc()
	return WriteResult{Failure: failure}
}

// WeekProgress counts completed catalog exercises of the week, rest days
// excluded. Flags for indexes outside the catalog are ignored.
func (s *Service) WeekProgress(ctx context.Context, week schedule.WeekInfo) ProgressResult {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.tracker.weekprogress")
	defer span.End()
	span.SetAttributes(attribute.String("week", week.Key))

	progress := Progress{WeekInfo: week}

	docs, err := s.store.Fetch(ctx, docstore.StatusDocID)
	if err != nil {
		log.Errorf("week progress: %s", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metricsManager.CounterStateReadFailures.Inc()
		return ProgressResult{Progress: progress, Failure: storeFailure(err)}
	}

	weekStatus, _ := docs[docstore.StatusDocID][week.Key].(map[string]any)
	for _, day := range schedule.Days {
		if s.catalog.IsRest(day) {
			continue
		}
		exercises := s.catalog.Exercises(day)
		progress.Total += len(exercises)

		dayStatus, _ := weekStatus[day].(map[string]any)
		for _, ex := range exercises {
			if done, _ := dayStatus[strconv.Itoa(ex.Index)].(bool); done {
				progress.Completed++
			}
		}
	}

	if progress.Total > 0 {
		progress.Percentage = int(math.Round(float64(progress.Completed) / float64(progress.Total) * 100))
	}

	return ProgressResult{Progress: progress}
}
