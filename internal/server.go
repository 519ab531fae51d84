package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittrack/internal/audio"
	"github.com/2beens/fittrack/internal/catalog"
	"github.com/2beens/fittrack/internal/config"
	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/internal/docstore"
	"github.com/2beens/fittrack/internal/middleware"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/tracker"
	"github.com/2beens/fittrack/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
)

const serviceName = "fittrack-backend"

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config       *config.Config
	dbPool       *pgxpool.Pool
	storeHandle  *docstore.Handle
	redisClient  *redis.Client
	catalog      *catalog.Catalog
	audioLibrary *audio.Library
	now          func() time.Time

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	PostgresUser            string
	PostgresPassword        string
	HoneycombTracingEnabled bool
	// Now is the clock used for the current week, time.Now if nil.
	Now func() time.Time
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	var (
		dbPool     *pgxpool.Pool
		collectors []prometheus.Collector
	)
	if cfg.StoreDriver == config.StoreDriverPostgres {
		var err error
		dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         params.PostgresUser,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	}

	promRegistry := metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager("fittrack", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	var rdb *redis.Client
	if cfg.RedisHost != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})

		rdbStatus := rdb.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	} else if cfg.StoreDriver == config.StoreDriverRedis {
		return nil, errors.New("redis store driver needs redis_host")
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, serviceName, rdb)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.CatalogPath, cfg.RestDays)
	if err != nil {
		return nil, fmt.Errorf("load exercise catalog: %w", err)
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Server{
		config: cfg,
		dbPool: dbPool,
		storeHandle: docstore.NewHandle(
			storeOpener(cfg, dbPool, rdb),
			docstore.StatusDocID, docstore.WeightsDocID,
		),
		redisClient:  rdb,
		catalog:      cat,
		audioLibrary: audio.NewLibrary(cfg.AudioDir, time.Duration(cfg.AudioCacheTTLSeconds)*time.Second),
		now:          now,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

// storeOpener returns the connect func of the configured driver. The
// connection itself is made on first use by the store handle.
func storeOpener(cfg *config.Config, dbPool *pgxpool.Pool, rdb *redis.Client) docstore.Opener {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		return func(ctx context.Context) (docstore.Store, error) {
			return docstore.NewPostgresStore(ctx, dbPool)
		}
	case config.StoreDriverRedis:
		return func(_ context.Context) (docstore.Store, error) {
			return docstore.NewRedisStore(rdb, cfg.RedisKeyPrefix), nil
		}
	case config.StoreDriverMemory:
		return func(_ context.Context) (docstore.Store, error) {
			log.Warnln("using in-memory document store, state is lost on restart")
			return docstore.NewMemoryStore(), nil
		}
	default:
		return func(ctx context.Context) (docstore.Store, error) {
			return docstore.NewMongoStore(ctx, docstore.MongoParams{
				URI:        cfg.MongoURI,
				Database:   cfg.MongoDB,
				Collection: cfg.MongoCollection,
			})
		}
	}
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("fittrack-router"))

	trackerHandler := tracker.NewHandler(
		tracker.NewService(s.storeHandle, s.catalog, s.metricsManager),
		s.catalog,
		s.now,
	)

	var writeMiddleware []func(http.Handler) http.Handler
	if s.redisClient != nil && s.config.WriteRateLimitPerMin > 0 {
		reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
		writeMiddleware = append(writeMiddleware, middleware.RateLimitWithReject(
			reqRateLimiter,
			"writes",
			s.config.WriteRateLimitPerMin,
			s.metricsManager,
			trackerHandler.RejectRateLimited,
		))
	}

	trackerHandler.SetupRoutes(r, writeMiddleware...)

	audioHandler := audio.NewHandler(s.audioLibrary)
	audioHandler.SetupRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "ok")
	}).Methods("GET").Name("health")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

// GracefulShutdown stops accepting requests, waits up to 15 seconds for
// the in-flight ones, and then closes the store and redis connections.
func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown http server: %w", shutdownErr))
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if shutdownErr := s.metricsHttpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown metrics http server: %w", shutdownErr))
		}
		log.Warnln("metrics server shut down")
	}

	log.Debugln("closing document store ...")
	if closeErr := s.storeHandle.Close(ctx); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("close document store: %w", closeErr))
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation, no-op if the store closed it already
		log.Debugln("db pool closed")
	}

	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close redis client: %w", closeErr))
		}
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	return err
}
