package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ogg1996/ggdevlog/internal/activity"
	"github.com/ogg1996/ggdevlog/internal/auth"
	"github.com/ogg1996/ggdevlog/internal/board"
	"github.com/ogg1996/ggdevlog/internal/config"
	"github.com/ogg1996/ggdevlog/internal/db"
	"github.com/ogg1996/ggdevlog/internal/images"
	"github.com/ogg1996/ggdevlog/internal/introduce"
	"github.com/ogg1996/ggdevlog/internal/middleware"
	"github.com/ogg1996/ggdevlog/internal/post"
	"github.com/ogg1996/ggdevlog/internal/telemetry/metrics"
	"github.com/ogg1996/ggdevlog/internal/telemetry/tracing"
	"github.com/ogg1996/ggdevlog/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient *redis.Client
	admin       *auth.Admin
	tokenIssuer *auth.TokenIssuer

	imageStore     images.Store
	introduceStore *introduce.FileStore
	activityStore  *activity.FileStore

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	JWTSecret               string
	AdminPasswordHash       string
	GithubAPIToken          string
	SupabaseServiceKey      string
	PostgresPassword        string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		DBPassword:     params.PostgresPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "ggdevlog-backend", rdb)
	if err != nil {
		return nil, err
	}

	tokenIssuer, err := auth.NewTokenIssuer(params.JWTSecret, auth.DefaultTTL)
	if err != nil {
		return nil, fmt.Errorf("new token issuer: %w", err)
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   time.Duration(params.Config.ImageStoreTimeoutSeconds) * time.Second,
	}

	imageStore, err := newImageStore(params, tracedHttpClient)
	if err != nil {
		return nil, fmt.Errorf("new image store: %w", err)
	}

	introduceStore, err := introduce.NewFileStore(params.Config.IntroduceFilePath)
	if err != nil {
		return nil, fmt.Errorf("new introduce store: %w", err)
	}

	activityStore, err := activity.NewFileStore(params.Config.ActivityFilePath)
	if err != nil {
		return nil, fmt.Errorf("new activity store: %w", err)
	}

	return &Server{
		config:      params.Config,
		versionInfo: params.VersionInfo,
		dbPool:      dbPool,

		redisClient: rdb,
		admin:       &auth.Admin{PasswordHash: params.AdminPasswordHash},
		tokenIssuer: tokenIssuer,

		imageStore:     imageStore,
		introduceStore: introduceStore,
		activityStore:  activityStore,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func newImageStore(params NewServerParams, httpClient *http.Client) (images.Store, error) {
	switch params.Config.ImageStoreBackend {
	case "github":
		if params.GithubAPIToken == "" {
			return nil, errors.New("github image store: api token missing")
		}
		return images.NewGithubStore(images.NewGithubStoreParams{
			HTTPClient: httpClient,
			Owner:      params.Config.GithubOwner,
			Repo:       params.Config.GithubRepo,
			Branch:     params.Config.GithubBranch,
			Token:      params.GithubAPIToken,
		}), nil
	case "supabase":
		if params.SupabaseServiceKey == "" {
			return nil, errors.New("supabase image store: service key missing")
		}
		return images.NewSupabaseStore(images.NewSupabaseStoreParams{
			HTTPClient: httpClient,
			ProjectURL: params.Config.SupabaseProjectURL,
			Bucket:     params.Config.SupabaseBucket,
			ServiceKey: params.SupabaseServiceKey,
		}), nil
	default:
		return nil, fmt.Errorf("unknown image store backend: %s", params.Config.ImageStoreBackend)
	}
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)

	authHandler := auth.NewHandler(auth.NewHandlerParams{
		Admin:       s.admin,
		TokenIssuer: s.tokenIssuer,
		Throttle: auth.NewLoginThrottle(
			reqRateLimiter,
			s.config.LoginMaxAttempts,
			time.Duration(s.config.LoginAttemptsWindowMinutes)*time.Minute,
		),
		CookieSecure: s.config.SessionCookieSecure,
		Instr:        s.metricsManager,
	})
	authRouter := r.PathPrefix("/auth").Subrouter()
	authHandler.SetupRoutes(authRouter)
	// a coarse per-router cap on top of the per-client login throttle
	authRouter.Use(middleware.RateLimit(
		reqRateLimiter,
		"auth-router",
		s.config.AuthRequestsAllowedPerMin,
		s.metricsManager,
	))

	boardHandler := board.NewHandler(board.NewRepo(s.dbPool))
	boardHandler.SetupRoutes(r.PathPrefix("/board").Subrouter())

	postRepo := post.NewRepo(s.dbPool)
	postHandler := post.NewHandler(
		postRepo,
		post.NewService(postRepo, s.imageStore, s.metricsManager),
	)
	postHandler.SetupRoutes(r.PathPrefix("/post").Subrouter())

	imagesHandler := images.NewHandler(s.imageStore, s.metricsManager)
	imagesHandler.SetupRoutes(r.PathPrefix("/img").Subrouter())

	introduceHandler := introduce.NewHandler(s.introduceStore)
	introduceHandler.SetupRoutes(r.PathPrefix("/introduce").Subrouter())

	activityHandler := activity.NewHandler(s.activityStore, s.metricsManager)
	activityHandler.SetupRoutes(r.PathPrefix("/activity").Subrouter())

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
	}).Methods("GET", "OPTIONS").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	accessGate := middleware.NewAccessGateHandler(s.tokenIssuer)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(accessGate.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
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

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
