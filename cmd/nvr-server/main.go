//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/edirooss/nvr-server/internal/config"
	"github.com/edirooss/nvr-server/internal/http/handler"
	mw "github.com/edirooss/nvr-server/internal/http/middleware"
	"github.com/edirooss/nvr-server/internal/infrastructure/metrics"
	"github.com/edirooss/nvr-server/internal/infrastructure/processmgr"
	"github.com/edirooss/nvr-server/internal/live"
	"github.com/edirooss/nvr-server/internal/recording"
	"github.com/edirooss/nvr-server/internal/redis"
	"github.com/edirooss/nvr-server/internal/service"
	"github.com/edirooss/nvr-server/pkg/ffmpegcmd"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := pflag.StringP("config", "c", config.DefaultPath, "path to nvr-server.yaml")
	envFile := pflag.String("env-file", ".env", "file with NVR_* overrides")
	showVersion := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Parse()

	// Handle version display
	if *showVersion {
		fmt.Printf("nvr-server %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}

	// Read env
	isDev := os.Getenv("ENV") == "dev"

	// Load config
	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if errors.Is(err, config.ErrNotFound) {
		if err := config.WriteExample(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write example config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("No config found. An example was written to %s; edit it and start again.\n", *configPath)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	sys := cfg.System

	// Create Zap logger
	log := buildLogger(sys.LogLevel)
	defer log.Sync()
	log = log.Named("main")

	// Storage and encoder must exist before anything is spawned
	layout := recording.Layout{Root: sys.StorageVolume}
	if err := layout.Prepare(cameraIDs(cfg)...); err != nil {
		log.Fatal("storage preparation failed", zap.Error(err))
	}
	if err := config.CheckExecutable(sys.FFmpegLocation); err != nil {
		log.Fatal("encoder check failed", zap.Error(err))
	}

	m := metrics.New()
	hub := live.NewHub()
	logmngr := processmgr.NewLogManager()

	hooks := []recording.Hook{recording.LogHook(log.Named("segments"))}
	if sys.RedisAddress != "" {
		rdb, err := redis.NewClient(sys.RedisAddress, 0, log)
		if err != nil {
			log.Fatal("redis client creation failed", zap.Error(err))
		}
		defer rdb.Close()
		hooks = append(hooks, redis.NewSegmentPublisher(log, rdb))
	}

	supervisor, err := service.NewSupervisor(log, cfg.Cameras, service.SupervisorOptions{
		Command: ffmpegcmd.Options{
			Binary:                sys.FFmpegLocation,
			RecordingsDir:         layout.RecordingsDir(),
			DefaultSegmentMinutes: sys.ContinuousSegTimeMinutes,
		},
		Launch:       service.ProcessLauncher(log),
		Hub:          hub,
		Logs:         logmngr,
		Metrics:      m,
		SegmentHooks: hooks,
	})
	if err != nil {
		log.Fatal("supervisor creation failed", zap.Error(err))
	}
	snapshotsvc, err := service.NewSnapshotService(log, cfg.Cameras, service.SnapshotServiceOptions{
		Binary:      sys.FFmpegLocation,
		Concurrency: sys.SnapshotConcurrency,
		Run:         service.SnapshotRunner,
		Metrics:     m,
	})
	if err != nil {
		log.Fatal("snapshot service creation failed", zap.Error(err))
	}
	authsvc, err := service.NewAuthService(log, service.AuthServiceOptions{
		Username:     sys.Username,
		PasswordHash: sys.Password,
		APIKeyHash:   sys.APIKey,
		CookieKey:    sys.CookieKey,
		SecureCookie: !isDev,
	})
	if err != nil {
		log.Fatal("auth service creation failed", zap.Error(err))
	}
	sysinfosvc := service.NewSystemInfoService(sys.StorageVolume)

	// Create Gin router
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer() // Configure Gin's logger to use Zap
	r := gin.New()

	// Apply Gin middlewares
	{
		r.Use(gin.Recovery()) // Recovery first (outermost)
		r.Use(mw.RequestID()) // Attach request ID for tracing; early in the chain so it's available everywhere

		if isDev { // Enable CORS for local web UI development
			r.Use(cors.New(cors.Config{
				AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:3000"},
				AllowMethods:     []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:     []string{"X-Request-ID", "Content-Type"},
				ExposeHeaders:    []string{"X-Request-ID", "X-Total-Count"},
				AllowCredentials: true, // Allow cookies in dev
				MaxAge:           12 * time.Hour,
			}))
		} else { // Behind a TLS reverse proxy
			r.SetTrustedProxies([]string{"127.0.0.1"})
			r.Use(secure.New(secure.Config{
				FrameDeny:          true,
				ContentTypeNosniff: true,
				SSLProxyHeaders: map[string]string{
					"X-Forwarded-Proto": "https", // Fix scheme for secure cookies
				},
			}))
		}

		r.Use(mw.RateLimit(100, 2*time.Second)) // 100 requests per 2s per client
		r.Use(authsvc.UserSession.Middleware()) // Attach user cookie-based session for auth
		r.Use(accessLog(log.Named("http"), authsvc))
		r.Use(mw.Metrics(m))
		r.Use(mw.LimitRequestBody(1 << 20))
	}

	// Register route handlers
	{
		requireSession := mw.RequireSession(authsvc)
		requireAPIKey := mw.RequireAPIKey(authsvc)
		requireCamera := mw.RequireKnownCamera(cfg.Cameras)

		usrsesshndler := handler.NewUserSessionsHandler(log, authsvc)
		camerashndlr := handler.NewCamerasHandler(log, cfg.Cameras, hub, logmngr)
		snapshothndlr := handler.NewSnapshotHandler(log, snapshotsvc)
		systemhndlr := handler.NewSystemHandler(log, sysinfosvc)
		segmentshndlr := handler.NewSegmentsHandler(log, layout)
		streamshndlr := handler.NewStreamsHandler(log, hub, handler.StreamsHandlerOptions{AnyOrigin: isDev})

		// --- Public endpoints (no auth) ---
		r.GET("/api/ping", handler.Ping)
		r.GET("/api/version", handler.Version)
		r.POST("/login", usrsesshndler.Login)
		r.POST("/logout", usrsesshndler.Logout)
		r.GET("/metrics", gin.WrapH(m.Handler(func() {
			for id, n := range hub.Viewers() {
				m.SetViewers(id, n)
			}
		})))

		// --- API key endpoints ---
		{
			keyed := r.Group("/api/:"+mw.APIKeyParam, requireAPIKey)
			keyed.GET("/systeminfo", systemhndlr.GetSystemInfo)
			keyed.GET("/cameras", camerashndlr.GetCameraList)
			keyed.GET("/snapshot/:id/:width", snapshothndlr.GetSnapshot)
		}

		// --- Session endpoints ---
		{
			authed := r.Group("", requireSession)
			authed.GET("/api/me", usrsesshndler.Me)
			authed.GET("/systeminfo", systemhndlr.GetSystemInfo)
			authed.GET("/snapshot/:id/:width", snapshothndlr.GetSnapshot)

			authed.GET("/api/cameras", camerashndlr.GetCameraList)
			authed.GET("/api/cameras/:id/status", requireCamera, camerashndlr.GetCameraStatus)
			authed.GET("/api/cameras/:id/logs", requireCamera, camerashndlr.GetCameraLogs)
			authed.GET("/api/cameras/:id/segments", requireCamera, segmentshndlr.GetSegmentList)

			authed.GET("/segments/:id/:file", requireCamera, segmentshndlr.GetSegmentFile)
			authed.GET("/streams/:id", requireCamera, mw.LimitConcurrentRequests(maxLiveViewers), streamshndlr.Stream)
		}

		// --- Web UI ---
		if sys.WebRoot != "" {
			web := r.Group("", gzip.Gzip(gzip.DefaultCompression))
			web.Static("/static", filepath.Join(sys.WebRoot, "static"))
			web.StaticFile("/", filepath.Join(sys.WebRoot, "index.html"))
			web.StaticFile("/dashboard", filepath.Join(sys.WebRoot, "dash.html"))
		}
	}

	httpsrv := &http.Server{
		Addr:              net.JoinHostPort(sys.Address, strconv.Itoa(sys.InterfacePort)),
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,  // kills header-drip Slowloris
		ReadTimeout:       10 * time.Second, // full request read (incl. body)
		WriteTimeout:      60 * time.Second, // snapshots and segment downloads; websockets clear it on upgrade
		IdleTimeout:       60 * time.Second, // keep-alive cap
		MaxHeaderBytes:    1 << 20,          // 1MB cap
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return supervisor.Run(ctx)
	})
	g.Go(func() error {
		log.Info("running HTTP server", zap.String("addr", httpsrv.Addr), zap.Int("cameras", len(cfg.Cameras)))
		if err := httpsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpsrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server closed")
}

const maxLiveViewers = 64

func cameraIDs(cfg *config.Config) []string {
	ids := make([]string, len(cfg.Cameras))
	for i, c := range cfg.Cameras {
		ids[i] = c.ID
	}
	return ids
}

// accessLog is a Gin middleware that records HTTP request/response details with Zap after handling.
func accessLog(log *zap.Logger, authsvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		// collect all errors from Gin context
		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		// errors.Join returns nil if errs is empty
		joinedErr := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("request_id", mw.GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", latency),
		}
		if p := authsvc.WhoAmI(c); p != nil {
			fields = append(fields, zap.Dict("auth",
				zap.String("id", p.ID),
				zap.String("kind", p.PrincipalType.String()),
				zap.String("credential", p.CredentialType.String()),
			))
		}
		if joinedErr != nil {
			fields = append(fields, zap.Error(joinedErr))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

// helpers

func buildLogger(level string) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	logConfig.Level.SetLevel(lvl)
	return zap.Must(logConfig.Build())
}
