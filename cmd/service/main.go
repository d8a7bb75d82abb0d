package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/ogg1996/ggdevlog/internal"
	"github.com/ogg1996/ggdevlog/internal/config"
	"github.com/ogg1996/ggdevlog/internal/logging"
	"github.com/ogg1996/ggdevlog/pkg"

	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    false,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "ggdevlog-service",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	// running without auth secrets would leave the admin surface wide open,
	// so refuse to start instead of falling back to defaults
	jwtSecret := os.Getenv("GGDEVLOG_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatalf("jwt secret not set, use GGDEVLOG_JWT_SECRET env var to set it")
	}

	adminPasswordHash := os.Getenv("GGDEVLOG_ADMIN_PASSWORD_HASH")
	if adminPasswordHash == "" {
		log.Fatalf("admin password hash not set, use GGDEVLOG_ADMIN_PASSWORD_HASH env var to set it")
	}

	githubAPIToken := os.Getenv("GGDEVLOG_GITHUB_API_TOKEN")
	supabaseServiceKey := os.Getenv("GGDEVLOG_SUPABASE_SERVICE_KEY")
	switch cfg.ImageStoreBackend {
	case "github":
		if githubAPIToken == "" {
			log.Fatalf("github image store selected, set its token via GGDEVLOG_GITHUB_API_TOKEN env var")
		}
	case "supabase":
		if supabaseServiceKey == "" {
			log.Fatalf("supabase image store selected, set its service key via GGDEVLOG_SUPABASE_SERVICE_KEY env var")
		}
	default:
		log.Fatalf("unknown image store backend [%s] in config", cfg.ImageStoreBackend)
	}

	postgresPassword := os.Getenv("GGDEVLOG_POSTGRES_PASS")
	if postgresPassword == "" {
		log.Warnln("postgres password not set, connecting without one (GGDEVLOG_POSTGRES_PASS)")
	}

	redisPassword := os.Getenv("GGDEVLOG_REDIS_PASS")
	if redisPassword == "" {
		log.Warnln("redis password not set, connecting without one (GGDEVLOG_REDIS_PASS)")
	}

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             versionInfo,
			JWTSecret:               jwtSecret,
			AdminPasswordHash:       adminPasswordHash,
			GithubAPIToken:          githubAPIToken,
			SupabaseServiceKey:      supabaseServiceKey,
			PostgresPassword:        postgresPassword,
			RedisPassword:           redisPassword,
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, shutting down ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return pkg.BytesToString(stdout), nil
}
