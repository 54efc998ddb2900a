package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inferd/internal/common/fsutil"
	"inferd/internal/config"
	"inferd/internal/httpapi"
	"inferd/pkg/serving"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var (
		addr        string
		metricsAddr string
		repo        string
		cfgPath     string
		logLevel    string
		queueDepth  int
	)
	root := &cobra.Command{
		Use:           "inferd",
		Short:         "Inference serving daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Config{
				Addr:            addr,
				MetricsAddr:     metricsAddr,
				ModelRepository: repo,
				QueueDepth:      queueDepth,
				LogLevel:        logLevel,
			}
			if cfgPath != "" {
				loaded, err := config.Load(cfgPath)
				if err != nil {
					return err
				}
				// Flags take precedence over file values only when set.
				if !cmd.Flags().Changed("addr") && loaded.Addr != "" {
					cfg.Addr = loaded.Addr
				}
				if !cmd.Flags().Changed("metrics-addr") && loaded.MetricsAddr != "" {
					cfg.MetricsAddr = loaded.MetricsAddr
				}
				if !cmd.Flags().Changed("model-repository") && loaded.ModelRepository != "" {
					cfg.ModelRepository = loaded.ModelRepository
				}
				if !cmd.Flags().Changed("queue-depth") && loaded.QueueDepth != 0 {
					cfg.QueueDepth = loaded.QueueDepth
				}
				if !cmd.Flags().Changed("log-level") && loaded.LogLevel != "" {
					cfg.LogLevel = loaded.LogLevel
				}
			}
			return run(cfg)
		},
	}
	root.Flags().StringVar(&addr, "addr", envOr("INFERD_ADDR", ":8000"), "HTTP listen address")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", envOr("INFERD_METRICS_ADDR", ""), "Optional separate listen address for /metrics")
	root.Flags().StringVar(&repo, "model-repository", envOr("INFERD_MODEL_REPOSITORY", "~/models"), "Model repository directory")
	root.Flags().StringVar(&cfgPath, "config", "", "Optional config file (.yaml/.json/.toml)")
	root.Flags().StringVar(&logLevel, "log-level", envOr("INFERD_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	root.Flags().IntVar(&queueDepth, "queue-depth", 0, "Per-model pending request queue depth (0 = default)")
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(cfg config.Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	repo, err := fsutil.ExpandHome(cfg.ModelRepository)
	if err != nil {
		return err
	}
	if !fsutil.IsDir(repo) {
		return fmt.Errorf("model repository %q is not a directory", cfg.ModelRepository)
	}

	opts := serving.NewOptions()
	opts.SetModelRepository(cfg.ModelRepository)
	opts.SetQueueDepth(cfg.QueueDepth)
	opts.SetLogger(log)

	server, ferr := serving.New(opts)
	if ferr != nil {
		log.Error().Str("code", ferr.Code().String()).Msg(ferr.Message())
		return ferr
	}
	defer server.Close()

	httpapi.SetLogger(log)
	mux := httpapi.NewMux(server)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	// Metrics may be served on a dedicated port, away from the API address.
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" && cfg.MetricsAddr != cfg.Addr {
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("metrics server error")
			}
		}()
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("repository", cfg.ModelRepository).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("metrics shutdown error")
		}
	}
	return nil
}
