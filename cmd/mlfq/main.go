package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mlfq/internal/job"
	"mlfq/internal/sched"
)

var (
	flagConfig    string
	flagAlgorithm string
	flagCSV       string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mlfq",
		Short:        "Multi-level run-queue scheduler simulator",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newAlgorithmsCmd())
	return root
}

func newAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the registered scheduling algorithms",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range sched.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured tasks under a scheduling algorithm",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Read the configuration
			cfg, err := sched.Load(flagConfig)
			if err != nil {
				return err
			}
			if flagAlgorithm != "" {
				cfg.Algorithm = flagAlgorithm
			}
			if flagCSV != "" {
				cfg.CSVPath = flagCSV
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&flagConfig, "config", "c", "config.yml", "path to the YAML config")
	cmd.Flags().StringVarP(&flagAlgorithm, "algorithm", "a", "", "algorithm to run (overrides config)")
	cmd.Flags().StringVar(&flagCSV, "csv", "", "write events to this CSV file (overrides config)")
	return cmd
}

func run(ctx context.Context, cfg sched.Config) error {
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	algo, err := sched.New(cfg.Algorithm)
	if err != nil {
		return err
	}

	s := sched.NewScheduler(cfg, algo, log)
	if cfg.CSVPath != "" {
		if err := s.EnableCSVLogging(cfg.CSVPath); err != nil {
			return fmt.Errorf("csv log: %w", err)
		}
	}
	var reg *prometheus.Registry
	if cfg.MetricsAddr != "" {
		reg = prometheus.NewRegistry()
		m, err := sched.NewMetrics(reg, algo.Name())
		if err != nil {
			return err
		}
		s.EnableMetrics(m)
	}

	for _, tc := range cfg.Tasks {
		class, err := sched.ParseClass(tc.Class)
		if err != nil {
			return err
		}
		t := sched.NewTask(sched.EntityID(tc.ID), class, job.BlockingWork(tc.WorkMS, tc.BlockEveryMS))
		if err := s.Add(t); err != nil {
			return err
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if reg != nil {
		go func() {
			if err := serveMetrics(ctx, cfg.MetricsAddr, reg); err != nil {
				log.Error("metrics server", zap.Error(err))
			}
		}()
	}

	log.Info("starting scheduler",
		zap.String("algorithm", algo.Name()),
		zap.Int("tasks", len(cfg.Tasks)),
		zap.Stringer("run_id", s.RunID()),
	)
	return s.Run(ctx)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// serveMetrics serves reg on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
