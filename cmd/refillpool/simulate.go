package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/refillpool/internal/rtsim"
	"github.com/ajitpratap0/refillpool/pkg/bufpool"
	"github.com/ajitpratap0/refillpool/pkg/config"
	"github.com/ajitpratap0/refillpool/pkg/logger"
	"github.com/ajitpratap0/refillpool/pkg/metrics"
	"github.com/ajitpratap0/refillpool/pkg/observability"
	"github.com/ajitpratap0/refillpool/pkg/refill"
)

const envPrefix = "REFILLPOOL"

// simulateOutput is what the simulate command prints
type simulateOutput struct {
	Pool     string       `json:"pool"`
	Report   rtsim.Report `json:"report"`
	RSSBytes uint64       `json:"rss_bytes,omitempty"`
	Err      string       `json:"refill_error,omitempty"`
}

func newSimulateCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a buffer pool with a simulated real-time callback",
		Long: `Simulate builds a refilling buffer pool and drives it with a periodic
callback that takes buffers, holds them for a few periods and releases them.

Every flag can also be set through a REFILLPOOL_ prefixed environment variable,
for example REFILLPOOL_CAPACITY=128. Flags and environment override --config.

Example:
  refillpool simulate --capacity 64 --low-water-mark 16 --period 5ms --cycles 2000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(v)
			if err != nil {
				return err
			}
			return runSimulation(cmd.Context(), cmd, v, cfg)
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.String("config", "", "Path to a YAML pool configuration file")
	flags.String("name", defaults.Name, "Pool name used in logs and metrics")
	flags.Int("capacity", defaults.Pool.Capacity, "Number of pre-built buffers kept queued")
	flags.Int("low-water-mark", defaults.Pool.LowWaterMark, "Queue length at or below which a refill starts")
	flags.Int("buffer-size", defaults.Pool.BufferSize, "Size of each buffer in bytes")
	flags.Duration("period", defaults.Simulation.Period, "Callback interval")
	flags.Int("buffers-per-cycle", defaults.Simulation.BuffersPerCycle, "Buffers taken per callback")
	flags.Int("hold-cycles", defaults.Simulation.HoldCycles, "Callbacks a buffer is held before release")
	flags.Int("cycles", defaults.Simulation.Cycles, "Callbacks to run (0 runs until interrupted)")
	flags.String("log-level", defaults.Logging.Level, "Log level (debug, info, warn, error)")
	flags.String("log-encoding", defaults.Logging.Encoding, "Log encoding (json, console)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	flags.String("otlp-endpoint", "", "Push OpenTelemetry metrics to this OTLP/HTTP collector")
	flags.Bool("otlp-insecure", false, "Use plain HTTP for the OTLP exporter")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

// resolveConfig layers defaults, the optional config file, then any flag or
// environment value that was explicitly set.
func resolveConfig(v *viper.Viper) (*config.PoolConfig, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v.IsSet("name") {
		cfg.Name = v.GetString("name")
	}
	if v.IsSet("capacity") {
		cfg.Pool.Capacity = v.GetInt("capacity")
	}
	if v.IsSet("low-water-mark") {
		cfg.Pool.LowWaterMark = v.GetInt("low-water-mark")
	}
	if v.IsSet("buffer-size") {
		cfg.Pool.BufferSize = v.GetInt("buffer-size")
	}
	if v.IsSet("period") {
		cfg.Simulation.Period = v.GetDuration("period")
	}
	if v.IsSet("buffers-per-cycle") {
		cfg.Simulation.BuffersPerCycle = v.GetInt("buffers-per-cycle")
	}
	if v.IsSet("hold-cycles") {
		cfg.Simulation.HoldCycles = v.GetInt("hold-cycles")
	}
	if v.IsSet("cycles") {
		cfg.Simulation.Cycles = v.GetInt("cycles")
	}
	if v.IsSet("log-level") {
		cfg.Logging.Level = v.GetString("log-level")
	}
	if v.IsSet("log-encoding") {
		cfg.Logging.Encoding = v.GetString("log-encoding")
	}
	if addr := v.GetString("metrics-addr"); addr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(parent context.Context, cmd *cobra.Command, v *viper.Viper, cfg *config.PoolConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.Logging.Development,
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.With(zap.String("pool", cfg.Name))

	bp, err := bufpool.NewBufferPool(cfg.Pool.Capacity, cfg.Pool.LowWaterMark, cfg.Pool.BufferSize,
		refill.WithLogger(logger.Get()),
		refill.WithName(cfg.Name),
		refill.WithRetryBackoff(cfg.Retry.Initial, cfg.Retry.Max))
	if err != nil {
		return err
	}
	defer bp.Close()

	if cfg.Metrics.Enabled {
		shutdown, err := serveMetrics(cfg, bp, log)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	if endpoint := v.GetString("otlp-endpoint"); endpoint != "" {
		mp, err := observability.NewMeterProvider(ctx, observability.ExporterConfig{
			Endpoint:       endpoint,
			Insecure:       v.GetBool("otlp-insecure"),
			ServiceVersion: version,
		})
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mp.Shutdown(shutdownCtx); err != nil {
				log.Warn("failed to flush OpenTelemetry metrics", zap.Error(err))
			}
		}()
		if _, err := observability.ObservePool(mp.Meter("refillpool"), cfg.Name, bp); err != nil {
			return fmt.Errorf("register pool instruments: %w", err)
		}
	}

	log.Info("starting simulation",
		zap.Int("capacity", cfg.Pool.Capacity),
		zap.Int("low_water_mark", cfg.Pool.LowWaterMark),
		zap.Duration("period", cfg.Simulation.Period),
		zap.Int("cycles", cfg.Simulation.Cycles))

	sim := rtsim.New(bp, rtsim.Config{
		Period:          cfg.Simulation.Period,
		BuffersPerCycle: cfg.Simulation.BuffersPerCycle,
		HoldCycles:      cfg.Simulation.HoldCycles,
		Cycles:          cfg.Simulation.Cycles,
	}, logger.Get())

	report, runErr := sim.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	out := simulateOutput{Pool: cfg.Name, Report: report, RSSBytes: residentSetSize(log)}
	if err := bp.Err(); err != nil {
		out.Err = err.Error()
	}

	data, err := gojson.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// serveMetrics exposes the pool collector and Go runtime metrics on /metrics.
func serveMetrics(cfg *config.PoolConfig, src metrics.StatsSource, log *zap.Logger) (func(), error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewPoolCollector(cfg.Metrics.Namespace, cfg.Name, src)); err != nil {
		return nil, fmt.Errorf("register pool collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("serving metrics", zap.String("address", cfg.Metrics.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// residentSetSize reports the RSS of this process, or 0 if it is unavailable.
func residentSetSize(log *zap.Logger) uint64 {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Debug("process info unavailable", zap.Error(err))
		return 0
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		log.Debug("memory info unavailable", zap.Error(err))
		return 0
	}
	return mem.RSS
}
