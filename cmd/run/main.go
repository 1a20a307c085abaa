// Command run executes a WASI command module.
//
//	run [flags] module.wasm [args...]
//
// Guest arguments follow the module path. Flags override the values of
// an optional --config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasi-common/config"
	"github.com/wippyai/wasi-common/engine"
	"github.com/wippyai/wasi-common/snapshots"
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

type options struct {
	configPath string
	logLevel   string
	stdin      string
	snapshots  []string
	dirs       []string
	env        []string
	stats      bool
}

func run(argv []string) (int, error) {
	var o options
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.StringVarP(&o.configPath, "config", "c", "", "YAML or JSONC context configuration")
	flags.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&o.stdin, "stdin", "", "stdin source: inherit, null, file:<path> or text:<data>")
	flags.StringSliceVar(&o.snapshots, "snapshot", nil, "register only these snapshots (wasi_unstable, wasi_snapshot_preview1)")
	flags.StringArrayVar(&o.dirs, "dir", nil, "copy a host directory into a guest mount, host[:guest]")
	flags.StringArrayVarP(&o.env, "env", "e", nil, "guest environment variable, KEY=VALUE")
	flags.BoolVar(&o.stats, "stats", false, "print per-function call statistics to stderr")
	flags.SetInterspersed(false)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: run [flags] <module.wasm> [args...]")
		flags.PrintDefaults()
	}

	if err := flags.Parse(argv); err != nil {
		if err == pflag.ErrHelp {
			return 0, nil
		}
		return 2, err
	}
	rest := flags.Args()
	if len(rest) == 0 {
		flags.Usage()
		return 2, fmt.Errorf("missing module path")
	}

	cfg, err := o.config(rest)
	if err != nil {
		return 2, err
	}

	logger, err := newLogger(cfg.LogLevel())
	if err != nil {
		return 1, fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	engine.SetLogger(logger.Named("engine"))
	snapshots.SetLogger(logger.Named("wasi"))

	wasm, err := os.ReadFile(rest[0])
	if err != nil {
		return 1, fmt.Errorf("read module: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var stats *engine.Stats
	if o.stats {
		stats = engine.NewStats()
	}
	e, err := engine.New(ctx, &engine.Config{
		Stats:              stats,
		Snapshots:          cfg.Snapshots,
		CloseOnContextDone: true,
	})
	if err != nil {
		return 1, fmt.Errorf("create engine: %w", err)
	}
	defer e.Close(context.Background())

	b, streams, err := cfg.Builder(config.OSStdio())
	if err != nil {
		return 1, err
	}
	defer streams.Close()
	c, err := b.WithLogger(logger.Named("ctx")).Build()
	if err != nil {
		return 1, fmt.Errorf("build context: %w", err)
	}

	code, runErr := e.Run(ctx, wasm, c)
	if err := c.Close(context.Background()); err != nil {
		logger.Warn("close context", zap.Error(err))
	}

	if out := streams.Stdout; out != nil && len(out.Bytes()) > 0 {
		fmt.Printf("\n--- stdout ---\n%s", out.Bytes())
	}
	if out := streams.Stderr; out != nil && len(out.Bytes()) > 0 {
		fmt.Printf("\n--- stderr ---\n%s", out.Bytes())
	}
	if stats != nil {
		fmt.Fprintln(os.Stderr, renderStats(stats.Snapshot()))
	}

	switch {
	case ctx.Err() != nil:
		logger.Info("interrupted")
		return interruptStatus, nil
	case runErr != nil:
		logger.Error("guest trapped", zap.String("module", rest[0]), zap.Error(runErr))
		return abortStatus, runErr
	}
	logger.Debug("guest exited", zap.Uint32("code", code))
	return exitStatus(code), nil
}

// config loads the --config file, if any, and applies flag overrides.
func (o *options) config(rest []string) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(cfg.Args) == 0 || len(rest) > 1 {
		cfg.Args = rest
	}
	for _, kv := range o.env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--env %q: want KEY=VALUE", kv)
		}
		if cfg.Env == nil {
			cfg.Env = make(map[string]string)
		}
		cfg.Env[k] = v
	}
	for _, d := range o.dirs {
		host, guest, ok := strings.Cut(d, ":")
		if !ok {
			guest = host
		}
		cfg.Mounts = append(cfg.Mounts, config.Mount{Guest: guest, Seed: host, Backend: config.BackendMemory})
	}
	if o.stdin != "" {
		cfg.Stdin = o.stdin
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if len(o.snapshots) > 0 {
		cfg.Snapshots = o.snapshots
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
