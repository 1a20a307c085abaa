package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasi-common/clocks"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/internal/memfs"
	"github.com/wippyai/wasi-common/pipe"
	"github.com/wippyai/wasi-common/random"
	"github.com/wippyai/wasi-common/snapshots/preview0"
	"github.com/wippyai/wasi-common/snapshots/preview1"
	"github.com/wippyai/wasi-common/wasi"
)

// Stream sources and sinks.
const (
	StreamInherit = "inherit"
	StreamNull    = "null"
	StreamCapture = "capture"

	// StreamFile and StreamText prefix a stdin source: "file:<path>" reads
	// a host file, "text:<data>" yields data.
	StreamFile = "file:"
	StreamText = "text:"
)

// BackendMemory is the in-memory directory backend.
const BackendMemory = "memory"

// Config describes one guest execution context.
type Config struct {
	// Args are the guest's arguments, program name first.
	Args []string `yaml:"args" json:"args"`

	// Env is the guest environment. Variables are passed sorted by name.
	Env map[string]string `yaml:"env" json:"env"`

	// Stdin is inherit, null, file:<path> or text:<data>.
	Stdin string `yaml:"stdin" json:"stdin"`

	// Stdout and Stderr are inherit, null or capture.
	Stdout string `yaml:"stdout" json:"stdout"`
	Stderr string `yaml:"stderr" json:"stderr"`

	// Mounts are preopened in order, starting at handle 3.
	Mounts []Mount `yaml:"mounts" json:"mounts"`

	Random RandomConfig `yaml:"random" json:"random"`
	Clock  ClockConfig  `yaml:"clock" json:"clock"`
	Log    LogConfig    `yaml:"log" json:"log"`

	// Snapshots names the ABI modules to register. Empty means all.
	Snapshots []string `yaml:"snapshots" json:"snapshots"`

	Limits LimitsConfig `yaml:"limits" json:"limits"`
}

// Mount preopens a directory at a guest path.
type Mount struct {
	Guest string `yaml:"guest" json:"guest"`

	// Backend selects the directory implementation. Only "memory" exists.
	Backend string `yaml:"backend" json:"backend"`

	// Seed is a host directory copied into the mount before the guest
	// starts. The host directory itself is never exposed.
	Seed string `yaml:"seed" json:"seed"`

	ReadOnly bool `yaml:"readonly" json:"readonly"`
}

// RandomConfig selects the random source.
type RandomConfig struct {
	// Seed makes random_get deterministic. Empty uses the host's secure
	// source.
	Seed string `yaml:"seed" json:"seed"`
}

// ClockConfig sets clock resolution, as a Go duration ("1us", "10ms").
type ClockConfig struct {
	Resolution string `yaml:"resolution" json:"resolution"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

type LimitsConfig struct {
	// MaxHandles bounds open handles including stdio. 0 is unbounded.
	MaxHandles int `yaml:"max_handles" json:"max_handles"`
}

// Default returns the configuration used when no file is given: empty
// stdin, inherited output, info logging.
func Default() *Config {
	return &Config{
		Stdin:  StreamNull,
		Stdout: StreamInherit,
		Stderr: StreamInherit,
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads a configuration file. Files ending in .json or .jsonc are
// JSON with comments and trailing commas; everything else is YAML.
// Unset fields keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindOf(errors.FromOS(err)), err, "read "+path)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidArgument, err, "parse json")
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidArgument, err, "parse yaml")
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidArgument).Detail(format, args...).Build()
}

// Validate checks field syntax. Host paths are not touched until Builder.
func (c *Config) Validate() error {
	switch {
	case c.Stdin == "", c.Stdin == StreamInherit, c.Stdin == StreamNull:
	case strings.HasPrefix(c.Stdin, StreamFile):
		if len(c.Stdin) == len(StreamFile) {
			return invalid("stdin: empty file path")
		}
	case strings.HasPrefix(c.Stdin, StreamText):
	default:
		return invalid("stdin: unknown source %q", c.Stdin)
	}
	for _, s := range [...]struct{ name, v string }{{"stdout", c.Stdout}, {"stderr", c.Stderr}} {
		switch s.v {
		case "", StreamInherit, StreamNull, StreamCapture:
		default:
			return invalid("%s: unknown sink %q", s.name, s.v)
		}
	}

	guests := make(map[string]bool, len(c.Mounts))
	for i, m := range c.Mounts {
		if m.Guest == "" {
			return invalid("mounts[%d]: guest path required", i)
		}
		if guests[m.Guest] {
			return invalid("mounts[%d]: %q mounted twice", i, m.Guest)
		}
		guests[m.Guest] = true
		if m.Backend != "" && m.Backend != BackendMemory {
			return invalid("mounts[%d]: unknown backend %q", i, m.Backend)
		}
	}

	if _, err := c.resolution(); err != nil {
		return err
	}
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return invalid("log.level: %v", err)
		}
	}
	for _, s := range c.Snapshots {
		if s != preview0.ModuleName && s != preview1.ModuleName {
			return invalid("snapshots: unknown module %q", s)
		}
	}
	if c.Limits.MaxHandles < 0 {
		return invalid("limits.max_handles: negative")
	}
	return nil
}

func (c *Config) resolution() (time.Duration, error) {
	if c.Clock.Resolution == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Clock.Resolution)
	if err != nil || d <= 0 {
		return 0, invalid("clock.resolution: %q is not a positive duration", c.Clock.Resolution)
	}
	return d, nil
}

// LogLevel returns the configured level, info when unset.
func (c *Config) LogLevel() zapcore.Level {
	l, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// Stdio is the host side of inherited streams.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// OSStdio returns the process's standard streams.
func OSStdio() Stdio {
	return Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Streams holds what Builder opened on the host. Close it after the guest
// context is closed.
type Streams struct {
	// Stdout and Stderr are set for capture sinks.
	Stdout *pipe.WritePipe
	Stderr *pipe.WritePipe

	closers []io.Closer
}

// Close releases host files opened for the guest.
func (s *Streams) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// Builder applies the configuration to a new context builder. Mount seeds
// are copied and stdin files opened here.
func (c *Config) Builder(host Stdio) (*wasi.Builder, *Streams, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	b := wasi.New().WithArgs(c.Args...)
	streams := &Streams{}

	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WithEnv(k, c.Env[k])
	}

	switch {
	case c.Stdin == StreamInherit:
		b.WithStdin(pipe.NewReadPipe(host.In))
	case strings.HasPrefix(c.Stdin, StreamFile):
		f, err := os.Open(strings.TrimPrefix(c.Stdin, StreamFile))
		if err != nil {
			return nil, nil, errors.Wrap(errors.PhaseConfig, errors.KindOf(errors.FromOS(err)), err, "stdin")
		}
		streams.closers = append(streams.closers, f)
		b.WithStdin(pipe.NewReadPipe(f))
	case strings.HasPrefix(c.Stdin, StreamText):
		b.WithStdin(pipe.FromString(strings.TrimPrefix(c.Stdin, StreamText)))
	}
	b.WithStdout(sink(c.Stdout, host.Out, &streams.Stdout))
	b.WithStderr(sink(c.Stderr, host.Err, &streams.Stderr))

	res, _ := c.resolution()
	var ck clocks.Clocks
	if res > 0 {
		ck = clocks.Clocks{System: clocks.NewSystem(res), Monotonic: clocks.NewMonotonic(res)}
		b.WithClocks(ck)
	} else {
		ck = clocks.Real()
	}

	for _, m := range c.Mounts {
		fs := memfs.New(memfs.WithClock(ck.System.Now))
		if m.Seed != "" {
			if err := fs.Import(os.DirFS(m.Seed)); err != nil {
				_ = streams.Close()
				return nil, nil, errors.Wrap(errors.PhaseConfig, errors.KindOf(err), err, "seed "+m.Guest)
			}
		}
		if m.ReadOnly {
			fs.SetReadOnly(true)
			b.WithReadOnlyPreopenedDir(fs.Root(), m.Guest)
			continue
		}
		b.WithPreopenedDir(fs.Root(), m.Guest)
	}

	if c.Random.Seed != "" {
		b.WithRandom(random.Deterministic([]byte(c.Random.Seed)))
	}
	if c.Limits.MaxHandles > 0 {
		b.WithMaxHandles(c.Limits.MaxHandles)
	}
	return b, streams, nil
}

func sink(mode string, host io.Writer, capture **pipe.WritePipe) *pipe.WritePipe {
	switch mode {
	case StreamNull:
		return pipe.Discard()
	case StreamCapture:
		*capture = pipe.NewCapture()
		return *capture
	default:
		return pipe.NewWritePipe(host)
	}
}
