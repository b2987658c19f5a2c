package topolenum

import (
	"runtime"
	"time"

	"github.com/docker/go-units"
	"go.uber.org/zap"

	"github.com/prunepath/topolenum/coordinator"
)

// Default values for every configuration knob not otherwise overridden by
// an Option.
const (
	DefaultNumRequestedTopologies   = 1000
	DefaultConstraintFreqCutoff     = 0.9
	DefaultAbsoluteFreqCutoff       = 0.01
	DefaultMaxWorkspaceSize         = 10000
	DefaultMaxQueueSize             = 10000
	DefaultFIFOMaxFileSize          = "1GB"
	DefaultAcceptanceRatioParam     = 2.0
	DefaultAcceptanceStiffnessParam = 1.0
	DefaultSaveFileName             = "early_termination_save"
	DefaultTerminatorFile           = "stop_enumeration"
	DefaultFIFOSizeCheckDelay       = 128
)

// Config holds every Enumerate knob. Use DefaultConfig and
// the WithX options rather than constructing Config directly: the
// human-readable FIFOMaxFileSize is only parsed into bytes inside
// Enumerate.
type Config struct {
	NumWorkers int

	NumRequestedTopologies int
	ConstraintFreqCutoff   float64
	AbsoluteFreqCutoff     float64

	MaxWorkspaceSize int
	MaxQueueSize     int

	// FIFOMaxFileSize is a human-readable size, e.g. "1GB" or "512MB",
	// parsed with github.com/docker/go-units the same way the retrieval
	// pack's lotus CLI parses --chunk.
	FIFOMaxFileSize    string
	FIFOSizeCheckDelay int

	AcceptanceRatioParam     float64
	AcceptanceStiffnessParam float64

	SaveFileName   string
	RestartFrom    string
	TerminateAfter time.Duration
	TerminatorFile string

	WorkDir string
	SaveDir string

	Observer Observer
	Logger   *zap.Logger
}

// DefaultConfig returns a Config with every knob set to its documented
// default, num_workers set to runtime.NumCPU().
func DefaultConfig() Config {
	return Config{
		NumWorkers:               runtime.NumCPU(),
		NumRequestedTopologies:   DefaultNumRequestedTopologies,
		ConstraintFreqCutoff:     DefaultConstraintFreqCutoff,
		AbsoluteFreqCutoff:       DefaultAbsoluteFreqCutoff,
		MaxWorkspaceSize:         DefaultMaxWorkspaceSize,
		MaxQueueSize:             DefaultMaxQueueSize,
		FIFOMaxFileSize:          DefaultFIFOMaxFileSize,
		FIFOSizeCheckDelay:       DefaultFIFOSizeCheckDelay,
		AcceptanceRatioParam:     DefaultAcceptanceRatioParam,
		AcceptanceStiffnessParam: DefaultAcceptanceStiffnessParam,
		SaveFileName:             DefaultSaveFileName,
		TerminatorFile:           DefaultTerminatorFile,
	}
}

// Option mutates a Config built from DefaultConfig.
type Option func(*Config)

func WithNumWorkers(n int) Option                 { return func(c *Config) { c.NumWorkers = n } }
func WithNumRequestedTopologies(k int) Option     { return func(c *Config) { c.NumRequestedTopologies = k } }
func WithConstraintFreqCutoff(v float64) Option   { return func(c *Config) { c.ConstraintFreqCutoff = v } }
func WithAbsoluteFreqCutoff(v float64) Option     { return func(c *Config) { c.AbsoluteFreqCutoff = v } }
func WithMaxWorkspaceSize(n int) Option           { return func(c *Config) { c.MaxWorkspaceSize = n } }
func WithMaxQueueSize(n int) Option               { return func(c *Config) { c.MaxQueueSize = n } }
func WithFIFOMaxFileSize(size string) Option      { return func(c *Config) { c.FIFOMaxFileSize = size } }
func WithFIFOSizeCheckDelay(n int) Option         { return func(c *Config) { c.FIFOSizeCheckDelay = n } }
func WithAcceptanceRatioParam(v float64) Option   { return func(c *Config) { c.AcceptanceRatioParam = v } }
func WithAcceptanceStiffnessParam(v float64) Option {
	return func(c *Config) { c.AcceptanceStiffnessParam = v }
}
func WithSaveFileName(name string) Option    { return func(c *Config) { c.SaveFileName = name } }
func WithRestartFrom(path string) Option     { return func(c *Config) { c.RestartFrom = path } }
func WithTerminateAfter(d time.Duration) Option {
	return func(c *Config) { c.TerminateAfter = d }
}
func WithTerminatorFile(path string) Option { return func(c *Config) { c.TerminatorFile = path } }
func WithWorkDir(dir string) Option         { return func(c *Config) { c.WorkDir = dir } }
func WithSaveDir(dir string) Option         { return func(c *Config) { c.SaveDir = dir } }
func WithObserver(o Observer) Option        { return func(c *Config) { c.Observer = o } }
func WithLogger(l *zap.Logger) Option       { return func(c *Config) { c.Logger = l } }

// resolve applies opts over DefaultConfig and converts the human-facing
// knobs into coordinator.Params, parsing FIFOMaxFileSize with
// units.RAMInBytes.
func resolve(opts []Option) (Config, coordinator.Params, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	fifoBytes, err := units.RAMInBytes(cfg.FIFOMaxFileSize)
	if err != nil {
		return cfg, coordinator.Params{}, ErrBadFIFOSize
	}

	var observer coordinator.Observer
	if cfg.Observer != nil {
		observer = func(s coordinator.Status) {
			cfg.Observer(Status{ReportsSeen: s.ReportsSeen, MinScore: s.MinScore, Elapsed: s.Elapsed})
		}
	}

	p := coordinator.Params{
		NumWorkers:               cfg.NumWorkers,
		NumRequestedTopologies:   cfg.NumRequestedTopologies,
		MaxWorkspaceSize:         cfg.MaxWorkspaceSize,
		MaxQueueSize:             cfg.MaxQueueSize,
		FIFOMaxFileSize:          fifoBytes,
		FIFOSizeCheckDelay:       cfg.FIFOSizeCheckDelay,
		AcceptanceRatioParam:     cfg.AcceptanceRatioParam,
		AcceptanceStiffnessParam: cfg.AcceptanceStiffnessParam,
		WorkDir:                  cfg.WorkDir,
		SaveDir:                  cfg.SaveDir,
		SaveFileName:             cfg.SaveFileName,
		RestartFrom:              cfg.RestartFrom,
		TerminateAfter:           cfg.TerminateAfter,
		TerminatorFile:           cfg.TerminatorFile,
		Observer:                 observer,
		Logger:                   cfg.Logger,
	}
	return cfg, p, nil
}
