package wad

import "github.com/stuarthighley/wad/v2/entrytype"

// DefaultMaxNesting bounds how deep map detection opens WADs stored inside WADs.
const DefaultMaxNesting = 4

type config struct {
	registry       *entrytype.Registry
	keepData       bool
	iwadLock       bool
	forceUppercase bool
	progress       ProgressFunc
	maxNesting     int
	depth          int
}

func defaultConfig() config {
	return config{
		iwadLock:       true,
		forceUppercase: true,
		maxNesting:     DefaultMaxNesting,
	}
}

// Option configures an Archive.
type Option func(*config)

// WithRegistry sets the entry type registry used for detection. Without it a registry is
// built from the default rules.
func WithRegistry(r *entrytype.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithKeepData keeps entry data in memory after type detection.
func WithKeepData(keep bool) Option {
	return func(c *config) {
		c.keepData = keep
	}
}

// WithIWADLock controls whether IWADs may be written. Locked by default.
func WithIWADLock(locked bool) Option {
	return func(c *config) {
		c.iwadLock = locked
	}
}

// WithForceUppercase controls whether entry names are upper-cased when added or renamed.
func WithForceUppercase(force bool) Option {
	return func(c *config) {
		c.forceUppercase = force
	}
}

// WithProgress registers a callback for progress events while opening.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithMaxNesting sets how many levels of nested WADs map detection will open.
func WithMaxNesting(n int) Option {
	return func(c *config) {
		c.maxNesting = n
	}
}

func newConfig(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		r, err := entrytype.DefaultRegistry()
		if err != nil {
			return cfg, err
		}
		cfg.registry = r
	}
	return cfg, nil
}
