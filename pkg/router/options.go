package router

import (
	"log/slog"
	"maps"

	"github.com/dmitrymomot/staterouter/pkg/state"
)

const (
	defaultMaxRedirects = 10
	defaultCommitBuffer = 16
	defaultRouterID     = "default"
)

// Config holds the environment-driven router settings.
// Load it with config.Load(&cfg).
type Config struct {
	ID               string `env:"ROUTER_ID" envDefault:"default"`
	StrictParams     bool   `env:"ROUTER_STRICT_PARAMS" envDefault:"false"`
	MaxRedirects     int    `env:"ROUTER_MAX_REDIRECTS" envDefault:"10"`
	CommitBufferSize int    `env:"ROUTER_COMMIT_BUFFER" envDefault:"16"`
	ChainCacheSize   int    `env:"ROUTER_CHAIN_CACHE_SIZE" envDefault:"256"`
}

// RegistryOptions returns the registry settings carried by the config.
func (c Config) RegistryOptions() []state.RegistryOption {
	return []state.RegistryOption{state.WithChainCacheSize(c.ChainCacheSize)}
}

// Option configures a router during construction.
type Option func(*Router) error

// WithConfig applies cfg. Zero values keep the defaults.
func WithConfig(cfg Config) Option {
	return func(r *Router) error {
		if cfg.ID != "" {
			r.id = cfg.ID
		}
		if cfg.StrictParams {
			r.strict = true
		}
		if cfg.MaxRedirects > 0 {
			r.maxRedirects = cfg.MaxRedirects
		}
		if cfg.CommitBufferSize > 0 {
			r.commitBuffer = cfg.CommitBufferSize
		}
		return nil
	}
}

// WithID sets the router identity reported in commits.
func WithID(id string) Option {
	return func(r *Router) error {
		if id != "" {
			r.id = id
		}
		return nil
	}
}

// WithLogger sets the logger used for lifecycle and unhandled-error records.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) error {
		if l != nil {
			r.logger = l
		}
		return nil
	}
}

// WithStrictParams rejects raw parameters no state in the target chain declares.
func WithStrictParams() Option {
	return func(r *Router) error {
		r.strict = true
		return nil
	}
}

// WithMaxRedirects caps the stateNotFound emissions of a single transition.
func WithMaxRedirects(n int) Option {
	return func(r *Router) error {
		if n <= 0 {
			return ErrInvalidRedirects
		}
		r.maxRedirects = n
		return nil
	}
}

// WithCommitBuffer sets the per-subscriber buffer of the commit stream.
func WithCommitBuffer(n int) Option {
	return func(r *Router) error {
		if n > 0 {
			r.commitBuffer = n
		}
		return nil
	}
}

// WithDefaultErrorHandler sets the handler for unhandled transition errors.
func WithDefaultErrorHandler(fn func(error)) Option {
	return func(r *Router) error {
		r.DefaultErrorHandler(fn)
		return nil
	}
}

// Options are the per-transition settings passed to listeners.
type Options struct {
	// Location is carried for listeners that synchronise an address bar.
	Location bool
	// Inherit fills parameters missing from the request with current values.
	Inherit bool
	// Notify controls the stateChangeSuccess event. The commit happens either way.
	Notify bool
	// Reload exits and re-enters every state of the target chain.
	Reload bool
	// Relative is the anchor for relative targets such as "^" or "^.Name".
	Relative *state.State
	// Custom is passed through to listeners untouched.
	Custom map[string]any

	// anchorCurrent anchors relative targets at the state current when the
	// transition starts, unless Relative is set.
	anchorCurrent bool
}

func defaultOptions() Options {
	return Options{Location: true, Notify: true}
}

// TransitionOption configures one transition.
type TransitionOption func(*Options)

// WithLocation sets Options.Location.
func WithLocation(v bool) TransitionOption {
	return func(o *Options) { o.Location = v }
}

// WithInherit makes the transition inherit unspecified parameters.
func WithInherit() TransitionOption {
	return func(o *Options) { o.Inherit = true }
}

// WithNotify toggles the stateChangeSuccess event.
func WithNotify(v bool) TransitionOption {
	return func(o *Options) { o.Notify = v }
}

// WithReload forces the whole target chain to be exited and re-entered.
func WithReload() TransitionOption {
	return func(o *Options) { o.Reload = true }
}

// WithRelative sets the anchor for relative targets.
func WithRelative(anchor *state.State) TransitionOption {
	return func(o *Options) { o.Relative = anchor }
}

// WithCustom merges m into Options.Custom.
func WithCustom(m map[string]any) TransitionOption {
	return func(o *Options) {
		if o.Custom == nil {
			o.Custom = make(map[string]any, len(m))
		}
		maps.Copy(o.Custom, m)
	}
}
