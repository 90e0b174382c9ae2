package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Env names a deployment environment.
type Env string

const (
	EnvDevelopment Env = "development"
	EnvStaging     Env = "staging"
	EnvProduction  Env = "production"
)

// Config is the environment-driven logger setup.
type Config struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	Format    Format `env:"LOG_FORMAT" envDefault:"json"`
	Service   string `env:"LOG_SERVICE" envDefault:"staterouter"`
	Env       string `env:"APP_ENV" envDefault:"development"`
	AddSource bool   `env:"LOG_ADD_SOURCE" envDefault:"false"`
}

// Extractor pulls one attribute out of a record's context.
type Extractor func(ctx context.Context) (slog.Attr, bool)

// Option configures New.
type Option func(*settings)

type settings struct {
	level      slog.Level
	format     Format
	output     io.Writer
	addSource  bool
	attrs      []slog.Attr
	extractors []Extractor
}

func WithLevel(l slog.Level) Option {
	return func(s *settings) { s.level = l }
}

// WithFormat panics on anything but FormatJSON or FormatText.
func WithFormat(f Format) Option {
	if f != FormatJSON && f != FormatText {
		panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
	}
	return func(s *settings) { s.format = f }
}

// WithOutput ignores nil writers.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

func WithSource() Option {
	return func(s *settings) { s.addSource = true }
}

// WithAttr adds attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(s *settings) { s.attrs = append(s.attrs, attrs...) }
}

// WithExtractors adds attributes taken from the context of each record.
func WithExtractors(extractors ...Extractor) Option {
	return func(s *settings) {
		for _, ex := range extractors {
			if ex != nil {
				s.extractors = append(s.extractors, ex)
			}
		}
	}
}

// WithContextValue logs ctx.Value(key) under name whenever it is set.
func WithContextValue(name string, key any) Option {
	if name == "" || key == nil {
		return func(*settings) {}
	}
	return WithExtractors(func(ctx context.Context) (slog.Attr, bool) {
		v := ctx.Value(key)
		if v == nil {
			return slog.Attr{}, false
		}
		return slog.Any(name, v), true
	})
}

// WithTransitionID logs the transition identifier a router stores in the
// context of hooks and resolvers under key.
func WithTransitionID(key any) Option {
	return WithContextValue("transition_id", key)
}

// WithEnvironment applies the level and format usual for env and tags every
// record with env and service. Development logs text at debug level; staging
// and production log JSON at info. Unknown names mean development.
func WithEnvironment(env, service string) Option {
	e := parseEnv(env)
	return func(s *settings) {
		if e == EnvDevelopment {
			s.level, s.format = slog.LevelDebug, FormatText
		} else {
			s.level, s.format = slog.LevelInfo, FormatJSON
		}
		s.attrs = append(s.attrs, slog.String("env", string(e)))
		if service != "" {
			s.attrs = append(s.attrs, slog.String("service", service))
		}
	}
}

func parseEnv(env string) Env {
	switch strings.ToLower(env) {
	case "production", "prod":
		return EnvProduction
	case "staging", "stage":
		return EnvStaging
	default:
		return EnvDevelopment
	}
}

// New builds a logger writing JSON at info level to stdout unless options
// say otherwise.
func New(opts ...Option) *slog.Logger {
	s := &settings{level: slog.LevelInfo, format: FormatJSON, output: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}

	hopts := &slog.HandlerOptions{Level: s.level, AddSource: s.addSource}
	var h slog.Handler
	if s.format == FormatText {
		h = slog.NewTextHandler(s.output, hopts)
	} else {
		h = slog.NewJSONHandler(s.output, hopts)
	}
	if len(s.attrs) > 0 {
		h = h.WithAttrs(s.attrs)
	}
	if len(s.extractors) > 0 {
		h = &contextHandler{Handler: h, extractors: s.extractors}
	}
	return slog.New(h)
}

// FromConfig builds a logger from cfg. Explicit options are applied last.
func FromConfig(cfg Config, opts ...Option) (*slog.Logger, error) {
	base := []Option{WithEnvironment(cfg.Env, cfg.Service)}

	if cfg.Level != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		base = append(base, WithLevel(lvl))
	}
	if cfg.Format != "" {
		if cfg.Format != FormatJSON && cfg.Format != FormatText {
			return nil, fmt.Errorf("logger: invalid format %q", cfg.Format)
		}
		base = append(base, WithFormat(cfg.Format))
	}
	if cfg.AddSource {
		base = append(base, WithSource())
	}
	return New(append(base, opts...)...), nil
}

// contextHandler adds extracted attributes at Handle time, so values set on
// the context after the logger was built still show up.
type contextHandler struct {
	slog.Handler
	extractors []Extractor
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.Handler.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), extractors: h.extractors}
}
