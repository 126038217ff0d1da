package multimethod

import (
	"log/slog"

	"github.com/funvibe/multimethod/pkg/typesystem"
)

// Options control a multimethod's behavior.
type Options struct {
	// Universe maps argument values to classes. Defaults to typesystem.Default().
	Universe *typesystem.Universe

	// Logger receives Debug records for registrations, removals, deferrals
	// and cache misses. Defaults to a logger that discards everything.
	Logger *slog.Logger

	// DisableCache resolves every non-exact call by walking the graph.
	DisableCache bool

	// Params names the dispatch positions, in order, so a Multidispatch can
	// bind keyword arguments.
	Params []string
}

// Option modifies Options.
type Option func(*Options)

// WithUniverse sets the class universe used to type arguments.
func WithUniverse(u *typesystem.Universe) Option { return func(o *Options) { o.Universe = u } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithoutCache disables the resolution cache.
func WithoutCache() Option { return func(o *Options) { o.DisableCache = true } }

// WithParams names the parameters of a Multidispatch.
func WithParams(names ...string) Option { return func(o *Options) { o.Params = names } }

var discardLogger = slog.New(slog.DiscardHandler)

func buildOptions(opts []Option) Options {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}
	if o.Universe == nil {
		o.Universe = typesystem.Default()
	}
	if o.Logger == nil {
		o.Logger = discardLogger
	}
	return o
}

// asOptions returns options reproducing o.
func (o Options) asOptions() []Option {
	out := []Option{WithUniverse(o.Universe), WithLogger(o.Logger), WithParams(o.Params...)}
	if o.DisableCache {
		out = append(out, WithoutCache())
	}
	return out
}
