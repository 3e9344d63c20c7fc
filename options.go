package xmlkit

import (
	"github.com/xmlkit/xmlkit/pkg/xmltext"
	"github.com/xmlkit/xmlkit/pkg/xpath"
)

// Option configures the package-level entry points.
type Option func(*config)

type config struct {
	maxDepth     int
	cache        *xpath.Cache
	noCache      bool
	strictStream bool
}

// defaultCache is the process-wide compiled-expression cache shared by
// Query and QueryStrings.
var defaultCache = xpath.NewCache(xpath.DefaultCacheSize)

func resolveConfig(opts ...Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMaxDepth limits element nesting depth during parsing. Streaming
// parsers scan in fragment mode, where the limit is not applied.
func WithMaxDepth(depth int) Option {
	return func(cfg *config) {
		cfg.maxDepth = depth
	}
}

// WithCache routes XPath compilation through a caller-owned cache
// instead of the package-wide one.
func WithCache(cache *xpath.Cache) Option {
	return func(cfg *config) {
		cfg.cache = cache
	}
}

// WithoutCache compiles the expression on every call.
func WithoutCache() Option {
	return func(cfg *config) {
		cfg.noCache = true
	}
}

// WithStrictStream makes a streaming parser enforce strict
// well-formedness checks inside the chunks it scans; incomplete
// markup at Finalize becomes fatal.
func WithStrictStream() Option {
	return func(cfg *config) {
		cfg.strictStream = true
	}
}

func (cfg config) scanOptions(strict bool) []xmltext.Options {
	opts := []xmltext.Options{xmltext.Strict(strict)}
	if cfg.maxDepth > 0 {
		opts = append(opts, xmltext.MaxDepth(cfg.maxDepth))
	}
	return opts
}

func (cfg config) compile(expr string) (*xpath.Compiled, error) {
	if cfg.noCache {
		return xpath.Compile(expr)
	}
	if cfg.cache != nil {
		return cfg.cache.Get(expr)
	}
	return defaultCache.Get(expr)
}
