package xmltext

// Options holds scanner configuration values.
// The zero value means no overrides.
type Options struct {
	strict   bool
	fragment bool
	maxDepth int

	strictSet   bool
	fragmentSet bool
	maxDepthSet bool
}

// JoinOptions combines multiple option sets into one in declaration order.
// Later options override earlier ones when set.
func JoinOptions(srcs ...Options) Options {
	var merged Options
	for _, src := range srcs {
		merged.merge(src)
	}
	return merged
}

func (opts *Options) merge(src Options) {
	if src.strictSet {
		opts.strict = src.strict
		opts.strictSet = true
	}
	if src.fragmentSet {
		opts.fragment = src.fragment
		opts.fragmentSet = true
	}
	if src.maxDepthSet {
		opts.maxDepth = src.maxDepth
		opts.maxDepthSet = true
	}
}

// Strict controls well-formedness enforcement. When false the scanner
// suppresses name-character, comment-content, "]]>"-in-text, and
// unknown-entity checks and keeps scanning past recoverable issues.
func Strict(value bool) Options {
	return Options{strict: value, strictSet: true}
}

// MaxDepth limits element nesting depth. Zero means unlimited.
func MaxDepth(value int) Options {
	return Options{maxDepth: value, maxDepthSet: true}
}

// Fragment relaxes document-level constraints for scanning a slice of
// a larger document: end tags are not matched against start tags, any
// number of top-level constructs is allowed, and text may appear
// outside elements. The streaming parser scans chunk windows this way
// and enforces structure itself.
func Fragment(value bool) Options {
	return Options{fragment: value, fragmentSet: true}
}

// Strict reports the strict override and whether it was set.
func (opts Options) Strict() (bool, bool) {
	return opts.strict, opts.strictSet
}

// MaxDepth reports the depth-limit override and whether it was set.
func (opts Options) MaxDepth() (int, bool) {
	return opts.maxDepth, opts.maxDepthSet
}

type scanOptions struct {
	strict   bool
	fragment bool
	maxDepth int
}

func resolveOptions(opts Options) scanOptions {
	resolved := scanOptions{}
	if opts.strictSet {
		resolved.strict = opts.strict
	}
	if opts.fragmentSet {
		resolved.fragment = opts.fragment
	}
	if opts.maxDepthSet && opts.maxDepth > 0 {
		resolved.maxDepth = opts.maxDepth
	}
	return resolved
}
