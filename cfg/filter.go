package cfg

import (
	"fmt"

	"github.com/gobwas/glob"
)

// PatternFilter selects pattern blocks by name using glob patterns
type PatternFilter struct {
	includeGlobs []glob.Glob
}

// NewPatternFilter compiles the include globs.
// No globs means every pattern matches.
func NewPatternFilter(includePatterns []string) (*PatternFilter, error) {
	filter := &PatternFilter{
		includeGlobs: make([]glob.Glob, 0, len(includePatterns)),
	}

	for _, pattern := range includePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		filter.includeGlobs = append(filter.includeGlobs, g)
	}

	return filter, nil
}

// Match returns true if the pattern name matches the configured globs
func (f *PatternFilter) Match(name string) bool {
	if len(f.includeGlobs) == 0 {
		return true
	}
	for _, g := range f.includeGlobs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
