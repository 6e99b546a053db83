package mcp

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/m4xw311/todoloop/errors"
)

// Toolset decides which tools a server registers. Patterns use doublestar
// glob syntax, e.g. "todo_*" or "todo_{add,list}".
type Toolset struct {
	patterns []string
}

// NewToolset validates patterns. No patterns means every tool.
func NewToolset(patterns []string) (*Toolset, error) {
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Wrapf(doublestar.ErrBadPattern, "invalid tool pattern '%s'", pattern)
		}
	}
	return &Toolset{patterns: patterns}, nil
}

// Enabled reports whether name matches any pattern.
func (ts *Toolset) Enabled(name string) bool {
	for _, pattern := range ts.patterns {
		if match, _ := doublestar.Match(pattern, name); match {
			return true
		}
	}
	return false
}
