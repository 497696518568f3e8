package executor

import (
	"errors"
	"fmt"

	"github.com/sahilm/fuzzy"

	"github.com/atinylittleshell/kpsh/internal/vault"
)

// hint suggests the closest sibling of the segment that failed to resolve.
func hint(err error) string {
	var pathErr *vault.PathError
	if !errors.As(err, &pathErr) || pathErr.Parent == nil {
		return ""
	}
	return suggest(pathErr.Segment, pathErr.Parent.ChildNames())
}

// suggest returns a " (did you mean `x`?)" suffix for the best fuzzy match of
// pattern among names, or "" when nothing matches.
func suggest(pattern string, names []string) string {
	if pattern == "" || len(names) == 0 {
		return ""
	}
	matches := fuzzy.Find(pattern, names)
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf(" (did you mean `%s`?)", matches[0].Str)
}
