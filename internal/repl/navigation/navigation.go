// Package navigation tracks the session's current location inside a vault.
//
// The location is a directory stack of group identifiers, root to current.
// Identifiers are re-resolved against the tree on demand, so the state never
// holds a live reference that could outlive the vault it came from.
package navigation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/atinylittleshell/kpsh/internal/vault"
)

// ErrInvariantBroken means the directory stack references a group that is not
// reachable from the root. It indicates a programming error.
var ErrInvariantBroken = errors.New("directory stack references a missing group")

// State is the directory stack of one session.
type State struct {
	root  *vault.Group
	stack []uuid.UUID
}

// New creates a state positioned at root.
func New(root *vault.Group) *State {
	return &State{root: root}
}

// Root returns the tree root.
func (s *State) Root() *vault.Group {
	return s.root
}

// Stack returns a copy of the directory stack.
func (s *State) Stack() []uuid.UUID {
	return slices.Clone(s.stack)
}

// CurrentID returns the identifier of the current group: the top of the
// stack, or the root when the stack is empty.
func (s *State) CurrentID() uuid.UUID {
	if len(s.stack) == 0 {
		return s.root.ID()
	}
	return s.stack[len(s.stack)-1]
}

// CurrentGroup follows the stack from the root and returns the group it denotes.
// It panics if the stack is inconsistent with the tree.
func (s *State) CurrentGroup() *vault.Group {
	group, err := s.groupAt(s.stack)
	if err != nil {
		panic(err)
	}
	return group
}

// Path returns the current location as an absolute slash-separated path.
func (s *State) Path() string {
	names := make([]string, 0, len(s.stack))
	group := s.root
	for _, id := range s.stack {
		group = group.ChildGroup(id)
		if group == nil {
			panic(fmt.Errorf("%w: %s", ErrInvariantBroken, id))
		}
		names = append(names, group.Name())
	}
	return "/" + strings.Join(names, "/")
}

// ChangeCurrentGroup moves the current location along path. It either applies
// every segment or nothing: on failure it returns false and the stack is left
// exactly as it was.
//
// ".." pops one level and is a no-op at the root. Empty and "." segments are
// skipped. A leading "/" starts from the root.
func (s *State) ChangeCurrentGroup(path string) bool {
	working := slices.Clone(s.stack)
	if strings.HasPrefix(path, "/") {
		working = nil
		path = strings.TrimLeft(path, "/")
	}

	cur, err := s.groupAt(working)
	if err != nil {
		panic(err)
	}

	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(working) > 0 {
				working = working[:len(working)-1]
				if cur, err = s.groupAt(working); err != nil {
					panic(err)
				}
			}
			continue
		}

		child, ok := cur.Child(seg).(*vault.Group)
		if !ok {
			return false
		}
		working = append(working, child.ID())
		cur = child
	}

	s.stack = working
	return true
}

// Resolve resolves path relative to the current group. Unlike
// vault.Resolve it understands a leading "/" and leading ".." segments,
// which ascend without touching the live stack.
func (s *State) Resolve(path string) (vault.Node, error) {
	working := slices.Clone(s.stack)
	rest := path
	if strings.HasPrefix(rest, "/") {
		working = nil
		rest = strings.TrimLeft(rest, "/")
	}
	for rest == ".." || strings.HasPrefix(rest, "../") {
		if len(working) > 0 {
			working = working[:len(working)-1]
		}
		rest = strings.TrimPrefix(strings.TrimPrefix(rest, ".."), "/")
	}

	start, err := s.groupAt(working)
	if err != nil {
		panic(err)
	}
	node, err := vault.Resolve(start, rest)
	if err != nil {
		var pathErr *vault.PathError
		if errors.As(err, &pathErr) {
			pathErr.Path = path
		}
		return nil, err
	}
	return node, nil
}

func (s *State) groupAt(stack []uuid.UUID) (*vault.Group, error) {
	group := s.root
	for _, id := range stack {
		group = group.ChildGroup(id)
		if group == nil {
			return nil, fmt.Errorf("%w: %s", ErrInvariantBroken, id)
		}
	}
	return group, nil
}
