package vault

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a path segment does not resolve.
	ErrNotFound = errors.New("does not exist")

	// ErrWrongKind is returned when a path resolves to a node of the wrong kind.
	ErrWrongKind = errors.New("wrong node kind")
)

// PathError records a failed resolution.
type PathError struct {
	// Path is the full path that was being resolved.
	Path string
	// Segment is the segment that failed.
	Segment string
	// Parent is the group the failing segment was looked up in. It is nil
	// when the walk stopped at an entry.
	Parent *Group
	Err    error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// IsSelf reports whether path denotes the starting group itself.
func IsSelf(path string) bool {
	return path == "" || path == "." || path == "./"
}

// Resolve walks a slash-separated path starting at start.
//
// Every non-terminal segment must resolve to a group; the final one may be
// either kind. Empty and "." segments stay where they are. ".." is not
// special here: it only matches a child literally named "..".
func Resolve(start *Group, path string) (Node, error) {
	if IsSelf(path) {
		return start, nil
	}

	var cur Node = start
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." {
			continue
		}
		group, ok := cur.(*Group)
		if !ok {
			return nil, &PathError{Path: path, Segment: seg, Err: ErrNotFound}
		}
		child := group.Child(seg)
		if child == nil {
			return nil, &PathError{Path: path, Segment: seg, Parent: group, Err: ErrNotFound}
		}
		cur = child
	}
	return cur, nil
}

// ResolveGroup resolves path and requires the result to be a group.
func ResolveGroup(start *Group, path string) (*Group, error) {
	node, err := Resolve(start, path)
	if err != nil {
		return nil, err
	}
	group, ok := node.(*Group)
	if !ok {
		return nil, &PathError{Path: path, Segment: path, Err: ErrWrongKind}
	}
	return group, nil
}

// ResolveEntry resolves path and requires the result to be an entry.
func ResolveEntry(start *Group, path string) (*Entry, error) {
	node, err := Resolve(start, path)
	if err != nil {
		return nil, err
	}
	entry, ok := node.(*Entry)
	if !ok {
		return nil, &PathError{Path: path, Segment: path, Err: ErrWrongKind}
	}
	return entry, nil
}
