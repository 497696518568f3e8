package vault

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titled(title string, extra ...Field) *Entry {
	return NewEntry(uuid.New(), append([]Field{{Name: FieldTitle, Value: PlainText(title)}}, extra...)...)
}

// buildTree returns:
//
//	root/
//	  Work/
//	    Projects/
//	      Deploy
//	    MyLogin
//	  Personal
func buildTree() (root, work, projects *Group) {
	projects = NewGroup(uuid.New(), "Projects", titled("Deploy"))
	work = NewGroup(uuid.New(), "Work", projects, titled("MyLogin"))
	root = NewGroup(uuid.New(), "Root", work, titled("Personal"))
	return root, work, projects
}

func TestResolveSelf(t *testing.T) {
	root, work, _ := buildTree()

	for _, path := range []string{"", ".", "./"} {
		t.Run(path, func(t *testing.T) {
			node, err := Resolve(root, path)
			require.NoError(t, err)
			assert.Same(t, root, node)

			node, err = Resolve(work, path)
			require.NoError(t, err)
			assert.Same(t, work, node)
		})
	}
}

func TestResolveSingleSegment(t *testing.T) {
	root, work, _ := buildTree()

	node, err := Resolve(root, "Work")
	require.NoError(t, err)
	assert.Same(t, work, node)

	node, err = Resolve(root, "Personal")
	require.NoError(t, err)
	entry, ok := node.(*Entry)
	require.True(t, ok)
	assert.Equal(t, "Personal", entry.Name())
}

func TestResolveMultiSegment(t *testing.T) {
	root, _, projects := buildTree()

	node, err := Resolve(root, "Work/Projects")
	require.NoError(t, err)
	assert.Same(t, projects, node)

	node, err = Resolve(root, "Work/Projects/Deploy")
	require.NoError(t, err)
	assert.Equal(t, "Deploy", node.Name())

	node, err = Resolve(root, "Work/./Projects/")
	require.NoError(t, err)
	assert.Same(t, projects, node)
}

func TestResolveNotFound(t *testing.T) {
	root, work, _ := buildTree()

	tests := []struct {
		name    string
		path    string
		segment string
		parent  *Group
	}{
		{"missing child", "Nope", "Nope", root},
		{"missing nested child", "Work/Nope", "Nope", work},
		{"through an entry", "Personal/Anything", "Anything", nil},
		{"dotdot is not special", "..", "..", root},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(root, tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotFound))

			var pathErr *PathError
			require.True(t, errors.As(err, &pathErr))
			assert.Equal(t, tt.path, pathErr.Path)
			assert.Equal(t, tt.segment, pathErr.Segment)
			assert.Same(t, tt.parent, pathErr.Parent)
		})
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	first := NewGroup(uuid.New(), "Dup")
	second := titled("Dup")
	root := NewGroup(uuid.New(), "Root", first, second)

	node, err := Resolve(root, "Dup")
	require.NoError(t, err)
	assert.Same(t, first, node)

	e1 := titled("Same")
	e2 := titled("Same")
	root = NewGroup(uuid.New(), "Root", e1, e2)
	node, err = Resolve(root, "Same")
	require.NoError(t, err)
	assert.Same(t, e1, node)
}

func TestResolveUntitledEntryNeverMatches(t *testing.T) {
	untitled := NewEntry(uuid.New(), Field{Name: FieldUserName, Value: PlainText("bob")})
	root := NewGroup(uuid.New(), "Root", untitled)

	_, err := Resolve(root, "")
	require.NoError(t, err)

	_, err = Resolve(root, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, root.ChildNames())
}

func TestResolveGroupAndEntry(t *testing.T) {
	root, work, _ := buildTree()

	group, err := ResolveGroup(root, "Work")
	require.NoError(t, err)
	assert.Same(t, work, group)

	_, err = ResolveGroup(root, "Personal")
	assert.ErrorIs(t, err, ErrWrongKind)

	entry, err := ResolveEntry(root, "Work/MyLogin")
	require.NoError(t, err)
	assert.Equal(t, "MyLogin", entry.Name())

	_, err = ResolveEntry(root, "Work")
	assert.ErrorIs(t, err, ErrWrongKind)

	_, err = ResolveEntry(root, "Missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
