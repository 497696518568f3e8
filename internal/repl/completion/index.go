// Package completion answers tab-completion queries for the kpsh prompt.
//
// Queries are served from an Index: immutable prefix-searchable name sets for
// command names and for the children of every group in the open vault. The
// index is rebuilt whole whenever a vault is opened or closed.
package completion

import (
	"github.com/google/uuid"
	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/atinylittleshell/kpsh/internal/repl/command"
	"github.com/atinylittleshell/kpsh/internal/vault"
)

// NameSet is an immutable set of names supporting prefix search.
type NameSet struct {
	tree *iradix.Tree[struct{}]
}

// NewNameSet builds a set from names. Duplicates collapse.
func NewNameSet(names ...string) *NameSet {
	txn := iradix.New[struct{}]().Txn()
	for _, name := range names {
		txn.Insert([]byte(name), struct{}{})
	}
	return &NameSet{tree: txn.Commit()}
}

// Len returns the number of distinct names.
func (s *NameSet) Len() int {
	return s.tree.Len()
}

// Contains reports whether name is in the set.
func (s *NameSet) Contains(name string) bool {
	_, ok := s.tree.Get([]byte(name))
	return ok
}

// WithPrefix returns the names starting with prefix in byte order.
func (s *NameSet) WithPrefix(prefix string) []string {
	var out []string
	s.tree.Root().WalkPrefix([]byte(prefix), func(k []byte, _ struct{}) bool {
		out = append(out, string(k))
		return false
	})
	return out
}

// Index is a snapshot of everything completion needs: the grammar, the flag
// spellings of each command and, when a vault is open, the child names of
// each of its groups.
type Index struct {
	commands *NameSet
	grammar  *command.Grammar
	// flags maps command name, then spelling ("-s", "--show-hidden"), to the
	// flag. Every flag is boolean, so none takes an operand.
	flags    map[string]map[string]command.FlagSpec
	children map[uuid.UUID]*NameSet
	root     uuid.UUID
}

// NewIndex builds an index for grammar and the tree under root. A nil root
// means no vault is open and path completion yields nothing.
func NewIndex(grammar *command.Grammar, root *vault.Group) *Index {
	ix := &Index{
		commands: NewNameSet(grammar.Names()...),
		grammar:  grammar,
		flags:    make(map[string]map[string]command.FlagSpec),
		children: make(map[uuid.UUID]*NameSet),
	}
	for _, spec := range grammar.Specs() {
		spellings := make(map[string]command.FlagSpec, 2*len(spec.Flags))
		for _, f := range spec.Flags {
			for _, sp := range f.Spellings() {
				spellings[sp] = f
			}
		}
		ix.flags[spec.Name] = spellings
	}
	if root == nil {
		return ix
	}

	ix.root = root.ID()
	root.Walk(func(g *vault.Group) {
		ix.children[g.ID()] = NewNameSet(g.ChildNames()...)
	})
	return ix
}

// Commands returns the set of command names.
func (ix *Index) Commands() *NameSet {
	return ix.commands
}

// Spec returns the grammar entry for a command name.
func (ix *Index) Spec(name string) (*command.Spec, bool) {
	return ix.grammar.Lookup(name)
}

// Flag looks up a flag of the named command by how it is typed, e.g. "-s".
func (ix *Index) Flag(cmd, spelling string) (command.FlagSpec, bool) {
	f, ok := ix.flags[cmd][spelling]
	return f, ok
}

// Root returns the identifier of the indexed root group, or uuid.Nil when no
// vault is indexed.
func (ix *Index) Root() uuid.UUID {
	return ix.root
}

// Children returns the child names of the group with the given identifier.
func (ix *Index) Children(id uuid.UUID) (*NameSet, bool) {
	set, ok := ix.children[id]
	return set, ok
}
