// Package vault is the read-only tree model kpsh browses. A vault is a tree of
// groups; groups hold sub-groups and entries, entries hold named fields.
//
// The tree is produced by an external decoder (see keepass.go) and is never
// mutated by the shell.
package vault

import (
	"github.com/google/uuid"
)

// Canonical field names. They are displayed first, in this order.
const (
	FieldTitle    = "Title"
	FieldUserName = "UserName"
	FieldPassword = "Password"
	FieldURL      = "URL"

	// FieldOTP holds an otpauth:// URI used to generate one-time codes.
	FieldOTP = "otp"
)

// CanonicalFields lists the specially ordered field names.
var CanonicalFields = []string{FieldTitle, FieldUserName, FieldPassword, FieldURL}

// Node is either a *Group or an *Entry. The unexported method keeps the set
// closed so consumers can switch over it exhaustively.
type Node interface {
	// ID is the stable identifier assigned by the vault.
	ID() uuid.UUID
	// Name is the group name or the entry title.
	Name() string

	node()
}

// Group is an interior node with ordered children.
type Group struct {
	id       uuid.UUID
	name     string
	children []Node
}

// NewGroup creates a group with the given identifier, name and children.
func NewGroup(id uuid.UUID, name string, children ...Node) *Group {
	return &Group{id: id, name: name, children: children}
}

func (g *Group) ID() uuid.UUID { return g.id }

func (g *Group) Name() string { return g.name }

func (g *Group) node() {}

// Children returns the group's children in order.
func (g *Group) Children() []Node {
	return g.children
}

// Add appends children to the group. It exists for building trees; the shell
// itself never calls it on an open vault.
func (g *Group) Add(children ...Node) *Group {
	g.children = append(g.children, children...)
	return g
}

// Child returns the first direct child whose name matches. Groups match by
// name; entries match by title, and an entry without a title never matches.
func (g *Group) Child(name string) Node {
	for _, child := range g.children {
		switch c := child.(type) {
		case *Group:
			if c.name == name {
				return c
			}
		case *Entry:
			if title, ok := c.Title(); ok && title == name {
				return c
			}
		}
	}
	return nil
}

// ChildGroup returns the direct child group with the given identifier.
func (g *Group) ChildGroup(id uuid.UUID) *Group {
	for _, child := range g.children {
		if c, ok := child.(*Group); ok && c.id == id {
			return c
		}
	}
	return nil
}

// ChildNames returns the names of the direct children that can be addressed
// by a path segment, in child order.
func (g *Group) ChildNames() []string {
	names := make([]string, 0, len(g.children))
	for _, child := range g.children {
		switch c := child.(type) {
		case *Group:
			names = append(names, c.name)
		case *Entry:
			if title, ok := c.Title(); ok {
				names = append(names, title)
			}
		}
	}
	return names
}

// Walk visits every group in the subtree rooted at g, g included, depth first.
func (g *Group) Walk(fn func(*Group)) {
	fn(g)
	for _, child := range g.children {
		if c, ok := child.(*Group); ok {
			c.Walk(fn)
		}
	}
}

// Field is a named entry value.
type Field struct {
	Name  string
	Value Value
}

// Entry is a leaf node holding credential fields.
type Entry struct {
	id     uuid.UUID
	fields []Field
}

// NewEntry creates an entry. Field order is kept for display.
func NewEntry(id uuid.UUID, fields ...Field) *Entry {
	return &Entry{id: id, fields: fields}
}

func (e *Entry) ID() uuid.UUID { return e.id }

// Name returns the entry title or an empty string.
func (e *Entry) Name() string {
	title, _ := e.Title()
	return title
}

func (e *Entry) node() {}

// Title returns the entry title. Entries without a textual Title field have no title.
func (e *Entry) Title() (string, bool) {
	v, ok := e.Get(FieldTitle)
	if !ok || v.Kind() == KindBinary {
		return "", false
	}
	return v.Text(), true
}

// Get returns the field with the given name.
func (e *Entry) Get(name string) (Value, bool) {
	for _, f := range e.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Fields returns all fields in stored order.
func (e *Entry) Fields() []Field {
	return e.fields
}

// ExtraFields returns the fields that are not canonical, in stored order.
func (e *Entry) ExtraFields() []Field {
	extras := make([]Field, 0, len(e.fields))
	for _, f := range e.fields {
		if !isCanonical(f.Name) {
			extras = append(extras, f)
		}
	}
	return extras
}

func isCanonical(name string) bool {
	for _, c := range CanonicalFields {
		if c == name {
			return true
		}
	}
	return false
}

// ValueKind tells how a field value is stored.
type ValueKind int

const (
	KindPlainText ValueKind = iota
	KindSecret
	KindBinary
)

// Value is a field value. Secret values must only be displayed when the user
// explicitly asks for them.
type Value struct {
	kind ValueKind
	text string
	data []byte
}

// PlainText creates an unprotected text value.
func PlainText(s string) Value { return Value{kind: KindPlainText, text: s} }

// Secret creates a protected text value.
func Secret(s string) Value { return Value{kind: KindSecret, text: s} }

// Binary creates a binary value.
func Binary(b []byte) Value { return Value{kind: KindBinary, data: b} }

func (v Value) Kind() ValueKind { return v.kind }

// Text returns the text of a PlainText or Secret value.
func (v Value) Text() string { return v.text }

// Bytes returns the raw bytes of the value, whatever its kind.
func (v Value) Bytes() []byte {
	if v.kind == KindBinary {
		return v.data
	}
	return []byte(v.text)
}

// IsSecret reports whether the value is protected.
func (v Value) IsSecret() bool { return v.kind == KindSecret }
