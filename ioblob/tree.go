// Package ioblob is the tree-shaped structured I/O substrate (spec §4.2):
// a cursor-based reader/writer over trees of primitive and composite
// values, with YAML and binary backends. Assets are described in YAML
// (human-editable); artifacts are written through the binary backend.
package ioblob

import "github.com/ember-forge/pipeline/internal/status"

// Kind discriminates what a Node holds.
type Kind uint8

const (
	KindMap Kind = iota
	KindList
	KindBool
	KindInt32
	KindUint32
	KindInt16
	KindUsize
	KindFloat
	KindString
	KindInternedString
)

// Value is a single primitive payload, tagged by Kind. It covers exactly
// the primitive set spec §4.2 names: bool, int32, uint32, int16, usize,
// float, string, interned-string.
type Value struct {
	Kind Kind
	b    bool
	i32  int32
	u32  uint32
	i16  int16
	usz  uint64
	f    float64
	s    string
}

func BoolValue(v bool) Value             { return Value{Kind: KindBool, b: v} }
func Int32Value(v int32) Value           { return Value{Kind: KindInt32, i32: v} }
func Uint32Value(v uint32) Value         { return Value{Kind: KindUint32, u32: v} }
func Int16Value(v int16) Value           { return Value{Kind: KindInt16, i16: v} }
func UsizeValue(v uint64) Value          { return Value{Kind: KindUsize, usz: v} }
func FloatValue(v float64) Value         { return Value{Kind: KindFloat, f: v} }
func StringValue(v string) Value         { return Value{Kind: KindString, s: v} }
func InternedStringValue(v string) Value { return Value{Kind: KindInternedString, s: v} }

func (v Value) Bool() bool     { return v.b }
func (v Value) Int32() int32   { return v.i32 }
func (v Value) Uint32() uint32 { return v.u32 }
func (v Value) Int16() int16   { return v.i16 }
func (v Value) Usize() uint64  { return v.usz }
func (v Value) Float() float64 { return v.f }
func (v Value) String() string { return v.s }

// Node is one element of the document tree: either composite (Map/List,
// holding Children) or a leaf primitive Value.
type Node struct {
	Kind     Kind
	Name     string // key when the parent is a Map; ignored under a List
	Value    Value
	Children []*Node
}

func newMapNode() *Node  { return &Node{Kind: KindMap} }
func newListNode() *Node { return &Node{Kind: KindList} }

// Tree owns a document root. CreateTree starts a fresh, empty map document.
type Tree struct {
	Root *Node
}

func CreateTree() *Tree {
	return &Tree{Root: newMapNode()}
}

// Cursor navigates a Tree. The zero value is invalid; use Tree.Cursor.
type Cursor struct {
	tree  *Tree
	stack []*Node // path root..current; stack[0] is always tree.Root
}

func (t *Tree) Cursor() *Cursor {
	return &Cursor{tree: t, stack: []*Node{t.Root}}
}

// Current is the node the cursor is positioned on.
func (c *Cursor) Current() *Node { return c.stack[len(c.stack)-1] }

// IsValid reports whether the cursor sits on a node (always true once
// constructed from a Tree; kept for parity with spec §4.2's query surface).
func (c *Cursor) IsValid() bool { return len(c.stack) > 0 }

func (c *Cursor) NumChildren() int { return len(c.Current().Children) }

func (c *Cursor) HasChild(name string) bool {
	for _, ch := range c.Current().Children {
		if ch.Name == name {
			return true
		}
	}
	return false
}

// FindChild descends the cursor to the named child of the current (Map)
// node, reporting whether it exists.
func (c *Cursor) FindChild(name string) bool {
	for _, ch := range c.Current().Children {
		if ch.Name == name {
			c.stack = append(c.stack, ch)
			return true
		}
	}
	return false
}

// AppendChild creates a new child of the given kind under the current
// node, names it (ignored for List parents) and descends the cursor to it.
func (c *Cursor) AppendChild(name string, kind Kind) *Node {
	child := &Node{Kind: kind, Name: name}
	cur := c.Current()
	cur.Children = append(cur.Children, child)
	c.stack = append(c.stack, child)
	return child
}

// FirstChild descends to the current node's first child, if any.
func (c *Cursor) FirstChild() bool {
	cur := c.Current()
	if len(cur.Children) == 0 {
		return false
	}
	c.stack = append(c.stack, cur.Children[0])
	return true
}

// NextSibling moves the cursor from its current node to the next sibling
// under the same parent.
func (c *Cursor) NextSibling() bool {
	if len(c.stack) < 2 {
		return false
	}
	parent := c.stack[len(c.stack)-2]
	cur := c.Current()
	idx := -1
	for i, ch := range parent.Children {
		if ch == cur {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(parent.Children) {
		return false
	}
	c.stack[len(c.stack)-1] = parent.Children[idx+1]
	return true
}

// Pop moves the cursor back up to its parent, reporting whether it moved
// (it cannot pop past the tree root).
func (c *Cursor) Pop() bool {
	if len(c.stack) < 2 {
		return false
	}
	c.stack = c.stack[:len(c.stack)-1]
	return true
}

// AsMap/AsList stamp the current node's kind, used right after creating a
// node whose shape (map vs list of children) isn't known until the writer
// decides it.
func (c *Cursor) AsMap()  { c.Current().Kind = KindMap }
func (c *Cursor) AsList() { c.Current().Kind = KindList }

// WriteValue appends a leaf value named `name` under the current node.
func (c *Cursor) WriteValue(name string, v Value) {
	cur := c.Current()
	cur.Children = append(cur.Children, &Node{Kind: v.Kind, Name: name, Value: v})
}

// ReadValue looks up a named leaf under the current node.
func (c *Cursor) ReadValue(name string) (Value, bool) {
	for _, ch := range c.Current().Children {
		if ch.Name == name {
			return ch.Value, true
		}
	}
	return Value{}, false
}

var errWrongKind = status.New(status.FailedParse, "value has unexpected kind")

func ReadBool(c *Cursor, name string) (bool, error) {
	v, ok := c.ReadValue(name)
	if !ok {
		return false, status.New(status.NoValue, "missing field %q", name)
	}
	if v.Kind != KindBool {
		return false, errWrongKind
	}
	return v.Bool(), nil
}

func ReadString(c *Cursor, name string) (string, error) {
	v, ok := c.ReadValue(name)
	if !ok {
		return "", status.New(status.NoValue, "missing field %q", name)
	}
	if v.Kind != KindString && v.Kind != KindInternedString {
		return "", errWrongKind
	}
	return v.String(), nil
}

func ReadInt32(c *Cursor, name string) (int32, error) {
	v, ok := c.ReadValue(name)
	if !ok {
		return 0, status.New(status.NoValue, "missing field %q", name)
	}
	if v.Kind != KindInt32 {
		return 0, errWrongKind
	}
	return v.Int32(), nil
}

func ReadUint32(c *Cursor, name string) (uint32, error) {
	v, ok := c.ReadValue(name)
	if !ok {
		return 0, status.New(status.NoValue, "missing field %q", name)
	}
	if v.Kind != KindUint32 {
		return 0, errWrongKind
	}
	return v.Uint32(), nil
}
