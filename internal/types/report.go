// internal/types/report.go
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

/*
 * Report containers.
 *
 * FlatReport is the namevalue form: serialized dotted key -> scalar Value,
 * keys unique, ingest order remembered for display. Node is the hierarchy
 * form: a tree of objects, sequences, and scalar leaves. The conversion
 * algorithms between the two live in internal/report; this file holds the
 * containers and their JSON codecs.
 *
 * Sequence holes: a sequence materializes exactly the instance indices
 * present in the source, so "Radio.1" and "Radio.2" without "Radio.0"
 * leave a hole at item 0. Holes are skipped when flattening and render as
 * JSON null on tree output (they cannot arise from JSON ingest, where
 * arrays are dense).
 */

// FlatReport maps serialized dotted keys to scalar values.
// Keys are unique; order is semantically irrelevant but preserved from
// ingest for display. The zero value is not usable; call NewFlatReport.
type FlatReport struct {
	keys   []string
	values map[string]Value
}

// NewFlatReport returns an empty report.
func NewFlatReport() *FlatReport {
	return &FlatReport{values: make(map[string]Value)}
}

// Set stores v under key, appending to the display order on first sight.
// Setting an existing key overwrites in place (last occurrence wins).
func (f *FlatReport) Set(key string, v Value) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Get returns the value stored under key.
func (f *FlatReport) Get(key string) (Value, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the keys in display order. Callers must not modify the
// returned slice.
func (f *FlatReport) Keys() []string { return f.keys }

// Len returns the entry count.
func (f *FlatReport) Len() int { return len(f.keys) }

// Filter returns a new report holding the entries whose key contains
// substr, case-insensitively, preserving display order. An empty substr
// returns a copy of the whole report.
func (f *FlatReport) Filter(substr string) *FlatReport {
	needle := strings.ToLower(substr)
	out := NewFlatReport()
	for _, k := range f.keys {
		if substr == "" || strings.Contains(strings.ToLower(k), needle) {
			out.Set(k, f.values[k])
		}
	}
	return out
}

// Equal reports key-set and value equality. Display order is ignored; it
// carries no meaning beyond presentation.
func (f *FlatReport) Equal(o *FlatReport) bool {
	if f.Len() != o.Len() {
		return false
	}
	for k, v := range f.values {
		ov, ok := o.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON emits a JSON object with keys in display order.
func (f *FlatReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := f.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object of scalar values, preserving key
// order. Duplicate keys follow JSON object semantics: last occurrence
// wins. Nested containers fail with ErrNotScalar; tolerant ingest with
// per-key skipping lives in internal/report.
func (f *FlatReport) UnmarshalJSON(data []byte) error {
	dec := newNumberDecoder(data)
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("flat report: top level is %v: %w", tok, ErrNotScalar)
	}
	out := NewFlatReport()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("flat report: unexpected key token %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		if _, isDelim := valTok.(json.Delim); isDelim {
			return fmt.Errorf("flat report: key %q: %w", key, ErrNotScalar)
		}
		v, ok := ValueFromAny(valTok)
		if !ok {
			return fmt.Errorf("flat report: key %q: %w", key, ErrNotScalar)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}
	*f = *out
	return nil
}

// NodeKind discriminates the tree node variant.
type NodeKind int

const (
	NodeLeaf NodeKind = iota
	NodeObject
	NodeSequence
)

// Node is one node of a hierarchy report: a scalar leaf, an object with
// named children, or a sequence of indexed instances (nil item = hole).
type Node struct {
	Kind     NodeKind
	Leaf     Value            // meaningful when Kind == NodeLeaf
	Children map[string]*Node // meaningful when Kind == NodeObject
	Items    []*Node          // meaningful when Kind == NodeSequence
}

// NewLeaf returns a leaf node.
func NewLeaf(v Value) *Node { return &Node{Kind: NodeLeaf, Leaf: v} }

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{Kind: NodeObject, Children: make(map[string]*Node)}
}

// NewSequence returns an empty sequence node.
func NewSequence() *Node { return &Node{Kind: NodeSequence} }

// NodeFromAny builds a tree from a decoded JSON value. Objects become
// object nodes, arrays become dense sequences, scalars become leaves.
func NodeFromAny(v any) (*Node, error) {
	switch t := v.(type) {
	case map[string]any:
		n := NewObject()
		for k, child := range t {
			cn, err := NodeFromAny(child)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			n.Children[k] = cn
		}
		return n, nil
	case []any:
		n := NewSequence()
		n.Items = make([]*Node, 0, len(t))
		for i, child := range t {
			cn, err := NodeFromAny(child)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			n.Items = append(n.Items, cn)
		}
		return n, nil
	default:
		val, ok := ValueFromAny(v)
		if !ok {
			return nil, fmt.Errorf("unexpected value of type %T: %w", v, ErrNotScalar)
		}
		return NewLeaf(val), nil
	}
}

// Equal reports deep structural equality. Sequence holes only equal holes.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case NodeLeaf:
		return n.Leaf.Equal(o.Leaf)
	case NodeObject:
		if len(n.Children) != len(o.Children) {
			return false
		}
		for k, c := range n.Children {
			oc, ok := o.Children[k]
			if !ok || !c.Equal(oc) {
				return false
			}
		}
		return true
	default:
		if len(n.Items) != len(o.Items) {
			return false
		}
		for i := range n.Items {
			if !n.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	}
}

// MarshalJSON renders the tree: objects with keys sorted, sequences as
// dense arrays with null at holes, leaves as bare scalars.
func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case NodeObject:
		keys := make([]string, 0, len(n.Children))
		for k := range n.Children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			cb, err := n.Children[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(cb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case NodeSequence:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if item == nil {
				buf.WriteString("null")
				continue
			}
			cb, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(cb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return n.Leaf.MarshalJSON()
	}
}
