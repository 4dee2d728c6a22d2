// internal/report/convert.go

// Package report converts CPE telemetry reports between their two wire
// shapes: the flat namevalue form (dotted key -> scalar) and the hierarchy
// form (nested objects and instance sequences). It also detects which shape
// a decoded document is in, normalizes raw JSON into the flat form, and
// produces previews and structure statistics for display layers.
package report

import (
	"fmt"
	"sort"

	"github.com/solatis/cpereport/internal/types"
)

/*
 * Flat <-> tree conversion.
 *
 * Flatten walks the tree depth-first, name segments for object children
 * and index segments for sequence children, and emits one flat entry per
 * scalar leaf. Sequence holes are skipped. Object children are visited in
 * sorted name order so output is deterministic.
 *
 * Unflatten parses every key and inserts it, creating containers on
 * demand: the next segment's kind dictates the container kind at each
 * prefix. Two keys demanding different kinds at one prefix, or a leaf
 * where the other key needs a container, abort the whole conversion with
 * StructuralConflictError naming both keys. A sequence grows to its
 * highest inserted index; absent indices stay holes and reappear as such
 * on the next Flatten, so sparse instance numbering survives a round trip.
 *
 * Round-trip caveats: empty containers produce no keys and are lost, a
 * trailing hole is unobservable in flat form and is lost, and object
 * names containing the delimiter collapse into the serialized key of
 * their nested spelling (last write wins). Real TR-181/TR-098 payloads
 * have none of these.
 */

// ConvertStats is the side-channel both conversion directions return.
type ConvertStats struct {
	Leaves        int `json:"leaves"`
	MaxDepth      int `json:"max_depth"`
	SequenceNodes int `json:"sequence_nodes"`
}

// Flatten converts a hierarchy report to the flat namevalue form.
// The root must be a container; a scalar root is an unsupported shape.
func Flatten(root *types.Node) (*types.FlatReport, ConvertStats, error) {
	var stats ConvertStats
	if root == nil {
		return nil, stats, &types.UnsupportedShapeError{Shape: "null"}
	}
	if root.Kind == types.NodeLeaf {
		return nil, stats, &types.UnsupportedShapeError{Shape: shapeOfValue(root.Leaf)}
	}
	flat := types.NewFlatReport()
	flattenInto(root, nil, flat, &stats)
	return flat, stats, nil
}

func flattenInto(n *types.Node, prefix types.Path, flat *types.FlatReport, stats *ConvertStats) {
	if depth := len(prefix); depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}
	switch n.Kind {
	case types.NodeLeaf:
		flat.Set(prefix.String(), n.Leaf)
		stats.Leaves++
	case types.NodeObject:
		names := make([]string, 0, len(n.Children))
		for name := range n.Children {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			flattenInto(n.Children[name], append(prefix, types.NameSegment(name)), flat, stats)
		}
	case types.NodeSequence:
		stats.SequenceNodes++
		for i, item := range n.Items {
			if item == nil {
				continue
			}
			flattenInto(item, append(prefix, types.IndexSegment(i)), flat, stats)
		}
	}
}

// Unflatten converts a flat report to the hierarchy form.
// Keys must be valid dotted keys; tolerant ingest of untrusted input
// happens in Normalize before this point.
func Unflatten(flat *types.FlatReport) (*types.Node, ConvertStats, error) {
	b := &treeBuilder{owners: make(map[*types.Node]string)}
	var stats ConvertStats

	for _, key := range flat.Keys() {
		path, err := types.ParsePath(key)
		if err != nil {
			return nil, stats, err
		}
		if d := path.Depth(); d > stats.MaxDepth {
			stats.MaxDepth = d
		}
		val, _ := flat.Get(key)
		if err := b.insert(key, path, val, &stats); err != nil {
			return nil, stats, err
		}
		stats.Leaves++
	}

	if b.root == nil {
		// Zero keys: an empty flat report becomes an empty object.
		b.root = types.NewObject()
	}
	return b.root, stats, nil
}

// treeBuilder tracks, per created node, the key that established it so a
// conflicting later key can name its counterpart in the error.
type treeBuilder struct {
	root   *types.Node
	owners map[*types.Node]string
}

func (b *treeBuilder) insert(key string, path types.Path, val types.Value, stats *ConvertStats) error {
	if b.root == nil {
		b.root = b.newContainer(key, path[0], stats)
	}
	cur := b.root
	for i, seg := range path {
		if err := b.checkKind(key, cur, seg); err != nil {
			return err
		}
		last := i == len(path)-1
		if last {
			return b.attach(key, cur, seg, types.NewLeaf(val))
		}
		next, err := b.child(key, cur, seg, path[i+1], stats)
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// checkKind verifies the segment kind agrees with the container kind.
func (b *treeBuilder) checkKind(key string, n *types.Node, seg types.Segment) error {
	if seg.IsIndex != (n.Kind == types.NodeSequence) {
		return &types.StructuralConflictError{Path: key, Conflict: b.owners[n]}
	}
	return nil
}

// child returns the container under seg, creating it with the kind the
// following segment demands.
func (b *treeBuilder) child(key string, n *types.Node, seg, nextSeg types.Segment, stats *ConvertStats) (*types.Node, error) {
	existing, err := b.lookup(key, n, seg)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Kind == types.NodeLeaf {
			return nil, &types.StructuralConflictError{Path: key, Conflict: b.owners[existing]}
		}
		// The existing container's kind must agree with the next segment.
		if nextSeg.IsIndex != (existing.Kind == types.NodeSequence) {
			return nil, &types.StructuralConflictError{Path: key, Conflict: b.owners[existing]}
		}
		return existing, nil
	}
	created := b.newContainer(key, nextSeg, stats)
	if err := b.attachNode(key, n, seg, created); err != nil {
		return nil, err
	}
	return created, nil
}

// lookup returns the child at seg, or nil when absent.
func (b *treeBuilder) lookup(key string, n *types.Node, seg types.Segment) (*types.Node, error) {
	if n.Kind == types.NodeObject {
		return n.Children[seg.Name], nil
	}
	if seg.Index > types.MaxSequenceIndex {
		return nil, fmt.Errorf("key %q: index %d: %w", key, seg.Index, types.ErrIndexTooLarge)
	}
	if seg.Index < len(n.Items) {
		return n.Items[seg.Index], nil
	}
	return nil, nil
}

// attach places a leaf at seg, rejecting positions already occupied.
func (b *treeBuilder) attach(key string, n *types.Node, seg types.Segment, leaf *types.Node) error {
	existing, err := b.lookup(key, n, seg)
	if err != nil {
		return err
	}
	if existing != nil {
		return &types.StructuralConflictError{Path: key, Conflict: b.owners[existing]}
	}
	return b.attachNode(key, n, seg, leaf)
}

func (b *treeBuilder) attachNode(key string, n *types.Node, seg types.Segment, child *types.Node) error {
	b.owners[child] = key
	if n.Kind == types.NodeObject {
		n.Children[seg.Name] = child
		return nil
	}
	for len(n.Items) <= seg.Index {
		n.Items = append(n.Items, nil)
	}
	n.Items[seg.Index] = child
	return nil
}

func (b *treeBuilder) newContainer(key string, seg types.Segment, stats *ConvertStats) *types.Node {
	var n *types.Node
	if seg.IsIndex {
		n = types.NewSequence()
		stats.SequenceNodes++
	} else {
		n = types.NewObject()
	}
	b.owners[n] = key
	return n
}

// shapeOfValue names a scalar's shape for UnsupportedShapeError.
func shapeOfValue(v types.Value) string {
	switch v.Kind {
	case types.ValueString:
		return "string"
	case types.ValueNumber:
		return "number"
	case types.ValueBool:
		return "boolean"
	default:
		return "null"
	}
}
