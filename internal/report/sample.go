// internal/report/sample.go
package report

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/solatis/cpereport/internal/types"
)

/*
 * Capped structure previews.
 *
 * Sample renders a tree as indented JSON cut off at a depth and item
 * budget, so a 40k-key report previews as a screenful instead of a dump.
 * Containers past the depth budget collapse to "...", containers over the
 * item budget keep their first items plus a "+N more" marker. Output is
 * deterministic: object keys sorted, markers stable.
 */

// Preview caps applied when the caller passes zero.
const (
	DefaultSampleDepth = 3
	DefaultSampleItems = 5
)

// Sample renders a depth- and item-capped preview of the tree.
func Sample(n *types.Node, maxDepth, maxItems int) string {
	if maxDepth <= 0 {
		maxDepth = DefaultSampleDepth
	}
	if maxItems <= 0 {
		maxItems = DefaultSampleItems
	}
	capped := cappedAny(n, maxDepth, maxItems)
	out, err := json.MarshalIndent(capped, "", "  ")
	if err != nil {
		// Only reachable via marshal internals; the capped value is plain
		// maps, slices, and scalars.
		return fmt.Sprintf("sample unavailable: %v", err)
	}
	return string(out)
}

// cappedAny copies the tree into plain decoded-JSON shapes, truncating at
// the budgets.
func cappedAny(n *types.Node, depthLeft, maxItems int) any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case types.NodeLeaf:
		return leafAny(n.Leaf)
	case types.NodeObject:
		if depthLeft == 0 {
			return "..."
		}
		keys := make([]string, 0, len(n.Children))
		for k := range n.Children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(keys))
		for i, k := range keys {
			if i == maxItems {
				out["..."] = fmt.Sprintf("+%d more", len(keys)-maxItems)
				break
			}
			out[k] = cappedAny(n.Children[k], depthLeft-1, maxItems)
		}
		return out
	default:
		if depthLeft == 0 {
			return "..."
		}
		out := make([]any, 0, maxItems+1)
		for i, item := range n.Items {
			if i == maxItems {
				out = append(out, fmt.Sprintf("+%d more", len(n.Items)-maxItems))
				break
			}
			out = append(out, cappedAny(item, depthLeft-1, maxItems))
		}
		return out
	}
}

// leafAny converts a Value to the shape json.Marshal renders faithfully.
// Numbers come back as json.Number so the literal survives unquoted.
func leafAny(v types.Value) any {
	switch v.Kind {
	case types.ValueString:
		return v.Str
	case types.ValueNumber:
		return json.Number(v.Num)
	case types.ValueBool:
		return v.Bool
	default:
		return nil
	}
}
