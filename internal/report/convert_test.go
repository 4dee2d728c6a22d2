package report

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/cpereport/internal/types"
)

func flatFromEntries(t *testing.T, entries [][2]string) *types.FlatReport {
	t.Helper()
	f := types.NewFlatReport()
	for _, e := range entries {
		f.Set(e[0], types.StringValue(e[1]))
	}
	return f
}

// Test sparse instance numbering creates holes that survive a round trip
func TestUnflatten_SparseInstances(t *testing.T) {
	flat := types.NewFlatReport()
	flat.Set("Device.WiFi.Radio.1.Stats.BytesSent", types.NumberValue("1000"))
	flat.Set("Device.WiFi.Radio.2.Stats.BytesSent", types.NumberValue("2000"))

	tree, stats, err := Unflatten(flat)
	if err != nil {
		t.Fatalf("Unflatten() error = %v", err)
	}

	radio := tree.Children["Device"].Children["WiFi"].Children["Radio"]
	if radio.Kind != types.NodeSequence {
		t.Fatalf("Radio kind = %v, want sequence", radio.Kind)
	}
	if len(radio.Items) != 3 {
		t.Fatalf("Radio items = %d, want 3 (hole at 0)", len(radio.Items))
	}
	if radio.Items[0] != nil {
		t.Errorf("Radio.0 = %+v, want hole", radio.Items[0])
	}
	if stats.Leaves != 2 || stats.MaxDepth != 6 || stats.SequenceNodes != 1 {
		t.Errorf("stats = %+v, want {Leaves:2 MaxDepth:6 SequenceNodes:1}", stats)
	}

	back, _, err := Flatten(tree)
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	if !back.Equal(flat) {
		t.Errorf("round trip lost entries: got %v", back.Keys())
	}
}

// Test flatten emits deterministic key order and skips holes
func TestFlatten_Deterministic(t *testing.T) {
	seq := types.NewSequence()
	seq.Items = []*types.Node{nil, types.NewLeaf(types.NumberValue("5"))}

	inner := types.NewObject()
	inner.Children["Zeta"] = types.NewLeaf(types.BoolValue(true))
	inner.Children["Alpha"] = types.NewLeaf(types.StringValue("x"))

	root := types.NewObject()
	root.Children["B"] = seq
	root.Children["A"] = inner

	flat, stats, err := Flatten(root)
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	want := []string{"A.Alpha", "A.Zeta", "B.1"}
	keys := flat.Keys()
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	if stats.Leaves != 3 || stats.SequenceNodes != 1 {
		t.Errorf("stats = %+v, want 3 leaves, 1 sequence", stats)
	}
}

// Test structural conflicts name both offending keys
func TestUnflatten_Conflicts(t *testing.T) {
	tests := []struct {
		name         string
		entries      [][2]string
		wantPath     string
		wantConflict string
	}{
		{
			name: "leaf then container",
			entries: [][2]string{
				{"Device.WiFi.Radio.1", "present"},
				{"Device.WiFi.Radio.1.Stats.BytesSent", "1000"},
			},
			wantPath:     "Device.WiFi.Radio.1.Stats.BytesSent",
			wantConflict: "Device.WiFi.Radio.1",
		},
		{
			name: "container then leaf",
			entries: [][2]string{
				{"Device.WiFi.Radio.1.Stats.BytesSent", "1000"},
				{"Device.WiFi.Radio.1", "present"},
			},
			wantPath:     "Device.WiFi.Radio.1",
			wantConflict: "Device.WiFi.Radio.1.Stats.BytesSent",
		},
		{
			name: "object then sequence at one prefix",
			entries: [][2]string{
				{"Device.Hosts.Host.Name", "a"},
				{"Device.Hosts.Host.0", "b"},
			},
			wantPath:     "Device.Hosts.Host.0",
			wantConflict: "Device.Hosts.Host.Name",
		},
		{
			name: "root kind mismatch",
			entries: [][2]string{
				{"0.Enable", "a"},
				{"Device.Enable", "b"},
			},
			wantPath:     "Device.Enable",
			wantConflict: "0.Enable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Unflatten(flatFromEntries(t, tt.entries))
			var sce *types.StructuralConflictError
			if !errors.As(err, &sce) {
				t.Fatalf("Unflatten() error = %v, want *StructuralConflictError", err)
			}
			if sce.Path != tt.wantPath || sce.Conflict != tt.wantConflict {
				t.Errorf("conflict = (%q, %q), want (%q, %q)", sce.Path, sce.Conflict, tt.wantPath, tt.wantConflict)
			}
		})
	}
}

// Test resource guard on runaway instance numbers
func TestUnflatten_IndexTooLarge(t *testing.T) {
	flat := types.NewFlatReport()
	flat.Set("Device.Hosts.Host.4294967295.Active", types.BoolValue(true))

	_, _, err := Unflatten(flat)
	if !errors.Is(err, types.ErrIndexTooLarge) {
		t.Errorf("Unflatten() error = %v, want ErrIndexTooLarge", err)
	}
}

// Test empty report and scalar root edges
func TestConvert_Edges(t *testing.T) {
	t.Run("empty flat report", func(t *testing.T) {
		tree, stats, err := Unflatten(types.NewFlatReport())
		if err != nil {
			t.Fatalf("Unflatten() error = %v", err)
		}
		if tree.Kind != types.NodeObject || len(tree.Children) != 0 {
			t.Errorf("tree = %+v, want empty object", tree)
		}
		if stats.Leaves != 0 {
			t.Errorf("stats.Leaves = %d, want 0", stats.Leaves)
		}
	})

	t.Run("scalar root rejected", func(t *testing.T) {
		_, _, err := Flatten(types.NewLeaf(types.StringValue("hello")))
		var use *types.UnsupportedShapeError
		if !errors.As(err, &use) {
			t.Fatalf("Flatten() error = %v, want *UnsupportedShapeError", err)
		}
		if use.Shape != "string" {
			t.Errorf("Shape = %q, want \"string\"", use.Shape)
		}
	})
}

// buildTree derives a small tree deterministically from seeds. Shapes that
// cannot survive a flat round trip (empty containers, trailing holes,
// delimiter in names) are never produced.
func buildTree(seed, depth int, forceContainer bool) *types.Node {
	names := []string{"Device", "WiFi", "Radio", "Stats", "SSID", "Enable"}
	kind := seed % 3
	if forceContainer && kind == 0 {
		kind = 1 + seed%2
	}
	if depth <= 0 {
		kind = 0
	}
	switch kind {
	case 1:
		n := types.NewObject()
		count := 1 + seed%3
		for i := 0; i < count; i++ {
			n.Children[names[(seed+i)%len(names)]] = buildTree(seed/(i+2)+i, depth-1, false)
		}
		return n
	case 2:
		n := types.NewSequence()
		count := 1 + seed%3
		for i := 0; i < count; i++ {
			if i < count-1 && (seed>>uint(i))&3 == 0 {
				n.Items = append(n.Items, nil) // interior hole
				continue
			}
			n.Items = append(n.Items, buildTree(seed/(i+2)+i, depth-1, false))
		}
		return n
	default:
		switch seed % 4 {
		case 0:
			return types.NewLeaf(types.StringValue(names[seed%len(names)]))
		case 1:
			return types.NewLeaf(types.NumberValue("42"))
		case 2:
			return types.NewLeaf(types.BoolValue(seed%2 == 0))
		default:
			return types.NewLeaf(types.NullValue())
		}
	}
}

// Property-based test: tree -> flat -> tree is the identity
func TestConvert_PropertyTreeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Unflatten(Flatten(t)) == t", prop.ForAll(
		func(seed int, depth int) bool {
			tree := buildTree(seed, depth, true)

			flat, _, err := Flatten(tree)
			if err != nil {
				return false
			}
			back, _, err := Unflatten(flat)
			if err != nil {
				return false
			}
			return back.Equal(tree)
		},
		gen.IntRange(1, 1<<28),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}

// Property-based test: flat -> tree -> flat is the identity
func TestConvert_PropertyFlatRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Flatten(Unflatten(f)) == f", prop.ForAll(
		func(seed int, depth int) bool {
			// Flat reports from Flatten are conflict-free by construction.
			tree := buildTree(seed, depth, true)
			flat, _, err := Flatten(tree)
			if err != nil {
				return false
			}

			back, _, err := Unflatten(flat)
			if err != nil {
				return false
			}
			again, _, err := Flatten(back)
			if err != nil {
				return false
			}
			return again.Equal(flat)
		},
		gen.IntRange(1, 1<<28),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}
