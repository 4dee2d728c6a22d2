package types

import (
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Test segment classification during parsing
func TestParsePath_Classification(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Path
	}{
		{
			name:  "names only",
			input: "Device.DeviceInfo.SerialNumber",
			want:  Path{NameSegment("Device"), NameSegment("DeviceInfo"), NameSegment("SerialNumber")},
		},
		{
			name:  "instance index",
			input: "Device.WiFi.Radio.1.Stats.BytesSent",
			want: Path{
				NameSegment("Device"), NameSegment("WiFi"), NameSegment("Radio"),
				IndexSegment(1), NameSegment("Stats"), NameSegment("BytesSent"),
			},
		},
		{
			name:  "zero is an index",
			input: "Hosts.Host.0.HostName",
			want:  Path{NameSegment("Hosts"), NameSegment("Host"), IndexSegment(0), NameSegment("HostName")},
		},
		{
			name:  "leading zero stays a name",
			input: "Device.Radio.01.Noise",
			want:  Path{NameSegment("Device"), NameSegment("Radio"), NameSegment("01"), NameSegment("Noise")},
		},
		{
			name:  "single segment",
			input: "Manufacturer",
			want:  Path{NameSegment("Manufacturer")},
		},
		{
			name:  "bare index",
			input: "7",
			want:  Path{IndexSegment(7)},
		},
		{
			name:  "digit run beyond int range stays a name",
			input: "Device.99999999999999999999999999",
			want:  Path{NameSegment("Device"), NameSegment("99999999999999999999999999")},
		},
		{
			name:  "wildcard tokens are plain names in paths",
			input: "Device.*.{i}.%",
			want:  Path{NameSegment("Device"), NameSegment("*"), NameSegment("{i}"), NameSegment("%")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.input)
			if err != nil {
				t.Fatalf("ParsePath(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParsePath(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// Test malformed inputs
func TestParsePath_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "leading dot", input: ".Device.WiFi"},
		{name: "trailing dot", input: "Device.WiFi."},
		{name: "doubled dot", input: "Device..WiFi"},
		{name: "lone dot", input: "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePath(tt.input)
			var mpe *MalformedPathError
			if !errors.As(err, &mpe) {
				t.Fatalf("ParsePath(%q) error = %v, want *MalformedPathError", tt.input, err)
			}
			if mpe.Input != tt.input {
				t.Errorf("MalformedPathError.Input = %q, want %q", mpe.Input, tt.input)
			}
		})
	}
}

// Test serialization
func TestPathString(t *testing.T) {
	tests := []struct {
		name string
		path Path
		want string
	}{
		{
			name: "mixed segments",
			path: Path{NameSegment("Device"), NameSegment("WiFi"), NameSegment("SSID"), IndexSegment(2), NameSegment("Name")},
			want: "Device.WiFi.SSID.2.Name",
		},
		{
			name: "index zero",
			path: Path{IndexSegment(0)},
			want: "0",
		},
		{
			name: "single name",
			path: Path{NameSegment("Uptime")},
			want: "Uptime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.String(); got != tt.want {
				t.Errorf("Path.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Property-based test: parse after serialize is the identity on paths
func TestPath_PropertyRoundTripFromPath(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	names := []string{"Device", "WiFi", "Radio", "Stats", "BytesSent", "Host", "01", "{i}", "X_VENDOR_Ext"}

	properties.Property("ParsePath(p.String()) == p", prop.ForAll(
		func(depth int, seed int) bool {
			path := make(Path, 0, depth)
			for i := 0; i < depth; i++ {
				if (seed>>uint(i%16))&1 == 1 {
					path = append(path, IndexSegment((seed+i)%1000))
				} else {
					path = append(path, NameSegment(names[(seed+i)%len(names)]))
				}
			}
			if len(path) == 0 {
				path = Path{NameSegment("Device")}
			}

			parsed, err := ParsePath(path.String())
			if err != nil {
				return false
			}
			return parsed.Equal(path)
		},
		gen.IntRange(0, 12),
		gen.IntRange(0, 1<<30),
	))

	properties.TestingRun(t)
}

// Property-based test: serialize after parse is the identity on valid keys
func TestPath_PropertyRoundTripFromString(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	tokens := []string{"Device", "InternetGatewayDevice", "Radio", "1", "0", "42", "01", "007", "Stats", "*", "%", "SSID"}

	properties.Property("ParsePath(s).String() == s", prop.ForAll(
		func(depth int, seed int) bool {
			parts := make([]string, 0, depth+1)
			for i := 0; i <= depth; i++ {
				parts = append(parts, tokens[(seed+i*7)%len(tokens)])
			}
			s := strings.Join(parts, Delimiter)

			parsed, err := ParsePath(s)
			if err != nil {
				return false
			}
			return parsed.String() == s
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 1<<30),
	))

	properties.TestingRun(t)
}
