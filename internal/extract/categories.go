// internal/extract/categories.go
package extract

import (
	"strings"

	"github.com/solatis/cpereport/internal/types"
)

/*
 * Category taxonomy.
 *
 * The category key is the serialized first two segments of a pattern,
 * or the single segment for one-segment patterns. Known keys map to
 * display names through an ordered table; unknown keys fall back to
 * "<key> Metrics", so assignment never fails. Adding TR-098 or FWA
 * categories is a table edit, not a code change.
 */

type categoryEntry struct {
	key   string
	label string
}

// Two-segment keys first. Single-segment keys only apply to patterns of
// depth one; deeper patterns always look up their two-segment key.
var categoryTable = []categoryEntry{
	{"Device.DeviceInfo", "Device Information"},
	{"Device.WiFi", "WiFi Configuration"},
	{"Device.Hosts", "Host Information"},
	{"Device.Ethernet", "Ethernet Interface"},
	{"Device.IP", "IP Interface"},
	{"Device.WAN", "WAN Interface"},
	{"Device.LAN", "LAN Interface"},
	{"Device.ManagementServer", "Management Server"},
	{"Device.Firewall", "Firewall Configuration"},
	{"Device.ProcessStatus", "Process Status"},
	{"Device.MemoryStatus", "Memory Status"},
	{"InternetGatewayDevice.WANDevice", "WAN Device"},
	{"InternetGatewayDevice.LANDevice", "LAN Device"},
	{"InternetGatewayDevice.WANConnectionDevice", "WAN Connection"},
	{"InternetGatewayDevice.LANHostConfigManagement", "LAN Host Config"},
	{"InternetGatewayDevice.Layer2Bridging", "Layer 2 Bridging"},
	{"InternetGatewayDevice.QoS", "Quality of Service"},
	{"InternetGatewayDevice.UploadDiagnostics", "Upload Diagnostics"},
	{"InternetGatewayDevice.DownloadDiagnostics", "Download Diagnostics"},

	{"Device", "Device Information"},
	{"InternetGatewayDevice", "Gateway Device"},
	{"Hosts", "Host Information"},
	{"WiFi", "WiFi Configuration"},
	{"Ethernet", "Ethernet Interface"},
	{"IP", "IP Interface"},
	{"WAN", "WAN Interface"},
	{"LAN", "LAN Interface"},
}

// Categorize returns the display category for a generalized pattern.
func Categorize(p types.Pattern) string {
	if len(p.Segments) == 0 {
		return "Other"
	}
	key := categoryKey(p)
	for _, e := range categoryTable {
		if e.key == key {
			return e.label
		}
	}
	return key + " Metrics"
}

func categoryKey(p types.Pattern) string {
	n := len(p.Segments)
	if n > 2 {
		n = 2
	}
	parts := make([]string, 0, n)
	for _, seg := range p.Segments[:n] {
		if seg.Wildcard {
			parts = append(parts, seg.Token)
		} else {
			parts = append(parts, seg.Literal)
		}
	}
	return strings.Join(parts, types.Delimiter)
}
