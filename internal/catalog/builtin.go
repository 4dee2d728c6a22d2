// internal/catalog/builtin.go
package catalog

import _ "embed"

// The built-in dictionary ships inside the binary so validation works with
// no directory and no database configured.
//
//go:embed tr181_rules.yaml
var builtinSource []byte

// BuiltinName is the rule-set name of the embedded TR-181 dictionary.
const BuiltinName = "TR-181 Device Metrics"
