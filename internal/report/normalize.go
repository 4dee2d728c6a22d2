// internal/report/normalize.go
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/solatis/cpereport/internal/types"
)

/*
 * Raw JSON -> flat report normalization.
 *
 * Normalize is the single ingest path for the CLI and the API: decode,
 * detect (or honor an override), then bring the document into flat form.
 * Item-level problems in untrusted input (unparseable keys, non-scalar
 * values in flat mode, malformed pair entries) skip that item and land in
 * the warnings list; the rest of the document still converts. Structural
 * conflicts and unsupported shapes abort the whole call.
 */

// NormalizeResult carries the flat form plus everything the caller needs
// to report on the conversion.
type NormalizeResult struct {
	Flat     *types.FlatReport
	Format   Format // format actually applied (detected unless overridden)
	Stats    ConvertStats
	Warnings []string
}

// DecodeValue decodes raw JSON with number literals preserved, rejecting
// trailing garbage. Failures wrap into *JSONDecodeError.
func DecodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &types.JSONDecodeError{Offset: dec.InputOffset(), Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &types.JSONDecodeError{
			Offset: dec.InputOffset(),
			Err:    fmt.Errorf("trailing data after document"),
		}
	}
	return v, nil
}

// Normalize decodes raw bytes and produces the flat form, detecting the
// format unless override names one.
func Normalize(raw []byte, override Format) (*NormalizeResult, error) {
	if len(raw) > types.MaxReportBytes {
		return nil, types.ErrReportTooLarge
	}
	decoded, err := DecodeValue(raw)
	if err != nil {
		return nil, err
	}

	format := override
	if format == FormatAuto {
		format, err = DetectFormat(decoded)
		if err != nil {
			return nil, err
		}
	}

	switch format {
	case FormatFlat:
		flat, warnings, err := parseFlatTolerant(raw)
		if err != nil {
			return nil, err
		}
		return &NormalizeResult{
			Flat:     flat,
			Format:   FormatFlat,
			Stats:    flatStats(flat),
			Warnings: warnings,
		}, nil

	case FormatPairs:
		items, ok := decoded.([]any)
		if !ok {
			return nil, &types.UnsupportedShapeError{Shape: shapeOfAny(decoded)}
		}
		flat, warnings := parsePairList(items)
		return &NormalizeResult{
			Flat:     flat,
			Format:   FormatPairs,
			Stats:    flatStats(flat),
			Warnings: warnings,
		}, nil

	default: // FormatTree
		node, err := types.NodeFromAny(decoded)
		if err != nil {
			return nil, err
		}
		if node.Kind == types.NodeLeaf {
			return nil, &types.UnsupportedShapeError{Shape: shapeOfValue(node.Leaf)}
		}
		flat, stats, err := Flatten(node)
		if err != nil {
			return nil, err
		}
		return &NormalizeResult{Flat: flat, Format: FormatTree, Stats: stats}, nil
	}
}

// parseFlatTolerant walks the raw token stream of a flat object so ingest
// order survives, skipping bad keys and non-scalar values with warnings.
func parseFlatTolerant(raw []byte) (*types.FlatReport, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, &types.JSONDecodeError{Offset: dec.InputOffset(), Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		shape := shapeOfAny(tok)
		if ok {
			shape = "array"
		}
		return nil, nil, &types.UnsupportedShapeError{Shape: shape}
	}

	flat := types.NewFlatReport()
	var warnings []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, &types.JSONDecodeError{Offset: dec.InputOffset(), Err: err}
		}
		key := keyTok.(string) // object position guarantees a string key

		valTok, err := dec.Token()
		if err != nil {
			return nil, nil, &types.JSONDecodeError{Offset: dec.InputOffset(), Err: err}
		}
		if _, isDelim := valTok.(json.Delim); isDelim {
			if err := skipValue(dec); err != nil {
				return nil, nil, &types.JSONDecodeError{Offset: dec.InputOffset(), Err: err}
			}
			warnings = append(warnings, fmt.Sprintf("skipped key %q: nested value in flat input", key))
			continue
		}

		if _, err := types.ParsePath(key); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped key %q: %v", key, err))
			continue
		}
		val, ok := types.ValueFromAny(valTok)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("skipped key %q: %v", key, types.ErrNotScalar))
			continue
		}
		if _, dup := flat.Get(key); dup {
			warnings = append(warnings, fmt.Sprintf("duplicate key %q: keeping last value", key))
		}
		flat.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return nil, nil, &types.JSONDecodeError{Offset: dec.InputOffset(), Err: err}
	}
	return flat, warnings, nil
}

// parsePairList converts the legacy [{"Name": ..., "Value": ...}] shape.
// A pair without Value reports null, matching collectors that omit the
// field for unset parameters.
func parsePairList(items []any) (*types.FlatReport, []string) {
	flat := types.NewFlatReport()
	var warnings []string
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("skipped pair %d: not an object", i))
			continue
		}
		name, ok := obj["Name"].(string)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("skipped pair %d: missing or non-string Name", i))
			continue
		}
		if _, err := types.ParsePath(name); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped pair %d: %v", i, err))
			continue
		}
		val, ok := types.ValueFromAny(obj["Value"])
		if !ok {
			warnings = append(warnings, fmt.Sprintf("skipped pair %d (%s): %v", i, name, types.ErrNotScalar))
			continue
		}
		if _, dup := flat.Get(name); dup {
			warnings = append(warnings, fmt.Sprintf("duplicate key %q: keeping last value", name))
		}
		flat.Set(name, val)
	}
	return flat, warnings
}

// skipValue consumes the remainder of a container value whose opening
// delimiter was already read.
func skipValue(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

// flatStats derives conversion stats for ingests that skip tree building.
func flatStats(flat *types.FlatReport) ConvertStats {
	stats := ConvertStats{Leaves: flat.Len()}
	for _, key := range flat.Keys() {
		if p, err := types.ParsePath(key); err == nil {
			if d := p.Depth(); d > stats.MaxDepth {
				stats.MaxDepth = d
			}
		}
	}
	return stats
}
