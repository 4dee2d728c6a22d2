// internal/types/path.go
package types

import (
	"strconv"
	"strings"
)

/*
 * Dotted-key path codec.
 *
 * TR-181/TR-098 reports address every metric with a dotted key such as
 * "Device.WiFi.Radio.1.Stats.BytesSent". A Path is the parsed form: an
 * ordered list of segments, each either a name or an unsigned instance
 * index. The codec is a bijection over valid inputs:
 *
 *   ParsePath(p.String()) == p    for every Path p
 *   ParsePath(s).String() == s    for every parseable s
 *
 * Index classification: a token is an index iff it is all ASCII digits in
 * canonical decimal form. "0" is index 0; "01" and "007" are names, because
 * classifying them as indexes would re-serialize as "1"/"7" and break the
 * second law. Digit runs too long for int also stay names; the lexical
 * form round-trips either way.
 *
 * Failure modes (both MalformedPathError): empty input, empty segment
 * (leading, trailing, or doubled delimiter).
 */

// Delimiter separates path segments in the dotted-key wire form.
const Delimiter = "."

// Segment is one component of a Path: an object name or an instance index.
type Segment struct {
	Name    string // object name (meaningful when !IsIndex)
	Index   int    // instance index (meaningful when IsIndex)
	IsIndex bool   // disambiguates Index=0 from unset
}

// NameSegment returns a name segment.
func NameSegment(name string) Segment { return Segment{Name: name} }

// IndexSegment returns an instance-index segment.
func IndexSegment(i int) Segment { return Segment{Index: i, IsIndex: true} }

// String renders the segment in wire form: the name verbatim, or the index
// in canonical decimal.
func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Name
}

// Path is a parsed dotted key: a non-empty ordered list of segments.
type Path []Segment

// ParsePath splits a dotted key into segments and classifies each one.
// Returns *MalformedPathError for empty input or any empty segment.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, &MalformedPathError{Input: s, Reason: "empty path"}
	}
	tokens := strings.Split(s, Delimiter)
	path := make(Path, 0, len(tokens))
	for i, tok := range tokens {
		if tok == "" {
			return nil, &MalformedPathError{
				Input:  s,
				Reason: "empty segment at position " + strconv.Itoa(i),
			}
		}
		if isIndexToken(tok) {
			if n, err := strconv.Atoi(tok); err == nil {
				path = append(path, IndexSegment(n))
				continue
			}
			// Digit run exceeds int range; the name form still round-trips.
		}
		path = append(path, NameSegment(tok))
	}
	return path, nil
}

// MustParsePath parses a dotted key and panics on failure.
// For fixtures and tests with literal inputs only.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the path in dotted-key wire form.
func (p Path) String() string {
	var sb strings.Builder
	for i, seg := range p {
		if i > 0 {
			sb.WriteString(Delimiter)
		}
		sb.WriteString(seg.String())
	}
	return sb.String()
}

// Depth returns the segment count.
func (p Path) Depth() int { return len(p) }

// Equal reports segment-wise equality.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// isIndexToken reports whether tok is an unsigned integer in canonical
// decimal form: all digits, no redundant zero padding.
func isIndexToken(tok string) bool {
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	if len(tok) > 1 && tok[0] == '0' {
		return false
	}
	return true
}
