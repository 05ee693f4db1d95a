// Package seqio parses and writes the sequence formats buddy understands.
//
// The model is deliberately small: a Record holds an id, a description, the
// residues as written (gaps included), optional qualities and features. An
// Alignment is an ordered block of records; unaligned files are read as a
// single block.
package seqio

import (
	"bytes"
	"maps"
	"slices"
)

// Span is a 0-based half-open interval on a sequence.
type Span struct {
	Start int
	End   int
}

// Len returns the number of positions covered.
func (s Span) Len() int { return s.End - s.Start }

// Location is a possibly discontinuous feature location.
// Strand is +1, -1 or 0 when unknown.
type Location struct {
	Parts  []Span
	Strand int
}

// Start returns the smallest start position, or -1 for an empty location.
func (l Location) Start() int {
	if len(l.Parts) == 0 {
		return -1
	}
	start := l.Parts[0].Start
	for _, p := range l.Parts[1:] {
		start = min(start, p.Start)
	}
	return start
}

// End returns the largest end position, or -1 for an empty location.
func (l Location) End() int {
	if len(l.Parts) == 0 {
		return -1
	}
	end := l.Parts[0].End
	for _, p := range l.Parts[1:] {
		end = max(end, p.End)
	}
	return end
}

// Qualifier is one /key="value" annotation on a feature.
type Qualifier struct {
	Key   string
	Value string
}

// Feature is an annotated region of a record.
type Feature struct {
	Type       string
	Location   Location
	Qualifiers []Qualifier
}

// Qualifier returns the first value stored under key.
func (f Feature) Qualifier(key string) (string, bool) {
	for _, q := range f.Qualifiers {
		if q.Key == key {
			return q.Value, true
		}
	}
	return "", false
}

// Record is one sequence with its metadata.
type Record struct {
	ID          string
	Description string
	Seq         []byte
	Quality     []int
	Features    []Feature
	Annotations map[string]string
	Alphabet    Alphabet
}

// Len returns the number of columns including gaps.
func (r *Record) Len() int { return len(r.Seq) }

// Ungapped returns the residues without gap characters.
func (r *Record) Ungapped() []byte {
	out := make([]byte, 0, len(r.Seq))
	for _, b := range r.Seq {
		if !IsGap(b) {
			out = append(out, b)
		}
	}
	return out
}

// Copy returns a deep copy of r.
func (r *Record) Copy() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Seq = bytes.Clone(r.Seq)
	cp.Quality = slices.Clone(r.Quality)
	cp.Annotations = maps.Clone(r.Annotations)
	if r.Features != nil {
		cp.Features = make([]Feature, len(r.Features))
		for i, f := range r.Features {
			cp.Features[i] = Feature{
				Type:       f.Type,
				Location:   Location{Parts: slices.Clone(f.Location.Parts), Strand: f.Location.Strand},
				Qualifiers: slices.Clone(f.Qualifiers),
			}
		}
	}
	return &cp
}

// Alignment is an ordered block of records.
type Alignment []*Record

// Width returns the length of the longest record.
func (a Alignment) Width() int {
	w := 0
	for _, r := range a {
		w = max(w, r.Len())
	}
	return w
}

// Aligned reports whether every record has the same length.
func (a Alignment) Aligned() bool {
	for _, r := range a {
		if r.Len() != a[0].Len() {
			return false
		}
	}
	return true
}

// Copy returns a deep copy of a.
func (a Alignment) Copy() Alignment {
	if a == nil {
		return nil
	}
	out := make(Alignment, len(a))
	for i, r := range a {
		out[i] = r.Copy()
	}
	return out
}

// IsGap reports whether b is a gap character.
func IsGap(b byte) bool {
	return b == '-' || b == '.'
}
