package query

import (
	"regexp"
	"slices"
)

// Target is anything a query can be evaluated against.
type Target interface {
	// Column returns a named field; ok is false when the field is absent.
	Column(name string) (string, bool)
	// Values returns every string a bare pattern is tried against.
	Values() []string
	// Length returns the sequence length if known.
	Length() (int, bool)
}

// Query is a parsed search expression.
type Query interface {
	Match(t Target) bool
	String() string
}

// MatchAll is "*".
type MatchAll struct{}

func (MatchAll) Match(Target) bool { return true }
func (MatchAll) String() string    { return "*" }

// ColumnMatch is "(column) pattern". A nil Pattern tests presence only.
type ColumnMatch struct {
	Column  string
	Pattern *regexp.Regexp
}

func (c *ColumnMatch) Match(t Target) bool {
	v, ok := t.Column(c.Column)
	if !ok {
		return false
	}
	return c.Pattern == nil || c.Pattern.MatchString(v)
}

func (c *ColumnMatch) String() string {
	if c.Pattern == nil {
		return "(" + c.Column + ")"
	}
	return "(" + c.Column + ") " + c.Pattern.String()
}

// Op is a length comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
	OpGt  Op = ">"
	OpLt  Op = "<"
)

var validOps = []Op{OpEq, OpGte, OpLte, OpGt, OpLt}

// LengthCompare is "(length op N)".
type LengthCompare struct {
	Op    Op
	Value int
}

func (l *LengthCompare) Match(t Target) bool {
	n, ok := t.Length()
	if !ok {
		return false
	}
	switch l.Op {
	case OpEq:
		return n == l.Value
	case OpGte:
		return n >= l.Value
	case OpLte:
		return n <= l.Value
	case OpGt:
		return n > l.Value
	case OpLt:
		return n < l.Value
	}
	return false
}

func (l *LengthCompare) String() string {
	return "(length" + string(l.Op) + itoa(l.Value) + ")"
}

// TextMatch is a bare pattern tried against every value of the target.
type TextMatch struct {
	Pattern *regexp.Regexp
}

func (m *TextMatch) Match(t Target) bool {
	return slices.ContainsFunc(t.Values(), m.Pattern.MatchString)
}

func (m *TextMatch) String() string { return m.Pattern.String() }
