package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/buddy/internal/buddyerr"
)

// fakeTarget is a minimal Target backed by an ordered column list.
type fakeTarget struct {
	cols   [][2]string
	length int
	hasLen bool
}

func (f fakeTarget) Column(name string) (string, bool) {
	for _, c := range f.cols {
		if c[0] == name {
			return c[1], true
		}
	}
	return "", false
}

func (f fakeTarget) Values() []string {
	var out []string
	for _, c := range f.cols {
		out = append(out, c[1])
	}
	return out
}

func (f fakeTarget) Length() (int, bool) { return f.length, f.hasLen }

func horse() fakeTarget {
	return fakeTarget{
		cols: [][2]string{
			{"ACCN", "F6SBJ1"},
			{"DB", "uniprot"},
			{"entry_name", "F6SBJ1_HORSE"},
			{"organism", "Equus caballus (Horse)"},
			{"protein_names", "Caspase"},
			{"comments", "Caution (1); Sequence similarities (1)"},
		},
		length: 451,
		hasLen: true,
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"wildcard", "*", true},
		{"absent text", "Foo", false},
		{"length eq", "(length=451)", true},
		{"length gte spaced", "(length >=451)", true},
		{"length lte spaced", "(length<= 451)", true},
		{"length gt", "(length > 200)", true},
		{"length lt", "(length<500)", true},
		{"length eq false", "(length=452)", false},
		{"length gte false", "(length>=452)", false},
		{"length lte false", "(length<=450)", false},
		{"length gt false", "(length>500)", false},
		{"length lt false", "(length<200)", false},
		{"column regex", "(ACCN) [A-Z0-9]{6}", true},
		{"column regex too long", "(ACCN) [A-Z0-9]{7}", false},
		{"column alternation", "(comments)(Caution|Blahh)", true},
		{"column no match", "(organism)Sheep", false},
		{"column presence", "(entry_name)", true},
		{"column presence trailing space", "(entry_name) ", true},
		{"column absent", "(foo_name)", false},
		{"bare accession", "F6SBJ1", true},
		{"bare value", "Caspase", true},
		{"bare column name", "protein_names", false},
		{"bare column name organism", "organism", false},
		{"length prefixed column", "(lengthy)", false},
		{"length prefixed column underscore", "(length_unit)", false},
		{"case sensitive", "Equus", true},
		{"case sensitive miss", "equus", false},
		{"case insensitive prefix", "i?equus", true},
		{"case insensitive alt prefix", "?iEqUuS", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(horse(), tt.query)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMatch_LengthErrors(t *testing.T) {
	_, err := Match(horse(), "(length!<200)")
	require.EqualError(t, err, "Invalid syntax for seaching 'length': length!<200")
	require.True(t, buddyerr.Is(err, buddyerr.KindValue))

	_, err = Match(horse(), "(length<>200)")
	require.EqualError(t, err, "Invalid operator: <>")

	_, err = Match(horse(), "(length>5<10)")
	require.Error(t, err, "chained comparisons are rejected")

	_, err = Match(horse(), "(length>abc)")
	require.Error(t, err)
}

func TestMatch_UnknownLength(t *testing.T) {
	target := horse()
	target.hasLen = false
	ok, err := Match(target, "(length>0)")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMatch_InvalidRegexp(t *testing.T) {
	_, err := Match(horse(), "(organism)[")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)

	_, err = Match(horse(), "foo(")
	require.ErrorAs(t, err, &se)
}

func TestParse_Types(t *testing.T) {
	q, err := Parse("  *  ")
	require.NoError(t, err)
	require.IsType(t, MatchAll{}, q)

	q, err = Parse("(length >= 10)")
	require.NoError(t, err)
	lc, ok := q.(*LengthCompare)
	require.True(t, ok)
	require.Equal(t, OpGte, lc.Op)
	require.Equal(t, 10, lc.Value)
	require.Equal(t, "(length>=10)", lc.String())

	q, err = Parse("(length)")
	require.NoError(t, err)
	require.IsType(t, &ColumnMatch{}, q, "bare (length) tests column presence")
}

func TestLexer(t *testing.T) {
	l := NewLexer("length >= 42")
	want := []Token{
		{Type: TokenIdent, Literal: "length", Pos: 0},
		{Type: TokenOp, Literal: ">=", Pos: 7},
		{Type: TokenNumber, Literal: "42", Pos: 10},
		{Type: TokenEOF, Literal: "", Pos: 12},
	}
	for _, w := range want {
		require.Equal(t, w, l.NextToken())
	}
}
