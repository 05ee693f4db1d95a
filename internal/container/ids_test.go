package container

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/seqio"
)

func panxContainer(t *testing.T) *Container {
	t.Helper()
	return newTestContainer(t,
		rec("Mle-Panxα1", "ACGT"),
		rec("Mle-Panxα4-Panx", "ACGA"),
		rec("Bab-Innexin2", "ACGG"),
	)
}

func TestPullAndDelete(t *testing.T) {
	c := panxContainer(t)
	require.NoError(t, c.Pull("Panx"))
	require.Equal(t, []string{"Mle-Panxα1", "Mle-Panxα4-Panx"}, ids(c))

	c = panxContainer(t)
	require.NoError(t, c.Delete("^Mle"))
	require.Equal(t, []string{"Bab-Innexin2"}, ids(c))
}

func TestDelete_DropsEmptyBlocks(t *testing.T) {
	a := newTestContainer(t, rec("a1", "AC"), rec("a2", "AG"))
	b := newTestContainer(t, rec("b1", "ACG"))
	c, err := Merge([]*Container{a, b})
	require.NoError(t, err)

	require.NoError(t, c.Delete("^a"))
	require.Len(t, c.Blocks(), 1)
	require.Equal(t, []string{"b1"}, ids(c))
}

func TestPull_BadPattern(t *testing.T) {
	c := panxContainer(t)
	err := c.Pull("(")
	require.True(t, buddyerr.Is(err, buddyerr.KindValue))
	require.Equal(t, 3, c.Len())
}

func TestRename(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		repl       string
		occurrence int
		want       string
	}{
		{"all matches", "Panx", "Test", 0, "Mle-Testα4-Test"},
		{"second match", "Panx", "Test", 2, "Mle-Panxα4-Test"},
		{"first match", "Panx", "Test", 1, "Mle-Testα4-Panx"},
		{"occurrence past the end", "Panx", "Test", 3, "Mle-Panxα4-Panx"},
		{"backreferences", `^(Mle)-(Panx)`, `\2-\1`, 0, "Panx-Mleα4-Panx"},
		{"braced backreferences", `^(Mle)-`, `${1}_`, 0, "Mle_Panxα4-Panx"},
		{"literal dollar", "Panx", "$1Cost", 1, "Mle-$1Costα4-Panx"},
		{"literal dollar beside backreference", `^(Mle)`, `\1$`, 0, "Mle$-Panxα4-Panx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := panxContainer(t)
			require.NoError(t, c.Rename(tt.pattern, tt.repl, tt.occurrence))
			require.Equal(t, tt.want, c.Records()[1].ID)
		})
	}
}

func TestRename_NegativeOccurrence(t *testing.T) {
	c := panxContainer(t)
	require.Error(t, c.Rename("Panx", "Test", -1))
}

func TestOrderIDs(t *testing.T) {
	c := newTestContainer(t, rec("b", "A"), rec("a", "C"), rec("C", "G"), rec("a", "T"))
	require.NoError(t, c.OrderIDs(false))
	require.Equal(t, []string{"C", "a", "a", "b"}, ids(c))
	// stable: equal ids keep their input order
	require.Equal(t, []string{"G", "C", "T", "A"}, seqs(c))

	require.NoError(t, c.OrderIDs(true))
	require.Equal(t, []string{"b", "a", "a", "C"}, ids(c))
}

func TestHashIDs(t *testing.T) {
	for _, length := range []int{10, 25} {
		t.Run(fmt.Sprint(length), func(t *testing.T) {
			c := panxContainer(t)
			originals := ids(c)
			require.NoError(t, c.HashIDs(length))

			require.Len(t, c.HashMap, 3)
			for i, r := range c.Records() {
				require.Len(t, r.ID, length)
				require.Equal(t, r.ID, c.HashMap[i].Hash)
				require.Equal(t, originals[i], c.HashMap[i].Original)
			}
		})
	}
}

func TestHashIDs_Errors(t *testing.T) {
	c := panxContainer(t)
	err := c.HashIDs(0)
	require.EqualError(t, err, "Hash length must be greater than 0")

	var recs []*seqio.Record
	for i := range 40 {
		recs = append(recs, rec(fmt.Sprintf("s%d", i), "ACGT"))
	}
	c = newTestContainer(t, recs...)
	err = c.HashIDs(1)
	require.ErrorContains(t, err, "Insufficient number of hashes available to cover all sequences.")
	require.Equal(t, "s0", c.Records()[0].ID)
	require.Empty(t, c.HashMap)
}

func TestHashLengthArg(t *testing.T) {
	n, err := HashLengthArg("12")
	require.NoError(t, err)
	require.Equal(t, 12, n)

	n, err = HashLengthArg(int64(7))
	require.NoError(t, err)
	require.Equal(t, 7, n)

	_, err = HashLengthArg("foo")
	require.EqualError(t, err, "Hash length argument must be an integer, not string")
	require.True(t, buddyerr.Is(err, buddyerr.KindType))

	_, err = HashLengthArg(1.5)
	require.EqualError(t, err, "Hash length argument must be an integer, not float64")
}

// TestHashIDs_Unique is a property-based test: every generated id in one call
// is distinct and has the requested length.
func TestHashIDs_Unique(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 60).Draw(rt, "records")
		length := rapid.IntRange(2, 6).Draw(rt, "length")
		seed := rapid.Uint64().Draw(rt, "seed")

		recs := make([]*seqio.Record, n)
		for i := range recs {
			recs[i] = rec(fmt.Sprintf("r%d", i), "AC")
		}
		c, err := FromRecords(recs, WithRand(rand.New(rand.NewPCG(seed, seed^0x9e37))))
		if err != nil {
			rt.Fatal(err)
		}
		if err := c.HashIDs(length); err != nil {
			rt.Fatal(err)
		}
		seen := map[string]bool{}
		for _, r := range c.Records() {
			if len(r.ID) != length {
				rt.Fatalf("id %q has length %d, want %d", r.ID, len(r.ID), length)
			}
			if seen[r.ID] {
				rt.Fatalf("duplicate id %q", r.ID)
			}
			seen[r.ID] = true
		}
	})
}
