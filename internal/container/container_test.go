package container

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/format"
	"github.com/zjrosen/buddy/internal/seqio"
)

func rec(id, seq string) *seqio.Record {
	return &seqio.Record{ID: id, Seq: []byte(seq)}
}

// newTestContainer builds a single block container with a fixed random source.
func newTestContainer(t *testing.T, recs ...*seqio.Record) *Container {
	t.Helper()
	c, err := FromRecords(recs, WithRand(rand.New(rand.NewPCG(7, 11))))
	require.NoError(t, err)
	return c
}

func seqs(c *Container) []string {
	var out []string
	for _, r := range c.Records() {
		out = append(out, string(r.Seq))
	}
	return out
}

func ids(c *Container) []string {
	var out []string
	for _, r := range c.Records() {
		out = append(out, r.ID)
	}
	return out
}

func TestFromString_DetectsFormat(t *testing.T) {
	c, err := FromString(">a first\nACGT\n>b\nAC-T\n")
	require.NoError(t, err)
	require.Equal(t, format.FASTA, c.Format)
	require.Equal(t, seqio.DNA, c.Alpha)
	require.Equal(t, 2, c.Len())
	require.True(t, c.Aligned())
	require.Equal(t, []int{4}, c.AlignmentLengths())
}

func TestFromString_WithFormat(t *testing.T) {
	_, err := FromString(">a\nACGT\n", WithFormat("foo"))
	require.Error(t, err)
	require.True(t, buddyerr.Is(err, buddyerr.KindValue))
}

func TestNew_Path(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seqs.fa")
	require.NoError(t, os.WriteFile(path, []byte(">x\nMKLVWQ\n"), 0o600))

	c, err := New(path)
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, ids(c))
	require.Equal(t, seqio.Protein, c.Alpha)
}

func TestNew_Inputs(t *testing.T) {
	base := newTestContainer(t, rec("a", "ACGT"))

	c, err := New([]any{base, base})
	require.NoError(t, err)
	require.Len(t, c.Blocks(), 2)

	c, err = New([]byte(">z\nACGT\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"z"}, ids(c))

	c, err = New(strings.NewReader(">y\nACGT\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"y"}, ids(c))

	c, err = New(seqio.Alignment{rec("q", "AC")})
	require.NoError(t, err)
	require.Equal(t, format.FASTA, c.Format)
}

func TestNew_Errors(t *testing.T) {
	base := newTestContainer(t, rec("a", "ACGT"))

	_, err := New([]any{base, "not a container"})
	require.ErrorIs(t, err, ErrNotContainerList)
	require.EqualError(t, err, "List of non-Container objects passed as input.")
	require.True(t, buddyerr.Is(err, buddyerr.KindType))

	_, err = New([]int{1, 2})
	require.ErrorIs(t, err, ErrNotContainerList)

	_, err = New(map[string]int{"a": 1})
	require.ErrorIs(t, err, ErrUnknownInput)
	require.True(t, buddyerr.Is(err, buddyerr.KindGuess))

	_, err = New(nil)
	require.ErrorIs(t, err, ErrUnknownInput)

	_, err = New("definitely not sequence data")
	require.True(t, buddyerr.Is(err, buddyerr.KindGuess))
}

func TestMerge(t *testing.T) {
	a := newTestContainer(t, rec("a", "ACGT"))
	require.NoError(t, a.SetFormat("clustal"))
	require.NoError(t, a.HashIDs(5))
	b := newTestContainer(t, rec("b", "ACGTAA"))

	m, err := Merge([]*Container{a, b})
	require.NoError(t, err)
	require.Equal(t, format.Clustal, m.Format)
	require.Equal(t, []int{4, 6}, m.AlignmentLengths())
	require.Len(t, m.HashMap, 1)

	// merged blocks are copies
	m.Records()[0].Seq[0] = 'T'
	require.Equal(t, "ACGT", string(a.Records()[0].Seq))

	_, err = Merge(nil)
	require.True(t, buddyerr.Is(err, buddyerr.KindAttribute))
}

func TestCopy_Independent(t *testing.T) {
	c := newTestContainer(t, rec("a", "ACGT"), rec("b", "ACGA"))
	cp := c.Copy()
	require.NoError(t, cp.Lowercase())
	require.Equal(t, []string{"ACGT", "ACGA"}, seqs(c))
	require.Equal(t, []string{"acgt", "acga"}, seqs(cp))
	require.Equal(t, c.Alpha, cp.Alpha)
}

func TestFailedOperationLeavesContainerUnchanged(t *testing.T) {
	c := newTestContainer(t, rec("a", "AC-GT"), rec("b", "ACG"))
	before := c.String()

	err := c.Trim(Threshold{Mode: TrimClean})
	require.EqualError(t, err, "Alignment required: block 1 has records of unequal length.")
	require.True(t, buddyerr.Is(err, buddyerr.KindValue))
	require.Equal(t, before, c.String())

	err = c.Consensus()
	require.Error(t, err)
	require.Equal(t, before, c.String())
}

func TestWriteFile(t *testing.T) {
	c := newTestContainer(t, rec("a", "ACGT"))
	path := filepath.Join(t.TempDir(), "out.fa")
	require.NoError(t, c.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, ">a\nACGT\n", string(data))
	require.Equal(t, c.String(), string(data))
}
