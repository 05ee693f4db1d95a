package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/seqio"
)

func TestExtractRegions(t *testing.T) {
	long := rec("long", "ACGTACGTACGTACGTACGT")
	long.Features = []seqio.Feature{
		{Type: "gene", Location: seqio.Location{Parts: []seqio.Span{{Start: 11, End: 16}}}},
		{Type: "misc", Location: seqio.Location{Parts: []seqio.Span{{Start: 0, End: 4}}}},
	}
	c := newTestContainer(t, long, rec("short", "ACGTACGTACGTA"))

	require.NoError(t, c.ExtractRegions(13, 15))
	require.Equal(t, []string{"ACG", "A"}, seqs(c))

	feats := c.Records()[0].Features
	require.Len(t, feats, 1)
	require.Equal(t, "gene", feats[0].Type)
	require.Equal(t, []seqio.Span{{Start: 0, End: 3}}, feats[0].Location.Parts)
}

func TestExtractRegions_StartZero(t *testing.T) {
	c := newTestContainer(t, rec("a", "ACGTAC"))
	require.NoError(t, c.ExtractRegions(0, 2))
	require.Equal(t, []string{"AC"}, seqs(c))
}

func TestExtractRegions_Invalid(t *testing.T) {
	c := newTestContainer(t, rec("a", "ACGTAC"))
	err := c.ExtractRegions(5, 2)
	require.True(t, buddyerr.Is(err, buddyerr.KindValue))
	require.Equal(t, []string{"ACGTAC"}, seqs(c))
}

func gappyContainer(t *testing.T) *Container {
	t.Helper()
	return newTestContainer(t,
		rec("a", "A--G-"),
		rec("b", "--T--"),
		rec("c", "--TG-"),
		rec("d", "A---C"),
	)
}

func TestTrim(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want []string
	}{
		{"gappyout", "gappyout", []string{"", "", "", ""}},
		{"clean", "clean", []string{"A-G-", "-T--", "-TG-", "A--C"}},
		{"all", "all", []string{"", "", "", ""}},
		{"fraction", "0.5", []string{"A-G", "-T-", "-TG", "A--"}},
		{"count", "3", []string{"A-G-", "-T--", "-TG-", "A--C"}},
		{"count zero", "0", []string{"", "", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := ParseThreshold(tt.arg)
			require.NoError(t, err)
			c := gappyContainer(t)
			require.NoError(t, c.Trim(th))
			require.Equal(t, tt.want, seqs(c))
		})
	}
}

func TestTrim_FractionIsStrict(t *testing.T) {
	c := newTestContainer(t, rec("a", "A-C"), rec("b", "A-C"), rec("c", "AAC"))
	th, err := ParseThreshold("0.5")
	require.NoError(t, err)
	require.NoError(t, c.Trim(th))
	require.Equal(t, []string{"AC", "AC", "AC"}, seqs(c))

	c = newTestContainer(t, rec("a", "A-C"), rec("b", "A-C"), rec("c", "AAC"))
	th, err = ParseThreshold("0.7")
	require.NoError(t, err)
	require.NoError(t, c.Trim(th))
	require.Equal(t, []string{"A-C", "A-C", "AAC"}, seqs(c))
}

func TestTrim_AllKeepsGaplessColumns(t *testing.T) {
	c := newTestContainer(t, rec("a", "ACGT"), rec("b", "A-GT"))
	require.NoError(t, c.Trim(Threshold{Mode: TrimAll}))
	require.Equal(t, []string{"AGT", "AGT"}, seqs(c))
}

func TestTrim_GappyoutWithoutGaps(t *testing.T) {
	c := newTestContainer(t, rec("a", "ACGT"), rec("b", "AGGT"))
	require.NoError(t, c.Trim(Threshold{Mode: TrimGappyout}))
	require.Equal(t, []string{"ACGT", "AGGT"}, seqs(c))
}

func TestParseThreshold(t *testing.T) {
	th, err := ParseThreshold("0.7")
	require.NoError(t, err)
	require.Equal(t, Threshold{Mode: TrimFraction, Fraction: 0.7}, th)

	th, err = ParseThreshold(" ALL ")
	require.NoError(t, err)
	require.Equal(t, TrimAll, th.Mode)

	th, err = ParseThreshold("3")
	require.NoError(t, err)
	require.Equal(t, Threshold{Mode: TrimCount, Count: 3}, th)

	for _, bad := range []string{"1.5", "0.0", "-2", "abc", ""} {
		_, err := ParseThreshold(bad)
		require.Error(t, err, bad)
		require.True(t, buddyerr.Is(err, buddyerr.KindValue), bad)
	}
}

func TestBootstrap(t *testing.T) {
	a := newTestContainer(t, rec("a1", "ACGT"), rec("a2", "TGCA"))
	b := newTestContainer(t, rec("b1", "AAAAAC"), rec("b2", "CCCCCA"))
	c, err := Merge([]*Container{a, b})
	require.NoError(t, err)

	require.NoError(t, c.Bootstrap(3))
	require.Equal(t, []int{4, 4, 4, 6, 6, 6}, c.AlignmentLengths())

	pairs := map[[2]byte]bool{{'A', 'T'}: true, {'C', 'G'}: true, {'G', 'C'}: true, {'T', 'A'}: true}
	for _, blk := range c.Blocks()[:3] {
		require.Equal(t, "a1", blk[0].ID)
		for i := range blk[0].Seq {
			require.True(t, pairs[[2]byte{blk[0].Seq[i], blk[1].Seq[i]}], "columns must be resampled together")
		}
	}
	for _, blk := range c.Blocks()[3:] {
		require.Equal(t, "b1", blk[0].ID)
	}
}

func TestBootstrap_Errors(t *testing.T) {
	c := newTestContainer(t, rec("a", "ACGT"), rec("b", "AC"))
	require.True(t, buddyerr.Is(c.Bootstrap(0), buddyerr.KindValue))
	require.Error(t, c.Bootstrap(2))
	require.Equal(t, 2, c.Len())
}

func TestConsensus(t *testing.T) {
	c := newTestContainer(t, rec("a", "AAC-"), rec("b", "AGC-"), rec("c", "TG--"))
	require.NoError(t, c.Consensus())
	require.Equal(t, []string{ConsensusID}, ids(c))
	require.Equal(t, []string{"AGC-"}, seqs(c))
}

func TestConsensus_TiesGoToFirstSeen(t *testing.T) {
	c := newTestContainer(t, rec("a", "AC"), rec("b", "GT"))
	require.NoError(t, c.Consensus())
	require.Equal(t, []string{"AC"}, seqs(c))

	c = newTestContainer(t, rec("a", "-C"), rec("b", "GT"))
	require.NoError(t, c.Consensus())
	require.Equal(t, []string{"-C"}, seqs(c))
}
