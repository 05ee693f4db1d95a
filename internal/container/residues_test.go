package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/seqio"
)

func TestTranslate(t *testing.T) {
	r := rec("a", "ATGGCC---TAA")
	r.Features = []seqio.Feature{{Type: "CDS", Location: seqio.Location{Parts: []seqio.Span{{Start: 0, End: 12}}}}}
	c := newTestContainer(t, r, rec("b", "ATG-CCNNNTGA"))

	require.NoError(t, c.Translate())
	require.Equal(t, []string{"MA-*", "MXX*"}, seqs(c))
	require.Equal(t, seqio.Protein, c.Alpha)
	for _, r := range c.Records() {
		require.Equal(t, seqio.Protein, r.Alphabet)
		require.Empty(t, r.Features)
	}
}

func TestTranslate_RNAAndTrailingBases(t *testing.T) {
	c := newTestContainer(t, rec("a", "AUGUUUGG"))
	require.Equal(t, seqio.RNA, c.Alpha)
	require.NoError(t, c.Translate())
	require.Equal(t, []string{"MFX"}, seqs(c))
}

func TestTranslate_ProteinInput(t *testing.T) {
	c := newTestContainer(t, rec("p", "MKLVWQ"))
	err := c.Translate()
	require.EqualError(t, err, "Nucleic acid sequence required, not protein.")
	require.True(t, buddyerr.Is(err, buddyerr.KindType))
}

func mixedContainer(t *testing.T) *Container {
	t.Helper()
	p := rec("p1", "ACG")
	p.Alphabet = seqio.Protein
	d := rec("d1", "ACGTACGTAC")
	d.Alphabet = seqio.DNA
	c := newTestContainer(t, d, p)
	require.Equal(t, seqio.DNA, c.Alpha)
	return c
}

func TestTranslate_ProteinRecord(t *testing.T) {
	c := mixedContainer(t)
	require.EqualError(t, c.Translate(), "Record 'p1' is protein.")
	require.Equal(t, []string{"ACGTACGTAC", "ACG"}, seqs(c))
}

func TestTranscribe(t *testing.T) {
	c := newTestContainer(t, rec("a", "ACGTt-"))
	require.NoError(t, c.Transcribe())
	require.Equal(t, []string{"ACGUu-"}, seqs(c))
	require.Equal(t, seqio.RNA, c.Alpha)

	err := c.Transcribe()
	require.EqualError(t, err, "DNA sequence required, not rna.")
	require.True(t, buddyerr.Is(err, buddyerr.KindType))

	require.NoError(t, c.ReverseTranscribe())
	require.Equal(t, []string{"ACGTt-"}, seqs(c))
	require.Equal(t, seqio.DNA, c.Alpha)

	require.EqualError(t, c.ReverseTranscribe(), "RNA sequence required, not dna.")
}

func TestTranscribe_Protein(t *testing.T) {
	c := newTestContainer(t, rec("p", "MKLVWQ"))
	require.EqualError(t, c.Transcribe(), "DNA sequence required, not protein.")
}

func TestCase(t *testing.T) {
	c := newTestContainer(t, rec("a", "AcGt-"))
	require.NoError(t, c.Uppercase())
	require.Equal(t, []string{"ACGT-"}, seqs(c))
	require.NoError(t, c.Lowercase())
	require.Equal(t, []string{"acgt-"}, seqs(c))
}

func TestCleanSeqs_Unaligned(t *testing.T) {
	build := func() *Container {
		return newTestContainer(t, rec("a", "ACGTACGTAC-GT*RY"), rec("b", "ACGTACGTACGTACG"))
	}

	c := build()
	require.Equal(t, seqio.DNA, c.Alpha)
	require.NoError(t, c.CleanSeqs(false, 0))
	require.Equal(t, []string{"ACGTACGTACGTNN", "ACGTACGTACGTACG"}, seqs(c))

	c = build()
	require.NoError(t, c.CleanSeqs(true, 0))
	require.Equal(t, "ACGTACGTACGTRY", seqs(c)[0])

	c = build()
	require.NoError(t, c.CleanSeqs(false, 'X'))
	require.Equal(t, "ACGTACGTACGTXX", seqs(c)[0])
}

func TestCleanSeqs_AlignedKeepsColumns(t *testing.T) {
	c := newTestContainer(t, rec("a", "AC*T."), rec("b", "ACGT-"))
	require.NoError(t, c.CleanSeqs(true, 0))
	require.Equal(t, []string{"AC-T-", "ACGT-"}, seqs(c))
	require.True(t, c.Aligned())
}

func TestCleanSeqs_Protein(t *testing.T) {
	c := newTestContainer(t, rec("p", "MK-L1VW*"), rec("q", "MKV"))
	require.Equal(t, seqio.Protein, c.Alpha)
	require.NoError(t, c.CleanSeqs(false, 0))
	require.Equal(t, []string{"MKLVW*", "MKV"}, seqs(c))
}

func TestEnforceTriplets(t *testing.T) {
	c := newTestContainer(t, rec("a", "AT-GCC"), rec("b", "A--TGCCC-"), rec("c", "ATGGCC"))
	require.NoError(t, c.EnforceTriplets())
	require.Equal(t, []string{"ATG-CC", "ATG--CCC-", "ATGGCC"}, seqs(c))
}

func TestEnforceTriplets_Protein(t *testing.T) {
	c := mixedContainer(t)
	err := c.EnforceTriplets()
	require.EqualError(t, err, "Record 'p1' is protein. Nucleic acid sequence required.")

	c = newTestContainer(t, rec("p", "MKLVWQ"))
	require.EqualError(t, c.EnforceTriplets(), "Nucleic acid sequence required, not protein.")
}

func TestCodonAlign_PreservesLength(t *testing.T) {
	for _, s := range []string{"", "---", "A-C-G-T", "ACGT--ACG-T", "-A-"} {
		out, _ := codonAlign([]byte(s))
		require.Len(t, out, len(s), s)
	}
}
