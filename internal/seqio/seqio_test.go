package seqio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/format"
)

func sampleAlignment() Alignment {
	return Alignment{
		{ID: "Mle-Panxa1", Description: "first", Seq: []byte("ATG--CATGCATGA")},
		{ID: "Mle-Panxa2", Description: "second", Seq: []byte("ATGAACATG-ATGA")},
		{ID: "Mle-Panxa3", Seq: []byte("ATGAACATGCAT--")},
	}
}

// longAlignment is wider than one phylip chunk so interleaved and sequential
// layouts differ.
func longAlignment() Alignment {
	return Alignment{
		{ID: "Mle-Panxa1", Seq: []byte(strings.Repeat("ATG--CATGC", 7))},
		{ID: "Mle-Panxa2", Seq: []byte(strings.Repeat("ATGAACATG-", 7))},
		{ID: "Panxa3", Seq: []byte(strings.Repeat("ATGAACAT--", 7))},
	}
}

func TestReadFASTA(t *testing.T) {
	in := ">seq1 some description\nACGT\nacgt\n\n>seq2\nAC-GT\n"
	blocks, err := ReadString(in, format.FASTA)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	recs := blocks[0]
	require.Len(t, recs, 2)
	require.Equal(t, "seq1", recs[0].ID)
	require.Equal(t, "some description", recs[0].Description)
	require.Equal(t, "ACGTacgt", string(recs[0].Seq))
	require.Equal(t, "AC-GT", string(recs[1].Seq))
	require.Equal(t, DNA, recs[0].Alphabet)
}

func TestReadFASTA_MissingHeader(t *testing.T) {
	_, err := ReadString("ACGT\n", format.FASTA)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 1, pe.Line)
}

func TestWriteFASTA_Wraps(t *testing.T) {
	rec := &Record{ID: "long", Seq: []byte(strings.Repeat("A", 130))}
	out, err := String([]Alignment{{rec}}, format.FASTA)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Equal(t, ">long", lines[0])
	require.Len(t, lines, 4)
	require.Len(t, lines[1], 60)
	require.Len(t, lines[3], 10)
}

func TestRoundTrip_AlignmentFormats(t *testing.T) {
	formats := []format.Format{
		format.FASTA, format.Clustal, format.Stockholm, format.Nexus,
		format.Phylip, format.PhylipSS, format.PhylipRelaxed, format.PhylipSR,
	}
	for _, f := range formats {
		t.Run(string(f), func(t *testing.T) {
			out, err := String([]Alignment{longAlignment()}, f)
			require.NoError(t, err)

			detected, err := format.Detect([]byte(out))
			require.NoError(t, err)
			require.Equal(t, f, detected, out)

			blocks, err := ReadString(out, f)
			require.NoError(t, err)
			require.Len(t, blocks, 1)
			require.Len(t, blocks[0], 3)
			for i, rec := range longAlignment() {
				require.Equal(t, rec.ID, blocks[0][i].ID)
				require.Equal(t, string(rec.Seq), string(blocks[0][i].Seq))
			}
		})
	}
}

func TestPhylip_StrictTruncatesIDs(t *testing.T) {
	a := Alignment{
		{ID: "averyveryverylongid", Seq: []byte("ACGT")},
		{ID: "short", Seq: []byte("ACGA")},
	}
	out, err := String([]Alignment{a}, format.PhylipSS)
	require.NoError(t, err)
	require.Equal(t, " 2 4\naveryveryvACGT\nshort     ACGA\n", out)

	blocks, err := ReadString(out, format.PhylipSS)
	require.NoError(t, err)
	require.Equal(t, "averyveryv", blocks[0][0].ID)
	require.Equal(t, "ACGT", string(blocks[0][0].Seq))
}

func TestPhylip_RelaxedKeepsLongIDs(t *testing.T) {
	in := "2 8\nMle-Panxalpha1 ACGT\nMle-Panxalpha22 ACGA\n\nTTTT\nGGGG\n"
	blocks, err := ReadString(in, format.PhylipRelaxed)
	require.NoError(t, err)
	require.Equal(t, "Mle-Panxalpha1", blocks[0][0].ID)
	require.Equal(t, "ACGTTTTT", string(blocks[0][0].Seq))
	require.Equal(t, "ACGAGGGG", string(blocks[0][1].Seq))
}

func TestPhylip_LengthMismatch(t *testing.T) {
	_, err := ReadString("2 4\nseq1 ACGT\nseq2 ACG\n", format.PhylipSR)
	require.Error(t, err)
}

func TestPhylip_MultipleAlignments(t *testing.T) {
	in := "2 4\nseq1 ACGT\nseq2 ACGA\n2 3\nseq3 AAA\nseq4 CCC\n"
	blocks, err := ReadString(in, format.PhylipSR)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Equal(t, "seq3", blocks[1][0].ID)
}

func TestReadClustal_SkipsConservationAndCounts(t *testing.T) {
	in := `CLUSTAL W (1.83) multiple sequence alignment


seq1      ACGT-A 6
seq2      ACGTTA 6
          **** *

seq1      GG
seq2      GC
`
	blocks, err := ReadString(in, format.Clustal)
	require.NoError(t, err)
	require.Len(t, blocks[0], 2)
	require.Equal(t, "ACGT-AGG", string(blocks[0][0].Seq))
	require.Equal(t, "ACGTTAGC", string(blocks[0][1].Seq))
}

func TestReadStockholm_MultipleAlignments(t *testing.T) {
	in := `# STOCKHOLM 1.0
#=GS seq1 DE first sequence
seq1 AC-T
seq2 ACGT
//
# STOCKHOLM 1.0
seq3 GG
seq4 G.
//
`
	blocks, err := ReadString(in, format.Stockholm)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Equal(t, "first sequence", blocks[0][0].Description)
	require.Equal(t, "G.", string(blocks[1][1].Seq))
}

func TestReadStockholm_Unterminated(t *testing.T) {
	_, err := ReadString("# STOCKHOLM 1.0\nseq1 ACGT\n", format.Stockholm)
	require.Error(t, err)
}

func TestReadNexus_QuotedAndInterleaved(t *testing.T) {
	in := `#NEXUS
begin data;
dimensions ntax=2 nchar=8;
format datatype=dna interleave missing=? gap=-;
matrix
'seq one' ACGT
seq2      ACGA

'seq one' TTTT
seq2      GGGG
;
end;
`
	blocks, err := ReadString(in, format.Nexus)
	require.NoError(t, err)
	require.Equal(t, "seq one", blocks[0][0].ID)
	require.Equal(t, "ACGTTTTT", string(blocks[0][0].Seq))
	require.Equal(t, DNA, blocks[0][0].Alphabet)
}

func TestWriteNexus_QuotesIDs(t *testing.T) {
	a := Alignment{{ID: "seq one", Seq: []byte("ACGT")}}
	out, err := String([]Alignment{a}, format.Nexus)
	require.NoError(t, err)
	require.Contains(t, out, "'seq one' ACGT")
	require.Contains(t, out, "dimensions ntax=1 nchar=4;")
	require.Contains(t, out, "datatype=dna")
}

const genbankRecord = `LOCUS       Mle-Panxa1               12 bp    DNA     linear   UNK 01-JAN-1980
DEFINITION  Mnemiopsis leidyi innexin
            alpha 1.
ACCESSION   Mle-Panxa1
VERSION     Mle-Panxa1
KEYWORDS    .
SOURCE      .
  ORGANISM  Mnemiopsis leidyi
FEATURES             Location/Qualifiers
     gene            1..12
                     /gene="Panxa1"
     CDS             join(1..3,7..12)
                     /note="Innexin
                     family"
                     /codon_start=1
     misc_feature    complement(4..6)
ORIGIN
        1 atgcatgcat ga
//
`

func TestReadGenBank(t *testing.T) {
	blocks, err := ReadString(genbankRecord, format.GenBank)
	require.NoError(t, err)
	rec := blocks[0][0]
	require.Equal(t, "Mle-Panxa1", rec.ID)
	require.Equal(t, "Mnemiopsis leidyi innexin alpha 1", rec.Description)
	require.Equal(t, "ATGCATGCATGA", string(rec.Seq))
	require.Equal(t, "Mnemiopsis leidyi", rec.Annotations["organism"])
	require.Len(t, rec.Features, 3)

	gene := rec.Features[0]
	require.Equal(t, "gene", gene.Type)
	require.Equal(t, []Span{{Start: 0, End: 12}}, gene.Location.Parts)
	v, ok := gene.Qualifier("gene")
	require.True(t, ok)
	require.Equal(t, "Panxa1", v)

	cds := rec.Features[1]
	require.Equal(t, []Span{{0, 3}, {6, 12}}, cds.Location.Parts)
	note, _ := cds.Qualifier("note")
	require.Equal(t, "Innexin family", note)
	cs, _ := cds.Qualifier("codon_start")
	require.Equal(t, "1", cs)

	require.Equal(t, -1, rec.Features[2].Location.Strand)
}

func TestGenBank_RoundTrip(t *testing.T) {
	blocks, err := ReadString(genbankRecord, format.GenBank)
	require.NoError(t, err)
	out, err := String(blocks, format.GenBank)
	require.NoError(t, err)
	require.Contains(t, out, "     CDS             join(1..3,7..12)\n")
	require.Contains(t, out, "                     /codon_start=1\n")
	require.Contains(t, out, "        1 atgcatgcat ga\n")

	again, err := ReadString(out, format.GenBank)
	require.NoError(t, err)
	require.Equal(t, blocks[0][0].Features, again[0][0].Features)
	require.Equal(t, blocks[0][0].Seq, again[0][0].Seq)
}

func TestEMBL_RoundTrip(t *testing.T) {
	rec := &Record{
		ID:          "Mle-Panxa1",
		Description: "innexin",
		Seq:         []byte("ATGCATGCATGA"),
		Features: []Feature{{
			Type:       "gene",
			Location:   Location{Parts: []Span{{0, 12}}, Strand: 1},
			Qualifiers: []Qualifier{{Key: "gene", Value: "Panxa1"}},
		}},
	}
	out, err := String([]Alignment{{rec}}, format.EMBL)
	require.NoError(t, err)
	detected, err := format.Detect([]byte(out))
	require.NoError(t, err)
	require.Equal(t, format.EMBL, detected)

	blocks, err := ReadString(out, format.EMBL)
	require.NoError(t, err)
	got := blocks[0][0]
	require.Equal(t, "Mle-Panxa1", got.ID)
	require.Equal(t, "innexin", got.Description)
	require.Equal(t, "ATGCATGCATGA", string(got.Seq))
	require.Equal(t, rec.Features, got.Features)
}

func TestFASTQ_RoundTrip(t *testing.T) {
	in := "@read1 lane 1\nACGT\n+\nII#5\n@read2\nGG\n+read2\n!!\n"
	blocks, err := ReadString(in, format.FASTQ)
	require.NoError(t, err)
	require.Len(t, blocks[0], 2)
	require.Equal(t, []int{40, 40, 2, 20}, blocks[0][0].Quality)
	require.Equal(t, []int{0, 0}, blocks[0][1].Quality)

	out, err := String(blocks, format.FASTQ)
	require.NoError(t, err)
	require.Equal(t, "@read1 lane 1\nACGT\n+\nII#5\n@read2\nGG\n+\n!!\n", out)
}

func TestFASTQ_QualityMismatch(t *testing.T) {
	_, err := ReadString("@r\nACGT\n+\nII\n", format.FASTQ)
	require.Error(t, err)
}

func TestNewickIsNotSequenceData(t *testing.T) {
	_, err := ReadString("(A,B);", format.Newick)
	require.ErrorIs(t, err, ErrTreeFormat)
	require.True(t, buddyerr.Is(err, buddyerr.KindType))
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in     string
		parts  []Span
		strand int
	}{
		{"5", []Span{{4, 5}}, 1},
		{"1..10", []Span{{0, 10}}, 1},
		{"<1..>10", []Span{{0, 10}}, 1},
		{"complement(3..9)", []Span{{2, 9}}, -1},
		{"join(1..3, 7..9)", []Span{{0, 3}, {6, 9}}, 1},
		{"complement(join(1..3,7..9))", []Span{{0, 3}, {6, 9}}, -1},
		{"join(complement(1..3),complement(7..9))", []Span{{0, 3}, {6, 9}}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			loc, err := ParseLocation(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.parts, loc.Parts)
			require.Equal(t, tt.strand, loc.Strand)
		})
	}

	_, err := ParseLocation("10..1")
	require.Error(t, err)
	_, err = ParseLocation("abc")
	require.Error(t, err)
}

func TestFormatLocation(t *testing.T) {
	require.Equal(t, "5", FormatLocation(Location{Parts: []Span{{4, 5}}, Strand: 1}))
	require.Equal(t, "complement(join(1..3,7..9))",
		FormatLocation(Location{Parts: []Span{{0, 3}, {6, 9}}, Strand: -1}))
}

func TestGuessAlphabet(t *testing.T) {
	require.Equal(t, DNA, GuessAlphabet([]byte("ACGT-NNacgt")))
	require.Equal(t, RNA, GuessAlphabet([]byte("ACGU")))
	require.Equal(t, Protein, GuessAlphabet([]byte("MKLVPQE")))
	require.Equal(t, Protein, GuessAlphabet([]byte("ACDEFGHIK")))
	require.Equal(t, AlphabetUnknown, GuessAlphabet([]byte("---")))
	// mostly ambiguity codes is not nucleic
	require.Equal(t, Protein, GuessAlphabet([]byte("ACGTRYKMSWBDHV")))
}

func TestRecordCopy_IsDeep(t *testing.T) {
	orig := &Record{
		ID:          "a",
		Seq:         []byte("ACGT"),
		Annotations: map[string]string{"k": "v"},
		Features:    []Feature{{Type: "gene", Location: Location{Parts: []Span{{0, 4}}}}},
	}
	cp := orig.Copy()
	cp.Seq[0] = 'T'
	cp.Annotations["k"] = "changed"
	cp.Features[0].Location.Parts[0].End = 2
	require.Equal(t, "ACGT", string(orig.Seq))
	require.Equal(t, "v", orig.Annotations["k"])
	require.Equal(t, 4, orig.Features[0].Location.Parts[0].End)
}

func TestAlignmentHelpers(t *testing.T) {
	a := sampleAlignment()
	require.True(t, a.Aligned())
	require.Equal(t, 14, a.Width())
	require.Equal(t, "ATGCATGCATGA", string(a[0].Ungapped()))
	a[2].Seq = a[2].Seq[:5]
	require.False(t, a.Aligned())
}
