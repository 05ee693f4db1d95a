package testutil

import (
	"github.com/zjrosen/buddy/internal/record"
	"github.com/zjrosen/buddy/internal/seqio"
)

// WithPanxAlignment adds three aligned pannexin fragments, the first with a
// CDS feature.
func (b *Builder) WithPanxAlignment() *Builder {
	return b.
		WithSeq("Mle-Panxα1", "ATGGCC---TAA",
			Description("Mnemiopsis pannexin 1"),
			Feature("CDS", 0, 12, 1, "gene", "panx1")).
		WithSeq("Mle-Panxα4", "ATGGCCAAGTAA", Description("Mnemiopsis pannexin 4")).
		WithSeq("Bab-Panxα2", "ATG---AAGTGA")
}

// WithUnalignedSeqs adds three DNA records of different lengths.
func (b *Builder) WithUnalignedSeqs() *Builder {
	return b.
		WithSeq("seq1", "ACGTACGTAC").
		WithSeq("seq2", "ACGTACG").
		WithSeq("seq3", "ACGTACGTACGTAC")
}

// WithProteinSeqs adds two protein records.
func (b *Builder) WithProteinSeqs() *Builder {
	return b.
		WithSeq("prot1", "MKLVWQRST", Alphabet(seqio.Protein)).
		WithSeq("prot2", "MKLWQRS", Alphabet(seqio.Protein))
}

// WithMixedAccessions adds one accession per remote database plus a GI number.
func (b *AccessionBuilder) WithMixedAccessions() *AccessionBuilder {
	return b.
		WithAccession("XM_001", record.WithVersion("1"), record.WithDatabase(record.NCBINuc),
			record.WithType(record.Nucleotide),
			record.WithSummary(record.NewSummary("organism", "Mnemiopsis leidyi", "length", "1200"))).
		WithAccession("NP_002", record.WithVersion("3"), record.WithDatabase(record.NCBIProt),
			record.WithType(record.Protein),
			record.WithSummary(record.NewSummary("organism", "Homo sapiens", "length", "402"))).
		WithAccession("P12345", record.WithDatabase(record.UniProt), record.WithType(record.Protein),
			record.WithSummary(record.NewSummary("organism", "Oryctolagus cuniculus", "length", "430"))).
		WithAccession("ENSG00000139618", record.WithDatabase(record.Ensembl), record.WithType(record.Nucleotide),
			record.WithSummary(record.NewSummary("organism", "homo_sapiens", "length", "84193"))).
		WithAccession("5421", record.WithGI("5421"), record.WithDatabase(record.NCBINuc), record.WithType(record.GINum))
}
