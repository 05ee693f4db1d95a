// Package format is the closed registry of sequence and alignment file formats,
// their aliases, the fixed synonym groups used by the accession container and
// content-based format detection.
package format

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zjrosen/buddy/internal/buddyerr"
)

// Format is a canonical format name.
type Format string

const (
	FASTA         Format = "fasta"
	FASTQ         Format = "fastq"
	GenBank       Format = "genbank"
	EMBL          Format = "embl"
	Nexus         Format = "nexus"
	Phylip        Format = "phylip"
	PhylipRelaxed Format = "phylip-relaxed"
	PhylipSS      Format = "phylipss"
	PhylipSR      Format = "phylipsr"
	Clustal       Format = "clustal"
	Stockholm     Format = "stockholm"
	Newick        Format = "newick"
)

var canonical = []Format{
	FASTA, FASTQ, GenBank, EMBL, Nexus, Phylip, PhylipRelaxed,
	PhylipSS, PhylipSR, Clustal, Stockholm, Newick,
}

var aliases = map[string]Format{
	"gb":                       GenBank,
	"fa":                       FASTA,
	"fas":                      FASTA,
	"fna":                      FASTA,
	"faa":                      FASTA,
	"fst":                      FASTA,
	"nex":                      Nexus,
	"phylipi":                  PhylipRelaxed,
	"phylip-interleaved":       PhylipRelaxed,
	"phylips":                  PhylipSR,
	"phylip-sequential":        PhylipSR,
	"phylip-strict":            Phylip,
	"phylipis":                 Phylip,
	"phylip-sequential-strict": PhylipSS,
	"aln":                      Clustal,
	"clus":                     Clustal,
	"clustalw":                 Clustal,
	"stock":                    Stockholm,
	"sth":                      Stockholm,
	"pfam":                     Stockholm,
	"nwk":                      Newick,
	"tree":                     Newick,
	"tre":                      Newick,
}

// UnknownFormatError is returned when a name is neither canonical nor an alias.
type UnknownFormatError struct {
	Name string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown format %q", e.Name)
}

func (e *UnknownFormatError) Kind() buddyerr.Kind { return buddyerr.KindValue }

// Canonical returns a copy of the canonical format list in registry order.
func Canonical() []Format {
	return slices.Clone(canonical)
}

// Canonicalize maps a canonical name or alias onto its canonical Format.
// Lookup is case-insensitive and ignores surrounding whitespace.
func Canonicalize(name string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if slices.Contains(canonical, Format(key)) {
		return Format(key), nil
	}
	if f, ok := aliases[key]; ok {
		return f, nil
	}
	return "", &UnknownFormatError{Name: name}
}

// IsPhylip reports whether f is one of the phylip variants.
func (f Format) IsPhylip() bool {
	switch f {
	case Phylip, PhylipRelaxed, PhylipSS, PhylipSR:
		return true
	}
	return false
}

// IsAlignment reports whether f can only represent aligned sequences.
func (f Format) IsAlignment() bool {
	switch f {
	case Nexus, Clustal, Stockholm:
		return true
	}
	return f.IsPhylip()
}

// Strict reports whether the phylip variant truncates ids to ten characters.
func (f Format) Strict() bool {
	return f == Phylip || f == PhylipSS
}

// Sequential reports whether the phylip variant writes each sequence on one line.
func (f Format) Sequential() bool {
	return f == PhylipSS || f == PhylipSR
}

// Partition names one of the three accession container partitions.
type Partition int

const (
	PartitionUnknown Partition = iota
	PartitionRecords
	PartitionTrash
	PartitionSearch
)

func (p Partition) String() string {
	switch p {
	case PartitionRecords:
		return "records"
	case PartitionTrash:
		return "trash_bin"
	case PartitionSearch:
		return "search_terms"
	default:
		return "unknown"
	}
}

var (
	trashSynonyms  = []string{"t", "tb", "t_bin", "tbin", "trash", "trashbin", "trash-bin", "trash_bin"}
	recordSynonyms = []string{"r", "rec", "recs", "records", "main", "filtered"}
	searchSynonyms = []string{"st", "search", "search-terms", "search_terms", "terms"}
	dbBuddyFormats = []string{
		"ids", "accessions", "summary", "full-summary", "clustal", "embl", "fasta", "fastq",
		"fastq-sanger", "fastq-solexa", "fastq-illumina", "genbank", "gb", "imgt", "nexus",
		"phd", "phylip", "seqxml", "sff", "stockholm", "tab", "qual",
	}
)

// TrashSynonyms returns the names accepted for the trash bin partition.
func TrashSynonyms() []string { return slices.Clone(trashSynonyms) }

// RecordSynonyms returns the names accepted for the records partition.
func RecordSynonyms() []string { return slices.Clone(recordSynonyms) }

// SearchSynonyms returns the names accepted for the search terms partition.
func SearchSynonyms() []string { return slices.Clone(searchSynonyms) }

// DbBuddyFormats returns the output formats the accession container accepts.
func DbBuddyFormats() []string { return slices.Clone(dbBuddyFormats) }

// IsDbBuddyFormat reports whether name is an accepted accession container output format.
func IsDbBuddyFormat(name string) bool {
	return slices.Contains(dbBuddyFormats, strings.ToLower(strings.TrimSpace(name)))
}

// ResolvePartition resolves a synonym onto its partition.
func ResolvePartition(name string) Partition {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case slices.Contains(recordSynonyms, key):
		return PartitionRecords
	case slices.Contains(trashSynonyms, key):
		return PartitionTrash
	case slices.Contains(searchSynonyms, key):
		return PartitionSearch
	}
	return PartitionUnknown
}
