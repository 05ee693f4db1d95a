package seqio

// Alphabet is the residue alphabet of a sequence.
type Alphabet int

const (
	AlphabetUnknown Alphabet = iota
	Protein
	DNA
	RNA
)

func (a Alphabet) String() string {
	switch a {
	case Protein:
		return "protein"
	case DNA:
		return "dna"
	case RNA:
		return "rna"
	default:
		return "unknown"
	}
}

// IsNucleic reports whether a is DNA or RNA.
func (a Alphabet) IsNucleic() bool { return a == DNA || a == RNA }

var (
	iupacNucleotide [256]bool
	coreNucleotide  [256]bool
)

func init() {
	for _, c := range "ACGTUNRYKMSWBDHV" {
		iupacNucleotide[c] = true
		iupacNucleotide[c+'a'-'A'] = true
	}
	for _, c := range "ACGTUN" {
		coreNucleotide[c] = true
		coreNucleotide[c+'a'-'A'] = true
	}
}

// IsNucleotideSymbol reports whether b is an IUPAC nucleotide code.
func IsNucleotideSymbol(b byte) bool { return iupacNucleotide[b] }

// GuessAlphabet infers the alphabet of the given sequences together.
// Letters must all be IUPAC nucleotide codes with at least 90% of them A, C,
// G, T, U or N for a nucleic call; U without T means RNA.
func GuessAlphabet(seqs ...[]byte) Alphabet {
	var letters, core int
	var hasT, hasU bool
	for _, s := range seqs {
		for _, b := range s {
			if !isLetter(b) {
				continue
			}
			letters++
			if !iupacNucleotide[b] {
				return Protein
			}
			if coreNucleotide[b] {
				core++
			}
			switch b {
			case 'T', 't':
				hasT = true
			case 'U', 'u':
				hasU = true
			}
		}
	}
	if letters == 0 {
		return AlphabetUnknown
	}
	if core*10 < letters*9 {
		return Protein
	}
	if hasU && !hasT {
		return RNA
	}
	return DNA
}

// GuessRecords infers the alphabet across records.
func GuessRecords(recs []*Record) Alphabet {
	seqs := make([][]byte, len(recs))
	for i, r := range recs {
		seqs[i] = r.Seq
	}
	return GuessAlphabet(seqs...)
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
