package container

import (
	"bytes"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/log"
	"github.com/zjrosen/buddy/internal/seqio"
)

// Standard genetic code in TCAG order.
const (
	codonBases  = "TCAG"
	aminoAcids  = "FFLLSSSSYY**CC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG"
	protAmbig   = 'X'
	nucAmbigRep = 'N'
)

var baseIndex = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i, b := range []byte(codonBases) {
		idx[b] = int8(i)
		idx[b+'a'-'A'] = int8(i)
	}
	idx['U'], idx['u'] = idx['T'], idx['t']
	return idx
}()

func translateCodon(codon []byte) byte {
	gaps := 0
	for _, b := range codon {
		if seqio.IsGap(b) {
			gaps++
		}
	}
	switch {
	case gaps == len(codon):
		return '-'
	case gaps > 0 || len(codon) < 3:
		return protAmbig
	}
	i, j, k := baseIndex[codon[0]], baseIndex[codon[1]], baseIndex[codon[2]]
	if i < 0 || j < 0 || k < 0 {
		return protAmbig
	}
	return aminoAcids[int(i)*16+int(j)*4+int(k)]
}

func requireNucleic(c *Container, blocks []seqio.Alignment, suffix string) error {
	if c.Alpha == seqio.Protein {
		return buddyerr.Typef("Nucleic acid sequence required, not protein.")
	}
	for _, b := range blocks {
		for _, r := range b {
			if r.Alphabet == seqio.Protein {
				return buddyerr.Typef("Record '%s' is protein.%s", r.ID, suffix)
			}
		}
	}
	return nil
}

// Translate converts every record to protein with the standard code. Each
// column triplet becomes one residue: all gaps give '-', partial gaps or
// ambiguous bases give 'X', stops give '*'. Features are dropped.
func (c *Container) Translate() error {
	err := c.apply("translate", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		if err := requireNucleic(c, blocks, ""); err != nil {
			return nil, err
		}
		for _, b := range blocks {
			for _, r := range b {
				prot := make([]byte, 0, (len(r.Seq)+2)/3)
				for i := 0; i < len(r.Seq); i += 3 {
					prot = append(prot, translateCodon(r.Seq[i:min(i+3, len(r.Seq))]))
				}
				r.Seq = prot
				r.Quality = nil
				r.Features = nil
				r.Alphabet = seqio.Protein
			}
		}
		return blocks, nil
	})
	if err != nil {
		return err
	}
	c.Alpha = seqio.Protein
	return nil
}

func mapSeqs(c *Container, op string, fn func(r *seqio.Record)) error {
	return c.apply(op, func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		for _, b := range blocks {
			for _, r := range b {
				fn(r)
			}
		}
		return blocks, nil
	})
}

// Uppercase upper-cases every residue.
func (c *Container) Uppercase() error {
	return mapSeqs(c, "uppercase", func(r *seqio.Record) { r.Seq = bytes.ToUpper(r.Seq) })
}

// Lowercase lower-cases every residue.
func (c *Container) Lowercase() error {
	return mapSeqs(c, "lowercase", func(r *seqio.Record) { r.Seq = bytes.ToLower(r.Seq) })
}

// Transcribe converts DNA to RNA.
func (c *Container) Transcribe() error {
	if c.Alpha != seqio.DNA {
		return buddyerr.Typef("DNA sequence required, not %s.", c.Alpha)
	}
	err := mapSeqs(c, "transcribe", func(r *seqio.Record) {
		r.Seq = bytes.Map(func(b rune) rune {
			switch b {
			case 'T':
				return 'U'
			case 't':
				return 'u'
			}
			return b
		}, r.Seq)
		r.Alphabet = seqio.RNA
	})
	if err == nil {
		c.Alpha = seqio.RNA
	}
	return err
}

// ReverseTranscribe converts RNA to DNA.
func (c *Container) ReverseTranscribe() error {
	if c.Alpha != seqio.RNA {
		return buddyerr.Typef("RNA sequence required, not %s.", c.Alpha)
	}
	err := mapSeqs(c, "reverse_transcribe", func(r *seqio.Record) {
		r.Seq = bytes.Map(func(b rune) rune {
			switch b {
			case 'U':
				return 'T'
			case 'u':
				return 't'
			}
			return b
		}, r.Seq)
		r.Alphabet = seqio.DNA
	})
	if err == nil {
		c.Alpha = seqio.DNA
	}
	return err
}

// CleanSeqs removes characters outside the container's alphabet. In aligned
// containers they become gaps so blocks stay rectangular; otherwise they
// and any gaps are dropped. When ambiguous is false, nucleotide ambiguity
// codes are replaced with rep ('N' when rep is 0).
func (c *Container) CleanSeqs(ambiguous bool, rep byte) error {
	if rep == 0 {
		rep = nucAmbigRep
	}
	aligned := c.Aligned()
	nucleic := c.Alpha.IsNucleic()
	return mapSeqs(c, "clean_seqs", func(r *seqio.Record) {
		out := make([]byte, 0, len(r.Seq))
		for _, b := range r.Seq {
			switch {
			case seqio.IsGap(b):
				if aligned {
					out = append(out, '-')
				}
			case !validResidue(b, nucleic):
				if aligned {
					out = append(out, '-')
				}
			case nucleic && !ambiguous && !isCoreNucleotide(b):
				out = append(out, rep)
			default:
				out = append(out, b)
			}
		}
		if len(out) != len(r.Seq) {
			r.Quality = nil
		}
		r.Seq = out
	})
}

func validResidue(b byte, nucleic bool) bool {
	if nucleic {
		return seqio.IsNucleotideSymbol(b) || b == 'X' || b == 'x'
	}
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '*'
}

func isCoreNucleotide(b byte) bool {
	switch b {
	case 'A', 'C', 'G', 'T', 'U', 'a', 'c', 'g', 't', 'u':
		return true
	}
	return false
}

// EnforceTriplets moves gaps that interrupt a codon to the end of that
// codon, so every run of residues between gaps is a whole number of codons.
// Record lengths do not change.
func (c *Container) EnforceTriplets() error {
	return c.apply("enforce_triplets", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		if err := requireNucleic(c, blocks, " Nucleic acid sequence required."); err != nil {
			return nil, err
		}
		moved := 0
		for _, b := range blocks {
			for _, r := range b {
				var n int
				r.Seq, n = codonAlign(r.Seq)
				moved += n
			}
		}
		log.Debug(log.CatContainer, "enforced triplets", "gaps_moved", moved)
		return blocks, nil
	})
}

func codonAlign(seq []byte) ([]byte, int) {
	out := make([]byte, 0, len(seq))
	frame, pending, moved := 0, 0, 0
	for _, b := range seq {
		if seqio.IsGap(b) {
			if frame == 0 {
				out = append(out, '-')
			} else {
				pending++
				moved++
			}
			continue
		}
		out = append(out, b)
		frame = (frame + 1) % 3
		if frame == 0 && pending > 0 {
			out = append(out, bytes.Repeat([]byte{'-'}, pending)...)
			pending = 0
		}
	}
	out = append(out, bytes.Repeat([]byte{'-'}, pending)...)
	return out, moved
}
