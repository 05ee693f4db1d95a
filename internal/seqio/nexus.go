package seqio

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/zjrosen/buddy/internal/format"
)

var nexusDatatype = regexp.MustCompile(`(?i)datatype\s*=\s*(\w+)`)

// readNexus reads the matrix of the first data/characters block. Ids may be
// single quoted; interleaved matrices are concatenated by id.
func readNexus(r io.Reader) ([]*Record, error) {
	lr := newLineReader(r)
	var (
		recs     []*Record
		index    = map[string]*Record{}
		inMatrix bool
		alpha    Alphabet
	)
	first, ok := nextNonEmpty(lr)
	if !ok || !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(first)), "#NEXUS") {
		return nil, &ParseError{Format: format.Nexus, Line: lr.line, Msg: "missing #NEXUS header"}
	}
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if !inMatrix {
			if m := nexusDatatype.FindStringSubmatch(trimmed); m != nil {
				switch strings.ToLower(m[1]) {
				case "dna", "nucleotide":
					alpha = DNA
				case "rna":
					alpha = RNA
				case "protein":
					alpha = Protein
				}
			}
			if lower == "matrix" || strings.HasPrefix(lower, "matrix ") {
				inMatrix = true
			}
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "[") {
			continue
		}
		end := strings.HasSuffix(trimmed, ";")
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
		if trimmed != "" {
			id, rest := splitNexusID(trimmed)
			rec, seen := index[id]
			if !seen {
				rec = &Record{ID: id, Seq: []byte{}, Alphabet: alpha}
				index[id] = rec
				recs = append(recs, rec)
			}
			rec.Seq = append(rec.Seq, stripSpace(rest)...)
		}
		if end {
			break
		}
	}
	if err := lr.err(); err != nil {
		return nil, err
	}
	if !inMatrix {
		return nil, &ParseError{Format: format.Nexus, Msg: "no matrix found"}
	}
	return recs, nil
}

func splitNexusID(line string) (string, string) {
	if strings.HasPrefix(line, "'") {
		if end := strings.Index(line[1:], "'"); end >= 0 {
			return line[1 : end+1], line[end+2:]
		}
	}
	id, rest := splitHeader(line)
	return id, rest
}

func nexusID(id string) string {
	if strings.ContainsAny(id, " \t'()[]{}/\\,;:=*\"`+<>") {
		return "'" + strings.ReplaceAll(id, "'", "''") + "'"
	}
	return id
}

func writeNexus(w *bufio.Writer, a Alignment) error {
	p := &printer{w: w}
	datatype := "protein"
	switch GuessRecords(a) {
	case DNA:
		datatype = "dna"
	case RNA:
		datatype = "rna"
	}
	p.pf("#NEXUS\n")
	p.pf("begin data;\n")
	p.pf("dimensions ntax=%d nchar=%d;\n", len(a), a.Width())
	p.pf("format datatype=%s missing=? gap=-;\n", datatype)
	p.pf("matrix\n")
	col := 0
	for _, r := range a {
		col = max(col, widthCond.StringWidth(nexusID(r.ID)))
	}
	for _, r := range a {
		p.pf("%s %s\n", padID(nexusID(r.ID), col), r.Seq)
	}
	p.pf(";\nend;\n")
	return p.err
}
