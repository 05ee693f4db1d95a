package seqio

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/zjrosen/buddy/internal/format"
)

const (
	clustalColumns  = 60
	clustalMinWidth = 16
	clustalHeader   = "CLUSTAL W (1.83) multiple sequence alignment"
)

// readClustal reads an interleaved clustal alignment. Conservation lines start
// with whitespace and are skipped, as are trailing residue counts.
func readClustal(r io.Reader) ([]*Record, error) {
	lr := newLineReader(r)
	var (
		recs  []*Record
		index = map[string]*Record{}
	)
	first := true
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		if first && strings.TrimSpace(line) == "" {
			continue
		}
		if first {
			first = false
			if !strings.HasPrefix(line, "CLUSTAL") && !strings.HasPrefix(line, "MUSCLE") &&
				!strings.HasPrefix(line, "PROBCONS") {
				return nil, &ParseError{Format: format.Clustal, Line: lr.line, Msg: "missing CLUSTAL header"}
			}
			continue
		}
		if strings.TrimSpace(line) == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, &ParseError{Format: format.Clustal, Line: lr.line, Msg: "expected '<id> <residues>'"}
		}
		id, residues := fields[0], fields[1]
		if len(fields) > 2 {
			if _, err := strconv.Atoi(fields[len(fields)-1]); err != nil {
				return nil, &ParseError{Format: format.Clustal, Line: lr.line, Msg: "unexpected trailing field " + fields[len(fields)-1]}
			}
		}
		rec, seen := index[id]
		if !seen {
			rec = &Record{ID: id, Seq: []byte{}}
			index[id] = rec
			recs = append(recs, rec)
		}
		rec.Seq = append(rec.Seq, residues...)
	}
	if err := lr.err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func writeClustal(w *bufio.Writer, a Alignment) error {
	p := &printer{w: w}
	p.pf("%s\n\n", clustalHeader)
	col := max(idWidth(a)+6, clustalMinWidth)
	width := a.Width()
	for start := 0; start < width; start += clustalColumns {
		p.pf("\n")
		end := min(start+clustalColumns, width)
		for _, r := range a {
			chunk := r.Seq[min(start, len(r.Seq)):min(end, len(r.Seq))]
			p.pf("%s%s\n", padID(r.ID, col), chunk)
		}
	}
	return p.err
}
