package seqio

import (
	"bufio"
	"io"
	"strings"

	"github.com/zjrosen/buddy/internal/format"
)

// fastaColumns is the number of residues per line when writing FASTA.
const fastaColumns = 60

// readFASTA reads '>' entries. Residue case and gaps are kept as written;
// blank lines and surrounding whitespace are ignored.
func readFASTA(r io.Reader) ([]*Record, error) {
	lr := newLineReader(r)
	var (
		recs []*Record
		cur  *Record
	)
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if line[0] == '>' {
			id, desc := splitHeader(line[1:])
			cur = &Record{ID: id, Description: desc, Seq: []byte{}}
			recs = append(recs, cur)
			continue
		}
		if cur == nil {
			return nil, &ParseError{Format: format.FASTA, Line: lr.line, Msg: "expected '>' got '" + line[:1] + "'"}
		}
		cur.Seq = append(cur.Seq, stripSpace(line)...)
	}
	if err := lr.err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func writeFASTA(w *bufio.Writer, r *Record) error {
	p := &printer{w: w}
	if r.Description != "" {
		p.pf(">%s %s\n", r.ID, r.Description)
	} else {
		p.pf(">%s\n", r.ID)
	}
	for start := 0; start < len(r.Seq); start += fastaColumns {
		end := min(start+fastaColumns, len(r.Seq))
		p.pf("%s\n", r.Seq[start:end])
	}
	return p.err
}
