package seqio

import (
	"bufio"
	"io"
	"strings"

	"github.com/zjrosen/buddy/internal/format"
)

// phredOffset is the Sanger quality encoding offset.
const phredOffset = 33

func readFASTQ(r io.Reader) ([]*Record, error) {
	lr := newLineReader(r)
	var recs []*Record
	for {
		header, ok := lr.next()
		if !ok {
			break
		}
		if strings.TrimSpace(header) == "" {
			continue
		}
		if header[0] != '@' {
			return nil, &ParseError{Format: format.FASTQ, Line: lr.line, Msg: "expected '@' header"}
		}
		id, desc := splitHeader(header[1:])
		rec := &Record{ID: id, Description: desc}

		var seq []byte
		for {
			line, ok := lr.next()
			if !ok {
				return nil, &ParseError{Format: format.FASTQ, Line: lr.line, Msg: "record " + id + " has no '+' line"}
			}
			if strings.HasPrefix(line, "+") {
				break
			}
			seq = append(seq, stripSpace(line)...)
		}
		rec.Seq = seq

		var qual []byte
		for len(qual) < len(seq) {
			line, ok := lr.next()
			if !ok {
				break
			}
			qual = append(qual, stripSpace(line)...)
		}
		if len(qual) != len(seq) {
			return nil, &ParseError{Format: format.FASTQ, Line: lr.line, Msg: "quality length differs from sequence length for " + id}
		}
		rec.Quality = make([]int, len(qual))
		for i, q := range qual {
			rec.Quality[i] = int(q) - phredOffset
		}
		recs = append(recs, rec)
	}
	if err := lr.err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func writeFASTQ(w *bufio.Writer, r *Record) error {
	p := &printer{w: w}
	if r.Description != "" {
		p.pf("@%s %s\n", r.ID, r.Description)
	} else {
		p.pf("@%s\n", r.ID)
	}
	p.pf("%s\n+\n", r.Seq)
	qual := make([]byte, len(r.Seq))
	for i := range qual {
		q := 40
		if i < len(r.Quality) {
			q = r.Quality[i]
		}
		qual[i] = byte(min(max(q, 0), 93) + phredOffset)
	}
	p.pf("%s\n", qual)
	return p.err
}
