package seqio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/zjrosen/buddy/internal/format"
)

const (
	phylipIDWidth   = 10
	phylipChunk     = 50
	phylipGroupSize = 10
)

// readPhylip reads consecutive phylip alignments. The variant decides how ids
// are split from residues; the header of each alignment bounds its records.
func readPhylip(r io.Reader, f format.Format) ([]Alignment, error) {
	lr := newLineReader(r)
	var blocks []Alignment
	for {
		header, ok := nextNonEmpty(lr)
		if !ok {
			break
		}
		n, m, ok := format.PhylipHeader(header)
		if !ok {
			return nil, &ParseError{Format: f, Line: lr.line, Msg: "expected '<sequences> <columns>' header"}
		}
		block, err := readPhylipBlock(lr, f, n, m)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	if err := lr.err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

func readPhylipBlock(lr *lineReader, f format.Format, n, m int) (Alignment, error) {
	block := make(Alignment, 0, n)
	for len(block) < n {
		line, ok := nextNonEmpty(lr)
		if !ok {
			return nil, &ParseError{Format: f, Line: lr.line, Msg: fmt.Sprintf("expected %d sequences, found %d", n, len(block))}
		}
		id, residues := splitPhylipLine(line, f.Strict())
		rec := &Record{ID: id, Seq: residues}
		if f.Sequential() {
			for len(rec.Seq) < m {
				more, ok := nextNonEmpty(lr)
				if !ok {
					return nil, &ParseError{Format: f, Line: lr.line, Msg: "sequence " + id + " is shorter than the header length"}
				}
				rec.Seq = append(rec.Seq, stripSpace(more)...)
			}
		}
		block = append(block, rec)
	}

	if !f.Sequential() {
		for i := 0; block.Width() < m || !block.Aligned(); i++ {
			line, ok := nextNonEmpty(lr)
			if !ok {
				break
			}
			if _, _, isHeader := format.PhylipHeader(line); isHeader && i%n == 0 {
				lr.unread(line)
				break
			}
			rec := block[i%n]
			rec.Seq = append(rec.Seq, stripSpace(line)...)
		}
	}

	for _, rec := range block {
		if rec.Len() != m {
			return nil, &ParseError{Format: f, Line: lr.line, Msg: fmt.Sprintf("sequence %s has %d columns, header says %d", rec.ID, rec.Len(), m)}
		}
	}
	return block, nil
}

func splitPhylipLine(line string, strict bool) (string, []byte) {
	if strict {
		runes := []rune(line)
		if len(runes) <= phylipIDWidth {
			return strings.TrimSpace(line), []byte{}
		}
		return strings.TrimSpace(string(runes[:phylipIDWidth])), stripSpace(string(runes[phylipIDWidth:]))
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", []byte{}
	}
	return fields[0], stripSpace(strings.Join(fields[1:], ""))
}

func nextNonEmpty(lr *lineReader) (string, bool) {
	for {
		line, ok := lr.next()
		if !ok {
			return "", false
		}
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
}

func writePhylip(w *bufio.Writer, a Alignment, f format.Format) error {
	p := &printer{w: w}
	width := a.Width()
	p.pf(" %d %d\n", len(a), width)

	idCol := phylipIDWidth
	if !f.Strict() {
		idCol = idWidth(a) + 1
	}
	label := func(r *Record) string {
		if f.Strict() {
			return padID(widthCond.Truncate(r.ID, phylipIDWidth, ""), phylipIDWidth)
		}
		return padID(r.ID, idCol)
	}

	if f.Sequential() {
		for _, r := range a {
			p.pf("%s%s\n", label(r), r.Seq)
		}
		return p.err
	}

	for start := 0; start < width || start == 0; start += phylipChunk {
		if start > 0 {
			p.pf("\n")
		}
		for _, r := range a {
			switch {
			case start > 0:
				p.pf("%s\n", grouped(r.Seq, start, start+phylipChunk))
			case f.Strict():
				// one field per line keeps the id column unambiguous
				p.pf("%s%s\n", label(r), r.Seq[:min(phylipChunk, len(r.Seq))])
			default:
				p.pf("%s%s\n", label(r), grouped(r.Seq, 0, phylipChunk))
			}
		}
		if width == 0 {
			break
		}
	}
	return p.err
}

// grouped returns seq[start:end] split into space separated groups of ten.
func grouped(seq []byte, start, end int) string {
	end = min(end, len(seq))
	if start >= end {
		return ""
	}
	var sb strings.Builder
	for i := start; i < end; i += phylipGroupSize {
		if i > start {
			sb.WriteByte(' ')
		}
		sb.Write(seq[i:min(i+phylipGroupSize, end)])
	}
	return sb.String()
}
