package seqio

import (
	"bufio"
	"io"
	"strings"

	"github.com/zjrosen/buddy/internal/format"
)

// readStockholm reads every '# STOCKHOLM 1.0' ... '//' alignment in r.
// Per-sequence descriptions come from '#=GS <id> DE' lines; other markup is
// ignored. Sequence lines for the same id across blocks are concatenated.
func readStockholm(r io.Reader) ([]Alignment, error) {
	lr := newLineReader(r)
	var (
		blocks []Alignment
		cur    Alignment
		index  map[string]*Record
		descs  map[string]string
		open   bool
	)
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(strings.ToUpper(trimmed), "# STOCKHOLM"):
			open = true
			cur = Alignment{}
			index = map[string]*Record{}
			descs = map[string]string{}
			continue
		case !open:
			return nil, &ParseError{Format: format.Stockholm, Line: lr.line, Msg: "first line does not contain 'STOCKHOLM 1.0'"}
		case trimmed == "//":
			for _, rec := range cur {
				rec.Description = descs[rec.ID]
			}
			blocks = append(blocks, cur)
			open = false
			continue
		case strings.HasPrefix(trimmed, "#=GS"):
			fields := strings.Fields(trimmed)
			if len(fields) >= 3 && fields[2] == "DE" {
				descs[fields[1]] = strings.Join(fields[3:], " ")
			}
			continue
		case trimmed[0] == '#':
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			return nil, &ParseError{Format: format.Stockholm, Line: lr.line, Msg: "expected '<id> <residues>'"}
		}
		id := fields[0]
		rec, seen := index[id]
		if !seen {
			rec = &Record{ID: id, Seq: []byte{}}
			index[id] = rec
			cur = append(cur, rec)
		}
		rec.Seq = append(rec.Seq, stripSpace(strings.Join(fields[1:], ""))...)
	}
	if err := lr.err(); err != nil {
		return nil, err
	}
	if open {
		return nil, &ParseError{Format: format.Stockholm, Line: lr.line, Msg: "alignment not terminated by '//'"}
	}
	for _, b := range blocks {
		if !b.Aligned() {
			return nil, &ParseError{Format: format.Stockholm, Msg: "sequences in an alignment differ in length"}
		}
	}
	return blocks, nil
}

func writeStockholm(w *bufio.Writer, a Alignment) error {
	p := &printer{w: w}
	p.pf("# STOCKHOLM 1.0\n")
	col := idWidth(a) + 1
	for _, r := range a {
		if r.Description != "" {
			p.pf("#=GS %s DE %s\n", padID(r.ID, col-1), r.Description)
		}
	}
	for _, r := range a {
		p.pf("%s%s\n", padID(r.ID, col), r.Seq)
	}
	p.pf("//\n")
	return p.err
}
