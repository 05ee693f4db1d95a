package seqio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/format"
	"github.com/zjrosen/buddy/internal/log"
)

// ErrTreeFormat is returned when sequence data is requested from a newick tree.
var ErrTreeFormat = buddyerr.Typef("newick trees do not hold sequence records")

// ParseError reports malformed input with the line it occurred on.
type ParseError struct {
	Format format.Format
	Line   int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Format, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Format, e.Msg)
}

func (e *ParseError) Kind() buddyerr.Kind { return buddyerr.KindValue }

// Read parses every alignment block in r. Formats without blocks return one.
func Read(r io.Reader, f format.Format) ([]Alignment, error) {
	var (
		blocks []Alignment
		err    error
	)
	switch {
	case f == format.FASTA:
		blocks, err = single(readFASTA(r))
	case f == format.FASTQ:
		blocks, err = single(readFASTQ(r))
	case f == format.GenBank:
		blocks, err = single(readGenBank(r))
	case f == format.EMBL:
		blocks, err = single(readEMBL(r))
	case f == format.Nexus:
		blocks, err = single(readNexus(r))
	case f == format.Clustal:
		blocks, err = single(readClustal(r))
	case f == format.Stockholm:
		blocks, err = readStockholm(r)
	case f.IsPhylip():
		blocks, err = readPhylip(r, f)
	case f == format.Newick:
		return nil, ErrTreeFormat
	default:
		return nil, &format.UnknownFormatError{Name: string(f)}
	}
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		alpha := GuessRecords(b)
		for _, rec := range b {
			if rec.Alphabet == AlphabetUnknown {
				rec.Alphabet = alpha
			}
		}
	}
	log.Debug(log.CatSeqIO, "parsed records", "format", f, "blocks", len(blocks))
	return blocks, nil
}

// ReadString is Read over an in-memory string.
func ReadString(s string, f format.Format) ([]Alignment, error) {
	return Read(strings.NewReader(s), f)
}

// Write renders blocks in format f. Single alignment formats write each block
// one after the other.
func Write(w io.Writer, blocks []Alignment, f format.Format) error {
	bw := bufio.NewWriter(w)
	var err error
	switch {
	case f == format.FASTA:
		err = eachRecord(blocks, func(r *Record) error { return writeFASTA(bw, r) })
	case f == format.FASTQ:
		err = eachRecord(blocks, func(r *Record) error { return writeFASTQ(bw, r) })
	case f == format.GenBank:
		err = eachRecord(blocks, func(r *Record) error { return writeGenBank(bw, r) })
	case f == format.EMBL:
		err = eachRecord(blocks, func(r *Record) error { return writeEMBL(bw, r) })
	case f == format.Nexus:
		err = eachBlock(bw, blocks, writeNexus)
	case f == format.Clustal:
		err = eachBlock(bw, blocks, writeClustal)
	case f == format.Stockholm:
		err = eachBlock(bw, blocks, writeStockholm)
	case f.IsPhylip():
		err = eachBlock(bw, blocks, func(w *bufio.Writer, a Alignment) error { return writePhylip(w, a, f) })
	case f == format.Newick:
		return ErrTreeFormat
	default:
		return &format.UnknownFormatError{Name: string(f)}
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

// String is Write into a string.
func String(blocks []Alignment, f format.Format) (string, error) {
	var sb strings.Builder
	if err := Write(&sb, blocks, f); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func single(recs []*Record, err error) ([]Alignment, error) {
	if err != nil {
		return nil, err
	}
	return []Alignment{recs}, nil
}

func eachRecord(blocks []Alignment, fn func(*Record) error) error {
	for _, b := range blocks {
		for _, r := range b {
			if err := fn(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func eachBlock(w *bufio.Writer, blocks []Alignment, fn func(*bufio.Writer, Alignment) error) error {
	for i, b := range blocks {
		if i > 0 {
			if _, err := w.WriteString("\n"); err != nil {
				return err
			}
		}
		if err := fn(w, b); err != nil {
			return err
		}
	}
	return nil
}

// printer keeps the first write error and skips everything after it.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) pf(layout string, v ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, layout, v...)
}

// lineReader tracks line numbers for error messages.
type lineReader struct {
	sc   *bufio.Scanner
	line int
	back *string
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &lineReader{sc: sc}
}

// next returns the next line without its trailing CR.
func (lr *lineReader) next() (string, bool) {
	if lr.back != nil {
		s := *lr.back
		lr.back = nil
		lr.line++
		return s, true
	}
	if !lr.sc.Scan() {
		return "", false
	}
	lr.line++
	return strings.TrimRight(lr.sc.Text(), "\r"), true
}

// unread pushes a line back so the following next returns it again.
func (lr *lineReader) unread(s string) {
	lr.back = &s
	lr.line--
}

func (lr *lineReader) err() error {
	if err := lr.sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var widthCond = func() *runewidth.Condition {
	c := runewidth.NewCondition()
	c.EastAsianWidth = false
	return c
}()

// padID pads id with spaces to the given display width.
func padID(id string, width int) string {
	return widthCond.FillRight(id, width)
}

// idWidth returns the widest id display width in a.
func idWidth(a Alignment) int {
	w := 0
	for _, r := range a {
		w = max(w, widthCond.StringWidth(r.ID))
	}
	return w
}

func stripSpace(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
		default:
			out = append(out, s[i])
		}
	}
	return out
}

func splitHeader(h string) (id, desc string) {
	h = strings.TrimSpace(h)
	if i := strings.IndexAny(h, " \t"); i >= 0 {
		return h[:i], strings.TrimSpace(h[i+1:])
	}
	return h, ""
}
