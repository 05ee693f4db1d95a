// Package container holds sequence and alignment data between file formats.
//
// A Container owns an ordered list of blocks. Alignment files may carry
// several blocks (stockholm, phylip); sequence files carry one block whose
// records need not share a length. Every operation works on a deep copy and
// only commits when it succeeds, so a failed call leaves the container as it
// was.
package container

import (
	"bytes"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"reflect"
	"strings"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/format"
	"github.com/zjrosen/buddy/internal/log"
	"github.com/zjrosen/buddy/internal/seqio"
)

var (
	// ErrNotContainerList is returned when a list input holds anything but containers.
	ErrNotContainerList = buddyerr.Typef("List of non-Container objects passed as input.")
	// ErrUnknownInput is returned when the input type cannot be interpreted.
	ErrUnknownInput = buddyerr.Guessf("Container could not determine the input type.")
)

// HashEntry pairs a generated id with the id it replaced.
type HashEntry struct {
	Hash     string
	Original string
}

// Container is a set of alignment blocks and the format they are written in.
// It is not safe for concurrent mutation.
type Container struct {
	blocks  []seqio.Alignment
	Format  format.Format
	Alpha   seqio.Alphabet
	HashMap []HashEntry

	rng *rand.Rand
}

type settings struct {
	formatName string
	rng        *rand.Rand
}

// Option configures construction.
type Option func(*settings)

// WithFormat skips detection and parses input as the named format.
func WithFormat(name string) Option {
	return func(s *settings) { s.formatName = name }
}

// WithRand sets the source used by HashIDs and Bootstrap.
func WithRand(r *rand.Rand) Option {
	return func(s *settings) { s.rng = r }
}

func buildSettings(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// New builds a container from a file path, raw text, []byte, io.Reader,
// alignment blocks, records, a *Container or a list of containers.
func New(input any, opts ...Option) (*Container, error) {
	switch in := input.(type) {
	case *Container:
		return Merge([]*Container{in}, opts...)
	case []*Container:
		return Merge(in, opts...)
	case []any:
		cs := make([]*Container, 0, len(in))
		for _, item := range in {
			c, ok := item.(*Container)
			if !ok {
				return nil, ErrNotContainerList
			}
			cs = append(cs, c)
		}
		return Merge(cs, opts...)
	case []seqio.Alignment:
		return FromAlignments(in, opts...)
	case seqio.Alignment:
		return FromAlignments([]seqio.Alignment{in}, opts...)
	case []*seqio.Record:
		return FromRecords(in, opts...)
	case []byte:
		return FromReader(bytes.NewReader(in), opts...)
	case io.Reader:
		return FromReader(in, opts...)
	case string:
		if isFile(in) {
			return FromPath(in, opts...)
		}
		return FromString(in, opts...)
	case nil:
		return nil, ErrUnknownInput
	}
	if reflect.TypeOf(input).Kind() == reflect.Slice {
		return nil, ErrNotContainerList
	}
	return nil, ErrUnknownInput
}

func isFile(s string) bool {
	if s == "" || strings.ContainsAny(s, "\n\r") {
		return false
	}
	info, err := os.Stat(s)
	return err == nil && info.Mode().IsRegular()
}

// FromPath reads and parses the file at path.
func FromPath(path string, opts ...Option) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	c, err := FromReader(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FromString parses in-memory text.
func FromString(text string, opts ...Option) (*Container, error) {
	return FromReader(strings.NewReader(text), opts...)
}

// FromReader reads r fully, detects its format unless WithFormat was given,
// and parses it.
func FromReader(r io.Reader, opts ...Option) (*Container, error) {
	s := buildSettings(opts)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var f format.Format
	if s.formatName != "" {
		f, err = format.Canonicalize(s.formatName)
	} else {
		f, err = format.Detect(data)
	}
	if err != nil {
		return nil, err
	}

	blocks, err := seqio.Read(bytes.NewReader(data), f)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatContainer, "container loaded", "format", f, "blocks", len(blocks))
	return newContainer(blocks, f, s.rng), nil
}

// FromAlignments wraps existing blocks. The blocks are copied. Without
// WithFormat the container writes fasta.
func FromAlignments(blocks []seqio.Alignment, opts ...Option) (*Container, error) {
	s := buildSettings(opts)
	f := format.FASTA
	if s.formatName != "" {
		var err error
		if f, err = format.Canonicalize(s.formatName); err != nil {
			return nil, err
		}
	}
	return newContainer(copyBlocks(blocks), f, s.rng), nil
}

// FromRecords wraps records as a single block.
func FromRecords(recs []*seqio.Record, opts ...Option) (*Container, error) {
	return FromAlignments([]seqio.Alignment{recs}, opts...)
}

// Merge joins the blocks of every container in order. The format and hash
// map entries come from the inputs; the format of the first input wins.
func Merge(cs []*Container, opts ...Option) (*Container, error) {
	s := buildSettings(opts)
	if len(cs) == 0 {
		return nil, buddyerr.Attributef("Please provide at least one container to merge.")
	}
	var (
		blocks []seqio.Alignment
		hashes []HashEntry
	)
	for _, c := range cs {
		if c == nil {
			return nil, ErrNotContainerList
		}
		blocks = append(blocks, copyBlocks(c.blocks)...)
		hashes = append(hashes, c.HashMap...)
	}
	f := cs[0].Format
	if s.formatName != "" {
		var err error
		if f, err = format.Canonicalize(s.formatName); err != nil {
			return nil, err
		}
	}
	rng := s.rng
	if rng == nil {
		rng = cs[0].rng
	}
	merged := newContainer(blocks, f, rng)
	merged.HashMap = hashes
	return merged, nil
}

func newContainer(blocks []seqio.Alignment, f format.Format, rng *rand.Rand) *Container {
	c := &Container{blocks: blocks, Format: f, rng: rng}
	c.Alpha = guessAlphabet(blocks)
	return c
}

// guessAlphabet uses the records' own alphabet when they all agree and
// falls back to inspecting the residues.
func guessAlphabet(blocks []seqio.Alignment) seqio.Alphabet {
	var (
		agreed = seqio.AlphabetUnknown
		seqs   [][]byte
		mixed  bool
	)
	for _, b := range blocks {
		for _, rec := range b {
			seqs = append(seqs, rec.Seq)
			switch {
			case rec.Alphabet == seqio.AlphabetUnknown:
				mixed = true
			case agreed == seqio.AlphabetUnknown:
				agreed = rec.Alphabet
			case agreed != rec.Alphabet:
				mixed = true
			}
		}
	}
	if !mixed && agreed != seqio.AlphabetUnknown {
		return agreed
	}
	return seqio.GuessAlphabet(seqs...)
}

func copyBlocks(blocks []seqio.Alignment) []seqio.Alignment {
	out := make([]seqio.Alignment, len(blocks))
	for i, b := range blocks {
		out[i] = b.Copy()
	}
	return out
}

// apply runs fn over a deep copy of the blocks and commits the result only
// when fn succeeds.
func (c *Container) apply(op string, fn func(blocks []seqio.Alignment) ([]seqio.Alignment, error)) error {
	out, err := fn(copyBlocks(c.blocks))
	if err != nil {
		log.Debug(log.CatContainer, "operation rejected", "op", op, "error", err)
		return err
	}
	c.blocks = out
	log.Debug(log.CatContainer, "operation applied", "op", op, "blocks", len(out))
	return nil
}

// Blocks returns the alignment blocks. The records are shared with the
// container.
func (c *Container) Blocks() []seqio.Alignment { return c.blocks }

// Records returns every record across blocks in order. The records are
// shared with the container.
func (c *Container) Records() []*seqio.Record {
	var out []*seqio.Record
	for _, b := range c.blocks {
		out = append(out, b...)
	}
	return out
}

// Len returns the number of records across blocks.
func (c *Container) Len() int {
	n := 0
	for _, b := range c.blocks {
		n += len(b)
	}
	return n
}

// Aligned reports whether every block has records of one length.
func (c *Container) Aligned() bool {
	for _, b := range c.blocks {
		if !b.Aligned() {
			return false
		}
	}
	return true
}

// AlignmentLengths returns the column count of each block.
func (c *Container) AlignmentLengths() []int {
	out := make([]int, len(c.blocks))
	for i, b := range c.blocks {
		out[i] = b.Width()
	}
	return out
}

// Copy returns an independent copy of c.
func (c *Container) Copy() *Container {
	cp := newContainer(copyBlocks(c.blocks), c.Format, c.rng)
	cp.Alpha = c.Alpha
	cp.HashMap = append([]HashEntry(nil), c.HashMap...)
	return cp
}

// SetFormat changes the output format.
func (c *Container) SetFormat(name string) error {
	f, err := format.Canonicalize(name)
	if err != nil {
		return err
	}
	c.Format = f
	return nil
}

// Write renders the container in its format.
func (c *Container) Write(w io.Writer) error {
	return seqio.Write(w, c.blocks, c.Format)
}

// WriteFile writes the container to path.
func (c *Container) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := c.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *Container) String() string {
	var b strings.Builder
	if err := c.Write(&b); err != nil {
		return "Error: " + err.Error() + "\n"
	}
	return b.String()
}

func requireAligned(blocks []seqio.Alignment) error {
	for i, b := range blocks {
		if !b.Aligned() {
			return buddyerr.Valuef("Alignment required: block %d has records of unequal length.", i+1)
		}
	}
	return nil
}
