// Package testutil provides builders for sequence containers and accession
// containers used across package tests.
package testutil

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/buddy/internal/container"
	"github.com/zjrosen/buddy/internal/dbbuddy"
	"github.com/zjrosen/buddy/internal/record"
	"github.com/zjrosen/buddy/internal/seqio"
)

// Builder accumulates records in alignment blocks.
type Builder struct {
	t      *testing.T
	blocks []seqio.Alignment
	seed   uint64
}

// NewBuilder starts a builder with one empty block.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, blocks: []seqio.Alignment{nil}, seed: 7}
}

// WithSeq appends a record to the current block.
func (b *Builder) WithSeq(id, seq string, opts ...SeqOption) *Builder {
	last := len(b.blocks) - 1
	b.blocks[last] = append(b.blocks[last], Seq(id, seq, opts...))
	return b
}

// NextBlock starts a new alignment block. Empty blocks are dropped on build.
func (b *Builder) NextBlock() *Builder {
	b.blocks = append(b.blocks, nil)
	return b
}

// WithSeed fixes the random source of the built container.
func (b *Builder) WithSeed(seed uint64) *Builder {
	b.seed = seed
	return b
}

// Alignments returns deep copies of the non-empty blocks.
func (b *Builder) Alignments() []seqio.Alignment {
	var out []seqio.Alignment
	for _, blk := range b.blocks {
		if len(blk) > 0 {
			out = append(out, blk.Copy())
		}
	}
	return out
}

// Container builds a sequence container, failing the test on error.
func (b *Builder) Container(opts ...container.Option) *container.Container {
	b.t.Helper()
	opts = append([]container.Option{container.WithRand(rand.New(rand.NewPCG(b.seed, b.seed+1)))}, opts...)
	c, err := container.FromAlignments(b.Alignments(), opts...)
	require.NoError(b.t, err)
	return c
}

// AccessionBuilder accumulates accession records for a DbBuddy container.
type AccessionBuilder struct {
	t        *testing.T
	records  []*record.Record
	trash    []*record.Record
	failures []record.Failure
	terms    []string
}

// NewAccessionBuilder starts an empty accession builder.
func NewAccessionBuilder(t *testing.T) *AccessionBuilder {
	t.Helper()
	return &AccessionBuilder{t: t}
}

// WithAccession adds a live record.
func (b *AccessionBuilder) WithAccession(accn string, opts ...record.Option) *AccessionBuilder {
	b.records = append(b.records, record.New(accn, opts...))
	return b
}

// WithTrashed adds a record to the trash bin.
func (b *AccessionBuilder) WithTrashed(accn string, opts ...record.Option) *AccessionBuilder {
	b.trash = append(b.trash, record.New(accn, opts...))
	return b
}

// WithFailure records a remote failure.
func (b *AccessionBuilder) WithFailure(query, msg string) *AccessionBuilder {
	b.failures = append(b.failures, record.NewFailure(query, msg))
	return b
}

// WithSearchTerms adds free-text search terms.
func (b *AccessionBuilder) WithSearchTerms(terms ...string) *AccessionBuilder {
	b.terms = append(b.terms, terms...)
	return b
}

// Build returns the container. Records are copied so the builder can be reused.
func (b *AccessionBuilder) Build() *dbbuddy.DbBuddy {
	b.t.Helper()
	d := dbbuddy.Empty()
	d.AddSearchTerms(b.terms...)
	for _, r := range b.records {
		d.Records.Add(r.Copy())
	}
	for _, r := range b.trash {
		d.TrashBin.Add(r.Copy())
	}
	for _, f := range b.failures {
		d.Failures[f.Hash] = f
	}
	d.UpdateMemoryFootprint()
	return d
}
