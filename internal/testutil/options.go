package testutil

import (
	"github.com/zjrosen/buddy/internal/seqio"
)

// SeqOption configures a sequence record during builder setup.
type SeqOption func(*seqio.Record)

// Description sets the record description.
func Description(d string) SeqOption {
	return func(r *seqio.Record) { r.Description = d }
}

// Quality sets per-residue phred scores.
func Quality(q ...int) SeqOption {
	return func(r *seqio.Record) { r.Quality = q }
}

// Alphabet pins the record alphabet instead of leaving it to guessing.
func Alphabet(a seqio.Alphabet) SeqOption {
	return func(r *seqio.Record) { r.Alphabet = a }
}

// Feature adds a single-span feature over [start, end) on strand.
func Feature(typ string, start, end, strand int, qualifiers ...string) SeqOption {
	return func(r *seqio.Record) {
		f := seqio.Feature{
			Type:     typ,
			Location: seqio.Location{Parts: []seqio.Span{{Start: start, End: end}}, Strand: strand},
		}
		for i := 0; i+1 < len(qualifiers); i += 2 {
			f.Qualifiers = append(f.Qualifiers, seqio.Qualifier{Key: qualifiers[i], Value: qualifiers[i+1]})
		}
		r.Features = append(r.Features, f)
	}
}

// Annotation sets a record-level annotation.
func Annotation(key, value string) SeqOption {
	return func(r *seqio.Record) {
		if r.Annotations == nil {
			r.Annotations = map[string]string{}
		}
		r.Annotations[key] = value
	}
}

// Seq builds a standalone record.
func Seq(id, seq string, opts ...SeqOption) *seqio.Record {
	r := &seqio.Record{ID: id, Seq: []byte(seq)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
