package container

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/seqio"
)

// ConcatAlignments joins all blocks into one alignment. Each record id is
// turned into a key by the first pattern that matches it: the capture groups
// joined together, or the whole match when the pattern has none. Without
// patterns the key is the id itself. Records sharing a key are joined in
// block order; a block without the key contributes gaps.
func (c *Container) ConcatAlignments(patterns ...string) error {
	if len(c.blocks) < 2 {
		return buddyerr.Attributef("Please provide at least two alignments.")
	}
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := compile(p)
		if err != nil {
			return err
		}
		res = append(res, re)
	}

	return c.apply("concat_alignments", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		if err := requireAligned(blocks); err != nil {
			return nil, err
		}

		var order []string
		merged := map[string]*seqio.Record{}
		offset := 0
		for _, b := range blocks {
			width := b.Width()
			seen := map[string]bool{}
			for _, r := range b {
				key, ok := concatKey(res, r.ID)
				if !ok {
					return nil, buddyerr.Valuef("No match found for record %s", r.ID)
				}
				if seen[key] {
					return nil, buddyerr.Valuef("Replicate matches (%s)", key)
				}
				seen[key] = true

				m, exists := merged[key]
				if !exists {
					m = &seqio.Record{ID: key, Alphabet: r.Alphabet, Seq: gaps(offset)}
					merged[key] = m
					order = append(order, key)
				}
				for _, f := range r.Features {
					f.Location.Parts = shiftSpans(f.Location.Parts, offset)
					m.Features = append(m.Features, f)
				}
				m.Seq = append(m.Seq, r.Seq...)
			}
			offset += width
			for _, key := range order {
				if m := merged[key]; len(m.Seq) < offset {
					m.Seq = append(m.Seq, gaps(offset-len(m.Seq))...)
				}
			}
		}

		out := make(seqio.Alignment, len(order))
		for i, key := range order {
			out[i] = merged[key]
		}
		return []seqio.Alignment{out}, nil
	})
}

func concatKey(res []*regexp.Regexp, id string) (string, bool) {
	if len(res) == 0 {
		return id, true
	}
	for _, re := range res {
		m := re.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		if len(m) == 1 {
			return m[0], true
		}
		return strings.Join(m[1:], ""), true
	}
	return "", false
}

func gaps(n int) []byte {
	return bytes.Repeat([]byte{'-'}, n)
}

func shiftSpans(parts []seqio.Span, offset int) []seqio.Span {
	out := make([]seqio.Span, len(parts))
	for i, sp := range parts {
		out[i] = seqio.Span{Start: sp.Start + offset, End: sp.End + offset}
	}
	return out
}
