package container

import (
	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/format"
	"github.com/zjrosen/buddy/internal/log"
	"github.com/zjrosen/buddy/internal/seqio"
)

// MapFeaturesToAlignment copies the features of the ungapped records in seqs
// onto the aligned records of c with the same id, moving every location from
// residue coordinates to alignment columns. The container switches to
// genbank so the features are written out.
func (c *Container) MapFeaturesToAlignment(seqs *Container) error {
	if seqs == nil {
		return buddyerr.Attributef("A sequence container is required to map features from.")
	}
	source := map[string]*seqio.Record{}
	for _, r := range seqs.Records() {
		if _, dup := source[r.ID]; !dup {
			source[r.ID] = r
		}
	}

	err := c.apply("map_features", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		for _, b := range blocks {
			for _, r := range b {
				src, ok := source[r.ID]
				if !ok {
					log.Warn(log.CatContainer, "no sequence record to map features from", "id", r.ID)
					continue
				}
				r.Features = mapFeatures(src.Features, residueColumns(r.Seq))
				if r.Description == "" {
					r.Description = src.Description
				}
			}
		}
		return blocks, nil
	})
	if err != nil {
		return err
	}
	c.Format = format.GenBank
	return nil
}

// residueColumns returns the column of every residue in an aligned sequence.
func residueColumns(seq []byte) []int {
	cols := make([]int, 0, len(seq))
	for i, b := range seq {
		if !seqio.IsGap(b) {
			cols = append(cols, i)
		}
	}
	return cols
}

func mapFeatures(feats []seqio.Feature, cols []int) []seqio.Feature {
	var out []seqio.Feature
	for _, f := range feats {
		var parts []seqio.Span
		for _, sp := range f.Location.Parts {
			start, end := sp.Start, min(sp.End, len(cols))
			if start >= end {
				continue
			}
			parts = append(parts, seqio.Span{Start: cols[start], End: cols[end-1] + 1})
		}
		if len(parts) == 0 {
			continue
		}
		f.Location.Parts = parts
		f.Qualifiers = append([]seqio.Qualifier(nil), f.Qualifiers...)
		out = append(out, f)
	}
	return out
}
