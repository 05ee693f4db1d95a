package container

import (
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/log"
	"github.com/zjrosen/buddy/internal/seqio"
)

// ExtractRegions keeps columns start..end, 1-based and inclusive. A start of
// 0 is read as 1 and end is clamped to each record's length.
func (c *Container) ExtractRegions(start, end int) error {
	start = max(start, 1)
	if end < start {
		return buddyerr.Valuef("Invalid region %d-%d: end must not precede start.", start, end)
	}
	return c.apply("extract_regions", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		for _, b := range blocks {
			for _, r := range b {
				keep := roaring.New()
				if lo, hi := uint64(start-1), uint64(min(end, r.Len())); lo < hi {
					keep.AddRange(lo, hi)
				}
				keepColumns(r, keep)
			}
		}
		return blocks, nil
	})
}

// keepColumns reduces r to the columns in keep and remaps feature spans onto
// the surviving columns. Spans that lose every column are dropped.
func keepColumns(r *seqio.Record, keep *roaring.Bitmap) {
	seq := make([]byte, 0, keep.GetCardinality())
	var qual []int
	it := keep.Iterator()
	for it.HasNext() {
		col := int(it.Next())
		if col >= len(r.Seq) {
			break
		}
		seq = append(seq, r.Seq[col])
		if len(r.Quality) == len(r.Seq) {
			qual = append(qual, r.Quality[col])
		}
	}

	feats := r.Features[:0:0]
	for _, f := range r.Features {
		var parts []seqio.Span
		for _, sp := range f.Location.Parts {
			before := uint64(0)
			if sp.Start > 0 {
				before = keep.Rank(uint32(sp.Start - 1))
			}
			within := uint64(0)
			if sp.End > 0 {
				within = keep.Rank(uint32(sp.End-1)) - before
			}
			if within == 0 {
				continue
			}
			parts = append(parts, seqio.Span{Start: int(before), End: int(before + within)})
		}
		if len(parts) == 0 {
			continue
		}
		f.Location.Parts = parts
		feats = append(feats, f)
	}

	r.Seq = seq
	r.Quality = qual
	r.Features = feats
}

// TrimMode selects how Trim decides which columns go.
type TrimMode int

const (
	// TrimFraction removes columns whose gap fraction exceeds Fraction.
	TrimFraction TrimMode = iota
	// TrimCount removes columns with more than Count gaps.
	TrimCount
	// TrimAll removes every column that holds a gap.
	TrimAll
	// TrimClean removes columns made only of gaps.
	TrimClean
	// TrimGappyout removes the gappier half of the gap-containing columns.
	TrimGappyout
)

// Threshold is a parsed trim argument.
type Threshold struct {
	Mode     TrimMode
	Fraction float64
	Count    int
}

// ParseThreshold reads "all", "clean", "gappyout", a fraction such as "0.7"
// or a whole number of gaps such as "3".
func ParseThreshold(s string) (Threshold, error) {
	switch key := strings.ToLower(strings.TrimSpace(s)); key {
	case "all":
		return Threshold{Mode: TrimAll}, nil
	case "clean":
		return Threshold{Mode: TrimClean}, nil
	case "gappyout":
		return Threshold{Mode: TrimGappyout}, nil
	default:
		if !strings.Contains(key, ".") {
			n, err := strconv.Atoi(key)
			if err == nil && n >= 0 {
				return Threshold{Mode: TrimCount, Count: n}, nil
			}
		} else if f, err := strconv.ParseFloat(key, 64); err == nil && f > 0 && f <= 1 {
			return Threshold{Mode: TrimFraction, Fraction: f}, nil
		}
	}
	return Threshold{}, buddyerr.Valuef("Invalid trim threshold '%s': use a fraction in (0, 1], a gap count, 'all', 'clean' or 'gappyout'.", s)
}

// Trim removes gappy columns from every block.
func (c *Container) Trim(t Threshold) error {
	if t.Mode == TrimFraction && (t.Fraction <= 0 || t.Fraction > 1) {
		return buddyerr.Valuef("Trim fraction must be in (0, 1], not %g", t.Fraction)
	}
	return c.apply("trim", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		if err := requireAligned(blocks); err != nil {
			return nil, err
		}
		for _, b := range blocks {
			keep := trimMask(b, t)
			log.Debug(log.CatContainer, "trim mask", "columns", b.Width(), "kept", keep.GetCardinality())
			for _, r := range b {
				keepColumns(r, keep)
			}
		}
		return blocks, nil
	})
}

func gapCounts(b seqio.Alignment) []int {
	counts := make([]int, b.Width())
	for _, r := range b {
		for i, ch := range r.Seq {
			if seqio.IsGap(ch) {
				counts[i]++
			}
		}
	}
	return counts
}

func trimMask(b seqio.Alignment, t Threshold) *roaring.Bitmap {
	counts := gapCounts(b)
	n := len(b)
	if t.Mode == TrimFraction {
		keep := roaring.New()
		for col, g := range counts {
			if float64(g)/float64(n) <= t.Fraction {
				keep.Add(uint32(col))
			}
		}
		return keep
	}

	maxGaps := 0
	switch t.Mode {
	case TrimCount:
		maxGaps = t.Count
	case TrimClean:
		maxGaps = n - 1
	case TrimGappyout:
		maxGaps = gappyoutCutoff(counts) - 1
	}

	keep := roaring.New()
	for col, g := range counts {
		if g <= maxGaps {
			keep.Add(uint32(col))
		}
	}
	return keep
}

// gappyoutCutoff returns the median gap count over the columns that hold
// any gap; columns at or above it are removed. Without gappy columns
// nothing is removed.
func gappyoutCutoff(counts []int) int {
	var gappy []int
	for _, g := range counts {
		if g > 0 {
			gappy = append(gappy, g)
		}
	}
	if len(gappy) == 0 {
		return math.MaxInt
	}
	slices.Sort(gappy)
	return gappy[(len(gappy)-1)/2]
}

// Bootstrap replaces each block with n resampled copies of it. Each copy
// draws as many columns as the block has, with replacement.
func (c *Container) Bootstrap(n int) error {
	if n < 1 {
		return buddyerr.Valuef("Bootstrap count must be at least 1, not %d", n)
	}
	intN := rand.IntN
	if c.rng != nil {
		intN = c.rng.IntN
	}
	return c.apply("bootstrap", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		if err := requireAligned(blocks); err != nil {
			return nil, err
		}
		var out []seqio.Alignment
		for _, b := range blocks {
			width := b.Width()
			for range n {
				cols := make([]int, width)
				for i := range cols {
					cols[i] = intN(width)
				}
				rep := b.Copy()
				for _, r := range rep {
					seq := make([]byte, width)
					for i, col := range cols {
						seq[i] = r.Seq[col]
					}
					r.Seq = seq
					r.Quality = nil
					r.Features = nil
				}
				out = append(out, rep)
			}
		}
		return out, nil
	})
}

// ConsensusID is the id given to consensus records.
const ConsensusID = "consensus"

// Consensus replaces each block with a single record holding the most common
// symbol of every column. Ties go to the symbol seen first; a column whose
// most common symbol is a gap gives '-'.
func (c *Container) Consensus() error {
	return c.apply("consensus", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		if err := requireAligned(blocks); err != nil {
			return nil, err
		}
		out := make([]seqio.Alignment, len(blocks))
		for i, b := range blocks {
			seq := make([]byte, b.Width())
			for col := range seq {
				seq[col] = majority(b, col)
			}
			alpha := seqio.AlphabetUnknown
			if len(b) > 0 {
				alpha = b[0].Alphabet
			}
			out[i] = seqio.Alignment{{ID: ConsensusID, Seq: seq, Alphabet: alpha}}
		}
		return out, nil
	})
}

func majority(b seqio.Alignment, col int) byte {
	var counts [256]int
	var order []byte
	for _, r := range b {
		ch := r.Seq[col]
		if seqio.IsGap(ch) {
			ch = '-'
		}
		if counts[ch] == 0 {
			order = append(order, ch)
		}
		counts[ch]++
	}
	best := byte('-')
	bestN := 0
	for _, ch := range order {
		if counts[ch] > bestN {
			best, bestN = ch, counts[ch]
		}
	}
	return best
}
