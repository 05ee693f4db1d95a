package container

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/hashing"
	"github.com/zjrosen/buddy/internal/seqio"
)

// DefaultHashLength is the id length HashIDs uses when asked for none.
const DefaultHashLength = 10

// replToken finds the parts of a replacement that need rewriting before
// regexp expansion: \N and ${N} backreferences and any other '$'.
var replToken = regexp.MustCompile(`\\(\d+)|\$\{\d+\}|\$`)

// replTemplate converts a user replacement into a regexp template. \N and
// ${N} refer to groups; every other '$' is literal.
func replTemplate(repl string) string {
	return replToken.ReplaceAllStringFunc(repl, func(tok string) string {
		switch {
		case tok == "$":
			return "$$"
		case tok[0] == '\\':
			return "${" + tok[1:] + "}"
		}
		return tok
	})
}

func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, buddyerr.Wrap(buddyerr.KindValue, err, "invalid regular expression '%s'", pattern)
	}
	return re, nil
}

// Pull keeps only records whose id matches pattern. Blocks left empty are dropped.
func (c *Container) Pull(pattern string) error {
	re, err := compile(pattern)
	if err != nil {
		return err
	}
	return c.apply("pull", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		return filterRecords(blocks, func(r *seqio.Record) bool { return re.MatchString(r.ID) }), nil
	})
}

// Delete removes records whose id matches pattern. Blocks left empty are dropped.
func (c *Container) Delete(pattern string) error {
	re, err := compile(pattern)
	if err != nil {
		return err
	}
	return c.apply("delete", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		return filterRecords(blocks, func(r *seqio.Record) bool { return !re.MatchString(r.ID) }), nil
	})
}

func filterRecords(blocks []seqio.Alignment, keep func(*seqio.Record) bool) []seqio.Alignment {
	out := blocks[:0]
	for _, b := range blocks {
		b = slices.DeleteFunc(b, func(r *seqio.Record) bool { return !keep(r) })
		if len(b) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// Rename substitutes repl for pattern in every record id. occurrence 0
// replaces every match; n > 0 replaces only the nth match in each id.
// Backreferences may be written \1 or ${1}; any other $ is literal.
func (c *Container) Rename(pattern, repl string, occurrence int) error {
	if occurrence < 0 {
		return buddyerr.Valuef("occurrence must be 0 or greater, not %d", occurrence)
	}
	re, err := compile(pattern)
	if err != nil {
		return err
	}
	repl = replTemplate(repl)
	return c.apply("rename", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		for _, b := range blocks {
			for _, r := range b {
				r.ID = renameID(re, r.ID, repl, occurrence)
			}
		}
		return blocks, nil
	})
}

func renameID(re *regexp.Regexp, id, repl string, occurrence int) string {
	if occurrence == 0 {
		return re.ReplaceAllString(id, repl)
	}
	matches := re.FindAllStringSubmatchIndex(id, -1)
	if len(matches) < occurrence {
		return id
	}
	m := matches[occurrence-1]
	expanded := re.ExpandString(nil, repl, id, m)
	return id[:m[0]] + string(expanded) + id[m[1]:]
}

// OrderIDs stable sorts the records of each block by id, byte-wise.
func (c *Container) OrderIDs(reverse bool) error {
	return c.apply("order_ids", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		for _, b := range blocks {
			slices.SortStableFunc(b, func(x, y *seqio.Record) int {
				if reverse {
					return strings.Compare(y.ID, x.ID)
				}
				return strings.Compare(x.ID, y.ID)
			})
		}
		return blocks, nil
	})
}

// HashLengthArg converts a user supplied hash length. Anything that is not
// an integer fails with a type error naming what was given.
func HashLengthArg(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, nil
		}
	}
	return 0, buddyerr.Typef("Hash length argument must be an integer, not %T", v)
}

// HashIDs replaces every record id with a unique random id of the given
// length and appends the old names to HashMap.
func (c *Container) HashIDs(length int) error {
	if length <= 0 {
		return buddyerr.Valuef("Hash length must be greater than 0")
	}
	n := c.Len()
	if !hashing.HasCapacity(length, n) {
		return buddyerr.Valuef("Insufficient number of hashes available to cover all sequences. Hash length: %d, sequences: %d", length, n)
	}
	ids := hashing.UniqueIDs(c.rng, n, length)

	var entries []HashEntry
	err := c.apply("hash_ids", func(blocks []seqio.Alignment) ([]seqio.Alignment, error) {
		i := 0
		for _, b := range blocks {
			for _, r := range b {
				entries = append(entries, HashEntry{Hash: ids[i], Original: r.ID})
				r.ID = ids[i]
				i++
			}
		}
		return blocks, nil
	})
	if err != nil {
		return err
	}
	c.HashMap = append(c.HashMap, entries...)
	return nil
}
