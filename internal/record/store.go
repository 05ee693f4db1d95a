package record

import (
	"fmt"
	"slices"

	"github.com/zjrosen/buddy/internal/buddyerr"
)

// NoMatchError is returned when an accession is not in a store.
type NoMatchError struct {
	Accession string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no record matches accession %q", e.Accession)
}

func (e *NoMatchError) Kind() buddyerr.Kind { return buddyerr.KindValue }

// Store is an insertion-ordered set of records keyed by NCBI accession.
// It is not safe for concurrent mutation.
type Store struct {
	keys []string
	recs map[string]*Record
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{recs: map[string]*Record{}}
}

// Add inserts rec, or merges it into the record already stored under the same key.
func (s *Store) Add(rec *Record) {
	key := rec.NCBIAccession()
	if existing, ok := s.recs[key]; ok {
		existing.Update(rec)
		return
	}
	s.keys = append(s.keys, key)
	s.recs[key] = rec
}

// Get returns the record stored under key.
func (s *Store) Get(key string) (*Record, bool) {
	rec, ok := s.recs[key]
	return rec, ok
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.recs[key]
	return ok
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) bool {
	if _, ok := s.recs[key]; !ok {
		return false
	}
	delete(s.recs, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
	return true
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.keys) }

// Keys returns the keys in insertion order.
func (s *Store) Keys() []string { return slices.Clone(s.keys) }

// Values returns the records in insertion order.
func (s *Store) Values() []*Record {
	out := make([]*Record, len(s.keys))
	for i, k := range s.keys {
		out[i] = s.recs[k]
	}
	return out
}

// Merge adds every record of other, in other's order.
func (s *Store) Merge(other *Store) {
	for _, rec := range other.Values() {
		s.Add(rec.Copy())
	}
}

// Copy returns a deep copy of s.
func (s *Store) Copy() *Store {
	cp := NewStore()
	for _, rec := range s.Values() {
		cp.Add(rec.Copy())
	}
	return cp
}

// Rekey rebuilds the index after records changed their accession or version,
// as guessing does. Colliding records are merged in order.
func (s *Store) Rekey() {
	recs := s.Values()
	s.keys = nil
	s.recs = map[string]*Record{}
	for _, rec := range recs {
		s.Add(rec)
	}
}

// MoveTo moves the records under keys from s to dst. Either every key moves
// or, when one is missing, nothing does.
func (s *Store) MoveTo(dst *Store, keys []string) error {
	for _, k := range keys {
		if !s.Has(k) {
			return &NoMatchError{Accession: k}
		}
	}
	for _, k := range keys {
		rec, ok := s.recs[k]
		if !ok {
			continue // listed twice
		}
		s.Delete(k)
		dst.Add(rec)
	}
	return nil
}
