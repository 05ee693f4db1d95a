// Package dbbuddy holds the accession container: the records being worked on,
// a trash bin they can be filtered into, free-text search terms and the
// failures collected while talking to remote databases.
package dbbuddy

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/format"
	"github.com/zjrosen/buddy/internal/log"
	"github.com/zjrosen/buddy/internal/record"
)

// Server client names used as keys of ServerClients.
const (
	ClientNCBI    = "ncbi"
	ClientEnsembl = "ensembl"
	ClientUniProt = "uniprot"
)

// DefaultOutFormat is the output format of a new container.
const DefaultOutFormat = "summary"

var (
	// ErrNotDbBuddyList is returned when a list input holds anything but containers.
	ErrNotDbBuddyList = buddyerr.Typef("List of non-DbBuddy objects passed into DbBuddy as _input.")
	// ErrUnknownInput is returned when the input type cannot be interpreted.
	ErrUnknownInput = buddyerr.Guessf("DbBuddy could not determine the input type.")
)

var tokenSplit = regexp.MustCompile(`[,\s]+`)

// DbBuddy is the accession container. Records and TrashBin are always
// disjoint. It is not safe for concurrent mutation.
type DbBuddy struct {
	SearchTerms     []string
	Records         *record.Store
	TrashBin        *record.Store
	Failures        map[string]record.Failure
	OutFormat       string
	Databases       []record.Database
	ServerClients   map[string]bool
	MemoryFootprint int
}

// Empty returns a container with every field at its default.
func Empty() *DbBuddy {
	return &DbBuddy{
		Records:   record.NewStore(),
		TrashBin:  record.NewStore(),
		Failures:  map[string]record.Failure{},
		OutFormat: DefaultOutFormat,
		Databases: record.Databases(),
		ServerClients: map[string]bool{
			ClientNCBI:    false,
			ClientEnsembl: false,
			ClientUniProt: false,
		},
	}
}

// New builds a container from input, which may be nil, a file path, raw
// text, []byte, an io.Reader, a *DbBuddy or a list of containers.
func New(input any) (*DbBuddy, error) {
	d := Empty()
	switch in := input.(type) {
	case nil:
		return d, nil
	case *DbBuddy:
		d.Merge(in)
		return d, nil
	case []*DbBuddy:
		for _, other := range in {
			d.Merge(other)
		}
		return d, nil
	case []any:
		for _, item := range in {
			other, ok := item.(*DbBuddy)
			if !ok {
				return nil, ErrNotDbBuddyList
			}
			d.Merge(other)
		}
		return d, nil
	case []byte:
		d.parse(string(in))
		return d, nil
	case io.Reader:
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read accession input: %w", err)
		}
		d.parse(string(data))
		return d, nil
	case string:
		text, err := readIfFile(in)
		if err != nil {
			return nil, err
		}
		d.parse(text)
		return d, nil
	}
	if reflect.TypeOf(input).Kind() == reflect.Slice {
		return nil, ErrNotDbBuddyList
	}
	return nil, ErrUnknownInput
}

func readIfFile(s string) (string, error) {
	if strings.ContainsAny(s, "\n,") {
		return s, nil
	}
	info, err := os.Stat(s)
	if err != nil || !info.Mode().IsRegular() {
		return s, nil
	}
	f, err := os.Open(s)
	if err != nil {
		return "", fmt.Errorf("open accession file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return "", fmt.Errorf("read accession file: %w", err)
	}
	log.Debug(log.CatDbBuddy, "read accession file", "path", s, "bytes", buf.Len())
	return buf.String(), nil
}

// parse splits text on commas and whitespace. Tokens that look like an
// accession become records; everything else is a search term.
func (d *DbBuddy) parse(text string) {
	var accns, terms int
	for _, tok := range tokenSplit.Split(text, -1) {
		if tok == "" {
			continue
		}
		rec := record.New(tok)
		if rec.GuessDatabase(false) {
			d.Records.Add(rec)
			accns++
			continue
		}
		d.AddSearchTerms(tok)
		terms++
	}
	log.Debug(log.CatDbBuddy, "parsed input", "accessions", accns, "search_terms", terms)
}

// AddSearchTerms appends terms that are not already present.
func (d *DbBuddy) AddSearchTerms(terms ...string) {
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(d.SearchTerms, t) {
			d.SearchTerms = append(d.SearchTerms, t)
		}
	}
}

// Merge folds other into d: search terms are unioned, records and trash
// merged, failures combined. A record other keeps in its trash bin stays out
// of d's records.
func (d *DbBuddy) Merge(other *DbBuddy) {
	if other == nil {
		return
	}
	d.AddSearchTerms(other.SearchTerms...)
	d.Records.Merge(other.Records)
	d.TrashBin.Merge(other.TrashBin)
	for _, k := range d.TrashBin.Keys() {
		d.Records.Delete(k)
	}
	for h, f := range other.Failures {
		d.Failures[h] = f
	}
	for name, connected := range other.ServerClients {
		d.ServerClients[name] = d.ServerClients[name] || connected
	}
}

// Copy returns an independent copy of d.
func (d *DbBuddy) Copy() *DbBuddy {
	cp := Empty()
	cp.Merge(d)
	cp.OutFormat = d.OutFormat
	cp.Databases = slices.Clone(d.Databases)
	cp.MemoryFootprint = d.MemoryFootprint
	return cp
}

// SetOutFormat validates and sets the output format.
func (d *DbBuddy) SetOutFormat(name string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if !format.IsDbBuddyFormat(key) {
		return buddyerr.Valuef("Output type '%s' is not recognized/supported", name)
	}
	d.OutFormat = key
	return nil
}

// SetDatabases restricts the databases queried remotely. Invalid names are
// dropped and reported in the returned warnings.
func (d *DbBuddy) SetDatabases(names ...string) []string {
	dbs, warnings := record.CheckDatabase(names...)
	d.Databases = dbs
	return warnings
}

// AddFailure records a remote failure, keyed by its hash.
func (d *DbBuddy) AddFailure(f record.Failure) {
	d.Failures[f.Hash] = f
	log.Warn(log.CatDbBuddy, "remote failure", "query", f.Query, "error", f.ErrorMsg)
}

// Partition returns the store behind a records or trash partition.
func (d *DbBuddy) Partition(p format.Partition) (*record.Store, error) {
	switch p {
	case format.PartitionRecords:
		return d.Records, nil
	case format.PartitionTrash:
		return d.TrashBin, nil
	}
	return nil, buddyerr.Valuef("partition %s does not hold records", p)
}

// UpdateMemoryFootprint recomputes the bytes held by summaries and
// downloaded sequence payloads across both partitions.
func (d *DbBuddy) UpdateMemoryFootprint() int {
	total := 0
	for _, store := range []*record.Store{d.Records, d.TrashBin} {
		for _, rec := range store.Values() {
			total += recordFootprint(rec)
		}
	}
	d.MemoryFootprint = total
	return total
}

func recordFootprint(rec *record.Record) int {
	n := 0
	for _, k := range rec.Summary.Keys() {
		v, _ := rec.Summary.Get(k)
		n += len(k) + len(v)
	}
	if p := rec.Payload; p != nil {
		n += len(p.ID) + len(p.Description) + len(p.Seq) + len(p.Quality)
		for _, f := range p.Features {
			for _, q := range f.Qualifiers {
				n += len(q.Key) + len(q.Value)
			}
		}
	}
	return n
}
