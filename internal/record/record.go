// Package record holds accession records, the ordered store they live in and
// the rules used to guess which database an accession belongs to.
package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zjrosen/buddy/internal/hashing"
	"github.com/zjrosen/buddy/internal/query"
	"github.com/zjrosen/buddy/internal/seqio"
)

// Database names a remote sequence database.
type Database string

const (
	NCBINuc  Database = "ncbi_nuc"
	NCBIProt Database = "ncbi_prot"
	UniProt  Database = "uniprot"
	Ensembl  Database = "ensembl"
)

// Databases returns every supported database in canonical order.
func Databases() []Database {
	return []Database{NCBINuc, NCBIProt, UniProt, Ensembl}
}

// Type is the kind of identifier an accession is.
type Type string

const (
	Protein    Type = "protein"
	Nucleotide Type = "nucleotide"
	GINum      Type = "gi_num"
)

// Record is one accession and whatever has been learned about it.
type Record struct {
	accession string

	GI         *string
	Version    *string
	Database   Database
	Type       Type
	SearchTerm string
	Summary    *Summary
	Size       *int
	Payload    *seqio.Record
}

// Option configures a Record at construction.
type Option func(*Record)

func WithDatabase(db Database) Option    { return func(r *Record) { r.Database = db } }
func WithType(t Type) Option             { return func(r *Record) { r.Type = t } }
func WithSearchTerm(s string) Option     { return func(r *Record) { r.SearchTerm = s } }
func WithSummary(s *Summary) Option      { return func(r *Record) { r.Summary = s } }
func WithPayload(p *seqio.Record) Option { return func(r *Record) { r.Payload = p } }

func WithGI(gi string) Option {
	return func(r *Record) { r.GI = &gi }
}

func WithVersion(v string) Option {
	return func(r *Record) { r.Version = &v }
}

func WithSize(n int) Option {
	return func(r *Record) { r.Size = &n }
}

// New creates a record for accn.
func New(accn string, opts ...Option) *Record {
	r := &Record{accession: strings.TrimSpace(accn), Summary: NewSummary()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Accession returns the accession without any version suffix that guessing split off.
func (r *Record) Accession() string { return r.accession }

// NCBIAccession returns the accession with its version, the form NCBI expects.
func (r *Record) NCBIAccession() string {
	if r.Version != nil && *r.Version != "" {
		return r.accession + "." + *r.Version
	}
	return r.accession
}

// ParseSize parses a sequence length reported by a database summary.
func ParseSize(s string) (*int, error) {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return nil, fmt.Errorf("parse size %q: %w", s, err)
	}
	return &n, nil
}

// Update merges other into r. Non-empty fields of other win; a non-empty
// summary replaces r's wholesale, keeping other's order.
func (r *Record) Update(other *Record) {
	if other == nil {
		return
	}
	r.accession = other.accession
	if other.GI != nil {
		gi := *other.GI
		r.GI = &gi
	}
	if other.Version != nil {
		v := *other.Version
		r.Version = &v
	}
	if other.Database != "" {
		r.Database = other.Database
	}
	if other.Type != "" {
		r.Type = other.Type
	}
	if other.SearchTerm != "" {
		r.SearchTerm = other.SearchTerm
	}
	if other.Summary.Len() > 0 {
		r.Summary = other.Summary.Copy()
	}
	if other.Size != nil {
		n := *other.Size
		r.Size = &n
	}
	if other.Payload != nil {
		r.Payload = other.Payload.Copy()
	}
}

// Copy returns an independent copy of r.
func (r *Record) Copy() *Record {
	cp := &Record{accession: r.accession, Summary: NewSummary()}
	cp.Update(r)
	return cp
}

func (r *Record) String() string {
	none := func(s string) string {
		if s == "" {
			return "None"
		}
		return s
	}
	payload := ""
	if r.Payload != nil {
		payload = r.Payload.ID
	}
	return fmt.Sprintf("Accession:\t%s\nDatabase:\t%s\nRecord:\t%s\nType:\t%s\n",
		r.accession, none(string(r.Database)), none(payload), none(string(r.Type)))
}

// Search reports whether r matches the query expression q.
func (r *Record) Search(q string) (bool, error) {
	return query.Match(r, q)
}

// Column implements query.Target. Pseudo columns take precedence over summary keys.
func (r *Record) Column(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "accession":
		return r.accession, true
	case "database":
		return string(r.Database), r.Database != ""
	case "type":
		return string(r.Type), r.Type != ""
	case "search_term":
		return r.SearchTerm, r.SearchTerm != ""
	}
	return r.Summary.Get(name)
}

// Values implements query.Target: every string a bare search term is tried against.
func (r *Record) Values() []string {
	vals := []string{r.accession, string(r.Database), string(r.Type), r.SearchTerm}
	for _, k := range r.Summary.Keys() {
		v, _ := r.Summary.Get(k)
		vals = append(vals, v)
	}
	if p := r.Payload; p != nil {
		vals = append(vals, p.ID, p.Description)
		for _, f := range p.Features {
			for _, q := range f.Qualifiers {
				vals = append(vals, q.Value)
			}
		}
		for _, v := range p.Annotations {
			vals = append(vals, v)
		}
	}
	return vals
}

// Length implements query.Target. Size wins over the summary "length" field.
func (r *Record) Length() (int, bool) {
	if r.Size != nil {
		return *r.Size, true
	}
	if v, ok := r.Summary.Get("length"); ok {
		if n, err := ParseSize(v); err == nil {
			return *n, true
		}
	}
	return 0, false
}

// Failure records a query that a remote database rejected.
type Failure struct {
	Query    string
	ErrorMsg string
	Hash     string
}

// NewFailure builds a Failure whose hash identifies the query/message pair.
func NewFailure(q, errorMsg string) Failure {
	return Failure{Query: q, ErrorMsg: errorMsg, Hash: hashing.ContentHash(q + errorMsg)}
}

func (f Failure) String() string {
	return f.Query + "\n" + f.ErrorMsg + "\n"
}
