package dbclient

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/zjrosen/buddy/internal/dbbuddy"
	"github.com/zjrosen/buddy/internal/record"
)

// DefaultUniProtURL is the UniProt REST base URL.
const DefaultUniProtURL = "https://rest.uniprot.org"

// UniProt looks up UniProtKB entries with the search endpoint.
type UniProt struct {
	BaseURL string
}

func (u *UniProt) Name() string { return dbbuddy.ClientUniProt }

func (u *UniProt) Accepts(db record.Database) bool { return db == record.UniProt }

func (u *UniProt) BatchSize() int { return 100 }

var uniprotFields = []string{"accession", "id", "protein_name", "organism_name", "length"}

// Fetch returns a summary for each accession found. Entries are matched on
// the primary accession or the entry name.
func (u *UniProt) Fetch(ctx context.Context, hc *http.Client, recs []*record.Record) (map[string]*record.Summary, error) {
	terms := make([]string, len(recs))
	for i, r := range recs {
		terms[i] = "accession:" + r.Accession()
	}
	q := url.Values{}
	q.Set("query", strings.Join(terms, " OR "))
	q.Set("fields", strings.Join(uniprotFields, ","))
	q.Set("format", "tsv")
	q.Set("size", fmt.Sprint(len(recs)))
	base := u.BaseURL
	if base == "" {
		base = DefaultUniProtURL
	}
	body, err := get(ctx, hc, u.Name(), strings.TrimRight(base, "/")+"/uniprotkb/search?"+q.Encode())
	if err != nil {
		return nil, err
	}

	rows, err := parseTSV(body)
	if err != nil {
		return nil, fmt.Errorf("uniprot: %w", err)
	}
	out := map[string]*record.Summary{}
	for _, r := range recs {
		for _, row := range rows {
			if strings.EqualFold(row["Entry"], r.Accession()) || strings.EqualFold(row["Entry Name"], r.Accession()) {
				s := record.NewSummary()
				s.Set("entry_name", row["Entry Name"])
				s.Set("length", row["Length"])
				s.Set("organism", row["Organism"])
				s.Set("comments", row["Protein names"])
				out[r.NCBIAccession()] = s
				break
			}
		}
	}
	return out, nil
}

// parseTSV maps each data row of a headed TSV body by column name.
func parseTSV(body []byte) ([]map[string]string, error) {
	rd := csv.NewReader(bytes.NewReader(body))
	rd.Comma = '\t'
	rd.LazyQuotes = true
	rd.FieldsPerRecord = -1
	header, err := rd.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []map[string]string
	for {
		fields, err := rd.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(fields) {
				row[h] = fields[i]
			}
		}
		rows = append(rows, row)
	}
}
