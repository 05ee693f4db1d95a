package dbclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/zjrosen/buddy/internal/dbbuddy"
	"github.com/zjrosen/buddy/internal/record"
)

// DefaultEnsemblURL is the Ensembl REST base URL.
const DefaultEnsemblURL = "https://rest.ensembl.org"

// Ensembl looks up stable ids with the batch lookup endpoint.
type Ensembl struct {
	BaseURL string
}

func (e *Ensembl) Name() string { return dbbuddy.ClientEnsembl }

func (e *Ensembl) Accepts(db record.Database) bool { return db == record.Ensembl }

func (e *Ensembl) BatchSize() int { return 1000 }

type ensemblEntry struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Species     string `json:"species"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Biotype     string `json:"biotype"`
	ObjectType  string `json:"object_type"`
	Description string `json:"description"`
}

// Fetch posts every id in one lookup. Unknown ids come back as null.
func (e *Ensembl) Fetch(ctx context.Context, hc *http.Client, recs []*record.Record) (map[string]*record.Summary, error) {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.Accession()
	}
	base := e.BaseURL
	if base == "" {
		base = DefaultEnsemblURL
	}
	body, err := postJSON(ctx, hc, e.Name(), strings.TrimRight(base, "/")+"/lookup/id", map[string][]string{"ids": ids})
	if err != nil {
		return nil, err
	}

	var entries map[string]*ensemblEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("ensembl lookup: %w", err)
	}
	out := map[string]*record.Summary{}
	for _, r := range recs {
		ent := entries[r.Accession()]
		if ent == nil {
			continue
		}
		s := record.NewSummary()
		s.Set("name", ent.DisplayName)
		s.Set("organism", ent.Species)
		if ent.End >= ent.Start && ent.End > 0 {
			s.Set("length", strconv.Itoa(ent.End-ent.Start+1))
		}
		s.Set("biotype", ent.Biotype)
		s.Set("object_type", ent.ObjectType)
		s.Set("comments", ent.Description)
		out[r.NCBIAccession()] = s
	}
	return out, nil
}
