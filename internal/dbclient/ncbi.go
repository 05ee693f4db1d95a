package dbclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zjrosen/buddy/internal/dbbuddy"
	"github.com/zjrosen/buddy/internal/record"
)

// DefaultNCBIURL is the E-utilities base URL.
const DefaultNCBIURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// NCBI looks up nucleotide and protein records with esummary.
type NCBI struct {
	BaseURL string
	// Email is sent with every request as NCBI asks of E-utilities clients.
	Email string
}

func (n *NCBI) Name() string { return dbbuddy.ClientNCBI }

func (n *NCBI) Accepts(db record.Database) bool {
	return db == record.NCBINuc || db == record.NCBIProt
}

func (n *NCBI) BatchSize() int { return 200 }

type esummaryDoc struct {
	UID              string          `json:"uid"`
	Caption          string          `json:"caption"`
	AccessionVersion string          `json:"accessionversion"`
	Title            string          `json:"title"`
	Slen             json.RawMessage `json:"slen"`
	Organism         string          `json:"organism"`
	TaxID            json.RawMessage `json:"taxid"`
	Status           string          `json:"status"`
	Error            string          `json:"error"`
}

type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// Fetch issues one esummary call per NCBI database present in recs.
func (n *NCBI) Fetch(ctx context.Context, hc *http.Client, recs []*record.Record) (map[string]*record.Summary, error) {
	byDB := map[string][]*record.Record{}
	for _, r := range recs {
		db := "nuccore"
		if r.Database == record.NCBIProt {
			db = "protein"
		}
		byDB[db] = append(byDB[db], r)
	}

	out := map[string]*record.Summary{}
	for _, db := range []string{"nuccore", "protein"} {
		group := byDB[db]
		if len(group) == 0 {
			continue
		}
		docs, err := n.esummary(ctx, hc, db, group)
		if err != nil {
			return out, err
		}
		for _, r := range group {
			if doc, ok := matchDoc(docs, r); ok {
				out[r.NCBIAccession()] = doc.summary()
			}
		}
	}
	return out, nil
}

func (n *NCBI) esummary(ctx context.Context, hc *http.Client, db string, recs []*record.Record) ([]esummaryDoc, error) {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.NCBIAccession()
	}
	q := url.Values{}
	q.Set("db", db)
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "json")
	q.Set("tool", "buddy")
	if n.Email != "" {
		q.Set("email", n.Email)
	}
	base := n.BaseURL
	if base == "" {
		base = DefaultNCBIURL
	}
	body, err := get(ctx, hc, n.Name(), strings.TrimRight(base, "/")+"/esummary.fcgi?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp esummaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ncbi esummary: %w", err)
	}
	var uids []string
	if raw, ok := resp.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return nil, fmt.Errorf("ncbi esummary uids: %w", err)
		}
	}
	docs := make([]esummaryDoc, 0, len(uids))
	for _, uid := range uids {
		var doc esummaryDoc
		if err := json.Unmarshal(resp.Result[uid], &doc); err != nil {
			return nil, fmt.Errorf("ncbi esummary %s: %w", uid, err)
		}
		if doc.Error != "" {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// matchDoc finds the document for r by versioned accession, caption or GI.
func matchDoc(docs []esummaryDoc, r *record.Record) (esummaryDoc, bool) {
	for _, d := range docs {
		switch {
		case d.AccessionVersion != "" && d.AccessionVersion == r.NCBIAccession():
			return d, true
		case d.Caption != "" && d.Caption == r.Accession():
			return d, true
		case d.UID == r.Accession():
			return d, true
		}
	}
	return esummaryDoc{}, false
}

func (d esummaryDoc) summary() *record.Summary {
	s := record.NewSummary()
	s.Set("organism", d.Organism)
	s.Set("TaxId", rawScalar(d.TaxID))
	s.Set("length", rawScalar(d.Slen))
	s.Set("status", d.Status)
	s.Set("comments", d.Title)
	return s
}

// rawScalar renders a JSON number or string without quotes.
func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return string(raw)
}
