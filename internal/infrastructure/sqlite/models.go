package sqlite

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/zjrosen/buddy/internal/dbbuddy"
	"github.com/zjrosen/buddy/internal/record"
	"github.com/zjrosen/buddy/internal/seqio"
)

// SessionModel is a row of the sessions table.
type SessionModel struct {
	ID          int64
	Name        string
	OutFormat   string
	Databases   string // JSON encoded
	RecordCount int
	TrashCount  int
	Payload     []byte // zstd compressed sessionPayload
	CreatedAt   int64  // Unix timestamp
	UpdatedAt   int64  // Unix timestamp
}

// sessionPayload is the JSON document stored compressed in the payload column.
type sessionPayload struct {
	SearchTerms   []string        `json:"search_terms,omitempty"`
	Records       []recordModel   `json:"records"`
	Trash         []recordModel   `json:"trash,omitempty"`
	Failures      []failureModel  `json:"failures,omitempty"`
	ServerClients map[string]bool `json:"server_clients,omitempty"`
}

type recordModel struct {
	Accession  string        `json:"accession"`
	GI         *string       `json:"gi,omitempty"`
	Version    *string       `json:"version,omitempty"`
	Database   string        `json:"database,omitempty"`
	Type       string        `json:"type,omitempty"`
	SearchTerm string        `json:"search_term,omitempty"`
	Summary    [][2]string   `json:"summary,omitempty"`
	Size       *int          `json:"size,omitempty"`
	Payload    *seqio.Record `json:"payload,omitempty"`
}

type failureModel struct {
	Query    string `json:"query"`
	ErrorMsg string `json:"error"`
}

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

func compress(b []byte) []byte {
	encoderOnce.Do(func() {
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return encoder.EncodeAll(b, make([]byte, 0, len(b)/2))
}

func decompress(b []byte) ([]byte, error) {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil)
	})
	return decoder.DecodeAll(b, nil)
}

// toSessionModel converts a container to a row.
func toSessionModel(name string, d *dbbuddy.DbBuddy) (*SessionModel, error) {
	payload := sessionPayload{
		SearchTerms:   d.SearchTerms,
		Records:       toRecordModels(d.Records),
		Trash:         toRecordModels(d.TrashBin),
		ServerClients: d.ServerClients,
	}
	for _, f := range d.Failures {
		payload.Failures = append(payload.Failures, failureModel{Query: f.Query, ErrorMsg: f.ErrorMsg})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	dbs, err := json.Marshal(d.Databases)
	if err != nil {
		return nil, fmt.Errorf("failed to encode databases: %w", err)
	}
	return &SessionModel{
		Name:        name,
		OutFormat:   d.OutFormat,
		Databases:   string(dbs),
		RecordCount: d.Records.Len(),
		TrashCount:  d.TrashBin.Len(),
		Payload:     compress(raw),
	}, nil
}

func toRecordModels(s *record.Store) []recordModel {
	out := make([]recordModel, 0, s.Len())
	for _, r := range s.Values() {
		m := recordModel{
			Accession:  r.Accession(),
			GI:         r.GI,
			Version:    r.Version,
			Database:   string(r.Database),
			Type:       string(r.Type),
			SearchTerm: r.SearchTerm,
			Size:       r.Size,
			Payload:    r.Payload,
		}
		for _, k := range r.Summary.Keys() {
			v, _ := r.Summary.Get(k)
			m.Summary = append(m.Summary, [2]string{k, v})
		}
		out = append(out, m)
	}
	return out
}

// toDomain rebuilds the container stored in m.
func (m *SessionModel) toDomain() (*dbbuddy.DbBuddy, error) {
	raw, err := decompress(m.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress session %q: %w", m.Name, err)
	}
	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode session %q: %w", m.Name, err)
	}

	d := dbbuddy.Empty()
	d.OutFormat = m.OutFormat
	var dbs []record.Database
	if err := json.Unmarshal([]byte(m.Databases), &dbs); err == nil {
		d.Databases = dbs
	}
	d.SearchTerms = payload.SearchTerms
	for _, rm := range payload.Records {
		d.Records.Add(rm.toDomain())
	}
	for _, rm := range payload.Trash {
		d.TrashBin.Add(rm.toDomain())
	}
	for _, f := range payload.Failures {
		fail := record.NewFailure(f.Query, f.ErrorMsg)
		d.Failures[fail.Hash] = fail
	}
	for name, connected := range payload.ServerClients {
		d.ServerClients[name] = connected
	}
	d.UpdateMemoryFootprint()
	return d, nil
}

func (rm recordModel) toDomain() *record.Record {
	opts := []record.Option{
		record.WithDatabase(record.Database(rm.Database)),
		record.WithType(record.Type(rm.Type)),
		record.WithSearchTerm(rm.SearchTerm),
	}
	if rm.GI != nil {
		opts = append(opts, record.WithGI(*rm.GI))
	}
	if rm.Version != nil {
		opts = append(opts, record.WithVersion(*rm.Version))
	}
	if rm.Size != nil {
		opts = append(opts, record.WithSize(*rm.Size))
	}
	if rm.Payload != nil {
		opts = append(opts, record.WithPayload(rm.Payload))
	}
	if len(rm.Summary) > 0 {
		s := record.NewSummary()
		for _, kv := range rm.Summary {
			s.Set(kv[0], kv[1])
		}
		opts = append(opts, record.WithSummary(s))
	}
	return record.New(rm.Accession, opts...)
}
