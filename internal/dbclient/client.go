// Package dbclient fetches record summaries from the remote databases an
// accession container points at. Each backend is queried in batches under
// its own rate limit; backends run concurrently and their results are merged
// into the container afterwards on the calling goroutine.
package dbclient

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/zjrosen/buddy/internal/cachemanager"
	"github.com/zjrosen/buddy/internal/dbbuddy"
	"github.com/zjrosen/buddy/internal/log"
	"github.com/zjrosen/buddy/internal/record"
	"github.com/zjrosen/buddy/internal/tracing"
)

// Backend queries one remote service.
type Backend interface {
	// Name is the server client key, one of the dbbuddy Client constants.
	Name() string
	// Accepts reports whether records of db are looked up here.
	Accepts(db record.Database) bool
	// BatchSize is the largest number of accessions sent in one request.
	BatchSize() int
	// Fetch returns summaries keyed by the NCBI accession of each record.
	// Records the service does not know are left out.
	Fetch(ctx context.Context, hc *http.Client, recs []*record.Record) (map[string]*record.Summary, error)
}

// Config holds the settings shared by every backend.
type Config struct {
	// RatePerSecond caps requests per backend.
	RatePerSecond float64
	Timeout       time.Duration
	CacheTTL      time.Duration
	// Serial queries one backend at a time.
	Serial bool
}

// DefaultConfig matches NCBI's limit for clients without an API key.
func DefaultConfig() Config {
	return Config{RatePerSecond: 3, Timeout: 30 * time.Second, CacheTTL: cachemanager.DefaultExpiration}
}

// Client fans summary requests out to the backends.
type Client struct {
	cfg      Config
	hc       *http.Client
	backends []Backend
	limiters map[string]*rate.Limiter
	cache    cachemanager.CacheManager[cachemanager.Key, *record.Summary]
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// WithCache stores summaries between calls.
func WithCache(cache cachemanager.CacheManager[cachemanager.Key, *record.Summary]) Option {
	return func(c *Client) { c.cache = cache }
}

// WithTracer opens a span per backend request batch.
func WithTracer(t trace.Tracer) Option { return func(c *Client) { c.tracer = t } }

// New builds a client over the given backends.
func New(cfg Config, backends []Backend, opts ...Option) *Client {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultConfig().RatePerSecond
	}
	c := &Client{
		cfg:      cfg,
		hc:       &http.Client{Timeout: cfg.Timeout},
		backends: backends,
		limiters: make(map[string]*rate.Limiter, len(backends)),
	}
	for _, b := range backends {
		c.limiters[b.Name()] = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type backendResult struct {
	summaries map[string]*record.Summary
	failures  []record.Failure
	reached   bool
}

// FetchSummaries fills in the summaries of every record in d whose
// database is enabled. A backend that cannot be reached records a failure
// for the accessions it was asked about; only cancellation of ctx is
// returned as an error.
func (c *Client) FetchSummaries(ctx context.Context, d *dbbuddy.DbBuddy) error {
	groups := c.group(d)
	results := make([]backendResult, len(c.backends))

	err := tracing.Run(ctx, c.tracer, tracing.SpanFetchAll, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		if c.cfg.Serial {
			g.SetLimit(1)
		} else {
			g.SetLimit(len(c.backends))
		}
		for i, b := range c.backends {
			recs := groups[i]
			if len(recs) == 0 {
				continue
			}
			g.Go(func() error {
				res, err := c.fetchBackend(gctx, b, recs)
				results[i] = res
				return err
			})
		}
		return g.Wait()
	}, attribute.Int(tracing.AttrRecordCount, d.Records.Len()))
	if err != nil {
		return err
	}

	for i, b := range c.backends {
		res := results[i]
		if res.reached {
			d.ServerClients[b.Name()] = true
		}
		for _, rec := range groups[i] {
			key := rec.NCBIAccession()
			s, ok := res.summaries[key]
			if !ok {
				continue
			}
			applySummary(rec, s)
		}
		for _, f := range res.failures {
			d.AddFailure(f)
		}
	}
	d.UpdateMemoryFootprint()
	return nil
}

// group assigns each record to the first backend that accepts its database.
func (c *Client) group(d *dbbuddy.DbBuddy) [][]*record.Record {
	groups := make([][]*record.Record, len(c.backends))
	for _, rec := range d.Records.Values() {
		if rec.Database == "" || !slices.Contains(d.Databases, rec.Database) {
			continue
		}
		for i, b := range c.backends {
			if b.Accepts(rec.Database) {
				groups[i] = append(groups[i], rec)
				break
			}
		}
	}
	return groups
}

func (c *Client) fetchBackend(ctx context.Context, b Backend, recs []*record.Record) (backendResult, error) {
	res := backendResult{summaries: map[string]*record.Summary{}}
	byKey := make(map[cachemanager.Key]*record.Record, len(recs))
	keys := make([]cachemanager.Key, 0, len(recs))
	for _, rec := range recs {
		k := cachemanager.SummaryKey(b.Name(), rec.NCBIAccession())
		if _, dup := byKey[k]; !dup {
			keys = append(keys, k)
		}
		byKey[k] = rec
	}

	load := func(ctx context.Context, missing []cachemanager.Key) (map[cachemanager.Key]*record.Summary, error) {
		out := make(map[cachemanager.Key]*record.Summary, len(missing))
		batch := make([]*record.Record, 0, len(missing))
		for _, k := range missing {
			batch = append(batch, byKey[k])
		}
		for chunk := range slices.Chunk(batch, max(b.BatchSize(), 1)) {
			got, err := c.request(ctx, b, chunk)
			if err != nil {
				if ctx.Err() != nil {
					return out, ctx.Err()
				}
				res.failures = append(res.failures, record.NewFailure(accessionList(chunk), err.Error()))
				continue
			}
			res.reached = true
			for _, rec := range chunk {
				s, ok := got[rec.NCBIAccession()]
				if !ok {
					res.failures = append(res.failures, record.NewFailure(rec.NCBIAccession(),
						fmt.Sprintf("No summary returned by %s.", b.Name())))
					continue
				}
				out[cachemanager.SummaryKey(b.Name(), rec.NCBIAccession())] = s
			}
		}
		return out, nil
	}

	var (
		found map[cachemanager.Key]*record.Summary
		err   error
	)
	if c.cache != nil {
		found, err = cachemanager.GetMany(ctx, c.cache, keys, c.cfg.CacheTTL, load)
	} else {
		found, err = load(ctx, keys)
	}
	for k, s := range found {
		res.summaries[byKey[k].NCBIAccession()] = s
	}
	// cached summaries count as a reached backend
	if len(found) > 0 {
		res.reached = true
	}
	log.Debug(log.CatFetch, "backend done", "backend", b.Name(), "records", len(recs),
		"summaries", len(res.summaries), "failures", len(res.failures))
	return res, err
}

func (c *Client) request(ctx context.Context, b Backend, chunk []*record.Record) (map[string]*record.Summary, error) {
	var got map[string]*record.Summary
	err := tracing.Run(ctx, c.tracer, tracing.SpanFetchBackend, func(ctx context.Context) error {
		if err := c.limiters[b.Name()].Wait(ctx); err != nil {
			return err
		}
		var err error
		got, err = b.Fetch(ctx, c.hc, chunk)
		return err
	},
		attribute.String(tracing.AttrFetchBackend, b.Name()),
		attribute.Int(tracing.AttrAccessions, len(chunk)),
	)
	if err != nil {
		log.Warn(log.CatFetch, "request failed", "backend", b.Name(), "accessions", len(chunk), "error", err)
	}
	return got, err
}

// applySummary copies a fetched summary onto rec and derives its size.
func applySummary(rec *record.Record, s *record.Summary) {
	rec.Summary = s.Copy()
	if v, ok := s.Get("length"); ok {
		if n, err := record.ParseSize(v); err == nil {
			rec.Size = n
		}
	}
}

func accessionList(recs []*record.Record) string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.NCBIAccession()
	}
	return strings.Join(ids, ", ")
}

// DefaultBackends returns the NCBI, UniProt and Ensembl backends at their
// public endpoints.
func DefaultBackends(email string) []Backend {
	return []Backend{&NCBI{Email: email}, &UniProt{}, &Ensembl{}}
}
