// Package flags reads the feature flags set under `flags:` in the config file.
// Unknown names are reported once and read as off.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/buddy/internal/log"
)

const (
	// FlagSerialFetch queries remote databases one backend at a time.
	FlagSerialFetch = "serial-fetch"

	// FlagToolCache reuses alignments for repeated tool runs on identical input.
	FlagToolCache = "tool-cache"

	// FlagSummaryCache keeps fetched summaries in the session database.
	FlagSummaryCache = "summary-cache"
)

var known = map[string]string{
	FlagSerialFetch:  "query remote databases one backend at a time",
	FlagToolCache:    "reuse alignments for repeated tool runs on identical input",
	FlagSummaryCache: "keep fetched summaries in the session database",
}

// Describe returns the help text of a known flag.
func Describe(name string) (string, bool) {
	d, ok := known[name]
	return d, ok
}

// Names lists the known flags, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(known))
}

// Registry holds flag state. It is read-only after New.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from the config map. A nil map leaves every flag off.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: maps.Clone(flags)}
	if r.flags == nil {
		r.flags = map[string]bool{}
	}
	if unknown := r.Unknown(); len(unknown) > 0 {
		log.Warn(log.CatConfig, "unknown feature flags ignored", "flags", unknown)
	}
	log.Debug(log.CatConfig, "feature flags", "flags", r.All())
	return r
}

// Enabled reports whether name is on. Nil registries and unknown names read as off.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	if _, ok := known[name]; !ok {
		return false
	}
	return r.flags[name]
}

// All returns a copy of the configured flags.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return map[string]bool{}
	}
	return maps.Clone(r.flags)
}

// Unknown lists configured names that no flag uses, sorted.
func (r *Registry) Unknown() []string {
	if r == nil {
		return nil
	}
	var out []string
	for name := range r.flags {
		if _, ok := known[name]; !ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
