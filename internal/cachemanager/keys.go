package cachemanager

import (
	"strings"

	"github.com/zjrosen/buddy/internal/hashing"
)

// Key identifies a cache entry.
type Key string

// SummaryKey is the key of a record summary fetched from backend.
func SummaryKey(backend, accession string) Key {
	return Key("summary:" + strings.ToLower(backend) + ":" + accession)
}

// ToolResultKey is the key of an alignment produced by tool with params from
// the given input text.
func ToolResultKey(tool, params, input string) Key {
	return Key("tool:" + tool + ":" + hashing.ContentHashParts(tool, params, input))
}
