package dbbuddy

import (
	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/log"
	"github.com/zjrosen/buddy/internal/query"
	"github.com/zjrosen/buddy/internal/record"
)

// Action selects what a filter does with the records it matches.
type Action string

const (
	// ActionKeep moves every record that does not match into the trash bin.
	ActionKeep Action = "keep"
	// ActionRemove moves every matching record into the trash bin.
	ActionRemove Action = "remove"
	// ActionRestore moves matching records out of the trash bin.
	ActionRestore Action = "restore"
)

// Filter applies the search expression expr and moves records between the
// records and trash partitions according to action. It returns how many
// records moved. A malformed expression moves nothing.
func (d *DbBuddy) Filter(expr string, action Action) (int, error) {
	q, err := query.Parse(expr)
	if err != nil {
		return 0, err
	}

	var (
		src, dst *record.Store
		keepHits bool
	)
	switch action {
	case ActionKeep:
		src, dst, keepHits = d.Records, d.TrashBin, false
	case ActionRemove:
		src, dst, keepHits = d.Records, d.TrashBin, true
	case ActionRestore:
		src, dst, keepHits = d.TrashBin, d.Records, true
	default:
		return 0, buddyerr.Valuef("unknown filter action '%s'", action)
	}

	var move []string
	for _, key := range src.Keys() {
		rec, _ := src.Get(key)
		if q.Match(rec) == keepHits {
			move = append(move, key)
		}
	}
	if err := src.MoveTo(dst, move); err != nil {
		return 0, err
	}
	log.Info(log.CatDbBuddy, "filtered records", "query", q.String(), "action", string(action), "moved", len(move))
	return len(move), nil
}
