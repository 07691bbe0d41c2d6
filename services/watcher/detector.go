package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"tribewatch-backend/lib/scrapers/twstats"
)

// what a detector decided about the current record set. NextCursor is
// only meaningful when Advanced is true; callers must persist it then
// and only then.
type Detection struct {
	Matched    []twstats.Ennoblement
	NextCursor string
	Advanced   bool
}

// computes the subset of the current record set that is both new and
// matching. implementations interpret the opaque cursor value their
// own way; exactly one is wired per deployment.
type Detector interface {
	Detect(ctx context.Context, cursor string, hasCursor bool, events []twstats.Ennoblement, filter *Filter) (Detection, error)
}

const (
	StrategyTimestamp = "timestamp"
	StrategyHash      = "hash"
)

func NewDetector(strategy string, loc *time.Location) (Detector, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch strategy {
	case StrategyTimestamp:
		return TimestampDetector{Location: loc}, nil
	case StrategyHash:
		return HashDetector{}, nil
	}
	return nil, fmt.Errorf("unknown cursor strategy %q", strategy)
}

// cursor = timestamp of the most recently processed event. a record is
// new iff its instant strictly exceeds the cursor's. the cursor
// advances to the newest new record whether or not it matched the
// filter, so filtered-out events are not re-scanned next cycle.
type TimestampDetector struct {
	Location *time.Location
}

func (d TimestampDetector) Detect(ctx context.Context, cursor string, hasCursor bool, events []twstats.Ennoblement, filter *Filter) (Detection, error) {
	if !hasCursor {
		// unknown horizon: record where the page currently stands and
		// announce nothing, otherwise every historical event would be
		// replayed
		if len(events) == 0 {
			return Detection{}, nil
		}
		slog.InfoContext(ctx, "no cursor present, bootstrapping", "events", len(events))
		return Detection{
			NextCursor: events[0].Timestamp,
			Advanced:   true,
		}, nil
	}

	since, err := twstats.ParseInstant(cursor, d.Location)
	if err != nil {
		return Detection{}, fmt.Errorf("parse cursor: %w", err)
	}

	var matched []twstats.Ennoblement
	var newest time.Time
	var newestTimestamp string

	for _, e := range events {
		t, err := twstats.ParseInstant(e.Timestamp, d.Location)
		if err != nil {
			slog.WarnContext(ctx, "event has uncomparable timestamp", "timestamp", e.Timestamp, "village", e.VillageName)
			continue
		}
		if !t.After(since) {
			continue
		}
		if t.After(newest) {
			newest = t
			newestTimestamp = e.Timestamp
		}
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}

	if newestTimestamp == "" {
		return Detection{}, nil
	}
	return Detection{
		Matched:    matched,
		NextCursor: newestTimestamp,
		Advanced:   true,
	}, nil
}

// cursor = hex digest of the canonical signature of the filtered
// record set. stateless with respect to recency, it fires on any
// change to the filtered set.
type HashDetector struct{}

// the signature deliberately covers only the identity fields, so a
// village renaming or gaining points does not count as a change
func signature(events []twstats.Ennoblement) string {
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = fmt.Sprintf("%s|%d|%d|%s|%s", e.Timestamp, e.X, e.Y, e.OldTribe, e.NewTribe)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func (d HashDetector) Detect(ctx context.Context, cursor string, hasCursor bool, events []twstats.Ennoblement, filter *Filter) (Detection, error) {
	var matched []twstats.Ennoblement
	for _, e := range events {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}

	sum := sha256.Sum256([]byte(signature(matched)))
	hash := hex.EncodeToString(sum[:])

	if hasCursor && cursor == hash {
		return Detection{}, nil
	}
	return Detection{
		Matched:    matched,
		NextCursor: hash,
		Advanced:   true,
	}, nil
}
