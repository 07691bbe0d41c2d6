package watcher

import (
	"context"
	"testing"
	"time"
	"tribewatch-backend/lib/scrapers/twstats"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func event(village string, x, y int, oldTribe, newTribe, timestamp string) twstats.Ennoblement {
	return twstats.Ennoblement{
		VillageName: village,
		X:           x,
		Y:           y,
		Continent:   "K47",
		Points:      100,
		OldPlayer:   "Old",
		OldTribe:    oldTribe,
		NewPlayer:   "New",
		NewTribe:    newTribe,
		Timestamp:   timestamp,
	}
}

func TestFilterMatches(t *testing.T) {
	filter := &Filter{Faction: "SiSu", XMax: 452, YMin: 462}

	testCases := []struct {
		event   twstats.Ennoblement
		matches bool
	}{
		// fails the x test
		{event: event("a", 453, 465, "", "SiSu", "2024-12-15T14:30:00Z"), matches: false},
		// fails the y test
		{event: event("b", 450, 460, "", "SiSu", "2024-12-15T14:30:00Z"), matches: false},
		{event: event("c", 450, 465, "", "SiSu", "2024-12-15T14:30:00Z"), matches: true},
		// faction may sit on either side, case insensitively
		{event: event("d", 450, 465, "sisu", "", "2024-12-15T14:30:00Z"), matches: true},
		{event: event("e", 450, 465, "", "EnemyTribe", "2024-12-15T14:30:00Z"), matches: false},
		// unaffiliated on both sides never matches a faction filter
		{event: event("f", 450, 465, "", "", "2024-12-15T14:30:00Z"), matches: false},
	}

	for _, test := range testCases {
		require.Equal(t, test.matches, filter.Matches(test.event), test.event.VillageName)
	}

	// nil filter disables filtering entirely
	var disabled *Filter
	for _, test := range testCases {
		require.True(t, disabled.Matches(test.event))
	}
}

func TestTimestampDetectorBootstrap(t *testing.T) {
	detector := TimestampDetector{Location: time.UTC}
	events := []twstats.Ennoblement{
		event("newest", 450, 465, "", "SiSu", "2024-12-15T14:30:00Z"),
		event("older", 450, 465, "", "SiSu", "2024-12-15T14:00:00Z"),
	}

	// first run announces nothing and records the most recent timestamp
	detection, err := detector.Detect(context.Background(), "", false, events, nil)
	require.NoError(t, err)
	require.Empty(t, detection.Matched)
	require.True(t, detection.Advanced)
	require.Equal(t, "2024-12-15T14:30:00Z", detection.NextCursor)

	// no cursor and no events is a plain no-op
	detection, err = detector.Detect(context.Background(), "", false, nil, nil)
	require.NoError(t, err)
	require.False(t, detection.Advanced)
}

func TestTimestampDetectorIdempotence(t *testing.T) {
	detector := TimestampDetector{Location: time.UTC}
	events := []twstats.Ennoblement{
		event("newest", 450, 465, "", "SiSu", "2024-12-15T14:30:00Z"),
		event("older", 450, 465, "", "SiSu", "2024-12-15T14:00:00Z"),
	}

	first, err := detector.Detect(context.Background(), "2024-12-15T13:00:00Z", true, events, nil)
	require.NoError(t, err)
	require.Len(t, first.Matched, 2)
	require.True(t, first.Advanced)
	require.Equal(t, "2024-12-15T14:30:00Z", first.NextCursor)

	// re-running against unchanged data from the advanced cursor
	// produces nothing and does not advance again
	second, err := detector.Detect(context.Background(), first.NextCursor, true, events, nil)
	require.NoError(t, err)
	require.Empty(t, second.Matched)
	require.False(t, second.Advanced)
}

func TestTimestampDetectorAdvancesPastFilteredEvents(t *testing.T) {
	detector := TimestampDetector{Location: time.UTC}
	filter := &Filter{Faction: "SiSu", XMax: 452, YMin: 462}

	events := []twstats.Ennoblement{
		// new but filtered out
		event("elsewhere", 900, 100, "", "OtherTribe", "2024-12-15T14:30:00Z"),
		// new and matching
		event("nearby", 450, 465, "", "SiSu", "2024-12-15T14:10:00Z"),
	}

	detection, err := detector.Detect(context.Background(), "2024-12-15T14:00:00Z", true, events, filter)
	require.NoError(t, err)
	require.Len(t, detection.Matched, 1)
	require.Equal(t, "nearby", detection.Matched[0].VillageName)

	// the cursor advances to the newest new event, matching or not,
	// so filtered-out events are not re-scanned next cycle
	require.Equal(t, "2024-12-15T14:30:00Z", detection.NextCursor)
}

func TestTimestampDetectorLegacyCursor(t *testing.T) {
	detector := TimestampDetector{Location: time.UTC}
	events := []twstats.Ennoblement{
		event("newest", 450, 465, "", "SiSu", "2024-12-15T14:30:00Z"),
	}

	detection, err := detector.Detect(context.Background(), "2024-12-15 - 14:00:00", true, events, nil)
	require.NoError(t, err)
	require.Len(t, detection.Matched, 1)

	_, err = detector.Detect(context.Background(), "garbage", true, events, nil)
	require.Error(t, err)
}

func TestHashDetectorPermutationInvariance(t *testing.T) {
	detector := HashDetector{}
	a := event("a", 450, 465, "", "SiSu", "2024-12-15T14:30:00Z")
	b := event("b", 451, 466, "SiSu", "", "2024-12-15T14:00:00Z")

	first, err := detector.Detect(context.Background(), "", false, []twstats.Ennoblement{a, b}, nil)
	require.NoError(t, err)
	require.True(t, first.Advanced)
	require.Len(t, first.Matched, 2)

	permuted, err := detector.Detect(context.Background(), first.NextCursor, true, []twstats.Ennoblement{b, a}, nil)
	require.NoError(t, err)
	require.False(t, permuted.Advanced)
	require.Empty(t, permuted.Matched)
}

func TestHashDetectorSignatureExcludesNonKeyFields(t *testing.T) {
	detector := HashDetector{}

	a := event("one name", 450, 465, "SiSu", "EnemyTribe", "2024-12-15T14:30:00Z")
	b := a
	b.VillageName = "another name"
	b.Points = 9999

	first, err := detector.Detect(context.Background(), "", false, []twstats.Ennoblement{a}, nil)
	require.NoError(t, err)

	// same identity fields hash identically even though the display
	// fields differ
	second, err := detector.Detect(context.Background(), first.NextCursor, true, []twstats.Ennoblement{b}, nil)
	require.NoError(t, err)
	require.False(t, second.Advanced)
}

func TestHashDetectorChange(t *testing.T) {
	detector := HashDetector{}
	filter := &Filter{Faction: "SiSu", XMax: 500, YMin: 400}

	a := event("a", 450, 465, "", "SiSu", "2024-12-15T14:30:00Z")
	b := event("b", 451, 466, "", "SiSu", "2024-12-15T15:00:00Z")

	first, err := detector.Detect(context.Background(), "", false, []twstats.Ennoblement{a}, filter)
	require.NoError(t, err)
	require.True(t, first.Advanced)

	changed, err := detector.Detect(context.Background(), first.NextCursor, true, []twstats.Ennoblement{a, b}, filter)
	require.NoError(t, err)
	require.True(t, changed.Advanced)
	require.NotEqual(t, first.NextCursor, changed.NextCursor)

	if diff := cmp.Diff([]twstats.Ennoblement{a, b}, changed.Matched); diff != "" {
		t.Fatalf("matched set mismatch (-want +got):\n%s", diff)
	}
}
