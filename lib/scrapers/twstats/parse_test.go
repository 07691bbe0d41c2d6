package twstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestParseVillage(t *testing.T) {
	testCases := []struct {
		raw       string
		name      string
		x, y      int
		continent string
	}{
		{
			raw:       "VillageName (450|465) K47",
			name:      "VillageName",
			x:         450,
			y:         465,
			continent: "K47",
		},
		{
			raw:       "Barbarian village",
			name:      "Barbarian village",
			continent: "Unknown",
		},
		{
			raw:       "  Spaced   out  (1|2)  K5 ",
			name:      "Spaced out",
			x:         1,
			y:         2,
			continent: "K5",
		},
		{
			raw:       "No parens 450|465 K47",
			name:      "No parens",
			x:         450,
			y:         465,
			continent: "K47",
		},
	}

	for _, test := range testCases {
		name, x, y, continent := parseVillage(test.raw)
		require.Equal(t, test.name, name, test.raw)
		require.Equal(t, test.x, x, test.raw)
		require.Equal(t, test.y, y, test.raw)
		require.Equal(t, test.continent, continent, test.raw)
	}
}

func TestParsePoints(t *testing.T) {
	testCases := []struct {
		raw    string
		points int
	}{
		{raw: "1,234", points: 1234},
		{raw: "12", points: 12},
		{raw: "9,128,334 pts", points: 9128334},
		{raw: "", points: 0},
		{raw: "n/a", points: 0},
	}

	for _, test := range testCases {
		require.Equal(t, test.points, parsePoints(test.raw), test.raw)
	}
}

func TestParsePlayer(t *testing.T) {
	testCases := []struct {
		raw    string
		player string
		tribe  string
	}{
		{raw: "OldPlayer [SiSu]", player: "OldPlayer", tribe: "SiSu"},
		{raw: "Loner", player: "Loner", tribe: ""},
		{raw: "[Tag] Prefixed", player: "Prefixed", tribe: "Tag"},
		{raw: "Padded [ SiSu ]", player: "Padded", tribe: "SiSu"},
	}

	for _, test := range testCases {
		player, tribe := parsePlayer(test.raw)
		require.Equal(t, test.player, player, test.raw)
		require.Equal(t, test.tribe, tribe, test.raw)
	}
}

func TestParseTimestamp(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
	}{
		{raw: "15.12.2024 14:30", expected: "2024-12-15T14:30:00Z"},
		{raw: "2024-12-15 14:30", expected: "2024-12-15T14:30:00Z"},
		{raw: "12/15/2024 14:30", expected: "2024-12-15T14:30:00Z"},
		// unknown formats pass through verbatim
		{raw: "yesterday at noon", expected: "yesterday at noon"},
		// empty cells are stamped with the current instant
		{raw: "", expected: "2025-01-02T03:04:05Z"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, parseTimestamp(test.raw, time.UTC, fixedNow), test.raw)
	}
}

func TestParseInstantRoundTrip(t *testing.T) {
	canonical, err := ParseInstant("2024-12-15T14:30:00Z", time.UTC)
	require.NoError(t, err)

	legacy, err := ParseInstant("2024-12-15 - 14:30:00", time.UTC)
	require.NoError(t, err)

	require.True(t, canonical.Equal(legacy))

	_, err = ParseInstant("yesterday at noon", time.UTC)
	require.Error(t, err)
}

func TestParseRow(t *testing.T) {
	cells := []string{
		"VillageName (450|465) K47",
		"1,234",
		"OldPlayer [SiSu]",
		"NewPlayer [EnemyTribe]",
		"15.12.2024 14:30",
	}

	event, ok := ParseRow(cells, time.UTC, fixedNow)
	require.True(t, ok)
	require.Equal(t, Ennoblement{
		VillageName: "VillageName",
		X:           450,
		Y:           465,
		Continent:   "K47",
		Points:      1234,
		OldPlayer:   "OldPlayer",
		OldTribe:    "SiSu",
		NewPlayer:   "NewPlayer",
		NewTribe:    "EnemyTribe",
		Timestamp:   "2024-12-15T14:30:00Z",
	}, event)
}

func TestParseRowTolerance(t *testing.T) {
	// a malformed points cell is not fatal to the row
	event, ok := ParseRow([]string{
		"Village (1|2) K1", "???", "Old", "New", "15.12.2024 14:30",
	}, time.UTC, fixedNow)
	require.True(t, ok)
	require.Equal(t, 0, event.Points)

	// a missing player is fatal, no partial record comes back
	_, ok = ParseRow([]string{
		"Village (1|2) K1", "100", "", "New", "15.12.2024 14:30",
	}, time.UTC, fixedNow)
	require.False(t, ok)

	_, ok = ParseRow([]string{
		"Village (1|2) K1", "100", "Old", "[OnlyATribe]", "15.12.2024 14:30",
	}, time.UTC, fixedNow)
	require.False(t, ok)

	_, ok = ParseRow([]string{"Village", "100", "Old"}, time.UTC, fixedNow)
	require.False(t, ok)
}
