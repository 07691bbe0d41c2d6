package twstats

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"tribewatch-backend/lib/textutil"
)

var coordsRegex = regexp.MustCompile(`\(?(\d+)\|(\d+)\)?`)
var continentRegex = regexp.MustCompile(`K\d+`)
var tribeRegex = regexp.MustCompile(`\[([^\]]*)\]`)
var digitRunRegex = regexp.MustCompile(`\d+`)

// "VillageName (450|465) K47" -> ("VillageName", 450, 465, "K47")
// missing coordinates yield (0, 0), a missing continent yields "Unknown"
func parseVillage(raw string) (name string, x, y int, continent string) {
	continent = "Unknown"
	rest := raw

	if m := coordsRegex.FindStringSubmatch(rest); m != nil {
		x, _ = strconv.Atoi(m[1])
		y, _ = strconv.Atoi(m[2])
		rest = strings.Replace(rest, m[0], " ", 1)
	}
	if m := continentRegex.FindString(rest); m != "" {
		continent = m
		rest = strings.Replace(rest, m, " ", 1)
	}

	name = textutil.CollapseWhitespace(rest)
	return name, x, y, continent
}

// first run of digits with thousands separators stripped, 0 when absent
func parsePoints(raw string) int {
	raw = strings.ReplaceAll(raw, ",", "")
	m := digitRunRegex.FindString(raw)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// "OldPlayer [SiSu]" -> ("OldPlayer", "SiSu"); no bracket group means
// the player is unaffiliated and tribe comes back ""
func parsePlayer(raw string) (player, tribe string) {
	if m := tribeRegex.FindStringSubmatch(raw); m != nil {
		tribe = strings.TrimSpace(m[1])
		raw = strings.Replace(raw, m[0], " ", 1)
	}
	player = textutil.CollapseWhitespace(raw)
	return player, tribe
}

var timestampLayouts = []string{
	"02.01.2006 15:04",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
}

// layouts ParseInstant accepts beyond what the pages emit: the canonical
// RFC3339 form and the legacy "YYYY-MM-DD - HH:MM:SS" cursor form
var instantLayouts = append([]string{
	time.RFC3339,
	"2006-01-02 - 15:04:05",
}, timestampLayouts...)

// normalizes a timestamp cell to RFC3339 UTC. unrecognized non-empty
// text passes through verbatim (ParseInstant rejects it later), an
// empty cell is stamped with the current instant.
func parseTimestamp(raw string, loc *time.Location, now func() time.Time) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	if raw != "" {
		return raw
	}
	return now().UTC().Format(time.RFC3339)
}

// parses any timestamp representation an Ennoblement or cursor may
// carry into a comparable instant
func ParseInstant(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range instantLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// turns the ordered cell texts of one table row into an Ennoblement.
// returns ok=false instead of a partially populated record when the
// village or either player name comes out empty.
func ParseRow(cells []string, loc *time.Location, now func() time.Time) (Ennoblement, bool) {
	if len(cells) < 4 {
		return Ennoblement{}, false
	}

	name, x, y, continent := parseVillage(cells[0])
	points := parsePoints(cells[1])
	oldPlayer, oldTribe := parsePlayer(cells[2])
	newPlayer, newTribe := parsePlayer(cells[3])

	rawTime := ""
	if len(cells) >= 5 {
		rawTime = cells[4]
	}
	timestamp := parseTimestamp(rawTime, loc, now)

	if name == "" || oldPlayer == "" || newPlayer == "" || timestamp == "" {
		return Ennoblement{}, false
	}

	return Ennoblement{
		VillageName: name,
		X:           x,
		Y:           y,
		Continent:   continent,
		Points:      points,
		OldPlayer:   oldPlayer,
		OldTribe:    oldTribe,
		NewPlayer:   newPlayer,
		NewTribe:    newTribe,
		Timestamp:   timestamp,
	}, true
}
