package watcher

import (
	"fmt"
	"strings"
	"tribewatch-backend/lib/scrapers/twstats"
)

// token a message template must contain, replaced with the rendered
// event blocks
const TemplatePlaceholder = "{events}"

const noTribe = "No Tribe"

func tribeTag(tribe string) string {
	if tribe == "" {
		return noTribe
	}
	return tribe
}

func formatBlock(e twstats.Ennoblement) string {
	return fmt.Sprintf(
		"%s (%d|%d) %s, %d points\n%s [%s] -> %s [%s]\n%s",
		e.VillageName, e.X, e.Y, e.Continent, e.Points,
		e.OldPlayer, tribeTag(e.OldTribe),
		e.NewPlayer, tribeTag(e.NewTribe),
		e.Timestamp,
	)
}

// renders one or many ennoblements into a notification body. callers
// must not pass an empty slice, zero matches means no message at all.
// a non-empty template has its placeholder substituted with the body.
func FormatMessage(events []twstats.Ennoblement, template string) string {
	if len(events) == 0 {
		return ""
	}

	var body string
	if len(events) == 1 {
		body = formatBlock(events[0])
	} else {
		blocks := make([]string, len(events)+1)
		blocks[0] = fmt.Sprintf("%d villages changed hands:", len(events))
		for i, e := range events {
			blocks[i+1] = fmt.Sprintf("%d. %s", i+1, formatBlock(e))
		}
		body = strings.Join(blocks, "\n\n")
	}

	if template == "" {
		return body
	}
	return strings.ReplaceAll(template, TemplatePlaceholder, body)
}

// checked at config load time, not at render time
func ValidateTemplate(template string) error {
	if template == "" {
		return nil
	}
	if !strings.Contains(template, TemplatePlaceholder) {
		return fmt.Errorf("message template must contain %q", TemplatePlaceholder)
	}
	return nil
}
