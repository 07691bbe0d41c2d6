package twstats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"tribewatch-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrNoTable = errors.New("no table rows found")

const headerKeyword = "Ennobled"

// ordered, progressively less specific row queries. the configured
// selector always goes first.
func selectorChain(preferred string) []string {
	chain := []string{
		"table.widget tr",
		"table tr",
		fmt.Sprintf("table:contains('%s') tr", headerKeyword),
		"tbody tr",
		"tr",
	}
	if preferred == "" {
		return chain
	}
	return append([]string{preferred}, chain...)
}

// locates the event table in `doc` and parses every usable row, in
// page order. header rows and rows with fewer than 4 cells are
// skipped, a row that fails to parse is logged and skipped. only a
// document with no locatable rows at all is an error.
func Extract(ctx context.Context, doc *goquery.Document, preferred, pageURL string, loc *time.Location, now func() time.Time) ([]Ennoblement, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	var rows *goquery.Selection
	for _, sel := range selectorChain(preferred) {
		matched := doc.Find(sel)
		if matched.Length() > 0 {
			slog.DebugContext(ctx, "row selector matched", "selector", sel, "rows", matched.Length())
			span.SetAttributes(attribute.String("selector", sel))
			rows = matched
			break
		}
	}
	if rows == nil {
		err := fmt.Errorf("%w: %s", ErrNoTable, pageURL)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var events []Ennoblement
	rows.Each(func(i int, row *goquery.Selection) {
		if row.Find("th").Length() > 0 {
			return
		}
		cells := htmlutil.CellTexts(row, "td")
		if len(cells) < 4 {
			return
		}

		event, ok := ParseRow(cells, loc, now)
		if !ok {
			slog.WarnContext(ctx, "skipping unparseable row", "row", i, "url", pageURL)
			return
		}
		events = append(events, event)
	})

	span.SetAttributes(attribute.Int("events", len(events)))
	return events, nil
}
