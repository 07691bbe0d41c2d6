package twstats

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
	"tribewatch-backend/lib/restyutil"
	"tribewatch-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("tribewatch.scrapers.twstats")

// a recorded change of ownership of a village between two players.
// OldTribe/NewTribe are "" when the player is unaffiliated.
// Timestamp is RFC3339 UTC for recognized source formats, otherwise
// the trimmed original cell text.
type Ennoblement struct {
	VillageName string
	X           int
	Y           int
	Continent   string
	Points      int
	OldPlayer   string
	OldTribe    string
	NewPlayer   string
	NewTribe    string
	Timestamp   string
}

type ClientOptions struct {
	PageURL     string
	RowSelector string
	// timezone the page renders timestamps in, defaults to UTC
	Location *time.Location
}

type Client struct {
	http *resty.Client
	opts ClientOptions
	now  func() time.Time
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.PageURL == "" {
		return nil, fmt.Errorf("page url is required")
	}
	_, err := url.Parse(opts.PageURL)
	if err != nil {
		return nil, err
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/twstats/http")
	restyutil.InstrumentClient(client, instrumentOutput)

	return &Client{
		http: client,
		opts: opts,
		now:  time.Now,
	}, nil
}

// fetches the stats page and extracts all parseable ennoblement rows,
// in page order (most recent first). fails only when the page cannot
// be fetched or no table rows are locatable at all.
func (c *Client) Scrape(ctx context.Context) ([]Ennoblement, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()
	span.SetAttributes(attribute.String("url", c.opts.PageURL))

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.opts.PageURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch stats page")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("unexpected status %d from %s", res.StatusCode(), c.opts.PageURL)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	return Extract(ctx, doc, c.opts.RowSelector, c.opts.PageURL, c.opts.Location, c.now)
}
