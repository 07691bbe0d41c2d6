package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"tribewatch-backend/lib/scrapers/twstats"

	"github.com/mazen160/go-random"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("tribewatch.services.watcher")

type Scraper interface {
	Scrape(ctx context.Context) ([]twstats.Ennoblement, error)
}

type Notifier interface {
	IsReady() bool
	NotifyMany(ctx context.Context, recipients []string, message string) error
}

// cursor persistence. Load reports ok=false when no cursor has ever
// been saved (or it was cleared).
type StateStore interface {
	Load(ctx context.Context) (value string, ok bool, err error)
	Save(ctx context.Context, value string) error
	Clear(ctx context.Context) error
}

// returned by RunCycle when a trigger arrives while a cycle is still
// in flight
var ErrCycleInFlight = errors.New("poll cycle already in flight")

type Options struct {
	Recipients []string
	Template   string
	// defaults: 3 attempts, 2s apart
	NotifyAttempts int
	NotifyBackoff  time.Duration
}

type Service struct {
	scraper  Scraper
	notifier Notifier
	store    StateStore
	detector Detector
	opts     Options

	cycleLock sync.Mutex
}

func NewService(scraper Scraper, notifier Notifier, store StateStore, detector Detector, opts Options) *Service {
	if opts.NotifyAttempts <= 0 {
		opts.NotifyAttempts = 3
	}
	if opts.NotifyBackoff <= 0 {
		opts.NotifyBackoff = time.Second * 2
	}
	return &Service{
		scraper:  scraper,
		notifier: notifier,
		store:    store,
		detector: detector,
		opts:     opts,
	}
}

type Outcome string

const (
	OutcomeNoop     Outcome = "no-op"
	OutcomeNotified Outcome = "matched-and-notified"
	OutcomeSkipped  Outcome = "matched-but-not-notified"
)

type CycleSummary struct {
	Processed    int
	Matched      int
	Notified     bool
	StateChanged bool
	Outcome      Outcome
}

// one full poll cycle: scrape, detect, notify, persist. at most one
// cycle runs at a time, an overlapping call returns ErrCycleInFlight
// without touching anything. `filter` is read fresh each invocation.
func (s *Service) RunCycle(ctx context.Context, filter *Filter) (CycleSummary, error) {
	if !s.cycleLock.TryLock() {
		return CycleSummary{}, ErrCycleInFlight
	}
	defer s.cycleLock.Unlock()

	ctx, span := tracer.Start(ctx, "RunCycle")
	defer span.End()

	cycleId, _ := random.String(8)
	span.SetAttributes(attribute.String("cycle_id", cycleId))

	fail := func(stage string, err error) (CycleSummary, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		return CycleSummary{}, fmt.Errorf("%s: %w", stage, err)
	}

	events, err := s.scraper.Scrape(ctx)
	if err != nil {
		return fail("scrape", err)
	}

	cursor, hasCursor, err := s.store.Load(ctx)
	if err != nil {
		return fail("load cursor", err)
	}

	detection, err := s.detector.Detect(ctx, cursor, hasCursor, events, filter)
	if err != nil {
		return fail("detect", err)
	}

	summary := CycleSummary{
		Processed: len(events),
		Matched:   len(detection.Matched),
		Outcome:   OutcomeNoop,
	}

	if len(detection.Matched) > 0 {
		message := FormatMessage(detection.Matched, s.opts.Template)
		summary.Notified = s.notify(ctx, message)
		summary.Outcome = OutcomeSkipped
		if summary.Notified {
			summary.Outcome = OutcomeNotified
		}
	}

	if detection.Advanced {
		err := s.store.Save(ctx, detection.NextCursor)
		if err != nil {
			// the cycle fails even though a notification may already be
			// out: a duplicate next run beats silently losing the cursor
			span.RecordError(err)
			span.SetStatus(codes.Error, "save cursor")
			return summary, fmt.Errorf("save cursor: %w", err)
		}
		summary.StateChanged = true
	}

	slog.InfoContext(
		ctx, "poll cycle complete",
		"cycle_id", cycleId,
		"processed", summary.Processed,
		"matched", summary.Matched,
		"notified", summary.Notified,
		"state_changed", summary.StateChanged,
		"outcome", summary.Outcome,
	)
	return summary, nil
}

// bounded delivery attempts. reports whether the message went out;
// exhaustion or an unready channel is not a cycle failure, the cursor
// must still be persisted.
func (s *Service) notify(ctx context.Context, message string) bool {
	ctx, span := tracer.Start(ctx, "notify")
	defer span.End()

	if !s.notifier.IsReady() {
		slog.WarnContext(ctx, "notifier not ready, skipping delivery")
		return false
	}

	for attempt := 1; attempt <= s.opts.NotifyAttempts; attempt++ {
		err := s.notifier.NotifyMany(ctx, s.opts.Recipients, message)
		if err == nil {
			return true
		}
		slog.WarnContext(ctx, "notify failed", "attempt", attempt, "err", err)
		span.RecordError(err)

		if attempt == s.opts.NotifyAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(s.opts.NotifyBackoff):
		}
	}

	span.SetStatus(codes.Error, "delivery attempts exhausted")
	return false
}

// registers the poll cycle on a cron schedule. `filter` is evaluated
// at every trigger so operators can flip filtering at runtime.
func (s *Service) Schedule(c *cron.Cron, spec string, filter func() *Filter) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute*5)
		defer cancel()

		_, err := s.RunCycle(ctx, filter())
		if errors.Is(err, ErrCycleInFlight) {
			slog.Warn("previous poll cycle still running, trigger discarded")
			return
		}
		if err != nil {
			slog.ErrorContext(ctx, "poll cycle", "err", err)
		}
	})
	return err
}
