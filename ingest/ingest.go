package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"senate-votes/models"
	"senate-votes/schema"
	"senate-votes/scraper"
)

// ErrEmptyRoster is returned by Update when no roster has been stored.
var ErrEmptyRoster = errors.New("roster is empty, run init first")

// Store is the persistence the ingester needs.
type Store interface {
	InitSchema(m schema.Manifest) error
	VerifySchema(m schema.Manifest) error
	ReplaceRoster(senators []models.Senator) error
	Roster() ([]models.Senator, error)
	RollCallIDs() (map[string]struct{}, error)
	InsertRollCall(row schema.Row, m schema.Manifest) error
	SetLastUpdated(entry models.UpdateLog) error
}

// LinkSource lists candidate roll call locators.
type LinkSource interface {
	Discover(ctx context.Context, listingURL string) ([]string, error)
}

type Options struct {
	ListingURL          string
	DocumentURLTemplate string
	RosterURL           string
}

// Ingester runs discovery, diff, fetch, parse, flatten and persist, one
// roll call at a time in locator order.
type Ingester struct {
	store    Store
	links    LinkSource
	fetcher  scraper.Fetcher
	logger   *zap.Logger
	opts     Options
	notifier Notifier
	metrics  *Metrics
	now      func() time.Time
	runID    func() string
}

type Option func(*Ingester)

func WithNotifier(n Notifier) Option {
	return func(i *Ingester) { i.notifier = n }
}

func WithMetrics(m *Metrics) Option {
	return func(i *Ingester) { i.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(i *Ingester) { i.now = now }
}

func WithRunID(runID func() string) Option {
	return func(i *Ingester) { i.runID = runID }
}

func New(store Store, links LinkSource, fetcher scraper.Fetcher, logger *zap.Logger, opts Options, options ...Option) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ListingURL == "" {
		opts.ListingURL = scraper.DefaultListingURL
	}
	if opts.DocumentURLTemplate == "" {
		opts.DocumentURLTemplate = scraper.DefaultDocumentURLTemplate
	}
	if opts.RosterURL == "" {
		opts.RosterURL = scraper.DefaultRosterURL
	}
	i := &Ingester{
		store:   store,
		links:   links,
		fetcher: fetcher,
		logger:  logger,
		opts:    opts,
		now:     time.Now,
		runID:   func() string { return uuid.NewString() },
	}
	for _, o := range options {
		o(i)
	}
	if i.notifier == nil {
		i.notifier = NewLogNotifier(logger)
	}
	return i
}

// Initialize rebuilds the schema and roster from the roster source and
// then runs a full ingestion.
func (i *Ingester) Initialize(ctx context.Context) (Summary, error) {
	if err := i.initialize(ctx); err != nil {
		summary := Summary{
			RunID:  i.runID(),
			Status: StatusFailure,
			Detail: err.Error(),
		}
		i.notify(ctx, summary)
		return summary, err
	}
	return i.Update(ctx)
}

func (i *Ingester) initialize(ctx context.Context) error {
	resp, err := i.fetcher.Fetch(ctx, i.opts.RosterURL)
	if err != nil {
		return fmt.Errorf("fetch roster: %w", err)
	}
	parsed, err := scraper.ParseRoster(resp.Body)
	if err != nil {
		return err
	}
	roster, err := schema.AssignSlots(parsed)
	if err != nil {
		return err
	}
	seats, err := schema.NewSeatMap(roster)
	if err != nil {
		return err
	}
	if err := i.store.InitSchema(schema.NewManifest(seats.Slots())); err != nil {
		return err
	}
	if err := i.store.ReplaceRoster(roster); err != nil {
		return err
	}
	i.logger.Info("roster stored", zap.Int("senators", len(roster)))
	return nil
}

// Update ingests every listed roll call that is not stored yet. The
// returned summary always reports how many roll calls were committed.
func (i *Ingester) Update(ctx context.Context) (Summary, error) {
	start := i.now()
	summary := Summary{RunID: i.runID(), Status: StatusSuccess}
	err := i.update(ctx, &summary)
	if err == nil {
		err = i.store.SetLastUpdated(models.UpdateLog{
			LastUpdated: i.now(),
			RunID:       summary.RunID,
			NewCount:    summary.NewCount,
		})
		if err != nil {
			err = fmt.Errorf("record update: %w", err)
		}
	}
	if err != nil {
		summary.Status = StatusFailure
		summary.Detail = err.Error()
	}
	end := i.now()
	i.metrics.RunFinished(end.Sub(start).Seconds(), err == nil, float64(end.Unix()))
	i.notify(ctx, summary)
	return summary, err
}

func (i *Ingester) update(ctx context.Context, summary *Summary) error {
	logger := i.logger.With(zap.String("run_id", summary.RunID))
	roster, err := i.store.Roster()
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	if len(roster) == 0 {
		return ErrEmptyRoster
	}
	seats, err := schema.NewSeatMap(roster)
	if err != nil {
		return err
	}
	manifest := schema.NewManifest(seats.Slots())
	if err := i.store.VerifySchema(manifest); err != nil {
		return err
	}

	locators, err := i.links.Discover(ctx, i.opts.ListingURL)
	if err != nil {
		return fmt.Errorf("discover roll calls: %w", err)
	}
	persisted, err := i.store.RollCallIDs()
	if err != nil {
		return err
	}
	diff := Diff(locators, persisted)
	for _, l := range diff.Malformed {
		logger.Warn("skipping malformed locator", zap.String("locator", l))
		summary.Skipped++
		i.metrics.Skipped(skipReason(scraper.ErrMalformedLocator))
	}
	logger.Info("diff computed",
		zap.Int("listed", len(locators)),
		zap.Int("known", diff.Known),
		zap.Int("new", len(diff.New)),
	)

	for idx, c := range diff.New {
		logger.Debug("scraping roll call",
			zap.String("rollcall_id", c.ID()),
			zap.Int("index", idx+1),
			zap.Int("total", len(diff.New)),
		)
		row, err := i.process(ctx, c, seats)
		if err != nil {
			if errors.Is(err, scraper.ErrRequestFailed) || ctx.Err() != nil {
				logger.Error("aborting run",
					zap.String("rollcall_id", c.ID()),
					zap.Int("committed", summary.NewCount),
					zap.Error(err),
				)
				return fmt.Errorf("roll call %s: %w", c.ID(), err)
			}
			reason := skipReason(err)
			logger.Warn("skipping roll call",
				zap.String("rollcall_id", c.ID()),
				zap.String("locator", c.Locator),
				zap.String("reason", reason),
				zap.Error(err),
			)
			summary.Skipped++
			i.metrics.Skipped(reason)
			continue
		}
		if err := i.store.InsertRollCall(row, manifest); err != nil {
			return fmt.Errorf("persist roll call %s: %w", c.ID(), err)
		}
		summary.NewCount++
		i.metrics.Ingested()
		logger.Info("roll call ingested", zap.String("rollcall_id", c.ID()))
	}
	return nil
}

// process fetches, parses and flattens one candidate without touching the
// store.
func (i *Ingester) process(ctx context.Context, c Candidate, seats *schema.SeatMap) (schema.Row, error) {
	resp, err := i.fetcher.Fetch(ctx, c.Identity.DocumentURL(i.opts.DocumentURLTemplate))
	if err != nil {
		return schema.Row{}, err
	}
	rc, votes, err := scraper.ParseRollCall(c.Locator, resp.Body)
	if err != nil {
		return schema.Row{}, err
	}
	if err := scraper.CheckIdentity(c.Identity, rc); err != nil {
		return schema.Row{}, err
	}
	return schema.Flatten(rc, votes, seats)
}

func (i *Ingester) notify(ctx context.Context, summary Summary) {
	if err := i.notifier.Notify(ctx, summary); err != nil {
		i.logger.Warn("failed to send run summary", zap.Error(err))
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, scraper.ErrMalformedLocator):
		return "malformed_locator"
	case errors.Is(err, scraper.ErrMissingRequiredField):
		return "missing_required_field"
	case errors.Is(err, scraper.ErrInvalidField):
		return "invalid_field"
	case errors.Is(err, scraper.ErrLocatorMismatch):
		return "locator_mismatch"
	case errors.Is(err, schema.ErrUnknownMember):
		return "unknown_member"
	case errors.Is(err, schema.ErrAmbiguousMember):
		return "ambiguous_member"
	case errors.Is(err, schema.ErrDuplicateSeat):
		return "duplicate_seat"
	default:
		return "malformed_document"
	}
}
