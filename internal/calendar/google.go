package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Config contains calendar lookup configuration.
type Config struct {
	CalendarID      string
	CredentialsFile string
	SlotMinutes     int
	DayStartHour    int
	DayEndHour      int
}

// SlotProvider yields the free slots to offer for a given day.
type SlotProvider interface {
	FreeSlotsForDay(ctx context.Context, day time.Time) ([]Interval, error)
}

// GoogleProvider queries the Google Calendar free/busy API.
type GoogleProvider struct {
	svc    *gcal.Service
	cfg    Config
	logger *slog.Logger
}

// NewGoogleProvider authenticates with service-account credentials and
// builds a provider.
func NewGoogleProvider(ctx context.Context, cfg Config, logger *slog.Logger) (*GoogleProvider, error) {
	creds, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar credentials: %w", err)
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsJSON(creds),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = 30
	}
	if cfg.DayStartHour == 0 && cfg.DayEndHour == 0 {
		cfg.DayStartHour, cfg.DayEndHour = 9, 17
	}

	return &GoogleProvider{svc: svc, cfg: cfg, logger: logger}, nil
}

// FreeSlotsForDay returns the free slots within working hours for the day
// containing the given time.
func (p *GoogleProvider) FreeSlotsForDay(ctx context.Context, day time.Time) ([]Interval, error) {
	year, month, dom := day.Date()
	start := time.Date(year, month, dom, p.cfg.DayStartHour, 0, 0, 0, day.Location())
	end := time.Date(year, month, dom, p.cfg.DayEndHour, 0, 0, 0, day.Location())

	busy, err := p.freeBusy(ctx, start, end)
	if err != nil {
		return nil, err
	}

	slot := time.Duration(p.cfg.SlotMinutes) * time.Minute
	return FreeSlots(busy, start, end, slot), nil
}

func (p *GoogleProvider) freeBusy(ctx context.Context, start, end time.Time) ([]Interval, error) {
	req := &gcal.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: p.cfg.CalendarID}},
	}

	resp, err := p.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query failed: %w", err)
	}

	cal, ok := resp.Calendars[p.cfg.CalendarID]
	if !ok {
		return nil, fmt.Errorf("freebusy response missing calendar %s", p.cfg.CalendarID)
	}

	busy := make([]Interval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		s, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			p.logger.Warn("skipping unparseable busy period",
				slog.String("start", period.Start),
				slog.String("error", err.Error()),
			)
			continue
		}
		e, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			p.logger.Warn("skipping unparseable busy period",
				slog.String("end", period.End),
				slog.String("error", err.Error()),
			)
			continue
		}
		busy = append(busy, Interval{Start: s, End: e})
	}
	return busy, nil
}
