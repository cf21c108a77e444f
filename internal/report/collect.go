// Package report exports aggregated performance statistics as Markdown or
// HTML.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/state"
)

// maxLookups bounds concurrent name/title lookups.
const maxLookups = 4

// Source is the subset of the club API a report reads.
type Source interface {
	GetEvent(ctx context.Context, eventID string) (*platform.Event, error)
	GetPlayer(ctx context.Context, playerID string) (*platform.Player, error)
	ListEventPerformances(ctx context.Context, eventID string) ([]platform.Performance, error)
	ListPlayerPerformances(ctx context.Context, playerID string) ([]platform.Performance, error)
}

// Request selects the report subject. Exactly one of EventID and PlayerID
// must be set.
type Request struct {
	EventID  string
	PlayerID string
}

// Row is one performance line with its resolved label.
type Row struct {
	Label       string               `json:"label" yaml:"label"`
	Performance platform.Performance `json:"performance" yaml:"performance"`
}

// Data is everything needed to render a report.
type Data struct {
	Title       string           `json:"title" yaml:"title"`
	Event       *platform.Event  `json:"event,omitempty" yaml:"event,omitempty"`
	Player      *platform.Player `json:"player,omitempty" yaml:"player,omitempty"`
	Rows        []Row            `json:"rows" yaml:"rows"`
	Summary     state.Summary    `json:"summary" yaml:"summary"`
	GeneratedAt time.Time        `json:"generated_at" yaml:"generated_at"`
}

// Collect fetches the subject and its performances concurrently, then
// resolves row labels.
func Collect(ctx context.Context, src Source, req Request) (*Data, error) {
	switch {
	case req.EventID != "" && req.PlayerID != "":
		return nil, errors.New(errors.ErrCodeReportData, "choose either an event or a player").
			WithSuggestion("Pass only one of --event and --player")
	case req.EventID != "":
		return collectEvent(ctx, src, req.EventID)
	case req.PlayerID != "":
		return collectPlayer(ctx, src, req.PlayerID)
	default:
		return nil, errors.New(errors.ErrCodeReportData, "no report subject").
			WithSuggestion("Pass --event <event-id> or --player <player-id>")
	}
}

func collectEvent(ctx context.Context, src Source, eventID string) (*Data, error) {
	var (
		event *platform.Event
		perfs []platform.Performance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		event, err = src.GetEvent(gctx, eventID)
		return err
	})
	g.Go(func() (err error) {
		perfs, err = src.ListEventPerformances(gctx, eventID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dataError("event "+eventID, err)
	}

	players, err := lookup(ctx, perfs, func(p platform.Performance) string { return p.PlayerID }, src.GetPlayer)
	if err != nil {
		return nil, dataError("event "+eventID, err)
	}

	d := &Data{Title: event.Title, Event: event}
	for _, p := range perfs {
		d.Rows = append(d.Rows, Row{Label: players[p.PlayerID].FullName(), Performance: p})
	}
	sort.SliceStable(d.Rows, func(i, j int) bool { return d.Rows[i].Label < d.Rows[j].Label })
	return d.finish(perfs), nil
}

func collectPlayer(ctx context.Context, src Source, playerID string) (*Data, error) {
	var (
		player *platform.Player
		perfs  []platform.Performance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		player, err = src.GetPlayer(gctx, playerID)
		return err
	})
	g.Go(func() (err error) {
		perfs, err = src.ListPlayerPerformances(gctx, playerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dataError("player "+playerID, err)
	}

	events, err := lookup(ctx, perfs, func(p platform.Performance) string { return p.EventID }, src.GetEvent)
	if err != nil {
		return nil, dataError("player "+playerID, err)
	}

	d := &Data{Title: player.FullName(), Player: player}
	for _, p := range perfs {
		e := events[p.EventID]
		d.Rows = append(d.Rows, Row{Label: e.StartsAt.Format("2006-01-02") + " " + e.Title, Performance: p})
	}
	sort.SliceStable(d.Rows, func(i, j int) bool {
		return events[d.Rows[i].Performance.EventID].StartsAt.Before(events[d.Rows[j].Performance.EventID].StartsAt)
	})
	return d.finish(perfs), nil
}

func (d *Data) finish(perfs []platform.Performance) *Data {
	d.Summary = state.Summarize(perfs)
	d.GeneratedAt = time.Now().UTC()
	return d
}

// lookup fetches each distinct key of items once, a few at a time.
func lookup[T any](ctx context.Context, items []platform.Performance, key func(platform.Performance) string,
	fetch func(context.Context, string) (*T, error)) (map[string]*T, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, it := range items {
		if id := key(it); !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	results := make([]*T, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLookups)
	for i, id := range ids {
		g.Go(func() (err error) {
			results[i], err = fetch(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*T, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out, nil
}

func dataError(subject string, err error) error {
	return errors.Wrap(errors.ErrCodeReportData, fmt.Sprintf("failed to load report data for %s", subject), err)
}
