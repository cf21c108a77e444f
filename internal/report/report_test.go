package report_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/platform/platformtest"
	"github.com/felixgeelhaar/clubhub/internal/report"
)

func signedInClient(t *testing.T, srv *platformtest.Server) *platform.Client {
	t.Helper()
	c := platform.NewClient(srv.URL, platform.WithLogger(log.Nop()), platform.WithRetries(0, 0))
	c.SetAccessToken(srv.IssueToken("u1"), time.Now().Add(time.Hour))
	return c
}

type fakeSource struct {
	events  map[string]*platform.Event
	players map[string]*platform.Player
	perfs   []platform.Performance
}

func (f *fakeSource) GetEvent(_ context.Context, id string) (*platform.Event, error) {
	if e, ok := f.events[id]; ok {
		return e, nil
	}
	return nil, &platform.APIError{StatusCode: http.StatusNotFound, Message: "not found"}
}

func (f *fakeSource) GetPlayer(_ context.Context, id string) (*platform.Player, error) {
	if p, ok := f.players[id]; ok {
		return p, nil
	}
	return nil, &platform.APIError{StatusCode: http.StatusNotFound, Message: "not found"}
}

func (f *fakeSource) ListEventPerformances(_ context.Context, id string) ([]platform.Performance, error) {
	var out []platform.Performance
	for _, p := range f.perfs {
		if p.EventID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSource) ListPlayerPerformances(_ context.Context, id string) ([]platform.Performance, error) {
	var out []platform.Performance
	for _, p := range f.perfs {
		if p.PlayerID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestCollectEvent(t *testing.T) {
	srv := platformtest.New(t)
	c := signedInClient(t, srv)

	d, err := report.Collect(context.Background(), c, report.Request{EventID: "e1"})
	require.NoError(t, err)
	assert.Equal(t, "League match", d.Title)
	require.Len(t, d.Rows, 3)
	assert.Equal(t, "Ada Ames", d.Rows[0].Label)
	assert.Equal(t, "Cal Cole", d.Rows[2].Label)
	assert.Equal(t, 3, d.Summary.Appearances)
	assert.Equal(t, 240, d.Summary.MinutesPlayed)
	assert.InDelta(t, 0.75, d.Summary.GoalsPer90, 1e-9)

	for _, id := range []string{"p1", "p2", "p3"} {
		assert.Equal(t, 1, srv.Count(http.MethodGet, "/api/v1/players/"+id), "one lookup per player")
	}
}

func TestCollectPlayerSortsByDate(t *testing.T) {
	day := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	src := &fakeSource{
		events: map[string]*platform.Event{
			"late":  {ID: "late", Title: "Cup", StartsAt: day.Add(48 * time.Hour)},
			"early": {ID: "early", Title: "League", StartsAt: day},
		},
		players: map[string]*platform.Player{"p1": {ID: "p1", FirstName: "Ada", LastName: "Ames"}},
		perfs: []platform.Performance{
			{EventID: "late", PlayerID: "p1", MinutesPlayed: 90, Goals: 1},
			{EventID: "early", PlayerID: "p1", MinutesPlayed: 45},
		},
	}

	d, err := report.Collect(context.Background(), src, report.Request{PlayerID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Ames", d.Title)
	require.Len(t, d.Rows, 2)
	assert.Equal(t, "2026-09-01 League", d.Rows[0].Label)
	assert.Equal(t, "2026-09-03 Cup", d.Rows[1].Label)
	assert.Equal(t, 2, d.Summary.Appearances)
}

func TestCollectErrors(t *testing.T) {
	src := &fakeSource{}

	_, err := report.Collect(context.Background(), src, report.Request{})
	assert.Equal(t, errors.ErrCodeReportData, errors.CodeOf(err))

	_, err = report.Collect(context.Background(), src, report.Request{EventID: "e1", PlayerID: "p1"})
	assert.Equal(t, errors.ErrCodeReportData, errors.CodeOf(err))

	_, err = report.Collect(context.Background(), src, report.Request{EventID: "missing"})
	assert.Equal(t, errors.ErrCodeReportData, errors.CodeOf(err))
	assert.True(t, platform.IsNotFound(err))
}

func TestParseFormat(t *testing.T) {
	f, err := report.ParseFormat("Markdown")
	require.NoError(t, err)
	assert.Equal(t, report.FormatMarkdown, f)

	f, err = report.ParseFormat("html")
	require.NoError(t, err)
	assert.Equal(t, report.FormatHTML, f)

	_, err = report.ParseFormat("pdf")
	assert.Equal(t, errors.ErrCodeReportFormat, errors.CodeOf(err))
}

func hostileData() *report.Data {
	return &report.Data{
		Title: `Derby <script>alert(1)</script>`,
		Event: &platform.Event{
			Title: "Derby", Type: "match", Opponent: "Rovers | United",
			Notes: `<img src=x onerror=alert(1)>Bring boots`,
		},
		Rows: []report.Row{{
			Label:       "Ada Ames",
			Performance: platform.Performance{MinutesPlayed: 90, Goals: 1, Rating: 7.5, Notes: "<b>MOTM</b>"},
		}},
	}
}

func TestMarkdownSanitizes(t *testing.T) {
	out := report.Markdown(hostileData())

	assert.Contains(t, out, "# Derby\n")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "onerror")
	assert.Contains(t, out, `Rovers \| United`)
	assert.Contains(t, out, "- Bring boots")
	assert.Contains(t, out, "- Ada Ames: MOTM")
	assert.Contains(t, out, "| Ada Ames | 90 | 1 | 0 | 0 | 0 | 7.5 |")
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, hostileData(), report.FormatHTML))
	out := buf.String()

	assert.Contains(t, out, "<title>Derby</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h2>Performances</h2>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "onerror")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, &report.Data{Title: "Nobody"}, report.FormatMarkdown))
	assert.Contains(t, buf.String(), "No performances recorded.")

	err := report.Render(&buf, &report.Data{}, report.Format("pdf"))
	assert.Equal(t, errors.ErrCodeReportFormat, errors.CodeOf(err))
}
