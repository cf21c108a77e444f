package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/state"
)

// Listings render as tables in text output and as plain arrays in JSON/YAML.

type teamList []platform.Team

func (l teamList) Headers() []string { return []string{"ID", "NAME", "CATEGORY", "SEASON"} }
func (l teamList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, t := range l {
		rows[i] = []string{t.ID, t.Name, t.Category, t.Season}
	}
	return rows
}

type playerList []platform.Player

func (l playerList) Headers() []string { return []string{"ID", "#", "NAME", "POSITION", "STATUS"} }
func (l playerList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, p := range l {
		rows[i] = []string{p.ID, number(p.Number), p.FullName(), p.Position, p.Status}
	}
	return rows
}

type staffList []platform.Staff

func (l staffList) Headers() []string { return []string{"ID", "NAME", "TITLE", "EMAIL"} }
func (l staffList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, s := range l {
		rows[i] = []string{s.ID, s.FullName(), s.Title, s.Email}
	}
	return rows
}

type roleList []platform.Role

func (l roleList) Headers() []string { return []string{"ID", "NAME", "PERMISSIONS"} }
func (l roleList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, r := range l {
		names := make([]string, len(r.Permissions))
		for j, p := range r.Permissions {
			names[j] = p.Name
		}
		rows[i] = []string{r.ID, r.Name, strings.Join(names, ",")}
	}
	return rows
}

type permissionList []platform.Permission

func (l permissionList) Headers() []string { return []string{"NAME", "DESCRIPTION"} }
func (l permissionList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, p := range l {
		rows[i] = []string{p.Name, p.Description}
	}
	return rows
}

type eventList []platform.Event

func (l eventList) Headers() []string { return []string{"ID", "STARTS", "TYPE", "TITLE", "OPPONENT"} }
func (l eventList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, e := range l {
		rows[i] = []string{e.ID, e.StartsAt.Local().Format("2006-01-02 15:04"), e.Type, e.Title, e.Opponent}
	}
	return rows
}

type performanceList []platform.Performance

func (l performanceList) Headers() []string {
	return []string{"ID", "EVENT", "PLAYER", "MIN", "G", "A", "Y", "R", "RATING"}
}
func (l performanceList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, p := range l {
		rows[i] = []string{
			p.ID, p.EventID, p.PlayerID, strconv.Itoa(p.MinutesPlayed), strconv.Itoa(p.Goals),
			strconv.Itoa(p.Assists), strconv.Itoa(p.YellowCards), strconv.Itoa(p.RedCards), rating(p.Rating),
		}
	}
	return rows
}

type logList []platform.LogEntry

func (l logList) Headers() []string { return []string{"WHEN", "USER", "ACTION", "RESOURCE", "ID", "MESSAGE"} }
func (l logList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, e := range l {
		rows[i] = []string{e.CreatedAt.Local().Format("2006-01-02 15:04"), e.UserID, e.Action, e.Resource, e.ResourceID, e.Message}
	}
	return rows
}

// performanceReport pairs a listing with its summary.
type performanceReport struct {
	Performances performanceList `json:"performances" yaml:"performances"`
	Summary      state.Summary   `json:"summary" yaml:"summary"`
}

func (r performanceReport) String() string {
	var b strings.Builder
	if len(r.Performances) == 0 {
		b.WriteString("(none)\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, row := range append([][]string{r.Performances.Headers()}, r.Performances.Rows()...) {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		tw.Flush()
	}
	s := r.Summary
	fmt.Fprintf(&b, "\n%d appearances, %d minutes, %d goals, %d assists, %d yellow, %d red, avg rating %s, %.2f goals/90",
		s.Appearances, s.MinutesPlayed, s.Goals, s.Assists, s.YellowCards, s.RedCards, rating(s.AverageRating), s.GoalsPer90)
	return b.String()
}

// fields renders a single entity as "key: value" lines.
type fields [][2]string

func (f fields) String() string {
	width := 0
	for _, kv := range f {
		width = max(width, len(kv[0]))
	}
	var b strings.Builder
	for i, kv := range f {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%-*s  %s", width+1, kv[0]+":", kv[1])
	}
	return b.String()
}

func number(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func rating(r float64) string {
	if r <= 0 {
		return "-"
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// printEntity prints text in text mode and v otherwise.
func printEntity(cmd *cobra.Command, v any, text fields) error {
	if commandContext(cmd).Output == "text" {
		return printResult(cmd, text)
	}
	return printResult(cmd, v)
}
