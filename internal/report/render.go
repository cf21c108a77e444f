package report

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/felixgeelhaar/clubhub/internal/errors"
)

// Format is an output format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "md", "markdown" and "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", errors.New(errors.ErrCodeReportFormat, fmt.Sprintf("unsupported report format %q", s)).
		WithSuggestion("Use --format md or --format html")
}

// Raw HTML in Markdown input is escaped because WithUnsafe is not set.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

var (
	// text strips all markup from API-provided strings.
	text = bluemonday.StrictPolicy()
	// body keeps the structure goldmark produces and nothing else.
	body = bluemonday.UGCPolicy()
)

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: .25rem .5rem; text-align: right; }
th:first-child, td:first-child { text-align: left; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Render writes d to w in format.
func Render(w io.Writer, d *Data, format Format) error {
	switch format {
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(d))
		return renderError(err)
	case FormatHTML:
		return renderError(HTML(w, d))
	}
	_, err := ParseFormat(string(format))
	return err
}

func renderError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(errors.ErrCodeReportRender, "failed to render report", err)
}

// HTML converts the Markdown rendition of d and wraps it in a standalone page.
func HTML(w io.Writer, d *Data) error {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(d)), &buf); err != nil {
		return err
	}
	return page.Execute(w, struct {
		Title string
		Body  template.HTML
	}{
		Title: clean(d.Title),
		Body:  template.HTML(body.SanitizeBytes(buf.Bytes())),
	})
}

// Markdown renders d as a Markdown document.
func Markdown(d *Data) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cell(d.Title))

	if e := d.Event; e != nil {
		fmt.Fprintf(&b, "- **Type:** %s\n", cell(e.Type))
		fmt.Fprintf(&b, "- **Date:** %s\n", e.StartsAt.Format("2006-01-02 15:04"))
		if e.Opponent != "" {
			fmt.Fprintf(&b, "- **Opponent:** %s\n", cell(e.Opponent))
		}
		if e.Location != "" {
			fmt.Fprintf(&b, "- **Location:** %s\n", cell(e.Location))
		}
		b.WriteString("\n")
	}
	if p := d.Player; p != nil {
		if p.Position != "" {
			fmt.Fprintf(&b, "- **Position:** %s\n", cell(p.Position))
		}
		if p.Number > 0 {
			fmt.Fprintf(&b, "- **Number:** %d\n", p.Number)
		}
		b.WriteString("\n")
	}

	s := d.Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| Appearances | Minutes | Goals | Assists | Yellow | Red | Avg rating | Goals/90 |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d | %.2f | %.2f |\n\n",
		s.Appearances, s.MinutesPlayed, s.Goals, s.Assists, s.YellowCards, s.RedCards, s.AverageRating, s.GoalsPer90)

	b.WriteString("## Performances\n\n")
	if len(d.Rows) == 0 {
		b.WriteString("No performances recorded.\n")
	} else {
		b.WriteString("| | Min | G | A | Y | R | Rating |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
		for _, r := range d.Rows {
			p := r.Performance
			rating := "-"
			if p.Rating > 0 {
				rating = fmt.Sprintf("%.1f", p.Rating)
			}
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d | %s |\n",
				cell(r.Label), p.MinutesPlayed, p.Goals, p.Assists, p.YellowCards, p.RedCards, rating)
		}
	}

	if notes := notesOf(d); len(notes) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}

	fmt.Fprintf(&b, "\n_Generated %s_\n", d.GeneratedAt.Format("2006-01-02 15:04 MST"))
	return b.String()
}

func notesOf(d *Data) []string {
	var notes []string
	if d.Event != nil && d.Event.Notes != "" {
		notes = append(notes, cell(d.Event.Notes))
	}
	for _, r := range d.Rows {
		if r.Performance.Notes != "" {
			notes = append(notes, cell(r.Label)+": "+cell(r.Performance.Notes))
		}
	}
	return notes
}

func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(text.Sanitize(s)))
}

// cell makes s safe inside a single Markdown table cell or list item.
func cell(s string) string {
	s = clean(s)
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
