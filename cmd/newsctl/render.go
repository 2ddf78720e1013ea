package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hoanghai1803/newswire/internal/feeds"
	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
)

const titleWidth = 64

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncateTitle shortens s to at most width terminal columns, so wide
// characters cannot push the table out of alignment.
func truncateTitle(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "…")
}

func renderArticles(w io.Writer, articles []models.Article) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Score", "Category", "Source", "Published", "Title"})

	for i, a := range articles {
		published := a.PublishedAt.Local().Format("02 Jan 15:04")
		if a.TimeEstimated {
			published = "~" + published
		}
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.2f", a.RelevanceScore),
			a.Category,
			a.Source,
			published,
			truncateTitle(a.Title, titleWidth),
		})
	}
	t.Render()
}

func renderFailures(w io.Writer, failed []models.FailedSource) {
	for _, f := range failed {
		fmt.Fprintf(w, "warning: %s failed: %s\n", f.Source, f.Error)
	}
}

func renderSources(w io.Writer, sources []feeds.SourceInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Categories", "Archive"})

	for _, s := range sources {
		archive := "no"
		if s.Archive {
			archive = "yes"
		}
		t.AppendRow(table.Row{s.Name, strings.Join(s.Categories, ", "), archive})
	}
	t.Render()
}

func renderKeywords(w io.Writer, keywords []string) {
	fmt.Fprintf(w, "%d surnames (as of %s)\n", len(keywords), time.Now().Format(time.DateOnly))

	const perRow = 6
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	for i := 0; i < len(keywords); i += perRow {
		row := table.Row{}
		for _, k := range keywords[i:min(i+perRow, len(keywords))] {
			row = append(row, k)
		}
		t.AppendRow(row)
	}
	t.Render()
}
