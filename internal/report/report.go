package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/dcwbuild/internal/model"
	"github.com/pable/dcwbuild/internal/routes"
	"github.com/pable/dcwbuild/internal/storage"
	"github.com/pable/dcwbuild/internal/text"
)

const dash = "—"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintEventSummary prints a one-line summary header for an event.
func PrintEventSummary(w io.Writer, e model.Event) {
	state := "upcoming"
	switch {
	case e.IsCurrent:
		state = "current"
	case e.IsPast && e.IsCalculated:
		state = "final"
	case e.IsPast:
		state = "calculating"
	}
	fmt.Fprintf(w, "\nEvent %d: %s  |  %s – %s  |  %s\n\n",
		e.ID, e.Name, e.StartDate.Format(time.DateOnly), e.EndDate.Format(time.DateOnly), state)
}

// PrintStandings prints one table per division.
func PrintStandings(w io.Writer, divisions []model.DivisionStandings) {
	for _, d := range divisions {
		fmt.Fprintf(w, "%s (%s)\n", d.Division.Name, d.Division.Size)
		table := newTable(w)
		table.Header("RANK", "CLAN", "SCORE", "ACTIVE", "SIZE", "UPDATED", "MEDAL")
		for _, r := range d.Rows {
			medal := ""
			if r.Medal != nil {
				medal = r.Medal.Name
			}
			table.Append(
				r.Overall,
				r.Name,
				strconv.Itoa(r.Score),
				optional(r.Active),
				optional(r.Size),
				r.Updated,
				medal,
			)
		}
		table.Render()
		fmt.Fprintln(w)
	}
}

// PrintSuperlatives prints each stat column in display order with its leaders.
func PrintSuperlatives(w io.Writer, s *model.Superlatives) {
	if s == nil || len(s.Order) == 0 {
		fmt.Fprintln(w, "No stats recorded.")
		return
	}
	table := newTable(w)
	table.Header("STAT", "BEST", "HELD BY")
	for _, key := range s.Order {
		col := s.Columns[key]
		if col == nil {
			continue
		}
		table.Append(key, strconv.FormatFloat(col.Stat, 'f', -1, 64), text.Sentence(col.Label))
	}
	table.Render()
}

// PrintCustomLeaderboard prints every clan against the chosen event.
// Absent values render as a dash.
func PrintCustomLeaderboard(w io.Writer, data routes.CustomLeaderboardData) {
	if data.EventID == 0 {
		fmt.Fprintln(w, "No current or previous event.")
		return
	}
	label := "previous"
	if data.IsCurrent {
		label = "current"
	}
	fmt.Fprintf(w, "Leaderboard for %s event %d\n", label, data.EventID)
	table := newTable(w)
	table.Header("RANK", "CLAN", "GAMES", "ACTIVE", "SIZE", "SCORE")
	for _, r := range data.Rows {
		table.Append(
			r.Overall,
			r.Name,
			absent(r.Games),
			absent(r.Active),
			absent(r.Size),
			absent(r.Score),
		)
	}
	table.Render()
}

// PrintBuilds prints the build ledger, newest first.
func PrintBuilds(w io.Writer, builds []storage.Build) {
	if len(builds) == 0 {
		fmt.Fprintln(w, "No builds recorded.")
		return
	}
	table := newTable(w)
	table.Header("ID", "STARTED", "DURATION", "STATUS", "EVENT", "CLANS", "MEMBERS", "FILES", "ERROR")
	for _, b := range builds {
		dur := dash
		if d := b.Duration(); d > 0 {
			dur = d.Round(time.Millisecond).String()
		}
		event := dash
		if b.CurrentEventID != 0 {
			event = strconv.Itoa(b.CurrentEventID)
		}
		table.Append(
			shortID(b.ID),
			b.StartedAt.Format(time.DateTime),
			dur,
			b.Status,
			event,
			strconv.Itoa(b.Clans),
			strconv.Itoa(b.Members),
			strconv.Itoa(b.Files),
			truncate(b.Error, 60),
		)
	}
	table.Render()
}

// PrintBuildStandings prints the standings a build recorded for one event.
func PrintBuildStandings(w io.Writer, rows []storage.Standing) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No standings recorded.")
		return
	}
	table := newTable(w)
	table.Header("DIVISION", "RANK", "CLAN", "SCORE")
	for _, r := range rows {
		table.Append(r.Division, "#"+strconv.Itoa(r.Rank), r.Name, strconv.Itoa(r.Score))
	}
	table.Render()
}

func optional(n int) string {
	if n == 0 {
		return dash
	}
	return strconv.Itoa(n)
}

func absent(n int) string {
	if n == routes.Absent {
		return dash
	}
	return strconv.Itoa(n)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
