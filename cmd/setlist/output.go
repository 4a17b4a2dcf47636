// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tomtom215/setlist/internal/models"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func itoa(n int) string { return strconv.Itoa(n) }

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// renderSummary prints a run summary: a header block, then one row per phase.
func renderSummary(w io.Writer, s models.RunSummary) {
	mode := s.Mode
	if s.DryRun {
		mode += " (dry run)"
	}
	fmt.Fprintf(w, "Run %s  %s  %s\n", s.RunID, mode, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	if s.Records > 0 || s.Mode != models.RunModeRefresh {
		fmt.Fprintf(w, "Library: %d records, %d new tracks, %d new artists", s.Records, s.Inserted, s.NewArtists)
		if s.Skipped > 0 {
			fmt.Fprintf(w, ", %d skipped", s.Skipped)
		}
		fmt.Fprintln(w)
	}
	if len(s.Unmatched) > 0 {
		fmt.Fprintf(w, "Unmatched artists: %s\n", strings.Join(s.Unmatched, ", "))
	}

	if len(s.Phases) > 0 {
		rows := make([][]string, 0, len(s.Phases))
		for _, p := range s.Phases {
			if p.Skipped {
				rows = append(rows, []string{p.Phase, itoa(p.Selected), "-", "-", "-", "-", "-", "skipped"})
				continue
			}
			rows = append(rows, []string{
				p.Phase,
				itoa(p.Selected),
				itoa(p.Attempted),
				itoa(p.Updated),
				itoa(p.Unchanged),
				itoa(p.NoData),
				itoa(p.Errors),
				p.Duration.Round(time.Millisecond).String(),
			})
		}
		right := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
		fmt.Fprintln(w, renderTable(
			[]string{"Phase", "Selected", "Attempted", "Updated", "Unchanged", "No data", "Errors", "Time"},
			rows, right))
	}

	if s.Watermark != nil {
		fmt.Fprintf(w, "Watermark: %s (%d records)\n", formatTime(s.Watermark.LatestEntry), s.Watermark.Records)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", s.Error)
	}
}

// renderStatus prints the watermark, library coverage and recent runs.
func renderStatus(w io.Writer, r models.StatusReport, disabled map[string]string) {
	fmt.Fprintf(w, "Schema version: %d\n", r.SchemaVersion)
	if r.Watermark == nil {
		fmt.Fprintln(w, "Watermark: none (no run has completed)")
	} else {
		fmt.Fprintf(w, "Watermark: %s, %d records, %s run %s at %s\n",
			formatTime(r.Watermark.LatestEntry), r.Watermark.Records,
			r.Watermark.Mode, r.Watermark.RunID, formatTime(r.Watermark.CompletedAt))
	}

	l := r.Library
	fmt.Fprintln(w, renderTable([]string{"Entity", "Count"}, [][]string{
		{"Tracks", itoa(l.Tracks)},
		{"Tracks with tempo", itoa(l.TracksWithTempo)},
		{"Tracks with recording id", itoa(l.TracksWithIdentity)},
		{"Primary artists", itoa(l.PrimaryArtists)},
		{"Stub artists", itoa(l.StubArtists)},
		{"Artists attempted", itoa(l.AttemptedArtists)},
		{"Artists with errors", itoa(l.ErroredArtists)},
		{"Genres", itoa(l.Genres)},
		{"Similar-artist edges", itoa(l.SimilarEdges)},
	}, []columnAlignment{alignLeft, alignRight}))

	phases := strings.Join(r.EnabledPhases, ", ")
	if phases == "" {
		phases = "none"
	}
	fmt.Fprintf(w, "Enabled phases: %s\n", phases)
	if len(disabled) > 0 {
		names := make([]string, 0, len(disabled))
		for n := range disabled {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(w, "  %s disabled: %s\n", n, disabled[n])
		}
	}

	if len(r.RecentRuns) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	rows := make([][]string, 0, len(r.RecentRuns))
	for _, run := range r.RecentRuns {
		finished := "-"
		if run.FinishedAt != nil {
			finished = formatTime(*run.FinishedAt)
		}
		rows = append(rows, []string{run.RunID, run.Mode, run.Status, formatTime(run.StartedAt), finished, itoa(run.Records), run.Error})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Run", "Mode", "Status", "Started", "Finished", "Records", "Error"},
		rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
}

func renderChecks(w io.Writer, checks []checkResult) {
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		rows = append(rows, []string{c.Name, strings.ToUpper(c.Status), c.Detail})
	}
	fmt.Fprintln(w, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
}
