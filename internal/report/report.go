// Package report renders benchmark reports as a leaderboard table or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/ahrav/go-arena/internal/domain"
)

// Supported output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Row is one backend's line in the leaderboard.
type Row struct {
	Index   int
	Backend string
	Rank    int
	RankSum float64
	Scores  map[string]float64
}

// Leaderboard returns one row per backend ordered by rank, then by the
// backend's position in the run.
func Leaderboard(r *domain.Report) []Row {
	rows := make([]Row, len(r.Backends))
	for i, name := range r.Backends {
		row := Row{Index: i, Backend: name, Scores: make(map[string]float64, len(r.Evaluations))}
		if i < len(r.Ranks) {
			row.Rank = r.Ranks[i]
		}
		if i < len(r.RankSums) {
			row.RankSum = r.RankSums[i]
		}
		for k, scores := range r.Evaluations {
			if i < len(scores) {
				row.Scores[k] = scores[i]
			}
		}
		rows[i] = row
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Rank != rows[b].Rank {
			return rows[a].Rank < rows[b].Rank
		}
		return rows[a].Index < rows[b].Index
	})
	return rows
}

// WriteTable writes the leaderboard as aligned columns: rank, backend, one
// column per metric and the weighted rank sum.
func WriteTable(r *domain.Report, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if r.Suite != "" {
		fmt.Fprintf(tw, "=== %s (%s) ===\n\n", r.Suite, r.Task)
	}

	metrics := r.Evaluations.Keys()
	header := append([]string{"Rank", "Backend"}, metrics...)
	header = append(header, "Rank Sum")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintln(tw, strings.Join(sep, "\t"))

	for _, row := range Leaderboard(r) {
		cols := []string{fmt.Sprintf("%d", row.Rank), row.Backend}
		for _, m := range metrics {
			cols = append(cols, fmt.Sprintf("%.4f", row.Scores[m]))
		}
		cols = append(cols, fmt.Sprintf("%.2f", row.RankSum))
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}

	return tw.Flush()
}

// WriteJSON writes the full report, outputs included, as indented JSON.
func WriteJSON(r *domain.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// Write renders r in format to w.
func Write(r *domain.Report, format string, w io.Writer) error {
	switch format {
	case "", FormatTable:
		return WriteTable(r, w)
	case FormatJSON:
		return WriteJSON(r, w)
	default:
		return domain.NewConfigurationError("output.format", "unsupported format %q", format)
	}
}

// WriteFile renders r in format to path, or to stdout when path is empty.
func WriteFile(r *domain.Report, format, path string) error {
	if path == "" {
		return Write(r, format, os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Write(r, format, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
