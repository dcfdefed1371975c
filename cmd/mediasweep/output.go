package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"mediasweep/internal/media"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeItems prints items as an aligned table.
func writeItems(w io.Writer, items []media.Item, showScore bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if showScore {
		fmt.Fprintln(tw, "ID\tKIND\tSCORE\tSIZE\tREF")
	} else {
		fmt.Fprintln(tw, "ID\tKIND\tSIZE\tDELETED\tREF")
	}
	for _, it := range items {
		if showScore {
			fmt.Fprintf(tw, "%s\t%s\t%.3f\t%s\t%s\n", it.ID, it.Kind, it.SimilarityScore, humanSize(it.Size), it.Ref())
			continue
		}
		deleted := "-"
		if it.DeletedAt != nil {
			deleted = it.DeletedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Kind, humanSize(it.Size), deleted, it.Ref())
	}
	return tw.Flush()
}

func humanSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
