package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// FormatDuration formats an elapsed time as "Xh Ym", "Xm Ys" or "Xs".
func FormatDuration(d time.Duration) string {
	seconds := int64(d.Round(time.Second) / time.Second)
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatPace formats the mean time per decision as "X.Xs/item".
func FormatPace(history []float64) string {
	if len(history) == 0 {
		return "-"
	}
	var sum float64
	for _, v := range history {
		sum += v
	}
	return fmt.Sprintf("%.1fs/item", sum/float64(len(history)))
}

// FormatCounts renders per-label counts in label order, e.g. "0:3  1:5".
func FormatCounts(labels []string, counts classify.LabelCounts) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s:%d", l, counts[l]))
	}
	return strings.Join(parts, "  ")
}
