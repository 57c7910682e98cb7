package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Dataset Build Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Markets: %d | Nodes: %d | Hyperedges: %d\n\n",
		r.MarketCount, r.TotalNodes, r.TotalEdges))

	// Per-market datasets
	sb.WriteString("## Per-Market Datasets\n\n")
	if len(r.Rows) > 0 {
		sb.WriteString("| Market | Nodes | Hyperedges | Vertex Occurrences | First | Last |\n")
		sb.WriteString("|--------|-------|------------|--------------------|-------|------|\n")
		for _, row := range r.Rows {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %s | %s |\n",
				row.Prefix, row.Nodes, row.Hyperedges, row.VertexOccurrences,
				formatTime(row.FirstTime), formatTime(row.LastTime)))
		}
	} else {
		sb.WriteString("No per-market datasets published.\n")
	}
	sb.WriteString("\n")

	// Unified dataset
	sb.WriteString("## Unified Dataset\n\n")
	if r.Unified != nil {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Nodes | %d |\n", r.Unified.Nodes))
		sb.WriteString(fmt.Sprintf("| Hyperedges | %d |\n", r.Unified.Hyperedges))
		sb.WriteString(fmt.Sprintf("| Vertex Occurrences | %d |\n", r.Unified.VertexOccurrences))
		sb.WriteString(fmt.Sprintf("| First | %s |\n", formatTime(r.Unified.FirstTime)))
		sb.WriteString(fmt.Sprintf("| Last | %s |\n", formatTime(r.Unified.LastTime)))
	} else {
		sb.WriteString("No unified dataset published.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatTime(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}
