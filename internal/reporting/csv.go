package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders dataset rows as CSV string. The unified row, when
// present, is appended last.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("prefix,nodes,hyperedges,vertex_occurrences,first_time,last_time\n")

	rows := r.Rows
	if r.Unified != nil {
		rows = append(append([]DatasetRow{}, rows...), *r.Unified)
	}
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%d,%d\n",
			row.Prefix,
			row.Nodes,
			row.Hyperedges,
			row.VertexOccurrences,
			row.FirstTime,
			row.LastTime,
		))
	}

	return sb.String()
}
