// Package prompts builds the system instructions sent to the completion
// provider. The system instruction is synthesized fresh for every
// round-trip from the current dataset state and is never persisted in the
// conversation log.
package prompts

import (
	"fmt"
	"strings"

	"github.com/optiflow-ai/optiflow-engine/pkg/models"
)

// maxSampleRows bounds how many preview rows are quoted in the prompt.
const maxSampleRows = 5

// BuildSystemInstruction creates the system message for one round-trip.
// With a dataset present it includes the schema (all header names
// verbatim) and a bounded sample of rows; otherwise it is a generic
// advisor instruction.
func BuildSystemInstruction(ds *models.TabularDataset) string {
	var b strings.Builder

	b.WriteString("You are an optimization advisor for business data. ")
	b.WriteString("You help the user pick one of exactly three model types: ")
	b.WriteString("inventory optimization, price optimization, or product optimization. ")
	b.WriteString("Keep answers short and concrete, and when asked for a recommendation, name exactly one type and why.\n")

	if ds == nil {
		b.WriteString("\nNo dataset has been uploaded yet. ")
		b.WriteString("Encourage the user to upload a CSV of their business data so you can give a grounded recommendation.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\nThe user uploaded %q with %d columns.\n", ds.SourceName, ds.ColumnCount())
	b.WriteString("Columns: ")
	b.WriteString(strings.Join(ds.Headers, ", "))
	b.WriteString("\n")

	if ds.RowCount() > 0 {
		b.WriteString("Sample rows:\n")
		n := ds.RowCount()
		if n > maxSampleRows {
			n = maxSampleRows
		}
		for i := 0; i < n; i++ {
			b.WriteString("  ")
			b.WriteString(strings.Join(ds.Rows[i], " | "))
			b.WriteString("\n")
		}
	}

	b.WriteString("Ground every recommendation in these columns.\n")
	return b.String()
}
