package prompts

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optiflow-ai/optiflow-engine/pkg/models"
)

func TestBuildSystemInstruction_NoDataset(t *testing.T) {
	got := BuildSystemInstruction(nil)

	assert.Contains(t, got, "optimization advisor")
	assert.Contains(t, got, "No dataset has been uploaded yet")
}

func TestBuildSystemInstruction_IncludesEveryHeaderVerbatim(t *testing.T) {
	ds := &models.TabularDataset{
		SourceName: "sales.csv",
		Headers:    []string{"date", "sku", "quantity_sold", "unit_price"},
		Rows:       [][]string{{"2024-01-01", "SKU-1", "10", "4.99"}},
	}

	got := BuildSystemInstruction(ds)

	assert.Contains(t, got, `"sales.csv"`)
	assert.Contains(t, got, "4 columns")
	assert.Contains(t, got, "Columns: date, sku, quantity_sold, unit_price")
	assert.Contains(t, got, "2024-01-01 | SKU-1 | 10 | 4.99")
}

func TestBuildSystemInstruction_SampleRowsBounded(t *testing.T) {
	ds := &models.TabularDataset{
		SourceName: "big.csv",
		Headers:    []string{"n"},
	}
	for i := 0; i < 12; i++ {
		ds.Rows = append(ds.Rows, []string{fmt.Sprintf("row-%d", i)})
	}

	got := BuildSystemInstruction(ds)

	assert.Contains(t, got, "row-4")
	assert.NotContains(t, got, "row-5")
	assert.Equal(t, maxSampleRows, strings.Count(got, "row-"))
}

func TestBuildSystemInstruction_HeadersOnlyDataset(t *testing.T) {
	ds := &models.TabularDataset{SourceName: "empty.csv", Headers: []string{"a", "b"}}

	got := BuildSystemInstruction(ds)

	assert.Contains(t, got, "Columns: a, b")
	assert.NotContains(t, got, "Sample rows")
}
