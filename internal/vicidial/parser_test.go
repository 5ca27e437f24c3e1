package vicidial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTotalCalls(t *testing.T) {
	t.Run("Standard report", func(t *testing.T) {
		raw := "DATE RANGE: 2026-08-20 to 2026-08-20\n" +
			"CAMPAIGN,CALLS,DROP PERCENT\n" +
			"0006,150,3.2%\n" +
			"TOTAL,150,3.2%"
		assert.Equal(t, 150, ParseTotalCalls(raw))
	})

	t.Run("Case insensitive prefix", func(t *testing.T) {
		assert.Equal(t, 27, ParseTotalCalls("Total,27"))
	})

	t.Run("Missing total line", func(t *testing.T) {
		assert.Equal(t, 0, ParseTotalCalls("CAMPAIGN,CALLS\n0006,150"))
	})

	t.Run("Non numeric count keeps scanning", func(t *testing.T) {
		raw := "TOTAL,N/A\nTOTAL,42"
		assert.Equal(t, 42, ParseTotalCalls(raw))
	})

	t.Run("Count field padded with spaces", func(t *testing.T) {
		assert.Equal(t, 8, ParseTotalCalls("TOTAL, 8 ,x"))
	})

	t.Run("Negative count is not a digit field", func(t *testing.T) {
		assert.Equal(t, 0, ParseTotalCalls("TOTAL,-3"))
	})

	t.Run("Empty payload", func(t *testing.T) {
		assert.Equal(t, 0, ParseTotalCalls(""))
	})
}

func TestParseDispositions(t *testing.T) {
	t.Run("Standard record", func(t *testing.T) {
		raw := "0006|2026-08-20|2026-08-20|150|A-12,B-30,DROP-5,NA-103|"
		counts := ParseDispositions(raw)
		assert.Equal(t, map[string]int{"A": 12, "B": 30, "DROP": 5, "NA": 103}, counts)
	})

	t.Run("Malformed pair skipped", func(t *testing.T) {
		raw := "0006|x|y|150|A-12,JUNK,B-30"
		counts := ParseDispositions(raw)
		assert.Equal(t, map[string]int{"A": 12, "B": 30}, counts)
	})

	t.Run("Unparsable count skipped", func(t *testing.T) {
		raw := "0006|x|y|150|A-12,B-abc,DROP-5"
		counts := ParseDispositions(raw)
		assert.Equal(t, map[string]int{"A": 12, "DROP": 5}, counts)
	})

	t.Run("Zero counts dropped", func(t *testing.T) {
		raw := "0006|x|y|150|A-12,B-0"
		counts := ParseDispositions(raw)
		assert.Equal(t, map[string]int{"A": 12}, counts)
	})

	t.Run("Duplicate codes summed", func(t *testing.T) {
		raw := "0006|x|y|150|SALE-2,SALE-3"
		counts := ParseDispositions(raw)
		assert.Equal(t, map[string]int{"SALE": 5}, counts)
	})

	t.Run("Too few fields", func(t *testing.T) {
		assert.Empty(t, ParseDispositions("0006|2026-08-20|150"))
	})

	t.Run("No pipe delimiter", func(t *testing.T) {
		assert.Empty(t, ParseDispositions("ERROR: no data"))
	})
}
