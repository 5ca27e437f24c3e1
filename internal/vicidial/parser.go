package vicidial

import (
	"strconv"
	"strings"
)

// ParseTotalCalls scans a dispo report for the first TOTAL line with a numeric
// count field and returns that count. A report without one yields zero.
func ParseTotalCalls(raw string) int {
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if !strings.HasPrefix(strings.ToUpper(line), "TOTAL") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		field := strings.TrimSpace(parts[1])
		if field == "" || !isDigits(field) {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		return n
	}
	return 0
}

// ParseDispositions reads a status stats record and returns a histogram of
// disposition counts. The record is pipe-delimited with the CODE-count pairs
// in its fifth field; pairs that do not parse are skipped and zero counts are
// dropped.
func ParseDispositions(raw string) map[string]int {
	counts := map[string]int{}
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "|") {
		return counts
	}
	parts := strings.Split(raw, "|")
	if len(parts) < 5 {
		return counts
	}
	for _, pair := range strings.Split(parts[4], ",") {
		code, count, found := strings.Cut(pair, "-")
		if !found {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n == 0 {
			continue
		}
		counts[strings.TrimSpace(code)] += n
	}
	return counts
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
