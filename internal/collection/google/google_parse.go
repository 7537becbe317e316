package google

import (
	"fmt"

	"recap/internal/collection"
	"recap/internal/core"
)

// parseValues converts a values matrix (as returned by Sheets API) into raw
// records. The first non-empty row is the header.
func parseValues(values [][]interface{}) ([]core.RawRecord, error) {
	start := 0
	for start < len(values) && collection.IsBlank(values[start]) {
		start++
	}
	if start == len(values) {
		return nil, fmt.Errorf("unexpected sheet layout: no header row")
	}
	headers := collection.Headers(values[start])
	if indexOf(headers, core.FieldTitle) == -1 && indexOf(headers, core.FieldID) == -1 {
		return nil, fmt.Errorf("unexpected sheet header: missing %q and %q; got headers=%v", core.FieldTitle, core.FieldID, headers)
	}

	out := make([]core.RawRecord, 0, len(values)-start-1)
	for _, row := range values[start+1:] {
		if collection.IsBlank(row) {
			continue
		}
		out = append(out, collection.Row(headers, row))
	}
	return out, nil
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if v == target {
			return i
		}
	}
	return -1
}
