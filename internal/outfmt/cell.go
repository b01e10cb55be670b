package outfmt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const maxCellWidth = 60

// Cell renders a decoded JSON value for a text table cell.
func Cell(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s = val
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprint(val)
		} else {
			s = string(data)
		}
	}

	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) > maxCellWidth {
		s = string([]rune(s)[:maxCellWidth-1]) + "…"
	}
	return s
}
