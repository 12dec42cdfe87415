package logger

import (
	"fmt"
	"strconv"
	"strings"

	"go.trai.ch/pathline/internal/core/domain"
)

// formatValue renders attribute and error metadata values. Points print as
// (x, y, z), time ranges as [t0, t1] and floats in their shortest form.
func formatValue(v any) string {
	switch v := v.(type) {
	case domain.Point:
		return "(" + floats(v[:]) + ")"
	case [2]float64:
		return "[" + floats(v[:]) + "]"
	case []float64:
		return "[" + floats(v) + "]"
	case domain.Value:
		return "[" + floats(v) + "]"
	case float64:
		return formatFloat(v)
	case []string:
		return strings.Join(v, ",")
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func floats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, f := range vs {
		parts[i] = formatFloat(f)
	}
	return strings.Join(parts, ", ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
