package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"buildportal/internal/workflow/transport"
)

// defaultDateLayout is used when a date placeholder carries no format.
const defaultDateLayout = "2006-01-02"

var placeholderRegex = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_]*)(?::([^}]+))?\}`)

// Render substitutes {key} and {key:format} placeholders from the data
// bag. Unknown keys stay verbatim so a template typo is visible instead of
// silently vanishing; null values render as empty strings.
func Render(template string, data map[string]transport.Value) string {
	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		groups := placeholderRegex.FindStringSubmatch(match)
		key, format := groups[1], groups[2]

		value, ok := data[key]
		if !ok {
			return match
		}
		return formatValue(value, format)
	})
}

func formatValue(v transport.Value, format string) string {
	switch v.Kind {
	case transport.KindNull:
		return ""
	case transport.KindString:
		return v.Str
	case transport.KindNumber:
		return formatNumber(v.Num, format)
	case transport.KindDate:
		layout := format
		if layout == "" {
			layout = defaultDateLayout
		}
		return v.Date.Format(layout)
	default:
		return ""
	}
}

func formatNumber(num float64, format string) string {
	if format == "" {
		return strconv.FormatFloat(num, 'f', -1, 64)
	}
	if !strings.HasPrefix(format, "%") {
		format = "%" + format
	}
	return fmt.Sprintf(format, num)
}
