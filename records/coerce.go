package records

import (
	"encoding/json"
	"strconv"
	"strings"
)

const listSeparator = ", "

// SplitList turns comma separated text into trimmed, non-empty items.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func JoinList(items []string) string {
	return strings.Join(items, listSeparator)
}

// Text coerces a document value into editable text. Lists are joined with ", ".
// Mappings and nil are reported as absent.
func Text(v interface{}) (string, bool) {
	switch value := v.(type) {
	case string:
		return value, true
	case []string, []interface{}:
		return JoinList(List(value)), true
	}
	return scalarText(v)
}

// List coerces a document value into list items. A single string is split on commas.
func List(v interface{}) []string {
	switch value := v.(type) {
	case string:
		return SplitList(value)
	case []string:
		return cleanItems(value)
	case []interface{}:
		items := make([]string, 0, len(value))
		for _, elem := range value {
			if s, ok := elem.(string); ok {
				items = append(items, s)
				continue
			}
			if s, ok := scalarText(elem); ok {
				items = append(items, s)
			}
		}
		return cleanItems(items)
	}
	if s, ok := scalarText(v); ok {
		return SplitList(s)
	}
	return []string{}
}

func toDocumentList(items []string) []interface{} {
	list := make([]interface{}, len(items))
	for i, item := range items {
		list[i] = item
	}
	return list
}

func scalarText(v interface{}) (string, bool) {
	switch value := v.(type) {
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32), true
	case int:
		return strconv.Itoa(value), true
	case int64:
		return strconv.FormatInt(value, 10), true
	case json.Number:
		return value.String(), true
	case bool:
		return strconv.FormatBool(value), true
	}
	return "", false
}

func cleanItems(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return cleaned
}

func isBlank(v interface{}) bool {
	s, ok := Text(v)
	return !ok || strings.TrimSpace(s) == ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
