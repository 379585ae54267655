package logging

import (
	"log/slog"
	"strings"
)

type infoField struct {
	label string
	value string
}

// Keys shown first, in this order, on info-level console lines.
var infoHighlightKeys = []string{
	FieldEventType,
	"result",
	"mode",
	"adapter",
	"target_enabled",
	"must_reboot",
	"source",
	"destination",
	"bssid",
	"held_for",
	"command",
	"error",
	FieldErrorHint,
	FieldImpact,
}

// Keys already rendered in the header.
var infoSkipKeys = map[string]struct{}{
	FieldAction:   {},
	FieldActionID: {},
}

func selectInfoFields(attrs []kv) []infoField {
	if len(attrs) == 0 {
		return nil
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))
	appendField := func(idx int) {
		used[idx] = true
		if _, skip := infoSkipKeys[attrs[idx].key]; skip {
			return
		}
		result = append(result, infoField{label: displayLabel(attrs[idx].key), value: formatInfoValue(attrs[idx].value)})
	}
	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				appendField(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			appendField(idx)
		}
	}
	return result
}

func formatInfoValue(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	return formatValue(v)
}

// displayLabel turns "target_enabled" into "Target enabled".
func displayLabel(key string) string {
	key = strings.ReplaceAll(key, "_", " ")
	key = strings.ReplaceAll(key, ".", " ")
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}
