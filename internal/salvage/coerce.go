package salvage

import (
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/suykerbuyk/recap/internal/report"
)

// coerce maps a decoded object onto the report shape. Missing fields take
// their zero value; scalars where a list belongs become one-item lists.
// snake_case keys are accepted when the camelCase key is absent. Nested
// objects are flattened to their text, never dropped.
func coerce(fields map[string]interface{}) report.StructuredReport {
	return report.StructuredReport{
		ExecutiveSummary: toText(lookup(fields, "executiveSummary", "executive_summary")),
		KeyHighlights:    toList(lookup(fields, "keyHighlights", "key_highlights")),
		DecisionsTaken:   toList(lookup(fields, "decisionsTaken", "decisions_taken")),
		RisksAndBlockers: toList(lookup(fields, "risksAndBlockers", "risks_blockers", "risks_and_blockers")),
		ActionItems:      toActionItems(lookup(fields, "actionItems", "action_items")),
		NextSteps:        toList(lookup(fields, "nextSteps", "next_steps")),
	}
}

func lookup(fields map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func toText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []interface{}:
		return strings.Join(toList(t), " ")
	case map[string]interface{}:
		return objectText(t)
	default:
		return cast.ToString(t)
	}
}

// objectText joins an object's non-empty values in key order, so
// {"text":"Shipped v2"} reads as "Shipped v2".
func objectText(m map[string]interface{}) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if s := strings.TrimSpace(toText(m[k])); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "; ")
}

func toList(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			switch it := item.(type) {
			case nil:
			case string:
				out = append(out, it)
			default:
				if s := toText(it); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return []string{}
		}
		return []string{t}
	case map[string]interface{}:
		if s := objectText(t); s != "" {
			return []string{s}
		}
		return []string{}
	default:
		return []string{cast.ToString(t)}
	}
}

func toActionItems(v interface{}) []report.ActionItem {
	var items []interface{}
	switch t := v.(type) {
	case nil:
		return []report.ActionItem{}
	case []interface{}:
		items = t
	default:
		items = []interface{}{t}
	}

	out := make([]report.ActionItem, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case nil:
		case map[string]interface{}:
			out = append(out, report.ActionItem{
				Task:     toText(lookup(it, "task")),
				Owner:    toText(lookup(it, "owner", "assignee")),
				Priority: toText(lookup(it, "priority")),
			})
		default:
			if s := toText(it); s != "" {
				out = append(out, report.ActionItem{Task: s})
			}
		}
	}
	return out
}
