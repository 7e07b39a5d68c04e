package store

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"

	"github.com/suykerbuyk/recap/internal/report"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// List columns are written as JSON arrays. Rows written by older clients may
// hold an empty string or plain text with one item per line, so reads accept
// all three.

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	return json.MarshalToString(items)
}

func encodeActionItems(items []report.ActionItem) (string, error) {
	if items == nil {
		items = []report.ActionItem{}
	}
	return json.MarshalToString(items)
}

func decodeList(raw string) []string {
	out := []string{}
	values, ok := decodeArray(raw)
	if !ok {
		return splitLines(raw)
	}
	for _, v := range values {
		if v == nil {
			continue
		}
		out = append(out, cast.ToString(v))
	}
	return out
}

func decodeActionItems(raw string) []report.ActionItem {
	out := []report.ActionItem{}
	values, ok := decodeArray(raw)
	if !ok {
		for _, line := range splitLines(raw) {
			out = append(out, report.ActionItem{Task: line})
		}
		return out
	}
	for _, v := range values {
		switch item := v.(type) {
		case nil:
		case map[string]interface{}:
			out = append(out, report.ActionItem{
				Task:     cast.ToString(item["task"]),
				Owner:    cast.ToString(item["owner"]),
				Priority: cast.ToString(item["priority"]),
			})
		default:
			out = append(out, report.ActionItem{Task: cast.ToString(item)})
		}
	}
	return out
}

func decodeArray(raw string) ([]interface{}, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}
	var values []interface{}
	if err := json.UnmarshalFromString(trimmed, &values); err != nil {
		return nil, false
	}
	return values, true
}

func splitLines(raw string) []string {
	out := []string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
