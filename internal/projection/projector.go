// Package projection narrows upstream list responses to a selected set of
// item fields so they fit a consumer's context budget.
package projection

import "strings"

// ParseFormat maps a requested format name onto a Format. An empty name
// means full. Unknown names are kept as given; they resolve to no preset.
func ParseFormat(s string) Format {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return FormatFull
	}
	return Format(s)
}

// Project returns raw with response.body.items narrowed to the selected
// fields and a metadata block describing the projection.
//
// Explicit fields win over the preset for (service, format). raw is returned
// as is when format is full, when the items path is missing, or when no
// field list can be resolved. raw itself is never modified.
func Project(raw any, fields []string, format Format, service ServiceType) any {
	if format == FormatFull {
		return raw
	}

	root, ok := raw.(map[string]any)
	if !ok || len(root) == 0 {
		return raw
	}
	response, ok := lookupMap(root, "response")
	if !ok {
		return raw
	}
	body, ok := lookupMap(response, "body")
	if !ok {
		return raw
	}
	items, ok := body["items"]
	if !ok {
		return raw
	}

	selected := resolveFields(fields, format, service)
	if selected == nil {
		return raw
	}

	projected, count, ok := projectItems(items, selected)
	if !ok {
		return raw
	}

	newBody := copyMap(body)
	newBody["items"] = projected
	newResponse := copyMap(response)
	newResponse["body"] = newBody
	out := copyMap(root)
	out["response"] = newResponse

	metadata := map[string]any{}
	if existing, ok := root["metadata"].(map[string]any); ok {
		metadata = copyMap(existing)
	}
	metadata["filtered"] = true
	metadata["response_format"] = string(format)
	metadata["selected_fields"] = selected
	metadata["original_item_count"] = count
	metadata["filtered_item_count"] = count
	metadata["fields_per_item"] = len(selected)
	out["metadata"] = metadata

	return out
}

func resolveFields(fields []string, format Format, service ServiceType) []string {
	if len(fields) > 0 {
		out := make([]string, len(fields))
		copy(out, fields)
		return out
	}
	preset, ok := Preset(service, format)
	if !ok {
		return nil
	}
	return preset
}

// projectItems handles both shapes the upstream uses for items: a plain
// list, or an object wrapping the list (or a single record) under "item".
// The wrapper shape is kept in the output.
func projectItems(items any, selected []string) (any, int, bool) {
	switch v := items.(type) {
	case []any:
		return projectList(v, selected), len(v), true
	case map[string]any:
		inner, ok := v["item"]
		if !ok {
			return nil, 0, false
		}
		wrapper := copyMap(v)
		switch iv := inner.(type) {
		case []any:
			wrapper["item"] = projectList(iv, selected)
			return wrapper, len(iv), true
		case map[string]any:
			wrapper["item"] = pick(iv, selected)
			return wrapper, 1, true
		}
		return nil, 0, false
	}
	return nil, 0, false
}

func projectList(items []any, selected []string) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			out = append(out, item)
			continue
		}
		out = append(out, pick(m, selected))
	}
	return out
}

func pick(item map[string]any, selected []string) map[string]any {
	out := make(map[string]any, len(selected))
	for _, f := range selected {
		if v, ok := item[f]; ok {
			out[f] = v
		}
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
