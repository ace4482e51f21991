// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package catalog

/*
Description:

	deepStrip recursively removes empty values from an update document
	before it is sent to the store: nils, blank strings, empty slices, and
	empty maps all disappear, at any nesting depth. A slice whose every
	element was stripped is itself stripped, and likewise for maps.

	The store applies updates as shallow merges, so a stripped field is
	simply left untouched on the stored document instead of being
	overwritten with an empty value.

Parameters:

  - value: Arbitrary update value (map, slice, or scalar).

Returns:

  - any: The cleaned value.
  - bool: False when the value stripped away entirely and the caller
    should drop the field.
*/
func deepStrip(value any) (any, bool) {
	switch typed := value.(type) {
	case nil:
		return nil, false
	case string:
		if typed == "" {
			return nil, false
		}
		return typed, true
	case map[string]any:
		cleaned := make(map[string]any, len(typed))
		for key, item := range typed {
			kept, ok := deepStrip(item)
			if !ok {
				continue
			}
			cleaned[key] = kept
		}
		if len(cleaned) == 0 {
			return nil, false
		}
		return cleaned, true
	case []any:
		cleaned := make([]any, 0, len(typed))
		for _, item := range typed {
			kept, ok := deepStrip(item)
			if !ok {
				continue
			}
			cleaned = append(cleaned, kept)
		}
		if len(cleaned) == 0 {
			return nil, false
		}
		return cleaned, true
	case []string:
		cleaned := make([]string, 0, len(typed))
		for _, item := range typed {
			if item == "" {
				continue
			}
			cleaned = append(cleaned, item)
		}
		if len(cleaned) == 0 {
			return nil, false
		}
		return cleaned, true
	default:
		return typed, true
	}
}

// stripFields applies deepStrip to every entry of an update document and
// drops the fields that stripped away entirely.
func stripFields(fields map[string]any) map[string]any {
	cleaned := make(map[string]any, len(fields))
	for key, value := range fields {
		kept, ok := deepStrip(value)
		if !ok {
			continue
		}
		cleaned[key] = kept
	}
	return cleaned
}
