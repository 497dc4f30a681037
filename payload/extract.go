package payload

// Extract follows path through nested objects starting at v.
// It reports false when a step does not land on an object holding the key.
func Extract(v any, path []string) (any, bool) {
	cur := v
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// ExtractList returns the list found by following path from v. Descent stops
// as soon as the current value is already a list, so a path written for an
// enveloped response also works on a bare list.
func ExtractList(v any, path []string) ([]any, bool) {
	cur := v
	for _, key := range path {
		if _, isList := cur.([]any); isList {
			break
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[key]; !ok {
			return nil, false
		}
	}
	list, ok := cur.([]any)
	return list, ok
}

// ExtractOccurrence returns the object found by following path from v.
func ExtractOccurrence(v any, path []string) (map[string]any, bool) {
	cur, ok := Extract(v, path)
	if !ok {
		return nil, false
	}
	obj, ok := cur.(map[string]any)
	return obj, ok
}

// Field returns the value stored under key when v is an object.
func Field(v any, key string) (any, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	field, ok := obj[key]
	return field, ok
}
