package projection

// Lookup walks a decoded JSON value along path. The bool is false as soon as
// a step is not an object or the key is absent.
func Lookup(v any, path ...string) (any, bool) {
	cur := v
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func lookupMap(m map[string]any, key string) (map[string]any, bool) {
	v, ok := Lookup(m, key)
	if !ok {
		return nil, false
	}
	out, ok := v.(map[string]any)
	return out, ok
}
