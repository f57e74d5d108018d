package slices

// Map converts []T into []R, applying mapper to each element.
func Map[T any, R any](sli []T, mapper func(T) R) []R {
	if sli == nil {
		return nil
	}
	ret := make([]R, len(sli))
	for i, t := range sli {
		ret[i] = mapper(t)
	}
	return ret
}

// KeysOf lists keys of a map. The order of keys is not stable.
func KeysOf[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// First returns the first element matching the predicator.
//
// The second return value is false when no element matches.
func First[T any](sli []T, pred func(T) bool) (T, bool) {
	for _, t := range sli {
		if pred(t) {
			return t, true
		}
	}
	return *new(T), false
}

// Filter keeps elements matching the predicator, in order.
func Filter[T any](sli []T, pred func(T) bool) []T {
	ret := []T{}
	for _, t := range sli {
		if pred(t) {
			ret = append(ret, t)
		}
	}
	return ret
}
