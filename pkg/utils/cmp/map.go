package cmp

// MapEqWith detects that two maps have same keyset and,
// for each key, values in both maps are "equal" in terms of eq.
func MapEqWith[K comparable, V any, U any](a map[K]V, b map[K]U, eq func(V, U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !eq(va, vb) {
			return false
		}
	}
	return true
}

// MapEq detects that two maps are equal: same keyset, same values.
func MapEq[K, V comparable](a map[K]V, b map[K]V) bool {
	return MapEqWith(a, b, func(va, vb V) bool { return va == vb })
}

// MapLeqWith detects that a is a "submap" of b:
// every key of a is found in b, and values are "equal" in terms of eq.
func MapLeqWith[K comparable, V any, U any](a map[K]V, b map[K]U, eq func(V, U) bool) bool {
	if len(b) < len(a) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !eq(va, vb) {
			return false
		}
	}
	return true
}

// MapLeq detects that every entry of a is found in b, unchanged.
func MapLeq[K, V comparable](a map[K]V, b map[K]V) bool {
	return MapLeqWith(a, b, func(va, vb V) bool { return va == vb })
}

// SliceEq detects that two slices have same elements in same order.
func SliceEq[T comparable](a []T, b []T) bool {
	return SliceEqWith(a, b, func(ta, tb T) bool { return ta == tb })
}

// SliceEqWith detects that two slices are "equal" elementwise in terms of eq.
func SliceEqWith[T any, U any](a []T, b []U, eq func(T, U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}
