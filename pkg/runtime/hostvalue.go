package runtime

import (
	"time"

	"github.com/qorelang/coreruntime/pkg/value"
)

// FromHost converts a host-language collection/scalar into a Value
// (spec §6: "constructors for each primitive plus container builders
// that accept iterators from host collections"). Maps become hashes
// (key order is not guaranteed, since Go maps have none of their own);
// slices become lists; anything else falls through the scalar
// constructors. An unrecognized Go type converts to `nothing` rather
// than panicking, since a host embedder's mistake shouldn't bring down
// the runtime it's embedding.
func FromHost(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Nothing
	case value.Value:
		return t
	case bool:
		return value.NewBool(t)
	case int:
		return value.NewInt(int64(t))
	case int32:
		return value.NewInt(int64(t))
	case int64:
		return value.NewInt(t)
	case float32:
		return value.NewFloat(float64(t))
	case float64:
		return value.NewFloat(t)
	case string:
		return value.NewString(t)
	case []byte:
		return value.NewBinary(t)
	case time.Time:
		return value.NewDate(t)
	case []interface{}:
		return FromHostSlice(t)
	case map[string]interface{}:
		return FromHostMap(t)
	default:
		return value.Nothing
	}
}

// FromHostSlice builds a list from a host slice of arbitrary elements.
func FromHostSlice(elems []interface{}) value.Value {
	out := make([]value.Value, len(elems))
	for i, e := range elems {
		out[i] = FromHost(e)
	}
	return value.NewList(out...)
}

// FromHostMap builds a hash from a host string-keyed map. Iteration
// order follows Go's map iteration (unspecified); callers that need a
// stable hash key order should build it field-by-field with
// value.NewHash and Hash.Set instead.
func FromHostMap(m map[string]interface{}) value.Value {
	h := value.NewHash()
	hh, _ := value.AsHash(h)
	for k, v := range m {
		hh.Set(k, FromHost(v))
	}
	return h
}

// FromHostIter builds a list by draining next, the idiomatic form for
// a host collection exposed only as an iterator rather than a slice
// already in memory (spec §6 "iterators from host collections").
// next returns (element, true) while more remain, (_, false) once
// exhausted.
func FromHostIter(next func() (interface{}, bool)) value.Value {
	var out []value.Value
	for {
		v, ok := next()
		if !ok {
			break
		}
		out = append(out, FromHost(v))
	}
	return value.NewList(out...)
}
