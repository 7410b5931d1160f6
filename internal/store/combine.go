package store

import (
	"maps"
	"slices"
)

// Combine builds a root reducer where each slice reducer owns one key of
// the root state. The root state is returned as-is when no slice changed.
func Combine(reducers map[string]Reducer) Reducer {
	keys := slices.Sorted(maps.Keys(reducers))

	return func(state State, action Action) State {
		var next State
		for _, key := range keys {
			prev, present := state[key].(State)
			if !present {
				prev = State{}
			}
			updated := reducers[key](prev, action)
			if present && Same(prev, updated) {
				continue
			}
			if next == nil {
				next = make(State, len(state)+1)
				maps.Copy(next, state)
			}
			next[key] = updated
		}
		if next == nil {
			return state
		}
		return next
	}
}
