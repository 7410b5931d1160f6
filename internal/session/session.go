// Package session owns the "session" slice of the application state: who
// the current user is and the last data set fetched from upstream.
package session

import (
	"maps"

	"homes-service/internal/store"
)

// SliceKey is the root-state key the session reducer is registered under.
const SliceKey = "session"

// Action kinds. Each names exactly one state effect.
const (
	KindUpdateData = "UPDATE_DATA"
	KindUpdateUser = "UPDATE_USER"
)

// Action is the closed set of session actions.
type Action interface {
	store.Action
	sessionAction()
}

// UpdateUser replaces the current user. Any value, nil included, is stored as-is.
type UpdateUser struct {
	User any `json:"user"`
}

func (UpdateUser) Kind() string   { return KindUpdateUser }
func (UpdateUser) sessionAction() {}

// UpdateData carries a freshly fetched data set.
type UpdateData struct {
	Data any `json:"data"`
}

func (UpdateData) Kind() string   { return KindUpdateData }
func (UpdateData) sessionAction() {}

// InitialState is the empty session slice.
func InitialState() store.State {
	return store.State{}
}

// UpdateCurrentUser builds an UPDATE_USER action.
func UpdateCurrentUser(user any) UpdateUser {
	return UpdateUser{User: user}
}

// UpdateDataSet builds an UPDATE_DATA action.
func UpdateDataSet(data any) UpdateData {
	return UpdateData{Data: data}
}

// Reduce is the session reducer. UPDATE_DATA has no case and, like any
// other unknown action, returns state untouched.
func Reduce(state store.State, action store.Action) store.State {
	switch a := action.(type) {
	case UpdateUser:
		next := make(store.State, len(state)+1)
		maps.Copy(next, state)
		next["user"] = a.User
		return next
	default:
		return state
	}
}

// Slice extracts the session slice from a root state built by store.Combine.
func Slice(root store.State) store.State {
	s, _ := root[SliceKey].(store.State)
	return s
}
