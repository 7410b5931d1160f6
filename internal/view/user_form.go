// Package view projects state into what a client needs to draw. Nothing
// here renders markup.
package view

import (
	"context"
	"fmt"

	"homes-service/internal/session"
	"homes-service/internal/store"
)

const userPlaceholder = "who are you?"

// Props is the part of the session slice the user form listens to.
type Props struct {
	CurrentUser any `json:"currentUser"`
}

// MapStateToProps selects the form's props from the session slice.
func MapStateToProps(slice store.State) Props {
	return Props{CurrentUser: slice["user"]}
}

// UserForm asks for a user name and submits it as the current user. Its
// input is local to the form and never touches the store until Submit.
type UserForm struct {
	input string
}

func NewUserForm() *UserForm {
	return &UserForm{}
}

func (f *UserForm) SetInput(v string) { f.input = v }

func (f *UserForm) Input() string { return f.input }

// Submit dispatches UPDATE_USER with the current input.
func (f *UserForm) Submit(ctx context.Context, d store.Dispatcher) error {
	return d.Dispatch(ctx, session.UpdateCurrentUser(f.input))
}

// FormView is either a greeting or an empty form, never both.
type FormView struct {
	Greeting    string `json:"greeting,omitempty"`
	ShowForm    bool   `json:"showForm"`
	Placeholder string `json:"placeholder,omitempty"`
	Input       string `json:"input,omitempty"`
}

// View is a pure projection of props and local input.
func (f *UserForm) View(p Props) FormView {
	if present(p.CurrentUser) {
		return FormView{Greeting: fmt.Sprintf("Hello %v", p.CurrentUser)}
	}
	return FormView{ShowForm: true, Placeholder: userPlaceholder, Input: f.input}
}

func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	default:
		return true
	}
}
