package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/recipes"
	"github.com/desertthunder/recipebox/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionChanged MsgKind = iota
	MsgRecipesChanged
	MsgFetched
	MsgLoggedIn
	MsgAdded
	MsgRemoved
)

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(state session.State) Msg {
	return Msg{kind: MsgSessionChanged, data: state}
}

// recipesChangedMsg is the constructor for [MsgRecipesChanged]
//
// It carries no snapshot; the model re-reads the repository when handling it.
func recipesChangedMsg() Msg {
	return Msg{kind: MsgRecipesChanged}
}

type fetchedData struct {
	result recipes.FetchResult
	err    error
}

// fetchedMsg is the constructor for [MsgFetched]
func fetchedMsg(result recipes.FetchResult, err error) Msg {
	return Msg{kind: MsgFetched, data: fetchedData{result, err}}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(err error) Msg {
	return Msg{kind: MsgLoggedIn, data: err}
}

type addedData struct {
	recipe models.Recipe
	err    error
}

// addedMsg is the constructor for [MsgAdded]
func addedMsg(recipe models.Recipe, err error) Msg {
	return Msg{kind: MsgAdded, data: addedData{recipe, err}}
}

type removedData struct {
	id      int
	message string
	err     error
}

// removedMsg is the constructor for [MsgRemoved]
func removedMsg(id int, message string, err error) Msg {
	return Msg{kind: MsgRemoved, data: removedData{id, message, err}}
}
