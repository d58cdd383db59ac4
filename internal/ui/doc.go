// Package ui implements the interactive recipe browser using bubbletea's Elm architecture.
//
// The TUI has five views:
//  1. [LoginView] : Sign in (or register) when the session is Anonymous
//  2. [ListView] : Browse the collection as a list or a grid
//  3. [AddView] : Enter a URL for server-side extraction
//  4. [ConfirmView] : Confirm deleting the selected recipe
//  5. [DetailView] : Read one recipe
//
// The [Model] subscribes to session and collection changes; callbacks post messages onto a channel that
// the program drains with a blocking [tea.Cmd], so background transitions (an expired session, a late
// fetch) redraw the screen without polling.
//
// The add-by-URL slot is shown in the status line while pending. Other keys stay live during extraction,
// so a delete or refresh can run while an add is outstanding.
//
// Theme (light/dark) and layout (list/grid) come from the preference store and are toggled with t and v.
package ui
