// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI watches learning-pathway progress:
//  1. [PathwayListView] : Browse the signed-in user's pathways
//  2. [WatchView] : Poll completion status on the configured interval, with the topic list below a progress bar
//  3. [ConfirmView] : Confirm marking the selected topic completed
//
// Polling goes through a [StatusSource] (normally a tasks.StatusPoller), so a
// check inside the cache TTL is served without calling the API. Each watch
// session carries a sequence number; ticks scheduled by an abandoned session
// are ignored.
//
// When the session can no longer be renewed the model shows a sign-in notice
// instead of retrying.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, c, r, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
