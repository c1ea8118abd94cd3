// Package ui provides the terminal schedule browser for arbox.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds all view state and reads
// schedule data from a shared state.Store, which the app package's poller
// fills in the background. Booking actions run as tea.Cmds against the
// Bookings interface so the event loop never blocks on the network.
//
// # Package Structure
//
//   - app.go: Model, Update/View loop, day navigation and Run
//   - schedule.go: the day's class table and the titled box frame
//   - actions.go: book and cancel flows, prompts and the status line
//   - header.go: status bar and command hints
//   - logs.go: tail of the log file in a scrollable viewport
//   - help.go: help overlay built from the key map
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// # Views
//
//   - Schedule: one row per class with time, category, coach, capacity and
//     state (open, full, booked, standby or past)
//   - Log: the last lines of the arbox log file, formatted by logtail
//
// # Key Bindings
//
//   - [ / ]: previous / next day; t: today
//   - j/k, g/G: move selection
//   - b: book the selected class (asks for a membership id when none is configured)
//   - c: cancel the selected booking; y/n to confirm, L toggles late cancel
//   - r: refresh now
//   - l: toggle log view; esc: back to schedule
//   - T: cycle theme (saved to prefs)
//   - h or ?: help; e or Ctrl+C: exit
//
// # Usage Example
//
//	err := ui.Run(ui.Options{
//		Context:   ctx,
//		Bookings:  session,
//		Schedule:  poller,
//		Store:     store,
//		LogPath:   cfg.LogFile,
//		ThemeName: userPrefs.Theme,
//	})
package ui
