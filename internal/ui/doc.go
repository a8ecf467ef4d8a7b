// Package ui renders the terminal output of the tinyhttp-server CLI.
//
// Output is rendered once with Lipgloss and printed. The one exception is
// RunWithSpinner, a small Bubble Tea program that animates while an mDNS
// lookup runs and disappears when it ends.
//
//   - Header: banner shown by "serve" with the listen address and options
//   - RenderDevices: the table printed by "scan"
//   - RunWithSpinner: progress for "scan" and for --instance lookups
//
// Logging is controlled separately through TINYHTTP_LOG_LEVEL; when unset, zap
// is silent and only this output reaches the terminal.
package ui
