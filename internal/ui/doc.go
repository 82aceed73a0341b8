// Package ui styles console output with lipgloss.
//
// A [Palette] renders titles, success and error lines, hints and the queue listing
// printed by the CLI and the interactive player prompt. Rendering degrades to plain
// text when the output is not a terminal.
package ui
