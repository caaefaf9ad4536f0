// Package tui renders running experiments in the terminal: a plain
// repainting renderer for the run command and a bubbletea model for watch.
package tui
