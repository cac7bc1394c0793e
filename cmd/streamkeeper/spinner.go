package main

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// withSpinner runs fn behind a spinner when out is a terminal.
func withSpinner(out io.Writer, suffix string, fn func() error) error {
	if !isTerminal(out) {
		return fn()
	}
	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	spin.Suffix = " " + suffix
	spin.Start()
	defer spin.Stop()
	return fn()
}
