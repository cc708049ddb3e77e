package log

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// WithSpinner executes the given function while showing a spinner with the specified message.
// The spinner is drawn on stderr so command output on stdout stays clean.
func WithSpinner(message string, fn func() error) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message

	err := s.Color("green")
	if err != nil {
		return fmt.Errorf("coloring green: %w", err)
	}

	s.Start()
	defer s.Stop()

	if err := fn(); err != nil {
		s.FinalMSG = message + " \033[31m[failed]\033[0m\n"

		return err
	}

	s.FinalMSG = message + " \033[32m[done]\033[0m\n"

	return nil
}

// Spin is WithSpinner for functions that produce a value.
func Spin[T any](message string, fn func() (T, error)) (T, error) {
	var result T
	err := WithSpinner(message, func() error {
		var err error
		result, err = fn()

		return err
	})

	return result, err
}
