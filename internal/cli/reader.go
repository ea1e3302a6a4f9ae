package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// Confirmer asks yes/no questions on a terminal. Reads give up when the
// context is canceled, so an interrupt is never stuck behind a prompt.
type Confirmer struct {
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex
}

// NewConfirmer creates a Confirmer reading answers from r and writing prompts to w.
func NewConfirmer(r io.Reader, w io.Writer) *Confirmer {
	return &Confirmer{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// Confirm prints question and reads y/yes or n/no. An empty answer returns
// defaultYes; end of input answers no.
func (c *Confirmer) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	for {
		if _, err := fmt.Fprint(c.writer, FormatPrompt(question+" "+hint)); err != nil {
			return false, err
		}
		answer, err := c.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if _, err := fmt.Fprintln(c.writer, FormatWarning("Please answer y or n")); err != nil {
			return false, err
		}
	}
}

// ReadLine reads a line, respecting context cancellation.
func (c *Confirmer) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		value, err := c.reader.ReadString('\n')
		if err != nil && errors.Is(err, io.EOF) && value != "" {
			err = nil
		}
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		// The reading goroutine finishes on its own once input arrives.
		return "", ErrInputCancelled
	case res := <-resultCh:
		return strings.TrimSpace(res.value), res.err
	}
}
