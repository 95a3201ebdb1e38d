package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// StdinConfirmer blocks until the operator presses Enter.
type StdinConfirmer struct {
	in     *bufio.Reader
	prompt Printer
}

// NewStdinConfirmer reads confirmations from r and prompts through p.
func NewStdinConfirmer(r io.Reader, p Printer) *StdinConfirmer {
	return &StdinConfirmer{in: bufio.NewReader(r), prompt: p}
}

// Confirm waits for a line on the input. It returns early with the context
// error when ctx is cancelled; the pending read is abandoned.
func (c *StdinConfirmer) Confirm(ctx context.Context) error {
	c.prompt.Warn("    Press Enter to continue...")

	done := make(chan error, 1)
	go func() {
		_, err := c.in.ReadString('\n')
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("read confirmation: %w", io.ErrUnexpectedEOF)
		}
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		return nil
	}
}
