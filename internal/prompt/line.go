package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// LinePrompter reads answers as whole lines.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter returns a LinePrompter reading from in and writing
// prompts to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Confirm accepts "y" or "yes" in any case; anything else, including end of
// input, is no.
func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	line, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (p *LinePrompter) Pause(ctx context.Context, message string) error {
	fmt.Fprintln(p.out, message)
	_, err := p.readLine(ctx)
	return err
}

// readLine returns the next line. End of input yields what was read so far
// and no error. The read is abandoned when ctx is canceled.
func (p *LinePrompter) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}
		ch <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("read answer: %w", r.err)
		}
		return r.line, nil
	}
}
