// Package prompt asks the user line-based questions on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidSelection is returned for answers that are neither a listed
// number nor a recognised keyword.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection is the parsed answer to a numbered choice.
type Selection struct {
	// Quit stops all further processing
	Quit bool
	// All selects every listed item
	All bool
	// Index is the 0-based chosen item when neither Quit nor All is set
	Index int
}

// ParseSelection parses an answer to a 1..max choice. An empty answer,
// "q" or "quit" quits; "a" or "all" selects everything when allowAll is set.
func ParseSelection(input string, max int, allowAll bool) (Selection, error) {
	answer := strings.ToLower(strings.TrimSpace(input))

	switch answer {
	case "", "q", "quit":
		return Selection{Quit: true}, nil
	case "a", "all":
		if allowAll {
			return Selection{All: true}, nil
		}
	}

	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > max {
		return Selection{}, fmt.Errorf("%w: %q", ErrInvalidSelection, strings.TrimSpace(input))
	}
	return Selection{Index: n - 1}, nil
}

// Prompter reads answers line by line from in and writes questions to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	// Attempts bounds re-asking after an invalid answer
	Attempts int
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, Attempts: 3}
}

// Confirm asks a yes/no question. An empty answer means yes.
// End of input is treated as no.
func (p *Prompter) Confirm(message string) (bool, error) {
	fmt.Fprintf(p.out, "%s [Y/n] ", message)

	line, err := p.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Select asks for a choice among max numbered items, re-asking on invalid
// input up to Attempts times. End of input quits.
func (p *Prompter) Select(message string, max int, allowAll bool) (Selection, error) {
	hint := fmt.Sprintf("(1-%d)", max)
	if allowAll {
		hint += ", (a)ll"
	}
	hint += " or (q)uit"

	var lastErr error
	for i := 0; i < max1(p.Attempts); i++ {
		fmt.Fprintf(p.out, "%s %s: ", message, hint)

		line, err := p.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.out)
				return Selection{Quit: true}, nil
			}
			return Selection{}, err
		}

		sel, err := ParseSelection(line, max, allowAll)
		if err == nil {
			return sel, nil
		}
		lastErr = err
		fmt.Fprintf(p.out, "%v\n", err)
	}
	return Selection{}, lastErr
}

// readLine returns one line without its terminator. A final line without a
// newline is returned normally; io.EOF is reported only for no input.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
