package auth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ReadSecret prompts on out and reads a line from in without echo when in is
// a terminal.
func ReadSecret(in *os.File, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	if term.IsTerminal(int(in.Fd())) {
		secret, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	return ReadLine(bufio.NewReader(in))
}

// ReadLine reads one trimmed line, accepting a final line without newline
func ReadLine(r *bufio.Reader) (string, error) {
	input, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
