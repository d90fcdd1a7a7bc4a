package outdir

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompt asks on Out and reads the answer from In. Only "Y" and "y" confirm;
// an empty answer or end of input refuses.
type Prompt struct {
	In  io.Reader
	Out io.Writer

	// BeforeDelete, when set, is printed after a positive answer
	BeforeDelete string
}

// NewStdPrompt prompts on stdout and reads stdin
func NewStdPrompt() *Prompt {
	return &Prompt{
		In:           os.Stdin,
		Out:          os.Stdout,
		BeforeDelete: "[*] Deleting old directory",
	}
}

func (p *Prompt) Confirm(path string) (bool, error) {
	fmt.Fprintf(p.Out, "[-] Directory '%s' exists, should we delete and continue? [Y/n]: ", path)

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	if err == io.EOF {
		// keep the next status line off the prompt line
		fmt.Fprintln(p.Out)
	}

	answer := strings.TrimRight(line, "\r\n")
	ok := answer == "Y" || answer == "y"
	if ok && p.BeforeDelete != "" {
		fmt.Fprintln(p.Out, p.BeforeDelete)
	}
	return ok, nil
}

// Interactive reports whether f is attached to a terminal
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
