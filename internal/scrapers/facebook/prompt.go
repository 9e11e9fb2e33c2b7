package facebook

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// LinePrompter asks for two-factor codes on a terminal, one code per line.
// Blank lines are skipped.
type LinePrompter struct {
	out     io.Writer
	scanner *bufio.Scanner
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{out: out, scanner: bufio.NewScanner(in)}
}

func (p *LinePrompter) PromptCode(ctx context.Context, retry bool) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if retry {
			fmt.Fprint(p.out, "The code was rejected, enter another two-factor code: ")
		} else {
			fmt.Fprint(p.out, "Enter the two-factor code: ")
		}

		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		code := strings.TrimSpace(p.scanner.Text())
		if code != "" {
			return code, nil
		}
	}
}
