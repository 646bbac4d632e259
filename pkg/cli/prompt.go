package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
)

// Prompter asks the user for one line of input. It returns io.EOF when
// there is nothing more to read.
type Prompter interface {
	Prompt(message string) (string, error)
}

// LinePrompter reads plain lines, for piped input and tests.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Prompt(message string) (string, error) {
	if message != "" {
		fmt.Fprintf(p.out, "\n%s\n", message)
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// SurveyIO holds the streams survey prompts use.
type SurveyIO struct {
	In  terminal.FileReader
	Out terminal.FileWriter
	Err terminal.FileWriter
}

func (s SurveyIO) AskOptions() []survey.AskOpt {
	return []survey.AskOpt{survey.WithStdio(s.In, s.Out, s.Err)}
}

// SurveyPrompter asks through survey on a real terminal.
type SurveyPrompter struct {
	IO SurveyIO
}

func (p *SurveyPrompter) Prompt(message string) (string, error) {
	if message == "" {
		message = ">"
	}
	var answer string
	err := survey.AskOne(&survey.Input{Message: message}, &answer, p.IO.AskOptions()...)
	if errors.Is(err, terminal.InterruptErr) {
		return "", io.EOF
	}
	return answer, err
}

// NewPrompter picks survey when in and out are terminals and plain line
// reading otherwise.
func NewPrompter(in io.Reader, out io.Writer) Prompter {
	inFile, inOK := in.(*os.File)
	outFile, outOK := out.(*os.File)
	if inOK && outOK && isTerminal(inFile) && isTerminal(outFile) {
		return &SurveyPrompter{IO: SurveyIO{In: inFile, Out: outFile, Err: os.Stderr}}
	}
	return NewLinePrompter(in, out)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
