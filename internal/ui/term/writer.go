package term

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"github.com/zjrosen/buddy/internal/buddyerr"
)

// Printer writes messages to a stdout and stderr pair.
type Printer struct {
	Out io.Writer
	Err io.Writer
	// Quiet suppresses every message.
	Quiet bool
	// Color keeps escape codes. When false they are stripped from output.
	Color bool
	// Width wraps warnings on stderr; zero disables wrapping.
	Width int
}

// NewPrinter writes to the process's stdout and stderr, keeping colour only
// when stdout is a terminal that supports it.
func NewPrinter() *Printer {
	out := termenv.NewOutput(os.Stdout)
	return &Printer{
		Out:   os.Stdout,
		Err:   os.Stderr,
		Color: out.Profile != termenv.Ascii,
	}
}

func joinCodes(attr string, codes []Code) (string, error) {
	var b strings.Builder
	for _, c := range codes {
		if !c.Valid() {
			return "", buddyerr.Attributef("Malformed %s attribute escape code", attr)
		}
		b.WriteString(string(c))
	}
	return b.String(), nil
}

// Stdout writes msg wrapped in formatIn codes. The text is followed by the
// formatOut codes, or by a reset when formatOut is empty.
func (p *Printer) Stdout(msg string, formatIn, formatOut []Code) error {
	in, err := joinCodes("format_in", formatIn)
	if err != nil {
		return err
	}
	out, err := joinCodes("format_out", formatOut)
	if err != nil {
		return err
	}
	if p.Quiet {
		return nil
	}
	if out == "" {
		out = string(Reset)
	}
	text := in + msg + out
	if !p.Color {
		text = ansi.Strip(text)
	}
	_, err = io.WriteString(p.Out, text)
	return err
}

// Stderr writes msg unchanged apart from optional wrapping.
func (p *Printer) Stderr(msg string) error {
	if p.Quiet {
		return nil
	}
	if p.Width > 0 {
		msg = wordwrap.String(msg, p.Width)
	}
	if !p.Color {
		msg = ansi.Strip(msg)
	}
	_, err := io.WriteString(p.Err, msg)
	return err
}

// Warn writes "Warning: msg" as its own line on stderr.
func (p *Printer) Warn(format string, args ...any) error {
	return p.Stderr("Warning: " + fmt.Sprintf(format, args...) + "\n")
}

// Line writes msg in the given colours followed by a newline.
func (p *Printer) Line(msg string, codes ...Code) error {
	if err := p.Stdout(msg, codes, nil); err != nil {
		return err
	}
	if p.Quiet {
		return nil
	}
	_, err := io.WriteString(p.Out, "\n")
	return err
}
