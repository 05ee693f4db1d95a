package term

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/buddy/internal/buddyerr"
)

func newTestPrinter() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Printer{Out: &out, Err: &errOut, Color: true}, &out, &errOut
}

func TestStdout(t *testing.T) {
	p, out, _ := newTestPrinter()
	require.NoError(t, p.Stdout("Hello", nil, nil))
	require.Equal(t, "Hello\033[m", out.String())

	out.Reset()
	require.NoError(t, p.Stdout("Hello", []Code{Underline, Red}, nil))
	require.Equal(t, "\033[4m\x1b[91mHello\033[m", out.String())

	out.Reset()
	require.NoError(t, p.Stdout("Hello", nil, []Code{Red}))
	require.Equal(t, "Hello\x1b[91m", out.String())
}

func TestStdout_Malformed(t *testing.T) {
	p, out, _ := newTestPrinter()

	err := p.Stdout("Hello", []Code{"\x1b[91"}, nil)
	require.EqualError(t, err, "Malformed format_in attribute escape code")
	require.True(t, buddyerr.Is(err, buddyerr.KindAttribute))

	err = p.Stdout("Hello", nil, []Code{"\x1b[91"})
	require.EqualError(t, err, "Malformed format_out attribute escape code")
	require.Empty(t, out.String())
}

func TestStdout_NoColor(t *testing.T) {
	p, out, _ := newTestPrinter()
	p.Color = false
	require.NoError(t, p.Stdout("Hello", []Code{Bold}, nil))
	require.Equal(t, "Hello", out.String())
}

func TestQuiet(t *testing.T) {
	p, out, errOut := newTestPrinter()
	p.Quiet = true
	require.NoError(t, p.Stdout("Hello", nil, nil))
	require.NoError(t, p.Stderr("Hello"))
	require.Empty(t, out.String())
	require.Empty(t, errOut.String())
}

func TestStderr(t *testing.T) {
	p, _, errOut := newTestPrinter()
	require.NoError(t, p.Stderr("Hello"))
	require.Equal(t, "Hello", errOut.String())

	errOut.Reset()
	p.Width = 10
	require.NoError(t, p.Stderr("aaaa bbbb cccc"))
	require.Contains(t, errOut.String(), "\n")
	require.Equal(t, []string{"aaaa", "bbbb", "cccc"}, strings.Fields(errOut.String()))

	errOut.Reset()
	p.Width = 0
	require.NoError(t, p.Warn("%d records dropped", 3))
	require.Equal(t, "Warning: 3 records dropped\n", errOut.String())
}

func TestHeading_NoColor(t *testing.T) {
	p, _, _ := newTestPrinter()
	p.Color = false
	require.Equal(t, "Records  12", p.Heading("Records", 12))
	require.Equal(t, "x", p.Failure("x"))
}

func TestLine(t *testing.T) {
	p, out, _ := newTestPrinter()
	require.NoError(t, p.Line("Hello", Green))
	require.Equal(t, "\x1b[92mHello\033[m\n", out.String())

	out.Reset()
	p.Quiet = true
	require.NoError(t, p.Line("Hello"))
	require.Empty(t, out.String())
}
