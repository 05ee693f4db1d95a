// Package term writes user-facing messages to the terminal: coloured status
// lines, warnings on stderr and the version banner.
package term

import "regexp"

// Code is an SGR escape sequence.
type Code string

const (
	Grey        Code = "\033[90m"
	Red         Code = "\033[91m"
	Green       Code = "\033[92m"
	Yellow      Code = "\033[93m"
	Blue        Code = "\033[94m"
	Magenta     Code = "\033[95m"
	Cyan        Code = "\033[96m"
	White       Code = "\033[97m"
	Bold        Code = "\033[1m"
	Underline   Code = "\033[4m"
	NoUnderline Code = "\033[24m"
	DefFont     Code = "\033[39m"

	// Reset ends any formatting.
	Reset Code = "\033[m"
)

var sgr = regexp.MustCompile(`^\x1b\[[0-9;]*m$`)

// Valid reports whether c is a complete SGR sequence.
func (c Code) Valid() bool {
	return sgr.MatchString(string(c))
}

// cycleOrder is the order colours are handed out to successive items.
var cycleOrder = []Code{Magenta, Cyan, Green, Red, Yellow, Grey}

// Cycle hands out colours in a fixed repeating order.
type Cycle struct {
	next int
}

// Next returns the next colour.
func (c *Cycle) Next() Code {
	code := cycleOrder[c.next%len(cycleOrder)]
	c.next++
	return code
}
