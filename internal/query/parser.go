package query

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/log"
)

// SyntaxError is returned for malformed expressions.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string { return e.Msg }

func (e *SyntaxError) Kind() buddyerr.Kind { return buddyerr.KindValue }

// Parse parses a search expression.
func Parse(input string) (Query, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "*" {
		return MatchAll{}, nil
	}

	if strings.HasPrefix(trimmed, "(") {
		if end := strings.Index(trimmed, ")"); end > 0 {
			header := trimmed[1:end]
			rest := strings.TrimSpace(trimmed[end+1:])
			if isLengthHeader(header) {
				if rest != "" {
					return nil, lengthSyntaxError(header + ")" + rest)
				}
				return parseLength(header)
			}
			return parseColumn(strings.TrimSpace(header), rest)
		}
	}
	return parseText(input)
}

// Match parses q and evaluates it against t.
func Match(t Target, q string) (bool, error) {
	parsed, err := Parse(q)
	if err != nil {
		return false, err
	}
	return parsed.Match(t), nil
}

func isLengthHeader(header string) bool {
	h := strings.TrimSpace(header)
	if !strings.HasPrefix(strings.ToLower(h), "length") {
		return false
	}
	rest := h[len("length"):]
	return rest != "" && strings.ContainsRune(" \t=<>!", rune(rest[0]))
}

// parseLength parses "length op N" with a single operator; chained
// comparisons are rejected.
func parseLength(header string) (Query, error) {
	l := NewLexer(header)
	ident := l.NextToken()
	op := l.NextToken()
	num := l.NextToken()
	eof := l.NextToken()

	if ident.Type != TokenIdent || !strings.EqualFold(ident.Literal, "length") {
		return nil, lengthSyntaxError(header)
	}
	if op.Type != TokenOp || num.Type != TokenNumber || eof.Type != TokenEOF {
		return nil, lengthSyntaxError(header)
	}
	if strings.Contains(op.Literal, "!") {
		return nil, lengthSyntaxError(header)
	}
	if !slices.Contains(validOps, Op(op.Literal)) {
		return nil, &SyntaxError{Msg: fmt.Sprintf("Invalid operator: %s", op.Literal)}
	}
	n, err := strconv.Atoi(num.Literal)
	if err != nil {
		return nil, lengthSyntaxError(header)
	}
	return &LengthCompare{Op: Op(op.Literal), Value: n}, nil
}

func lengthSyntaxError(snippet string) error {
	return &SyntaxError{Msg: fmt.Sprintf("Invalid syntax for seaching 'length': %s", strings.TrimSpace(snippet))}
}

func parseColumn(column, pattern string) (Query, error) {
	if pattern == "" {
		return &ColumnMatch{Column: column}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &SyntaxError{Msg: fmt.Sprintf("Invalid regular expression for column '%s': %v", column, err)}
	}
	return &ColumnMatch{Column: column, Pattern: re}, nil
}

func parseText(input string) (Query, error) {
	pattern := input
	insensitive := false
	for _, flag := range []string{"i?", "?i"} {
		if strings.HasPrefix(pattern, flag) {
			pattern = pattern[len(flag):]
			insensitive = true
			break
		}
	}
	if insensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &SyntaxError{Msg: fmt.Sprintf("Invalid regular expression '%s': %v", input, err)}
	}
	log.Debug(log.CatQuery, "parsed text query", "pattern", pattern)
	return &TextMatch{Pattern: re}, nil
}

func itoa(n int) string { return strconv.Itoa(n) }
