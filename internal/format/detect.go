package format

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/log"
)

const snippetLen = 50

// GuessError is returned when Detect recognises none of the known formats.
type GuessError struct {
	Snippet string
}

func (e *GuessError) Error() string {
	return fmt.Sprintf("Could not determine format from input: '%s'", e.Snippet)
}

func (e *GuessError) Kind() buddyerr.Kind { return buddyerr.KindGuess }

// Detect inspects content and returns the first format whose marker matches.
// It is pure: nothing is read beyond the slice.
func Detect(content []byte) (Format, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	text := strings.TrimLeftFunc(string(content), unicode.IsSpace)
	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		return "", &GuessError{Snippet: ""}
	}
	first := lines[0]
	upper := strings.ToUpper(first)

	var f Format
	switch {
	case strings.HasPrefix(upper, "#NEXUS"):
		f = Nexus
	case strings.HasPrefix(upper, "# STOCKHOLM"):
		f = Stockholm
	case strings.HasPrefix(first, "CLUSTAL"), strings.HasPrefix(first, "MUSCLE"),
		strings.HasPrefix(first, "PROBCONS"):
		f = Clustal
	case strings.HasPrefix(first, "LOCUS"):
		f = GenBank
	case strings.HasPrefix(first, "ID   "):
		f = EMBL
	case strings.HasPrefix(first, ">"):
		f = FASTA
	case strings.HasPrefix(first, "@") && len(lines) > 2 && strings.HasPrefix(lines[2], "+"):
		f = FASTQ
	default:
		if n, m, ok := PhylipHeader(first); ok {
			strict, sequential := PhylipLayout(lines[1:], n, m)
			f = phylipVariant(strict, sequential)
		} else if isNewick(text) {
			f = Newick
		}
	}
	if f == "" {
		return "", &GuessError{Snippet: snippet(text)}
	}
	log.Debug(log.CatFormat, "detected format", "format", f)
	return f, nil
}

func phylipVariant(strict, sequential bool) Format {
	switch {
	case strict && sequential:
		return PhylipSS
	case strict:
		return Phylip
	case sequential:
		return PhylipSR
	default:
		return PhylipRelaxed
	}
}

// PhylipHeader parses a "<sequences> <columns>" header line.
func PhylipHeader(line string) (n, m int, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return 0, 0, false
	}
	m, err = strconv.Atoi(fields[1])
	if err != nil || m < 0 {
		return 0, 0, false
	}
	return n, m, true
}

// PhylipLayout decides between the strict (ten character id column) and relaxed
// (whitespace separated id) layouts, and between sequential and interleaved, by
// looking at the first n record lines after the header.
//
// Lines where both readings agree count as strict only when the sequence starts
// exactly at column ten.
func PhylipLayout(lines []string, n, m int) (strict, sequential bool) {
	if len(lines) > n {
		lines = lines[:n]
	}
	if len(lines) == 0 {
		return false, false
	}

	strictOK, relaxedOK := true, true
	padded := true
	strictLens := make([]int, 0, len(lines))
	relaxedLens := make([]int, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			relaxedOK = false
		} else {
			relaxedLens = append(relaxedLens, residueCount(strings.Join(fields[1:], "")))
		}

		runes := []rune(line)
		if len(runes) <= 10 {
			strictOK = false
			continue
		}
		strictLens = append(strictLens, residueCount(string(runes[10:])))
		if start := secondFieldStart(runes); start != 10 {
			padded = false
		}
	}

	switch {
	case !strictOK:
		strict = false
	case !relaxedOK:
		strict = true
	case padded:
		strict = true
	default:
		strict = allEqual(strictLens) && !allEqual(relaxedLens)
	}

	lens := relaxedLens
	if strict {
		lens = strictLens
	}
	sequential = len(lens) > 0 && lens[0] == m
	return strict, sequential
}

func secondFieldStart(runes []rune) int {
	i := 0
	for i < len(runes) && !unicode.IsSpace(runes[i]) {
		i++
	}
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}

func residueCount(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func allEqual(xs []int) bool {
	for _, x := range xs {
		if x != xs[0] {
			return false
		}
	}
	return true
}

func isNewick(text string) bool {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "(") || !strings.HasSuffix(t, ";") {
		return false
	}
	depth := 0
	for _, r := range t {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func snippet(text string) string {
	if utf8.RuneCountInString(text) <= snippetLen {
		return text
	}
	return string([]rune(text)[:snippetLen])
}
