// Package tool runs third-party multiple sequence aligners over a container
// and reads their output back as a new container.
package tool

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/format"
)

// Files written in the working directory of a run.
const (
	InputFile  = "tmp.fa"
	ResultFile = "result"
)

// MissingBinaryError reports an aligner that is not on $PATH.
type MissingBinaryError struct {
	Tool string
}

func (e *MissingBinaryError) Error() string {
	return fmt.Sprintf("#### Could not find %s in $PATH. ####", e.Tool)
}

func (e *MissingBinaryError) Kind() buddyerr.Kind { return buddyerr.KindFatal }

// UnsupportedToolError reports a tool name with no known aligner.
type UnsupportedToolError struct {
	Tool string
}

func (e *UnsupportedToolError) Error() string {
	return fmt.Sprintf("%s is not a supported alignment tool.", e.Tool)
}

func (e *UnsupportedToolError) Kind() buddyerr.Kind { return buddyerr.KindAttribute }

// ErrUserDeclined is returned when the user refuses to overwrite a keep-temp
// directory.
var ErrUserDeclined = buddyerr.Fatalf("Process aborted: keep-temp directory was not overwritten.")

// Aligner describes how to invoke one alignment program.
type Aligner struct {
	// Name is the canonical tool name.
	Name string
	// Binary is the executable looked up on $PATH.
	Binary  string
	Aliases []string
	// Stdout is set when the alignment is printed rather than written to a file.
	Stdout bool
	// args builds argv from the input path, the result path and user params.
	args func(in, out string, params []string) []string
	// defaultParams are added when the user gave no output format.
	defaultParams []string
}

var aligners = []Aligner{
	{
		Name: "mafft", Binary: "mafft", Stdout: true,
		args: func(in, _ string, p []string) []string { return append(p, in) },
	},
	{
		Name: "muscle", Binary: "muscle", Stdout: true,
		args: func(in, _ string, p []string) []string { return append([]string{"-in", in}, p...) },
	},
	{
		Name: "clustalw", Binary: "clustalw2", Aliases: []string{"clustalw2"},
		args: func(in, out string, p []string) []string {
			return append([]string{"-infile=" + in, "-outfile=" + out}, p...)
		},
		defaultParams: []string{"-output=fasta"},
	},
	{
		Name: "clustalomega", Binary: "clustalo", Aliases: []string{"clustalo", "clustal-omega"}, Stdout: true,
		args: func(in, _ string, p []string) []string { return append([]string{"-i", in}, p...) },
	},
	{
		Name: "prank", Binary: "prank",
		args: func(in, out string, p []string) []string {
			return append([]string{"-d=" + in, "-o=" + out}, p...)
		},
	},
	{
		Name: "pagan", Binary: "pagan",
		args: func(in, out string, p []string) []string {
			return append([]string{"-s", in, "-o", out}, p...)
		},
	},
}

// Names returns the canonical names of the supported aligners.
func Names() []string {
	out := make([]string, len(aligners))
	for i, a := range aligners {
		out[i] = a.Name
	}
	return out
}

// Lookup finds an aligner by name or alias, case-insensitively.
func Lookup(name string) (Aligner, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, a := range aligners {
		if a.Name == key || slices.Contains(a.Aliases, key) {
			return a, nil
		}
	}
	return Aligner{}, &UnsupportedToolError{Tool: name}
}

// formatFlags lists the parameter prefixes that choose an output format.
var formatFlags = []string{"-output=", "--outfmt=", "-outfmt=", "-f="}

// clustalFlags make muscle and mafft write clustal.
var clustalFlags = []string{"-clw", "-clwstrict", "--clustalout"}

// OutputFormat derives the container format of a run from its params.
// Unrecognised or absent format requests give fasta.
func OutputFormat(params []string) format.Format {
	f, _, _ := scanFormat(params)
	return f
}

// scanFormat returns the requested format, whether a format flag was given at
// all, and params with any unrecognised format flag removed so the tool falls
// back to its default output.
func scanFormat(params []string) (format.Format, bool, []string) {
	result := format.FASTA
	given := false
	kept := make([]string, 0, len(params))
	for i := 0; i < len(params); i++ {
		p := params[i]
		if slices.Contains(clustalFlags, p) {
			result, given = format.Clustal, true
			kept = append(kept, p)
			continue
		}

		tokens := []string{p}
		value, ok := "", false
		for _, prefix := range formatFlags {
			if v, found := strings.CutPrefix(p, prefix); found {
				value, ok = v, true
				break
			}
		}
		// "-f nexus" form
		if !ok && p == "-f" && i+1 < len(params) {
			value, ok = params[i+1], true
			tokens = append(tokens, value)
			i++
		}
		if !ok {
			kept = append(kept, p)
			continue
		}

		f, err := format.Canonicalize(value)
		if err != nil {
			continue
		}
		result, given = f, true
		kept = append(kept, tokens...)
	}
	return result, given, kept
}

// splitParams breaks a parameter string on whitespace.
func splitParams(params string) []string {
	return strings.Fields(params)
}
