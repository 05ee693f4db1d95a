package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/buddy/internal/container"
	"github.com/zjrosen/buddy/internal/format"
	"github.com/zjrosen/buddy/internal/log"
)

func newGuessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "guess <file>...",
		Short: "Report the format, alphabet and record count of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p := a.res.Printer
			colors := a.res.Colors()
			for _, path := range args {
				line, err := guessFile(path)
				if err != nil {
					log.Warn(log.CatFormat, "guess failed", "path", path, "error", err)
					line = fmt.Sprintf("%s\tunknown", path)
				}
				if err := p.Line(line, colors.Next()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func guessFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user supplied input file
	if err != nil {
		return "", err
	}
	f, err := format.Detect(data)
	if err != nil {
		return "", err
	}
	if f == format.Newick {
		return fmt.Sprintf("%s\t%s", path, f), nil
	}
	c, err := container.FromString(string(data), container.WithFormat(string(f)))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\t%s\t%s\t%d", path, f, c.Alpha, c.Len()), nil
}
