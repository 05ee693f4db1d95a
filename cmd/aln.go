package cmd

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/cachemanager"
	"github.com/zjrosen/buddy/internal/container"
	"github.com/zjrosen/buddy/internal/flags"
	"github.com/zjrosen/buddy/internal/tool"
	"github.com/zjrosen/buddy/internal/ui/confirm"
)

// alnOp is one container operation exposed as `buddy aln <name> <file> ...`.
type alnOp struct {
	use   string
	short string
	args  cobra.PositionalArgs
	flags func(cmd *cobra.Command)
	run   func(cmd *cobra.Command, c *container.Container, args []string) error
	// report ops print their own output instead of the container.
	report bool
}

func intArg(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, buddyerr.Typef("%s must be an integer, not %q", name, s)
	}
	return n, nil
}

func optionalArg(args []string, i int, fallback string) string {
	if len(args) > i {
		return args[i]
	}
	return fallback
}

func alnOps(a *app) []alnOp {
	noArgs := func(fn func(c *container.Container) error) func(*cobra.Command, *container.Container, []string) error {
		return func(_ *cobra.Command, c *container.Container, _ []string) error { return fn(c) }
	}
	return []alnOp{
		{
			use: "extract <file> <start> <end>", short: "Keep the columns from start to end (1-based, inclusive)",
			args: cobra.ExactArgs(3),
			run: func(_ *cobra.Command, c *container.Container, args []string) error {
				start, err := intArg("start", args[1])
				if err != nil {
					return err
				}
				end, err := intArg("end", args[2])
				if err != nil {
					return err
				}
				return c.ExtractRegions(start, end)
			},
		},
		{
			use: "trim <file> [threshold]", short: "Remove gappy columns (gappyout, all, clean, a fraction or a count)",
			args: cobra.RangeArgs(1, 2),
			run: func(_ *cobra.Command, c *container.Container, args []string) error {
				th, err := container.ParseThreshold(optionalArg(args, 1, "gappyout"))
				if err != nil {
					return err
				}
				return c.Trim(th)
			},
		},
		{
			use: "bootstrap <file> [n]", short: "Resample columns with replacement n times",
			args: cobra.RangeArgs(1, 2),
			run: func(_ *cobra.Command, c *container.Container, args []string) error {
				n, err := intArg("bootstrap count", optionalArg(args, 1, "1"))
				if err != nil {
					return err
				}
				return c.Bootstrap(n)
			},
		},
		{use: "consensus <file>", short: "Collapse each alignment to its majority-rule consensus", args: cobra.ExactArgs(1), run: noArgs((*container.Container).Consensus)},
		{
			use: "concat <file> [pattern]...", short: "Concatenate alignments, matching records by id or by patterns",
			args: cobra.MinimumNArgs(1),
			run: func(_ *cobra.Command, c *container.Container, args []string) error {
				return c.ConcatAlignments(args[1:]...)
			},
		},
		{
			use: "map-features <alignment> <sequences>", short: "Copy features from unaligned sequences onto the alignment",
			args: cobra.ExactArgs(2),
			run: func(cmd *cobra.Command, c *container.Container, args []string) error {
				seqs, err := a.loadContainer(cmd, args[1])
				if err != nil {
					return err
				}
				return c.MapFeaturesToAlignment(seqs)
			},
		},
		{
			use: "pull <file> <regex>", short: "Keep records whose id matches",
			args: cobra.ExactArgs(2),
			run: func(_ *cobra.Command, c *container.Container, args []string) error { return c.Pull(args[1]) },
		},
		{
			use: "delete <file> <regex>", short: "Remove records whose id matches",
			args: cobra.ExactArgs(2),
			run: func(_ *cobra.Command, c *container.Container, args []string) error { return c.Delete(args[1]) },
		},
		{
			use: "rename <file> <regex> <replacement> [occurrence]", short: "Rewrite record ids",
			args: cobra.RangeArgs(3, 4),
			run: func(_ *cobra.Command, c *container.Container, args []string) error {
				n, err := intArg("occurrence", optionalArg(args, 3, "0"))
				if err != nil {
					return err
				}
				return c.Rename(args[1], args[2], n)
			},
		},
		{
			use: "order-ids <file>", short: "Sort records by id",
			args:  cobra.ExactArgs(1),
			flags: func(cmd *cobra.Command) { cmd.Flags().BoolP("reverse", "r", false, "sort descending") },
			run: func(cmd *cobra.Command, c *container.Container, _ []string) error {
				reverse, _ := cmd.Flags().GetBool("reverse")
				return c.OrderIDs(reverse)
			},
		},
		{
			use: "hash-ids <file> [length]", short: "Replace ids with random hashes and print the hash table to stderr",
			args: cobra.RangeArgs(1, 2),
			run: func(_ *cobra.Command, c *container.Container, args []string) error {
				n, err := container.HashLengthArg(optionalArg(args, 1, strconv.Itoa(container.DefaultHashLength)))
				if err != nil {
					return err
				}
				if err := c.HashIDs(n); err != nil {
					return err
				}
				for _, e := range c.HashMap {
					if err := a.res.Printer.Stderr(e.Hash + "\t" + e.Original + "\n"); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{use: "translate <file>", short: "Translate nucleotide records to protein", args: cobra.ExactArgs(1), run: noArgs((*container.Container).Translate)},
		{use: "transcribe <file>", short: "Convert DNA to RNA", args: cobra.ExactArgs(1), run: noArgs((*container.Container).Transcribe)},
		{use: "back-transcribe <file>", short: "Convert RNA to DNA", args: cobra.ExactArgs(1), run: noArgs((*container.Container).ReverseTranscribe)},
		{use: "uppercase <file>", short: "Uppercase every residue", args: cobra.ExactArgs(1), run: noArgs((*container.Container).Uppercase)},
		{use: "lowercase <file>", short: "Lowercase every residue", args: cobra.ExactArgs(1), run: noArgs((*container.Container).Lowercase)},
		{use: "enforce-triplets <file>", short: "Move gaps so codons stay intact", args: cobra.ExactArgs(1), run: noArgs((*container.Container).EnforceTriplets)},
		{
			use: "clean <file>", short: "Remove characters that are not residues",
			args: cobra.ExactArgs(1),
			flags: func(cmd *cobra.Command) {
				cmd.Flags().BoolP("ambiguous", "a", false, "keep ambiguous residues")
				cmd.Flags().String("rep", "", "replace ambiguous residues with this character")
			},
			run: func(cmd *cobra.Command, c *container.Container, _ []string) error {
				ambiguous, _ := cmd.Flags().GetBool("ambiguous")
				rep, _ := cmd.Flags().GetString("rep")
				if len(rep) > 1 {
					return buddyerr.Valuef("replacement must be a single character, not %q", rep)
				}
				var b byte
				if rep != "" {
					b = rep[0]
				}
				return c.CleanSeqs(ambiguous, b)
			},
		},
		{
			use: "lengths <file>", short: "Print the width of each alignment",
			args: cobra.ExactArgs(1), report: true,
			run: func(cmd *cobra.Command, c *container.Container, _ []string) error {
				for _, n := range c.AlignmentLengths() {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), n); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

func newAlnCmd(a *app) *cobra.Command {
	alnCmd := &cobra.Command{
		Use:   "aln",
		Short: "Read, transform and write sequence files and alignments",
		Long: `Every operation reads a file ("-" for stdin) in any supported format and
writes the result to stdout in the input format unless --out-format is given.`,
	}
	pf := alnCmd.PersistentFlags()
	pf.StringP("in-format", "f", "", "parse input as this format instead of detecting it")
	pf.StringP("out-format", "o", "", "write output in this format")
	pf.Uint64("seed", 0, "seed the random source used by bootstrap and hash-ids")

	for _, op := range alnOps(a) {
		sub := &cobra.Command{
			Use:   op.use,
			Short: op.short,
			Args:  op.args,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.loadContainer(cmd, args[0])
				if err != nil {
					return err
				}
				if err := op.run(cmd, c, args); err != nil {
					return err
				}
				if op.report {
					return nil
				}
				return a.writeContainer(cmd, c)
			},
		}
		if op.flags != nil {
			op.flags(sub)
		}
		alnCmd.AddCommand(sub)
	}
	alnCmd.AddCommand(newGenerateCmd(a))
	return alnCmd
}

func newGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <tool> <file>",
		Short: "Align sequences with an external aligner",
		Long: fmt.Sprintf(`Runs one of %v on the sequences of file. Parameters are
passed through to the aligner; an output format requested there becomes
the output format here.`, tool.Names()),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadContainer(cmd, args[1])
			if err != nil {
				return err
			}
			params, _ := cmd.Flags().GetString("params")
			keepTemp, _ := cmd.Flags().GetString("keep-temp")
			quiet, _ := cmd.Flags().GetBool("quiet-tool")

			aligned, err := a.adapter(cmd).Generate(cmd.Context(), c, args[0], params, tool.Options{
				KeepTemp: keepTemp,
				Quiet:    quiet || a.quiet,
			})
			if err != nil {
				return err
			}
			return a.writeContainer(cmd, aligned)
		},
	}
	cmd.Flags().StringP("params", "p", "", "parameters passed to the aligner")
	cmd.Flags().StringP("keep-temp", "k", "", "copy the aligner's working files to this directory")
	cmd.Flags().Bool("quiet-tool", false, "hide the aligner's stderr")
	return cmd
}

func (a *app) adapter(cmd *cobra.Command) *tool.Adapter {
	ad := tool.NewAdapter()
	ad.Binaries = a.cfg.ToolBinaries()
	ad.Tracer = a.provider.Tracer()
	ad.Stderr = cmd.ErrOrStderr()
	ad.Asker = &confirm.Asker{Title: "Keep temp", In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
	if a.flags.Enabled(flags.FlagToolCache) {
		ad.Cache = cachemanager.NewInMemoryCacheManager[cachemanager.Key, *container.Container](
			"alignments", a.cfg.Cache.TTL, cachemanager.DefaultCleanupInterval)
		ad.CacheTTL = a.cfg.Cache.TTL
	}
	return ad
}

func (a *app) loadContainer(cmd *cobra.Command, path string) (*container.Container, error) {
	var opts []container.Option
	if name, _ := cmd.Flags().GetString("in-format"); name != "" {
		opts = append(opts, container.WithFormat(name))
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		opts = append(opts, container.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}
	if path == "-" {
		return container.FromReader(cmd.InOrStdin(), opts...)
	}
	return container.FromPath(path, opts...)
}

func (a *app) writeContainer(cmd *cobra.Command, c *container.Container) error {
	if name, _ := cmd.Flags().GetString("out-format"); name != "" {
		if err := c.SetFormat(name); err != nil {
			return err
		}
	}
	return c.Write(cmd.OutOrStdout())
}
