// Package cmd wires the buddy command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/config"
	"github.com/zjrosen/buddy/internal/flags"
	"github.com/zjrosen/buddy/internal/infrastructure/sqlite"
	"github.com/zjrosen/buddy/internal/log"
	"github.com/zjrosen/buddy/internal/paths"
	"github.com/zjrosen/buddy/internal/tracing"
	"github.com/zjrosen/buddy/internal/ui/term"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply does not land in the confirm dialog's input.
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfgFile string
	debug   bool
	trace   bool
	quiet   bool
	logFile string

	cfg      config.Config
	cfgPath  string
	flags    *flags.Registry
	provider *tracing.Provider
	res      *term.Resources
	db       *sqlite.DB
	cleanup  []func()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "buddy",
		Short: "Sequence, alignment and accession toolkit",
		Long: `buddy reads and rewrites sequence files and alignments, drives external
aligners, and collects accession numbers with their remote summaries.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}
	root.SetVersionTemplate(versionInfo().String())

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: ~/.config/buddy/config.yaml)")
	pf.BoolVar(&a.debug, "debug", false, "write debug logs to stderr (also BUDDY_DEBUG)")
	pf.StringVar(&a.logFile, "log-file", "", "append debug logs to this file")
	pf.BoolVar(&a.trace, "trace", false, "record OpenTelemetry spans using the configured exporter")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress status messages")

	root.AddCommand(newGuessCmd(a), newAlnCmd(a), newDBCmd(a), newConfigCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.debug || os.Getenv("BUDDY_DEBUG") != "" {
		log.SetOutput(cmd.ErrOrStderr())
	}
	if a.logFile != "" {
		closeLog, err := log.Init(a.logFile)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.cleanup = append(a.cleanup, closeLog)
	}
	if lvl := os.Getenv("BUDDY_LOG_LEVEL"); lvl != "" {
		log.SetMinLevel(log.ParseLevel(lvl))
	}

	printer := term.NewPrinter()
	printer.Out = cmd.OutOrStdout()
	printer.Err = cmd.ErrOrStderr()
	printer.Quiet = a.quiet
	a.res = &term.Resources{Printer: printer, Version: versionInfo()}
	if cmd.Annotations[skipConfig] != "" {
		return nil
	}

	cfg, path, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.DataDir = paths.ResolveDataDir(cfg.DataDir)
	if a.trace {
		cfg.Tracing.Enabled = true
	}
	a.cfg, a.cfgPath = cfg, path
	a.flags = flags.New(cfg.Flags)
	for _, name := range a.flags.Unknown() {
		_ = printer.Warn("unknown feature flag %q ignored", name)
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	a.provider = provider

	a.ensureUserHash()
	return nil
}

// ensureUserHash gives the installation an id on first run and stores it
// when there is a config file to store it in.
func (a *app) ensureUserHash() {
	if a.cfg.UserHash != "" {
		return
	}
	a.cfg.UserHash = config.NewUserHash()
	if _, err := os.Stat(a.cfgPath); err != nil {
		return
	}
	if err := config.SaveUserHash(a.cfgPath, a.cfg.UserHash); err != nil {
		log.Warn(log.CatConfig, "could not save user hash", "path", a.cfgPath, "error", err)
	}
}

func (a *app) teardown(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	if a.provider != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		errs = append(errs, a.provider.Shutdown(ctx))
		cancel()
	}
	for _, fn := range a.cleanup {
		fn()
	}
	a.cleanup = nil
	return errors.Join(errs...)
}

// openDB opens the session database once per invocation.
func (a *app) openDB() (*sqlite.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := sqlite.NewDB(a.cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	a.db = db
	return db, nil
}

func versionInfo() term.Version {
	v := term.Version{
		Name:       "buddy",
		Maintainer: "https://github.com/zjrosen/buddy/issues",
		Contributors: []term.Contributor{
			{Name: "Zach Rosen", URL: "https://github.com/zjrosen"},
		},
	}
	_, _ = fmt.Sscanf(strings.TrimPrefix(version, "v"), "%d.%d", &v.Major, &v.Minor)
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		v.Date = t
	}
	return v
}

// Execute runs the root command, cancelling on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

// ExitCode maps an error onto the process exit status. Fatal errors exit
// with 2, everything else with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if buddyerr.Is(err, buddyerr.KindFatal) {
		return 2
	}
	return 1
}

// SetVersion records build information injected through ldflags.
func SetVersion(v, c, d string) {
	version, commit, date = v, c, d
	log.Debug(log.CatConfig, "build", "version", version, "commit", commit, "date", date)
}
