package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/cachemanager"
	"github.com/zjrosen/buddy/internal/dbbuddy"
	"github.com/zjrosen/buddy/internal/dbclient"
	"github.com/zjrosen/buddy/internal/flags"
	"github.com/zjrosen/buddy/internal/format"
	"github.com/zjrosen/buddy/internal/record"
)

type dbOptions struct {
	keep      []string
	remove    []string
	restore   []string
	partition string
	outFormat string
	databases []string
	fetch     bool
	failures  bool
	save      string
	load      string
}

func newDBCmd(a *app) *cobra.Command {
	var o dbOptions
	cmd := &cobra.Command{
		Use:   "db [input]...",
		Short: "Collect accession numbers, fetch their summaries and filter them",
		Long: `Each input is a file, a comma or whitespace separated list, or "-" for
stdin. Tokens that look like accession numbers become records; anything else is
kept as a search term. Filters run in the order keep, remove, restore.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDB(cmd, args, o)
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&o.keep, "keep", nil, "move records that do not match into the trash bin")
	f.StringArrayVar(&o.remove, "remove", nil, "move matching records into the trash bin")
	f.StringArrayVar(&o.restore, "restore", nil, "move matching records out of the trash bin")
	f.StringVarP(&o.partition, "partition", "t", "records", "partition to print: records, trash or search terms")
	f.StringVarP(&o.outFormat, "out-format", "o", "", fmt.Sprintf("output format, one of %s", strings.Join(format.DbBuddyFormats(), ", ")))
	f.StringSliceVarP(&o.databases, "databases", "d", nil, "restrict fetching to these databases")
	f.BoolVar(&o.fetch, "fetch", false, "fetch summaries from the remote databases")
	f.BoolVar(&o.failures, "failures", false, "print failed queries to stderr")
	f.StringVar(&o.save, "save", "", "save the result as a named session")
	f.StringVar(&o.load, "load", "", "start from a saved session")

	cmd.AddCommand(newSessionsCmd(a), newForgetCmd(a))
	return cmd
}

func (a *app) runDB(cmd *cobra.Command, args []string, o dbOptions) error {
	p := a.res.Printer
	d := dbbuddy.Empty()
	if o.load != "" {
		db, err := a.openDB()
		if err != nil {
			return err
		}
		loaded, err := db.SessionRepository().Load(o.load)
		if err != nil {
			return err
		}
		d = loaded
	}
	for _, arg := range args {
		var input any = arg
		if arg == "-" {
			input = cmd.InOrStdin()
		}
		other, err := dbbuddy.New(input)
		if err != nil {
			return err
		}
		d.Merge(other)
	}

	if len(o.databases) > 0 {
		for _, w := range d.SetDatabases(o.databases...) {
			_ = p.Warn("%s", w)
		}
	}
	if o.fetch {
		client, err := a.fetchClient()
		if err != nil {
			return err
		}
		if err := client.FetchSummaries(cmd.Context(), d); err != nil {
			return err
		}
		a.reportFetch(d)
	}

	filters := []struct {
		action dbbuddy.Action
		exprs  []string
	}{
		{dbbuddy.ActionKeep, o.keep},
		{dbbuddy.ActionRemove, o.remove},
		{dbbuddy.ActionRestore, o.restore},
	}
	for _, flt := range filters {
		for _, expr := range flt.exprs {
			n, err := d.Filter(expr, flt.action)
			if err != nil {
				return err
			}
			_ = p.Stderr(fmt.Sprintf("%s %q: %d moved\n", flt.action, expr, n))
		}
	}

	if o.outFormat != "" {
		if err := d.SetOutFormat(o.outFormat); err != nil {
			return err
		}
	}
	if o.save != "" {
		db, err := a.openDB()
		if err != nil {
			return err
		}
		if err := db.SessionRepository().Save(o.save, d); err != nil {
			return err
		}
		_ = p.Stderr(fmt.Sprintf("saved session %q\n", o.save))
	}

	part := format.ResolvePartition(o.partition)
	if part == format.PartitionUnknown {
		return buddyerr.Valuef("unknown partition %q", o.partition)
	}
	if err := d.Write(cmd.OutOrStdout(), part); err != nil {
		return err
	}
	if o.failures && len(d.Failures) > 0 {
		return d.WriteFailures(cmd.ErrOrStderr())
	}
	return nil
}

func (a *app) fetchClient() (*dbclient.Client, error) {
	cfg := dbclient.Config{
		RatePerSecond: a.cfg.Fetch.RatePerSecond,
		Timeout:       a.cfg.Fetch.Timeout,
		CacheTTL:      a.cfg.Cache.TTL,
		Serial:        a.flags.Enabled(flags.FlagSerialFetch),
	}
	var cache cachemanager.CacheManager[cachemanager.Key, *record.Summary]
	if a.flags.Enabled(flags.FlagSummaryCache) {
		db, err := a.openDB()
		if err != nil {
			return nil, err
		}
		cache = db.SummaryCache()
	} else {
		cache = cachemanager.NewInMemoryCacheManager[cachemanager.Key, *record.Summary](
			"summaries", a.cfg.Cache.TTL, cachemanager.DefaultCleanupInterval)
	}
	return dbclient.New(cfg, dbclient.DefaultBackends(a.cfg.Email),
		dbclient.WithCache(cache),
		dbclient.WithTracer(a.provider.Tracer()),
	), nil
}

func (a *app) reportFetch(d *dbbuddy.DbBuddy) {
	p := a.res.Printer
	var reached []string
	for _, name := range []string{dbbuddy.ClientNCBI, dbbuddy.ClientUniProt, dbbuddy.ClientEnsembl} {
		if d.ServerClients[name] {
			reached = append(reached, name)
		}
	}
	if len(reached) == 0 {
		reached = append(reached, "none")
	}
	_ = p.Stderr(p.Heading("Records", d.Records.Len()) + "  " + p.Muted("servers: "+strings.Join(reached, ", ")) + "\n")
	if len(d.Failures) > 0 {
		_ = p.Stderr(p.Failure(fmt.Sprintf("%d failed queries", len(d.Failures))) + "\n")
	}
}

func newSessionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			infos, err := db.SessionRepository().List()
			if err != nil {
				return err
			}
			p := a.res.Printer
			colors := a.res.Colors()
			for _, info := range infos {
				line := fmt.Sprintf("%s\t%d records\t%d trashed\t%s\t%s",
					info.Name, info.RecordCount, info.TrashCount, info.OutFormat, info.UpdatedAt.Format("2006-01-02 15:04"))
				if err := p.Line(line, colors.Next()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newForgetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <session>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			if err := db.SessionRepository().Delete(args[0]); err != nil {
				return err
			}
			return a.res.Printer.Stderr(fmt.Sprintf("deleted session %q\n", args[0]))
		},
	}
}
