package tool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/buddy/internal/cachemanager"
	"github.com/zjrosen/buddy/internal/container"
	"github.com/zjrosen/buddy/internal/format"
	"github.com/zjrosen/buddy/internal/log"
	"github.com/zjrosen/buddy/internal/seqio"
	"github.com/zjrosen/buddy/internal/tracing"
)

// Options controls a single Generate call.
type Options struct {
	// KeepTemp, when set, receives copies of the input and result files.
	KeepTemp string
	// Quiet suppresses the aligner's stderr.
	Quiet bool
}

// Adapter runs aligners. The zero value is not usable; build one with
// NewAdapter and override fields as needed.
type Adapter struct {
	LookPath func(file string) (string, error)
	Runner   Runner
	Asker    Asker
	// Binaries overrides the executable of an aligner, keyed by canonical name.
	Binaries map[string]string
	// Stderr receives aligner diagnostics unless Options.Quiet is set.
	Stderr io.Writer
	Tracer trace.Tracer
	// Cache, when set, holds finished alignments keyed by tool, params and input.
	Cache    cachemanager.CacheManager[cachemanager.Key, *container.Container]
	CacheTTL time.Duration
}

// NewAdapter returns an adapter that runs real binaries from $PATH.
func NewAdapter() *Adapter {
	return &Adapter{
		LookPath: exec.LookPath,
		Runner:   ExecRunner{},
		Stderr:   os.Stderr,
		CacheTTL: cachemanager.DefaultExpiration,
	}
}

// Generate aligns the records of c with toolName. Gaps in the input are
// removed first, record ids are swapped for short hashes while the tool runs
// and restored afterwards, and features are mapped onto the alignment when
// the input carried any. params are passed through to the tool; the format
// they request becomes the format of the returned container.
func (a *Adapter) Generate(ctx context.Context, c *container.Container, toolName, params string, opts Options) (*container.Container, error) {
	al, err := Lookup(toolName)
	if err != nil {
		return nil, err
	}
	binary := al.Binary
	if override := a.Binaries[al.Name]; override != "" {
		binary = override
	}
	binPath, err := a.LookPath(binary)
	if err != nil {
		log.Warn(log.CatTool, "aligner not found", "tool", al.Name, "binary", binary, "error", err)
		return nil, &MissingBinaryError{Tool: al.Name}
	}

	if opts.KeepTemp != "" {
		if err := a.confirmKeepTemp(opts.KeepTemp); err != nil {
			return nil, err
		}
	}

	outFormat, given, args := scanFormat(splitParams(params))
	if !given {
		args = append(args, al.defaultParams...)
	}

	ungapped, err := ungappedCopy(c)
	if err != nil {
		return nil, err
	}
	key := cachemanager.ToolResultKey(al.Name, strings.Join(args, " "), ungapped.String())
	align := func(ctx context.Context, input *container.Container) (*container.Container, error) {
		dir, err := os.MkdirTemp("", "buddy-align-")
		if err != nil {
			return nil, fmt.Errorf("create working directory: %w", err)
		}
		defer os.RemoveAll(dir)

		out, err := a.run(ctx, al, binPath, dir, input, args, opts)
		if err != nil {
			return nil, err
		}
		if opts.KeepTemp != "" {
			if err := keepFiles(dir, opts.KeepTemp); err != nil {
				return nil, err
			}
			tracing.Event(ctx, tracing.EventTempKept, attribute.String("dir", opts.KeepTemp))
		}
		return out, nil
	}

	var aligned *container.Container
	if a.Cache != nil {
		skip := opts.KeepTemp != ""
		aligned, err = cachemanager.NewReadThroughCache(a.Cache, align, skip).Get(ctx, key, ungapped, a.CacheTTL)
	} else {
		aligned, err = align(ctx, ungapped)
	}
	if err != nil {
		return nil, err
	}
	// the cache holds the raw aligner output; never mutate it
	aligned = aligned.Copy()

	hasFeatures := slices.ContainsFunc(c.Records(), func(r *seqio.Record) bool { return len(r.Features) > 0 })
	if hasFeatures {
		if err := aligned.MapFeaturesToAlignment(c); err != nil {
			return nil, err
		}
	}
	if given || !hasFeatures {
		aligned.Format = outFormat
	}

	log.Info(log.CatTool, "alignment generated", "tool", al.Name, "records", aligned.Len(), "format", aligned.Format)
	return aligned, nil
}

// run writes the hashed input, executes the aligner and reads its result
// with the original ids restored.
func (a *Adapter) run(ctx context.Context, al Aligner, binPath, dir string, input *container.Container, args []string, opts Options) (*container.Container, error) {
	hashed := input.Copy()
	if err := hashed.HashIDs(container.DefaultHashLength); err != nil {
		return nil, err
	}
	inPath := filepath.Join(dir, InputFile)
	if err := hashed.WriteFile(inPath); err != nil {
		return nil, err
	}
	outPath := filepath.Join(dir, ResultFile)
	argv := al.args(InputFile, ResultFile, args)

	var stdout []byte
	err := tracing.Run(ctx, a.Tracer, tracing.SpanToolRun, func(ctx context.Context) error {
		log.Debug(log.CatTool, "running aligner", "tool", al.Name, "argv", strings.Join(argv, " "))
		out, errOut, err := a.Runner.Run(ctx, dir, binPath, argv)
		if !opts.Quiet && len(errOut) > 0 && a.Stderr != nil {
			_, _ = a.Stderr.Write(errOut)
		}
		if err != nil {
			return fmt.Errorf("%s failed: %w", al.Name, err)
		}
		stdout = out
		return nil
	},
		attribute.String(tracing.AttrToolName, al.Name),
		attribute.String(tracing.AttrToolBinary, binPath),
		attribute.String(tracing.AttrToolParams, strings.Join(args, " ")),
		attribute.Int(tracing.AttrRecordCount, input.Len()),
	)
	if err != nil {
		return nil, err
	}

	if al.Stdout {
		if err := os.WriteFile(outPath, stdout, 0o600); err != nil {
			return nil, fmt.Errorf("write result: %w", err)
		}
	} else if outPath, err = findResult(dir); err != nil {
		return nil, fmt.Errorf("%s: %w", al.Name, err)
	}

	aligned, err := container.FromPath(outPath)
	if err != nil {
		return nil, fmt.Errorf("read %s output: %w", al.Name, err)
	}
	restoreIDs(aligned, hashed.HashMap, input)
	return aligned, nil
}

func ungappedCopy(c *container.Container) (*container.Container, error) {
	recs := make([]*seqio.Record, 0, c.Len())
	for _, r := range c.Records() {
		recs = append(recs, &seqio.Record{
			ID:          r.ID,
			Description: r.Description,
			Seq:         r.Ungapped(),
			Alphabet:    r.Alphabet,
		})
	}
	return container.FromRecords(recs, container.WithFormat(string(format.FASTA)))
}

func restoreIDs(aligned *container.Container, hashes []container.HashEntry, input *container.Container) {
	originals := make(map[string]string, len(hashes))
	for _, h := range hashes {
		originals[h.Hash] = h.Original
	}
	descs := make(map[string]string, input.Len())
	for _, r := range input.Records() {
		descs[r.ID] = r.Description
	}
	for _, r := range aligned.Records() {
		orig, ok := originals[r.ID]
		if !ok {
			log.Warn(log.CatTool, "aligner returned an unknown id", "id", r.ID)
			continue
		}
		r.ID = orig
		r.Description = descs[orig]
	}
}

// findResult locates the alignment of tools that choose their own file
// extension, such as prank's result.best.fas.
func findResult(dir string) (string, error) {
	if info, err := os.Stat(filepath.Join(dir, ResultFile)); err == nil && info.Mode().IsRegular() {
		return filepath.Join(dir, ResultFile), nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, ResultFile+".*"))
	if err != nil {
		return "", err
	}
	slices.Sort(matches)
	for _, m := range matches {
		switch filepath.Ext(m) {
		case ".dnd", ".tre", ".xml", ".log", ".anc":
			continue
		}
		return m, nil
	}
	return "", errors.New("no alignment file was produced")
}

func (a *Adapter) confirmKeepTemp(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return nil
	}
	if a.Asker == nil {
		return ErrUserDeclined
	}
	ok, err := a.Asker.Ask(fmt.Sprintf("%s already exists. Overwrite its contents? [y]/n", dir))
	if err != nil {
		return fmt.Errorf("ask to overwrite %s: %w", dir, err)
	}
	if !ok {
		return ErrUserDeclined
	}
	return nil
}

// keepFiles copies the input and the result into dst, replacing what is there.
func keepFiles(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clear %s: %w", dst, err)
	}
	if err := os.MkdirAll(dst, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	result, err := findResult(src)
	if err != nil {
		return err
	}
	for from, to := range map[string]string{
		filepath.Join(src, InputFile): filepath.Join(dst, InputFile),
		result:                        filepath.Join(dst, ResultFile),
	} {
		data, err := os.ReadFile(from)
		if err != nil {
			return fmt.Errorf("keep %s: %w", filepath.Base(from), err)
		}
		if err := os.WriteFile(to, data, 0o600); err != nil {
			return fmt.Errorf("keep %s: %w", filepath.Base(from), err)
		}
	}
	log.Debug(log.CatTool, "kept working files", "dir", dst)
	return nil
}
