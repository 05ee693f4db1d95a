package dbbuddy

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/format"
	"github.com/zjrosen/buddy/internal/record"
	"github.com/zjrosen/buddy/internal/seqio"
)

const (
	summaryCellWidth = 40
	failureWrap      = 80
)

// Write renders a partition in d.OutFormat.
func (d *DbBuddy) Write(w io.Writer, part format.Partition) error {
	if part == format.PartitionSearch {
		bw := bufio.NewWriter(w)
		for _, t := range d.SearchTerms {
			fmt.Fprintln(bw, t)
		}
		return bw.Flush()
	}
	store, err := d.Partition(part)
	if err != nil {
		return err
	}
	recs := store.Values()

	switch d.OutFormat {
	case "ids", "accessions":
		bw := bufio.NewWriter(w)
		for _, rec := range recs {
			fmt.Fprintln(bw, rec.NCBIAccession())
		}
		return bw.Flush()
	case "summary":
		return writeTable(w, recs, summaryCellWidth, "  ")
	case "full-summary":
		return writeTable(w, recs, 0, "  ")
	case "tab":
		return writeTable(w, recs, 0, "\t")
	case "qual":
		payloads, err := payloadsOf(recs)
		if err != nil {
			return err
		}
		return writeQual(w, payloads)
	}

	f, err := sequenceFormat(d.OutFormat)
	if err != nil {
		return err
	}
	payloads, err := payloadsOf(recs)
	if err != nil {
		return err
	}
	return seqio.Write(w, []seqio.Alignment{payloads}, f)
}

// String renders the records partition.
func (d *DbBuddy) String() string {
	var b strings.Builder
	if err := d.Write(&b, format.PartitionRecords); err != nil {
		return "Error: " + err.Error() + "\n"
	}
	return b.String()
}

func sequenceFormat(name string) (format.Format, error) {
	switch name {
	case "fastq-sanger", "fastq-illumina":
		return format.FASTQ, nil
	case "fastq-solexa", "imgt", "phd", "seqxml", "sff":
		return "", buddyerr.Valuef("Output type '%s' cannot be written by this build", name)
	}
	return format.Canonicalize(name)
}

func payloadsOf(recs []*record.Record) (seqio.Alignment, error) {
	var (
		out     seqio.Alignment
		missing []string
	)
	for _, rec := range recs {
		if rec.Payload == nil {
			missing = append(missing, rec.NCBIAccession())
			continue
		}
		out = append(out, rec.Payload)
	}
	if len(missing) > 0 {
		return nil, buddyerr.Valuef("Sequence records have not been downloaded for: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// tableColumns returns the pseudo columns followed by the union of summary
// keys in first-seen order.
func tableColumns(recs []*record.Record) []string {
	cols := []string{"ACCN", "DB", "Type"}
	for _, rec := range recs {
		for _, k := range rec.Summary.Keys() {
			if slices.ContainsFunc(cols, func(c string) bool { return strings.EqualFold(c, k) }) {
				continue
			}
			cols = append(cols, k)
		}
	}
	return cols
}

func tableRow(rec *record.Record, cols []string) []string {
	row := make([]string, len(cols))
	row[0] = rec.NCBIAccession()
	row[1] = string(rec.Database)
	row[2] = string(rec.Type)
	for i := 3; i < len(cols); i++ {
		row[i], _ = rec.Summary.Get(cols[i])
	}
	return row
}

// writeTable writes a header and one row per record. With a space separator
// cells are padded to the column's display width; maxCell > 0 truncates.
func writeTable(w io.Writer, recs []*record.Record, maxCell int, sep string) error {
	if len(recs) == 0 {
		return nil
	}
	cols := tableColumns(recs)
	rows := [][]string{cols}
	for _, rec := range recs {
		rows = append(rows, tableRow(rec, cols))
	}
	if maxCell > 0 {
		for _, row := range rows {
			for i, cell := range row {
				row[i] = truncate.StringWithTail(cell, uint(maxCell), "...")
			}
		}
	}

	pad := sep != "\t"
	widths := make([]int, len(cols))
	if pad {
		for _, row := range rows {
			for i, cell := range row {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	bw := bufio.NewWriter(w)
	for _, row := range rows {
		cells := row
		if pad {
			cells = make([]string, len(row))
			for i, cell := range row {
				cells[i] = runewidth.FillRight(cell, widths[i])
			}
		}
		line := strings.Join(cells, sep)
		if pad {
			line = strings.TrimRight(line, " ")
		}
		fmt.Fprintln(bw, line)
	}
	return bw.Flush()
}

func writeQual(w io.Writer, recs seqio.Alignment) error {
	bw := bufio.NewWriter(w)
	for _, rec := range recs {
		fmt.Fprintf(bw, ">%s\n", rec.ID)
		scores := make([]string, len(rec.Quality))
		for i, q := range rec.Quality {
			scores[i] = strconv.Itoa(q)
		}
		fmt.Fprintln(bw, strings.Join(scores, " "))
	}
	return bw.Flush()
}

// WriteFailures lists every recorded failure, sorted by query, with the
// error message wrapped and indented beneath it.
func (d *DbBuddy) WriteFailures(w io.Writer) error {
	failures := make([]record.Failure, 0, len(d.Failures))
	for _, f := range d.Failures {
		failures = append(failures, f)
	}
	sort.Slice(failures, func(i, j int) bool {
		if failures[i].Query != failures[j].Query {
			return failures[i].Query < failures[j].Query
		}
		return failures[i].Hash < failures[j].Hash
	})

	bw := bufio.NewWriter(w)
	for _, f := range failures {
		fmt.Fprintln(bw, f.Query)
		fmt.Fprintln(bw, indent.String(wordwrap.String(f.ErrorMsg, failureWrap-4), 4))
	}
	return bw.Flush()
}
