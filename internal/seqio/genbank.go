package seqio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zjrosen/buddy/internal/format"
)

const (
	gbKeyWidth       = 12
	gbFeatureIndent  = 21
	gbOriginColumns  = 60
	gbDefaultDate    = "01-JAN-1980"
	emblLinePrefixes = 5
)

// readGenBank reads LOCUS ... // records. Only the header fields buddy uses
// (name, definition, accession, version, organism) and the feature table are
// kept; everything else is skipped.
func readGenBank(r io.Reader) ([]*Record, error) {
	lr := newLineReader(r)
	var (
		recs    []*Record
		cur     *Record
		lastKey string
		fb      featureBuilder
		seq     bytes.Buffer
	)
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "//") {
			if cur != nil {
				feats, err := fb.finish()
				if err != nil {
					return nil, &ParseError{Format: format.GenBank, Line: lr.line, Msg: err.Error()}
				}
				cur.Features = feats
				cur.Seq = bytes.ToUpper(seq.Bytes())
				recs = append(recs, cur)
			}
			cur, lastKey = nil, ""
			seq.Reset()
			continue
		}
		if strings.HasPrefix(line, "LOCUS") {
			fields := strings.Fields(line)
			name := ""
			if len(fields) > 1 {
				name = fields[1]
			}
			cur = &Record{ID: name, Annotations: map[string]string{}}
			fb = featureBuilder{}
			lastKey = "LOCUS"
			continue
		}
		if cur == nil {
			return nil, &ParseError{Format: format.GenBank, Line: lr.line, Msg: "expected LOCUS line"}
		}

		indented := line[0] == ' '
		if indented && lastKey == "FEATURES" {
			if err := fb.line(line, gbFeatureIndent); err != nil {
				return nil, &ParseError{Format: format.GenBank, Line: lr.line, Msg: err.Error()}
			}
			continue
		}
		if indented && lastKey == "ORIGIN" {
			seq.Write(originResidues(line))
			continue
		}
		key, value := gbSplit(line)
		if key == "" {
			// continuation of a header field
			switch lastKey {
			case "DEFINITION":
				cur.Description = strings.TrimSpace(cur.Description + " " + value)
			case "ORGANISM":
				cur.Annotations["taxonomy"] = strings.TrimSpace(cur.Annotations["taxonomy"] + " " + value)
			}
			continue
		}
		lastKey = key
		switch key {
		case "DEFINITION":
			cur.Description = value
		case "ACCESSION":
			cur.Annotations["accession"] = value
		case "VERSION":
			cur.Annotations["version"] = value
		case "SOURCE":
			cur.Annotations["source"] = value
		case "ORGANISM":
			cur.Annotations["organism"] = value
		}
	}
	if err := lr.err(); err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, &ParseError{Format: format.GenBank, Line: lr.line, Msg: "record " + cur.ID + " not terminated by '//'"}
	}
	for _, rec := range recs {
		rec.Description = strings.TrimSuffix(rec.Description, ".")
	}
	return recs, nil
}

// gbSplit splits a line into its left column keyword (may be indented, as
// ORGANISM is) and the value column.
func gbSplit(line string) (key, value string) {
	if len(line) <= gbKeyWidth {
		return strings.TrimSpace(line), ""
	}
	head := strings.TrimSpace(line[:gbKeyWidth])
	value = strings.TrimSpace(line[gbKeyWidth:])
	if head == "" {
		return "", value
	}
	return strings.Fields(head)[0], value
}

func originResidues(line string) []byte {
	out := make([]byte, 0, len(line))
	for i := 0; i < len(line); i++ {
		b := line[i]
		if isLetter(b) || b == '-' || b == '*' {
			out = append(out, b)
		}
	}
	return out
}

// featureBuilder accumulates feature table lines. Location and qualifier
// values may wrap over several lines.
type featureBuilder struct {
	feats    []Feature
	loc      strings.Builder
	inLoc    bool
	qualKey  string
	qualVal  strings.Builder
	hasQual  bool
	building bool
}

func (fb *featureBuilder) line(line string, indent int) error {
	if len(line) < indent {
		return nil
	}
	head := strings.TrimSpace(line[:indent])
	body := strings.TrimRight(line[indent:], " ")
	if head != "" {
		if err := fb.flush(); err != nil {
			return err
		}
		fb.building = true
		fb.feats = append(fb.feats, Feature{Type: head})
		fb.loc.Reset()
		fb.loc.WriteString(strings.TrimSpace(body))
		fb.inLoc = true
		return nil
	}
	if !fb.building {
		return nil
	}
	if strings.HasPrefix(body, "/") {
		fb.flushQualifier()
		if err := fb.flushLocation(); err != nil {
			return err
		}
		kv := body[1:]
		key, val, hasVal := strings.Cut(kv, "=")
		fb.qualKey = key
		fb.qualVal.Reset()
		if hasVal {
			fb.qualVal.WriteString(val)
		}
		fb.hasQual = true
		return nil
	}
	if fb.inLoc {
		fb.loc.WriteString(strings.TrimSpace(body))
		return nil
	}
	if fb.hasQual {
		if !strings.HasPrefix(fb.qualVal.String(), "\"") || fb.qualKey == "translation" {
			fb.qualVal.WriteString(strings.TrimSpace(body))
		} else {
			fb.qualVal.WriteString(" " + strings.TrimSpace(body))
		}
	}
	return nil
}

func (fb *featureBuilder) flushLocation() error {
	if !fb.inLoc {
		return nil
	}
	fb.inLoc = false
	loc, err := ParseLocation(fb.loc.String())
	if err != nil {
		return err
	}
	fb.feats[len(fb.feats)-1].Location = loc
	return nil
}

func (fb *featureBuilder) flushQualifier() {
	if !fb.hasQual {
		return
	}
	val := strings.Trim(fb.qualVal.String(), "\"")
	f := &fb.feats[len(fb.feats)-1]
	f.Qualifiers = append(f.Qualifiers, Qualifier{Key: fb.qualKey, Value: val})
	fb.hasQual = false
}

func (fb *featureBuilder) flush() error {
	if !fb.building {
		return nil
	}
	fb.flushQualifier()
	return fb.flushLocation()
}

func (fb *featureBuilder) finish() ([]Feature, error) {
	if err := fb.flush(); err != nil {
		return nil, err
	}
	return fb.feats, nil
}

// ParseLocation parses the INSDC location forms buddy writes: "n", "a..b",
// "complement(...)", "join(...)" and "order(...)". Partial markers '<' and '>'
// are accepted and dropped.
func ParseLocation(s string) (Location, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	strand := 1
	if inner, ok := unwrap(s, "complement"); ok {
		loc, err := ParseLocation(inner)
		if err != nil {
			return Location{}, err
		}
		loc.Strand = -loc.Strand
		return loc, nil
	}
	parts := []string{s}
	for _, fn := range []string{"join", "order"} {
		if inner, ok := unwrap(s, fn); ok {
			parts = splitTopLevel(inner)
			break
		}
	}
	var loc Location
	loc.Strand = strand
	for _, p := range parts {
		if inner, ok := unwrap(p, "complement"); ok {
			sub, err := ParseLocation(inner)
			if err != nil {
				return Location{}, err
			}
			loc.Parts = append(loc.Parts, sub.Parts...)
			loc.Strand = -1
			continue
		}
		span, err := parseSpan(p)
		if err != nil {
			return Location{}, err
		}
		loc.Parts = append(loc.Parts, span)
	}
	return loc, nil
}

func unwrap(s, fn string) (string, bool) {
	if strings.HasPrefix(s, fn+"(") && strings.HasSuffix(s, ")") {
		return s[len(fn)+1 : len(s)-1], true
	}
	return "", false
}

func splitTopLevel(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func parseSpan(s string) (Span, error) {
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	from, to, isRange := strings.Cut(s, "..")
	start, err := strconv.Atoi(from)
	if err != nil {
		return Span{}, fmt.Errorf("invalid location %q", s)
	}
	end := start
	if isRange {
		end, err = strconv.Atoi(to)
		if err != nil {
			return Span{}, fmt.Errorf("invalid location %q", s)
		}
	}
	if start < 1 || end < start {
		return Span{}, fmt.Errorf("invalid location %q", s)
	}
	return Span{Start: start - 1, End: end}, nil
}

// FormatLocation renders loc in INSDC notation.
func FormatLocation(loc Location) string {
	parts := make([]string, len(loc.Parts))
	for i, p := range loc.Parts {
		if p.End-p.Start == 1 {
			parts[i] = strconv.Itoa(p.Start + 1)
		} else {
			parts[i] = fmt.Sprintf("%d..%d", p.Start+1, p.End)
		}
	}
	s := strings.Join(parts, ",")
	if len(parts) > 1 {
		s = "join(" + s + ")"
	}
	if loc.Strand < 0 {
		s = "complement(" + s + ")"
	}
	return s
}

func moleculeType(r *Record) string {
	switch r.Alphabet {
	case Protein:
		return "aa"
	case RNA:
		return "RNA"
	}
	if r.Alphabet == AlphabetUnknown && GuessAlphabet(r.Seq) == Protein {
		return "aa"
	}
	return "DNA"
}

func writeGenBank(w *bufio.Writer, r *Record) error {
	p := &printer{w: w}
	mol := moleculeType(r)
	unit := "bp"
	if mol == "aa" {
		unit = "aa"
	}
	p.pf("LOCUS       %-16s %11d %s    %-6s  linear   UNK %s\n", r.ID, r.Len(), unit, mol, gbDefaultDate)
	desc := r.Description
	if desc == "" {
		desc = "."
	}
	p.pf("DEFINITION  %s\n", desc)
	p.pf("ACCESSION   %s\n", annotationOr(r, "accession", r.ID))
	p.pf("VERSION     %s\n", annotationOr(r, "version", r.ID))
	p.pf("KEYWORDS    .\n")
	p.pf("SOURCE      %s\n", annotationOr(r, "source", "."))
	p.pf("  ORGANISM  %s\n", annotationOr(r, "organism", "."))
	if t := r.Annotations["taxonomy"]; t != "" {
		p.pf("            %s\n", t)
	}
	p.pf("FEATURES             Location/Qualifiers\n")
	writeFeatures(p, r.Features, "     ", strings.Repeat(" ", gbFeatureIndent))
	p.pf("ORIGIN\n")
	lower := bytes.ToLower(r.Seq)
	for start := 0; start < len(lower); start += gbOriginColumns {
		p.pf("%9d %s\n", start+1, grouped(lower, start, start+gbOriginColumns))
	}
	p.pf("//\n")
	return p.err
}

func writeFeatures(p *printer, feats []Feature, keyPrefix, qualPrefix string) {
	for _, f := range feats {
		p.pf("%s%-16s%s\n", keyPrefix, f.Type, FormatLocation(f.Location))
		for _, q := range f.Qualifiers {
			if q.Value == "" {
				p.pf("%s/%s\n", qualPrefix, q.Key)
				continue
			}
			if _, err := strconv.Atoi(q.Value); err == nil {
				p.pf("%s/%s=%s\n", qualPrefix, q.Key, q.Value)
				continue
			}
			p.pf("%s/%s=\"%s\"\n", qualPrefix, q.Key, q.Value)
		}
	}
}

func annotationOr(r *Record, key, fallback string) string {
	if v := r.Annotations[key]; v != "" {
		return v
	}
	return fallback
}

// readEMBL reads ID ... // records with DE, AC, OS and FT lines.
func readEMBL(r io.Reader) ([]*Record, error) {
	lr := newLineReader(r)
	var (
		recs  []*Record
		cur   *Record
		fb    featureBuilder
		seq   bytes.Buffer
		inSeq bool
	)
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "//") {
			if cur != nil {
				feats, err := fb.finish()
				if err != nil {
					return nil, &ParseError{Format: format.EMBL, Line: lr.line, Msg: err.Error()}
				}
				cur.Features = feats
				cur.Seq = bytes.ToUpper(seq.Bytes())
				recs = append(recs, cur)
			}
			cur, inSeq = nil, false
			seq.Reset()
			continue
		}
		if inSeq {
			seq.Write(originResidues(line))
			continue
		}
		code := strings.TrimSpace(line[:min(2, len(line))])
		value := ""
		if len(line) > emblLinePrefixes {
			value = strings.TrimSpace(line[emblLinePrefixes:])
		}
		if code == "ID" {
			id, _, _ := strings.Cut(value, ";")
			cur = &Record{ID: strings.TrimSpace(id), Annotations: map[string]string{}}
			fb = featureBuilder{}
			continue
		}
		if cur == nil {
			return nil, &ParseError{Format: format.EMBL, Line: lr.line, Msg: "expected ID line"}
		}
		switch code {
		case "DE":
			cur.Description = strings.TrimSpace(cur.Description + " " + value)
		case "AC":
			cur.Annotations["accession"] = strings.TrimSuffix(value, ";")
		case "OS":
			cur.Annotations["organism"] = value
		case "FT":
			if err := fb.line("  "+line[2:], gbFeatureIndent); err != nil {
				return nil, &ParseError{Format: format.EMBL, Line: lr.line, Msg: err.Error()}
			}
		case "SQ":
			inSeq = true
		}
	}
	if err := lr.err(); err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, &ParseError{Format: format.EMBL, Line: lr.line, Msg: "record " + cur.ID + " not terminated by '//'"}
	}
	for _, rec := range recs {
		rec.Description = strings.TrimSuffix(rec.Description, ".")
	}
	return recs, nil
}

func writeEMBL(w *bufio.Writer, r *Record) error {
	p := &printer{w: w}
	mol := moleculeType(r)
	unit := "BP"
	if mol == "aa" {
		mol, unit = "PROTEIN", "AA"
	}
	p.pf("ID   %s; SV 1; linear; %s; STD; UNC; %d %s.\n", r.ID, mol, r.Len(), unit)
	p.pf("XX\n")
	p.pf("AC   %s;\n", annotationOr(r, "accession", r.ID))
	p.pf("XX\n")
	if r.Description != "" {
		p.pf("DE   %s\n", r.Description)
		p.pf("XX\n")
	}
	if org := r.Annotations["organism"]; org != "" {
		p.pf("OS   %s\n", org)
		p.pf("XX\n")
	}
	if len(r.Features) > 0 {
		p.pf("FH   Key             Location/Qualifiers\n")
		writeFeatures(p, r.Features, "FT   ", "FT"+strings.Repeat(" ", gbFeatureIndent-2))
		p.pf("XX\n")
	}
	p.pf("SQ   Sequence %d %s;\n", r.Len(), unit)
	lower := bytes.ToLower(r.Seq)
	for start := 0; start < len(lower); start += gbOriginColumns {
		end := min(start+gbOriginColumns, len(lower))
		p.pf("     %-66s%d\n", grouped(lower, start, end), end)
	}
	p.pf("//\n")
	return p.err
}
