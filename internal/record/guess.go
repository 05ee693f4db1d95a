package record

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/zjrosen/buddy/internal/log"
)

// guessRule maps an accession pattern onto a database and identifier type.
// Rules are tried in order and the first match wins.
type guessRule struct {
	name    string
	pattern *regexp.Regexp
	db      Database
	typ     Type
}

var versionSuffix = regexp.MustCompile(`^(.+)\.([0-9]+)$`)

var guessRules = []guessRule{
	{"refseq nucleotide", regexp.MustCompile(`^(N[CGTWZMR]|X[MR]|XC)_[0-9]+$`), NCBINuc, Nucleotide},
	{"refseq/genbank protein", regexp.MustCompile(`^[NXYAW]P_[0-9]+$|^[A-Z]{3}[0-9]{5}$`), NCBIProt, Protein},
	{"uniprot", regexp.MustCompile(`^[OPQ][0-9][A-Z0-9]{3}[0-9]$|^[A-NR-Z][0-9]([A-Z][A-Z0-9]{2}[0-9]){1,2}$`), UniProt, Protein},
	{"ensembl", regexp.MustCompile(`^ENS[A-Z]*[EGTPR][0-9]{11}$|^FB[a-z]{2}[0-9]{7}$`), Ensembl, Nucleotide},
	{"gi", regexp.MustCompile(`^[0-9]+$`), NCBINuc, GINum},
	{"pdb", regexp.MustCompile(`^[0-9][A-Z0-9]{3}(_[A-Z0-9]+)?$`), NCBIProt, Protein},
	{"genbank nucleotide", regexp.MustCompile(`^[A-Z][0-9]{5}$|^[A-Z]{2}[0-9]{6}$`), NCBINuc, Nucleotide},
	{"wgs genome", regexp.MustCompile(`^[A-Z]{4}[0-9]{8,10}$`), NCBINuc, Nucleotide},
	{"mga", regexp.MustCompile(`^[A-Z]{5}[0-9]{7}$`), NCBIProt, Protein},
}

// GuessDatabase assigns Database and Type from the accession pattern and
// splits a trailing ".N" into Version. It returns whether a rule matched.
// Records that already carry both a database and a type are left alone
// unless force is set; guessing twice changes nothing.
func (r *Record) GuessDatabase(force bool) bool {
	if !force && r.Database != "" && r.Type != "" {
		return true
	}
	accn := r.accession
	version := ""
	if m := versionSuffix.FindStringSubmatch(accn); m != nil {
		accn, version = m[1], m[2]
	}
	for _, rule := range guessRules {
		if !rule.pattern.MatchString(accn) {
			continue
		}
		r.accession = accn
		if version != "" {
			r.Version = &version
		}
		if force || r.Database == "" {
			r.Database = rule.db
		}
		if force || r.Type == "" {
			r.Type = rule.typ
		}
		if rule.typ == GINum {
			gi := accn
			r.GI = &gi
		}
		log.Debug(log.CatRecords, "guessed database", "accession", accn, "rule", rule.name, "database", rule.db)
		return true
	}
	return false
}

// Guess returns the database and type an accession would be assigned
// without creating a record.
func Guess(accn string) (Database, Type, bool) {
	r := New(accn)
	ok := r.GuessDatabase(true)
	return r.Database, r.Type, ok
}

var typeSynonyms = map[Type][]string{
	Protein:    {"p", "pr", "prt", "prtn", "prn", "prot", "protn", "protien", "protein"},
	Nucleotide: {"n", "ncl", "nuc", "dna", "nt", "gene", "transcript", "nucleotide"},
	GINum:      {"g", "gi", "gn", "gin", "gi_num", "ginum", "gi_number"},
}

// CheckType resolves a user supplied identifier type. Unknown names fall back
// to protein with a warning; an empty name stays empty.
func CheckType(name string) (Type, string) {
	if strings.TrimSpace(name) == "" {
		return "", ""
	}
	key := strings.ToLower(strings.TrimSpace(name))
	for _, t := range []Type{Protein, Nucleotide, GINum} {
		if slices.Contains(typeSynonyms[t], key) {
			return t, ""
		}
	}
	warning := fmt.Sprintf("Warning: '%s' is not a valid choice for '_type'. Setting to default 'protein'.", name)
	log.Warn(log.CatRecords, "invalid type", "type", name)
	return Protein, warning
}

// CheckDatabase resolves user supplied database names. Invalid names are
// omitted with a warning; "all" or no valid name selects every database.
func CheckDatabase(names ...string) ([]Database, []string) {
	var (
		out      []Database
		warnings []string
	)
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "all" {
			return Databases(), warnings
		}
		db := Database(key)
		if !slices.Contains(Databases(), db) {
			warnings = append(warnings, fmt.Sprintf("Warning: '%s' is not a valid database choice, omitted.", key))
			log.Warn(log.CatRecords, "invalid database", "database", key)
			continue
		}
		if !slices.Contains(out, db) {
			out = append(out, db)
		}
	}
	if len(out) == 0 {
		warnings = append(warnings, "Warning: No valid database choice provided. Setting to default 'all'.")
		return Databases(), warnings
	}
	return out, warnings
}
