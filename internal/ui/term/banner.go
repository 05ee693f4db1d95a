package term

import (
	"fmt"
	"strings"
	"time"
)

// Contributor is credited in the version banner.
type Contributor struct {
	Name string
	URL  string
}

// Version describes one tool of the suite for `--version`.
type Version struct {
	Name         string
	Major        int
	Minor        int
	Maintainer   string
	Contributors []Contributor
	// Date is shown in the first line; the zero value prints today.
	Date time.Time
}

func (v Version) String() string {
	date := v.Date
	if date.IsZero() {
		date = time.Now()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d.%d (%s)\n\n", v.Name, v.Major, v.Minor, date.Format(time.DateOnly))
	b.WriteString("Public Domain Notice\n")
	b.WriteString("This is free software; see the source for detailed copying conditions.\n")
	b.WriteString("There is NO warranty; not even for MERCHANTABILITY or FITNESS FOR A\n")
	b.WriteString("PARTICULAR PURPOSE.\n")
	if v.Maintainer != "" {
		fmt.Fprintf(&b, "Questions/comments/concerns can be directed to %s\n", v.Maintainer)
	}
	if len(v.Contributors) > 0 {
		b.WriteString("\nContributors:\n")
		width := 0
		for _, c := range v.Contributors {
			width = max(width, len(c.Name))
		}
		for _, c := range v.Contributors {
			fmt.Fprintf(&b, "%-*s    %s\n", width, c.Name, c.URL)
		}
	}
	return b.String()
}

// Resources bundles what every command prints with. It is built once at
// startup and shared.
type Resources struct {
	Printer *Printer
	Version Version
}

// Colors returns a fresh colour cycle.
func (r *Resources) Colors() *Cycle { return &Cycle{} }
