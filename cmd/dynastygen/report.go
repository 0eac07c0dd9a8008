package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/engine"
)

// printReport writes the dynasty statistics table and its family tree.
func printReport(w io.Writer, d *engine.Dynasty, depth int) error {
	s := engine.Summarize(d)
	cfg := d.Config

	fmt.Fprintf(w, "Dynasty %s, founded by %s\n", d.Name(), s.Founder)
	fmt.Fprintf(w, "Run from %s to %s\n", calendar.Format(cfg.FounderBirthDay), calendar.Format(cfg.End))
	fmt.Fprintf(w, "Generations:    %s\n", humanize.Comma(int64(s.TotalGenerations)))
	fmt.Fprintf(w, "People:         %s (%s dynasty members)\n", humanize.Comma(int64(s.TotalPeople)), humanize.Comma(int64(s.TotalMembers)))
	fmt.Fprintf(w, "Living at end:  %s\n", humanize.Comma(int64(s.LivingAtEnd)))
	fmt.Fprintf(w, "Deaths:         %s\n", humanize.Comma(int64(s.Deaths)))
	fmt.Fprintf(w, "Young males:    %s (under %d at the end)\n", humanize.Comma(int64(s.YoungMales)), cfg.Tunables.PlayableAge)
	fmt.Fprintf(w, "Largest gap:    %d years between births in one generation\n\n", s.MaxBirthGap)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GENERATION\tSIZE\tMALES\tFEMALES\tSKIPPED\tAVG LIFE\tAVG BORN\tCHILDREN\tGAP\tYOUNG")
	for _, g := range s.Generations {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.1f\t%.0f\t%d\t%d\t%d\n",
			humanize.Ordinal(g.Generation), humanize.Comma(int64(g.Count)),
			g.Males, g.Females, g.Skipped, g.AvgLifespan, g.AvgBirthYear,
			g.TotalChildren, g.MaxBirthGap, g.YoungMales)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if depth <= 0 {
		return nil
	}
	fmt.Fprintln(w)
	return engine.WriteTree(w, d, depth)
}
