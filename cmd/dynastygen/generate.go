package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/dynasty-gen/internal/config"
	"github.com/talgya/dynasty-gen/internal/engine"
	"github.com/talgya/dynasty-gen/internal/entropy"
	"github.com/talgya/dynasty-gen/internal/export"
	"github.com/talgya/dynasty-gen/internal/people"
	"github.com/talgya/dynasty-gen/internal/persistence"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a dynasty",
	Long: `Generate grows a dynasty from its founder until no member is left to have
children, prints its statistics and family tree, and optionally saves it to
the run database and writes GEDCOM and CK3 exports.

Founders born before --male-only-start follow the mainline strategy (a
single line of heirs); those born before --normal-start marry and keep only
their sons; everyone after keeps all children. Dates are CK3 style Y.M.D.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := config.Load(v)
		if err != nil {
			return err
		}
		return generate(cmd.OutOrStdout(), r)
	},
}

func init() {
	f := generateCmd.Flags()
	f.Int64("seed", 0, "random seed; identical seeds reproduce identical dynasties")
	f.String("preset", "", "mortality and fertility preset: generous, normal or realistic")
	f.Int("birth-year", 0, "founder birth year")
	f.String("dynasty", "", "dynasty name")
	f.String("culture", "", "culture: chinese, english, french or german")
	f.String("male-only-start", "", "date from which the male-only strategy applies")
	f.String("normal-start", "", "date from which the normal strategy applies")
	f.String("end", "", "end of the simulation")
	f.Int("max-generations", 0, "abort the run past this many generations")
	f.String("gedcom", "", "write a GEDCOM file to this path")
	f.String("ck3", "", "write a CK3 character history file to this path")
	f.String("religion", "", "CK3 religion (default catholic)")
	f.Bool("death-for-living", false, "give CK3 characters alive at the end a death the day after")
	f.String("names-dir", "", "directory of <culture>_names_male.txt and _female.txt files")
	f.Int("tree-depth", 0, "depth of the printed family tree")

	for key, flag := range map[string]string{
		"seed":                    "seed",
		"preset":                  "preset",
		"founder.birth_year":      "birth-year",
		"founder.dynasty":         "dynasty",
		"founder.culture":         "culture",
		"dates.male_only_start":   "male-only-start",
		"dates.normal_start":      "normal-start",
		"dates.end":               "end",
		"max_generations":         "max-generations",
		"output.gedcom":           "gedcom",
		"output.ck3":              "ck3",
		"output.religion":         "religion",
		"output.death_for_living": "death-for-living",
		"output.names_dir":        "names-dir",
		"output.tree_depth":       "tree-depth",
	} {
		v.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(generateCmd)
}

func generate(w io.Writer, r config.Run) error {
	cfg, err := r.Engine()
	if err != nil {
		return err
	}
	if r.Output.NamesDir != "" {
		names, err := people.NewNameBook(r.Output.NamesDir).Culture(r.Founder.Culture)
		if err != nil {
			return err
		}
		cfg.Names = names
	}

	start := time.Now()
	d, err := engine.Run(cfg, entropy.New(r.Seed))
	if err != nil {
		return fmt.Errorf("generate dynasty: %w", err)
	}
	slog.Debug("dynasty generated", "elapsed", time.Since(start))

	if err := printReport(w, d, r.Output.TreeDepth); err != nil {
		return err
	}

	if r.Output.DB != "" {
		db, err := persistence.Open(r.Output.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		id, err := db.SaveRun(d, r.Seed)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Fprintf(w, "\nSaved run %s to %s\n", id, r.Output.DB)
	}

	return writeExports(w, d, r)
}

func writeExports(w io.Writer, d *engine.Dynasty, r config.Run) error {
	culture := people.LookupCulture(r.Founder.Culture)
	if path := r.Output.GEDCOM; path != "" {
		err := export.WriteFile(path, func(out io.Writer) error {
			return export.WriteGEDCOM(out, d, export.GEDCOMOptions{Date: time.Now(), Culture: culture})
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote GEDCOM to %s\n", path)
	}
	if path := r.Output.CK3; path != "" {
		err := export.WriteFile(path, func(out io.Writer) error {
			return export.WriteCK3(out, d, export.CK3Options{
				Culture:        culture,
				Religion:       r.Output.Religion,
				DeathForLiving: r.Output.DeathForLiving,
			})
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote CK3 history to %s\n", path)
	}
	return nil
}
