package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/bluegrass-news/kygeo"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var gazetteerCmd = &cobra.Command{
	Use:   "gazetteer",
	Short: "Inspect, validate and convert gazetteers",
}

var gazetteerValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a gazetteer YAML file (default: the embedded one)",
	Long: `Validate loads a gazetteer and reports every integrity problem at once:
unknown counties referenced by cities, duplicate names, noise names that are
not cities and ambiguous names that are not counties. It then runs a few
known detections against it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []kygeo.Option
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open gazetteer: %w", err)
			}
			defer func() { _ = f.Close() }()
			src, err := kygeo.LoadSource(f)
			if err != nil {
				return err
			}
			if err := reportProblems(cmd, src.Validate()); err != nil {
				return err
			}
			opts = append(opts, kygeo.WithSource(src))
		}
		if err := kygeo.ValidateGazetteer(cmd.OutOrStdout(), opts...); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Gazetteer is valid")
		return nil
	},
}

var gazetteerConvertCmd = &cobra.Command{
	Use:   "convert <markdown> [output]",
	Short: "Convert the markdown gazetteer document to YAML",
	Long: `Convert parses the markdown gazetteer document ("## <Name> County"
headings with city bullets) and writes canonical YAML to output, or to
stdout when output is omitted. Nothing is written unless the result
validates.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			return kygeo.RegenerateGazetteer(args[0], args[1])
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open markdown: %w", err)
		}
		defer func() { _ = f.Close() }()

		src, err := kygeo.ParseMarkdown(f)
		if err != nil {
			return err
		}
		if err := reportProblems(cmd, src.Validate()); err != nil {
			return err
		}
		return src.WriteYAML(cmd.OutOrStdout())
	},
}

var countyCmd = &cobra.Command{
	Use:   "county <name>",
	Short: "Look up a county and list its cities",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		county, err := e.gazetteer.LookupCountyE(strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ambiguous := ""
		if e.gazetteer.IsAmbiguous(county) {
			ambiguous = " (ambiguous: needs Kentucky context)"
		}
		fmt.Fprintf(out, "%s County%s\n", county, ambiguous)
		for _, c := range e.gazetteer.CitiesInCounty(county) {
			note := ""
			if len(c.Counties) > 1 {
				note = " [" + strings.Join(c.Counties, ", ") + "]"
			}
			if e.gazetteer.IsNoise(c.Name) {
				note += " (noise)"
			}
			fmt.Fprintf(out, "  %s%s\n", c.DisplayName(), note)
		}
		return nil
	},
}

// reportProblems prints each validation error on its own line.
func reportProblems(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	problems := multierr.Errors(err)
	for _, p := range problems {
		fmt.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", p)
	}
	return fmt.Errorf("gazetteer has %d problem(s)", len(problems))
}

func init() {
	rootCmd.AddCommand(gazetteerCmd)
	rootCmd.AddCommand(countyCmd)
	gazetteerCmd.AddCommand(gazetteerValidateCmd)
	gazetteerCmd.AddCommand(gazetteerConvertCmd)
}
