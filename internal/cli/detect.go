package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bluegrass-news/kygeo"
	"github.com/bluegrass-news/kygeo/internal/article"
	"github.com/spf13/cobra"
)

var (
	detectHeadline string
	detectBody     string
	detectFile     string
	detectExplain  bool
	detectFormat   string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect Kentucky counties and cities in one article",
	Long: `Detect reads one article and prints its detection result.

The article comes from --headline/--body, from --file (plain text or HTML),
or from stdin. For plain text the first line is the headline.

Example:
  kygeo detect --headline "Flooding closes roads" --body "Knox and Laurel counties..."
  kygeo detect --file story.html --explain
  curl -s https://example.com/story | kygeo detect`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVar(&detectHeadline, "headline", "", "article headline")
	detectCmd.Flags().StringVar(&detectBody, "body", "", "article body")
	detectCmd.Flags().StringVarP(&detectFile, "file", "f", "", "read the article from a text or HTML file")
	detectCmd.Flags().BoolVar(&detectExplain, "explain", false, "include county mentions and the city span")
	detectCmd.Flags().StringVarP(&detectFormat, "output", "o", "json", "output format (json, text)")
}

func runDetect(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	a, err := readDetectInput(cmd.InOrStdin())
	if err != nil {
		return err
	}

	exp := e.gazetteer.Explain(a.Headline, a.Body)
	e.log.Debug().Strs("counties", exp.Counties).Str("city", exp.City).Bool("kentucky", exp.KentuckyContext).Msg("detected")

	out := cmd.OutOrStdout()
	switch detectFormat {
	case "text":
		return writeExplanationText(out, e.gazetteer, exp, detectExplain)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if detectExplain {
			return enc.Encode(exp)
		}
		return enc.Encode(exp.Result)
	default:
		return fmt.Errorf("unknown output format %q", detectFormat)
	}
}

func readDetectInput(stdin io.Reader) (article.Article, error) {
	switch {
	case detectFile != "":
		data, err := os.ReadFile(detectFile)
		if err != nil {
			return article.Article{}, fmt.Errorf("read article: %w", err)
		}
		return article.Load(detectFile, data)
	case detectHeadline != "" || detectBody != "":
		return article.Article{Headline: detectHeadline, Body: detectBody}, nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return article.Article{}, fmt.Errorf("read stdin: %w", err)
		}
		return article.Load("stdin", data)
	}
}

func writeExplanationText(w io.Writer, g *kygeo.Gazetteer, exp kygeo.Explanation, explain bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Tag:       %s\n", exp.PrimaryTag())
	fmt.Fprintf(&b, "Kentucky:  %v\n", exp.KentuckyContext)
	if len(exp.Counties) > 0 {
		fmt.Fprintf(&b, "Counties:  %s\n", strings.Join(exp.Counties, ", "))
	} else {
		fmt.Fprintf(&b, "Counties:  (none)\n")
	}
	if c, ok := g.City(exp.City); ok && exp.City != "" {
		fmt.Fprintf(&b, "City:      %s (%s)\n", c.DisplayName(), strings.Join(c.Counties, ", "))
	} else {
		fmt.Fprintf(&b, "City:      (none)\n")
	}
	if explain {
		for _, m := range exp.Mentions {
			fmt.Fprintf(&b, "  %-10s %-30s %q\n", m.Kind, strings.Join(m.Counties, ", "), exp.Text[m.Span.Start:m.Span.End])
		}
		if exp.CitySpan != nil {
			fmt.Fprintf(&b, "  %-10s %-30s %q\n", "city", exp.City, exp.Text[exp.CitySpan.Start:exp.CitySpan.End])
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
