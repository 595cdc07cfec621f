package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/koconnect/koconnect/internal/diff"
	"github.com/koconnect/koconnect/internal/domain"
	"github.com/koconnect/koconnect/internal/handler"
	"github.com/koconnect/koconnect/internal/history"
	"github.com/koconnect/koconnect/internal/pipeline"
	"github.com/koconnect/koconnect/internal/router"
	"github.com/koconnect/koconnect/internal/style"
)

var (
	fromLang   string
	toLang     string
	styleName  string
	alignedOpt bool
)

// translateCmd translates text, optionally restyling Korean output
var translateCmd = &cobra.Command{
	Use:   "translate [TEXT|-]",
	Short: "Translate text between Korean and a supported language",
	Long: `Translate text. Pass "-" or nothing to read from stdin.

Languages accept English names (Korean, English, ...), Korean labels
(한국어, 영어, ...) and "auto" for the source. --style is applied only
when the target is Korean.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranslate,
}

// styleCmd rewrites Korean text in a style
var styleCmd = &cobra.Command{
	Use:   "style [TEXT|-]",
	Short: "Rewrite Korean text in a given style",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStyle,
}

// ocrCmd extracts text from an image file
var ocrCmd = &cobra.Command{
	Use:   "ocr FILE",
	Short: "Extract text from an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runOCR,
}

// diffCmd lists changed words between two texts
var diffCmd = &cobra.Command{
	Use:   "diff ORIGINAL TRANSFORMED",
	Short: "Show word-level changes between two texts",
	Long: `Compare two texts word by word at equal positions. An inserted word
shifts every following position; use --aligned for an insertion-aware diff.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	Args:  cobra.NoArgs,
	RunE:  runLanguages,
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List supported styles",
	Args:  cobra.NoArgs,
	RunE:  runStyles,
}

func init() {
	translateCmd.Flags().StringVarP(&fromLang, "from", "f", "auto", "Source language")
	translateCmd.Flags().StringVarP(&toLang, "to", "t", "Korean", "Target language")
	translateCmd.Flags().StringVarP(&styleName, "style", "s", "", "Style for Korean output")

	styleCmd.Flags().StringVarP(&styleName, "style", "s", "", "Style name")
	_ = styleCmd.MarkFlagRequired("style")

	diffCmd.Flags().BoolVar(&alignedOpt, "aligned", false, "Use insertion-aware alignment")
}

// readInput returns args[0], or stdin when it is absent or "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Pipeline.Process(ctx, history.NewStore(), pipeline.Input{
		Text: text, Source: fromLang, Target: toLang, Style: styleName,
	})
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, res)
	}

	out := cmd.OutOrStdout()
	if res.Detected {
		fmt.Fprintf(out, "(detected %s)\n", router.Label(res.Source))
	}
	fmt.Fprintln(out, res.Output)
	if res.AppliedStyle != "" && len(res.ChangedWords) > 0 {
		fmt.Fprintf(out, "\nchanged: %s\n", strings.Join(res.ChangedWords, ", "))
	}
	return nil
}

func runStyle(cmd *cobra.Command, args []string) error {
	if _, err := style.Parse(styleName); err != nil {
		return err
	}
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out, s, err := a.Styler.Transform(ctx, text, styleName)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, map[string]interface{}{"style": s, "text": out})
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runOCR(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	text, err := a.Extractor.Extract(ctx, args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, map[string]interface{}{"text": text, "noTextFound": text == ""})
	}
	if text == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "no text found")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	var changes []domain.ChangeEntry
	if alignedOpt {
		changes = diff.Aligned(args[0], args[1])
	} else {
		changes = diff.Compare(args[0], args[1])
	}
	if jsonOutput {
		return printJSON(cmd, changes)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACTION\tWORD\tCOUNTERPART")
	for _, c := range changes {
		counterpart := "-"
		if c.Counterpart != nil {
			counterpart = *c.Counterpart
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Action, c.Word, counterpart)
	}
	return w.Flush()
}

func runLanguages(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	langs := a.Router.SupportedLanguages()
	if jsonOutput {
		out := make([]handler.Language, len(langs))
		for i, l := range langs {
			out[i] = handler.Language{Name: l, Label: router.Label(l)}
		}
		return printJSON(cmd, out)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, l := range langs {
		fmt.Fprintf(w, "%s\t%s\n", l, router.Label(l))
	}
	return w.Flush()
}

func runStyles(cmd *cobra.Command, _ []string) error {
	if jsonOutput {
		return printJSON(cmd, style.Definitions)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, d := range style.Definitions {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Key, d.Name, d.KoreanLabel)
	}
	return w.Flush()
}
