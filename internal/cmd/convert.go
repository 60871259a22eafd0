package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/dnslog/internal/aggregator"
	"github.com/atikulmunna/dnslog/internal/converter"
	"github.com/atikulmunna/dnslog/internal/model"
	"github.com/atikulmunna/dnslog/internal/output"
	"github.com/atikulmunna/dnslog/internal/parser"
)

var (
	viewName   string
	saveOutput bool
	savePath   string
	copyOutput bool
	chartMode  string
)

var convertCmd = &cobra.Command{
	Use:   "convert [paths...]",
	Short: "Convert DNS change log lines into sentences",
	Long: `Read DNS change log lines from files (or glob patterns) and print one
sentence per recognised ADD/DEL entry. Reads stdin when no paths are given.
Unrecognised lines are skipped; the processed count goes to stderr.

Examples:
  dnslog convert changes.log
  dnslog convert "logs/**/*.log" --view hide-deleted --chart hour
  cat changes.log | dnslog convert --save --copy`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	flags := convertCmd.Flags()
	flags.StringVar(&viewName, "view", "all", "records to show: all, hide-added, hide-deleted")
	flags.BoolVar(&saveOutput, "save", false, "save sentences to logs_<domain>_<date>.txt")
	flags.StringVar(&savePath, "save-as", "", "save sentences to this file instead")
	flags.BoolVar(&copyOutput, "copy", false, "copy sentences to the clipboard")
	flags.StringVar(&chartMode, "chart", "", "print an activity chart to stderr: hour, day")
}

func runConvert(cmd *cobra.Command, args []string) error {
	view, err := converter.ParseView(viewName)
	if err != nil {
		return err
	}

	input, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	themes, err := openThemeStore()
	if err != nil {
		return err
	}
	palette := output.PaletteFor(themes.Theme())

	renderer, err := output.New(viper.GetString("output"), cmd.OutOrStdout(), palette)
	if err != nil {
		return err
	}

	formatter := parser.NewFormatter()
	if viper.GetBool("verbose") {
		reportSkipped(formatter, input)
	}

	conv := converter.New(formatter, aggregator.New())
	res := conv.Process(input)
	fmt.Fprintln(cmd.ErrOrStderr(), res.Stats())

	// The full view repeats the processed count; only filtered views report their own.
	p := &cliPresenter{renderer: renderer, stats: cmd.ErrOrStderr()}
	if view == converter.ViewAll {
		p.stats = io.Discard
	}
	if err := conv.Present(p, view); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if chartMode != "" {
		if err := printChart(cmd.ErrOrStderr(), conv.Activity(), chartMode, palette); err != nil {
			return err
		}
	}

	if saveOutput || savePath != "" {
		if err := saveResults(conv, savePath); err != nil {
			return err
		}
	}

	if copyOutput {
		if err := copyResults(conv); err != nil {
			return err
		}
	}

	return nil
}

// readInput concatenates the files matched by patterns, or reads r when
// there are none.
func readInput(r io.Reader, patterns []string) (string, error) {
	if len(patterns) == 0 {
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}

	var paths []string
	for _, pattern := range patterns {
		matches, err := expandGlob(pattern)
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("no files matched the given patterns: %v", patterns)
	}

	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", p, err)
		}
		parts = append(parts, strings.TrimRight(string(b), "\n"))
	}
	return strings.Join(parts, "\n"), nil
}

// expandGlob resolves a glob pattern to matching file paths.
// Supports recursive patterns like logs/**/*.log via doublestar.
func expandGlob(pattern string) ([]string, error) {
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}

// reportSkipped logs the reason every non-blank line is dropped.
func reportSkipped(f *parser.Formatter, input string) {
	for i, line := range strings.Split(strings.TrimSpace(input), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, err := f.Parse(line); err != nil {
			log.Printf("line %d skipped: %v", i+1, err)
		}
	}
}

func printChart(w io.Writer, act *aggregator.Activity, mode string, palette output.Palette) error {
	period := aggregator.Period(strings.ToLower(mode))
	if period != aggregator.PeriodHour && period != aggregator.PeriodDay {
		return fmt.Errorf("unknown chart period %q (want hour or day)", mode)
	}
	act.SetPeriod(period)
	fmt.Fprintln(w)
	return output.RenderChart(w, act.Series(), act.Snapshot(), palette, output.DefaultBarWidth)
}

func saveResults(conv *converter.Converter, path string) error {
	records := conv.Results()
	if len(records) == 0 {
		return fmt.Errorf("нет данных для сохранения")
	}
	if path == "" {
		path = filepath.Join(".", conv.SuggestedFilename(time.Now()))
	}
	if err := os.WriteFile(path, []byte(output.Export(records)+"\n"), 0644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "saved %d record(s) to %s\n", len(records), path)
	return nil
}

func copyResults(conv *converter.Converter) error {
	records := conv.Results()
	if len(records) == 0 {
		return fmt.Errorf("нет данных для копирования")
	}
	if err := clipboard.WriteAll(output.Export(records)); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	fmt.Fprintln(os.Stderr, "скопировано в буфер обмена")
	return nil
}

// cliPresenter sends records to a renderer and stats to stderr.
type cliPresenter struct {
	renderer output.Renderer
	stats    io.Writer
}

func (p *cliPresenter) ShowRecords(records []model.Record) error {
	for _, rec := range records {
		if err := p.renderer.Render(rec); err != nil {
			return err
		}
	}
	return nil
}

func (p *cliPresenter) ShowStats(text string) {
	fmt.Fprintln(p.stats, text)
}
