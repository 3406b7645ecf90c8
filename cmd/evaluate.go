package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tender-cli/internal/fetcher"
	"github.com/sells-group/tender-cli/internal/model"
	"github.com/sells-group/tender-cli/internal/pipeline"
	"github.com/sells-group/tender-cli/internal/report"
	"github.com/sells-group/tender-cli/internal/rubric"
)

const referenceDateLayout = "2006-01-02"

var (
	evalReferenceDate string
	evalRubricPath    string
	evalMarkdownPath  string
	evalHTMLPath      string
	evalXLSXPath      string
	evalOutPath       string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <archive.zip|url>...",
	Short: "Evaluate vendor bid archives and rank the vendors",
	Long:  "Each argument is one vendor's ZIP archive, given as a local path or an http(s)/ftp URL.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		refDate, err := parseReferenceDate(evalReferenceDate, time.Now())
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, evalRubricPath)
		if err != nil {
			return err
		}
		defer env.Close()

		tmpDir, err := os.MkdirTemp("", "tender-archives-*")
		if err != nil {
			return eris.Wrap(err, "evaluate: create temp dir")
		}
		defer os.RemoveAll(tmpDir) //nolint:errcheck

		inputs, err := resolveInputs(ctx, initFetcher(), args, tmpDir)
		if err != nil {
			return err
		}

		eval, err := env.Pipeline.Run(ctx, inputs, refDate)
		if err != nil {
			return eris.Wrap(err, "evaluate")
		}

		if err := writeReports(eval, env.Rubric, env.Report, reportPaths{
			Markdown: evalMarkdownPath,
			HTML:     evalHTMLPath,
			XLSX:     evalXLSXPath,
		}); err != nil {
			return err
		}

		out := io.Writer(os.Stdout)
		if evalOutPath != "" {
			f, err := os.Create(evalOutPath)
			if err != nil {
				return eris.Wrap(err, "evaluate: create output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		zap.L().Info("evaluation complete",
			zap.String("run_id", eval.RunID),
			zap.Int("vendors", len(eval.Reports)),
			zap.Int("warnings", len(eval.Warnings)),
			zap.Float64("cost", eval.Usage.Cost),
		)

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	},
}

// parseReferenceDate parses a YYYY-MM-DD date; empty means the date of now.
// The result is always midnight UTC.
func parseReferenceDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(referenceDateLayout, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "invalid reference date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// resolveInputs turns command arguments into pipeline inputs, downloading
// remote archives first. Each download gets its own subdirectory of dir so
// URLs sharing a base name do not overwrite each other.
func resolveInputs(ctx context.Context, f fetcher.Fetcher, args []string, dir string) ([]pipeline.ArchiveInput, error) {
	inputs := make([]pipeline.ArchiveInput, 0, len(args))
	for i, arg := range args {
		if !fetcher.IsRemote(arg) {
			inputs = append(inputs, pipeline.ArchiveInput{Path: arg})
			continue
		}
		sub := filepath.Join(dir, strconv.Itoa(i))
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return nil, eris.Wrap(err, "evaluate: create download dir")
		}
		path, err := fetcher.FetchArchive(ctx, f, arg, sub)
		if err != nil {
			return nil, eris.Wrapf(err, "evaluate: fetch %s", arg)
		}
		inputs = append(inputs, pipeline.ArchiveInput{Path: path})
	}
	return inputs, nil
}

type reportPaths struct {
	Markdown string
	HTML     string
	XLSX     string
}

// writeReports renders the evaluation to each requested path.
func writeReports(eval *model.Evaluation, rb rubric.Rubric, opts report.Options, paths reportPaths) error {
	if paths.Markdown == "" && paths.HTML == "" && paths.XLSX == "" {
		return nil
	}

	md := report.Markdown(eval, rb, opts)
	if paths.Markdown != "" {
		if err := os.WriteFile(paths.Markdown, []byte(md), 0o644); err != nil {
			return eris.Wrap(err, "evaluate: write markdown report")
		}
	}
	if paths.HTML != "" {
		html, err := report.HTML("Tender Evaluation Report", md)
		if err != nil {
			return err
		}
		if err := os.WriteFile(paths.HTML, []byte(html), 0o644); err != nil {
			return eris.Wrap(err, "evaluate: write html report")
		}
	}
	if paths.XLSX != "" {
		if err := report.WriteXLSX(paths.XLSX, eval, rb, opts); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	evaluateCmd.Flags().StringVar(&evalReferenceDate, "reference-date", "", "date certificate expiries are measured from, YYYY-MM-DD (default today)")
	evaluateCmd.Flags().StringVar(&evalRubricPath, "rubric", "", "rubric YAML file (default from config, else built-in)")
	evaluateCmd.Flags().StringVar(&evalMarkdownPath, "markdown", "", "write a Markdown report to this path")
	evaluateCmd.Flags().StringVar(&evalHTMLPath, "html", "", "write an HTML report to this path")
	evaluateCmd.Flags().StringVar(&evalXLSXPath, "xlsx", "", "write an XLSX workbook to this path")
	evaluateCmd.Flags().StringVarP(&evalOutPath, "out", "o", "", "write the evaluation JSON here instead of stdout")
	rootCmd.AddCommand(evaluateCmd)
}
