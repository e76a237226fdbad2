package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ats-checker/internal/analyses"
	"ats-checker/internal/bootstrap"
	"ats-checker/internal/documents"
	"ats-checker/internal/llm"
	"ats-checker/internal/session"
	"ats-checker/internal/shared/telemetry"
)

type checkOptions struct {
	File              string
	JobTitle          string
	JobDescriptionRef string
	Yes               bool
}

// confirmFunc asks the user whether to continue with the analysis.
type confirmFunc func() (bool, error)

// commandError carries the user-facing message while keeping the cause
// available to errors.Is.
type commandError struct {
	msg string
	err error
}

func (e *commandError) Error() string { return e.msg }
func (e *commandError) Unwrap() error { return e.err }

var errCancelled = errors.New("analysis cancelled")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Extract a CV and score it against a job title",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := checkOptions{
			File:              viper.GetString("file"),
			JobTitle:          viper.GetString("job-title"),
			JobDescriptionRef: viper.GetString("jd-ref"),
			Yes:               viper.GetBool("yes"),
		}
		return check(cmd, opts)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("file", "f", "", "path to the CV (PDF, DOCX or DOC)")
	checkCmd.Flags().StringP("job-title", "t", "", "job title to score the CV against")
	checkCmd.Flags().String("jd-ref", "", "optional job description reference")
	checkCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before analysis")
	checkCmd.Flags().String("provider", "", "llm provider: gemini or openai")
	checkCmd.Flags().String("model", "", "llm model name")

	viper.BindPFlag("file", checkCmd.Flags().Lookup("file"))
	viper.BindPFlag("job-title", checkCmd.Flags().Lookup("job-title"))
	viper.BindPFlag("jd-ref", checkCmd.Flags().Lookup("jd-ref"))
	viper.BindPFlag("yes", checkCmd.Flags().Lookup("yes"))
	viper.BindPFlag("llm.provider", checkCmd.Flags().Lookup("provider"))
	viper.BindPFlag("llm.model", checkCmd.Flags().Lookup("model"))
}

func check(cmd *cobra.Command, opts checkOptions) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs stay quiet unless asked for so they do not interleave with the report.
	if cfg.LogDebug {
		logger, err := telemetry.New(cfg.LogJSON, true)
		if err != nil {
			return fmt.Errorf("creating a logger: %w", err)
		}
		telemetry.SetLogger(logger)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client, err := bootstrap.BuildLLM(ctx, cfg)
	if err != nil {
		return err
	}
	extractor := bootstrap.BuildExtractor(cfg)
	analyzer := analyses.NewAnalyzer(client, cfg.AnalysisTimeout)

	err = runCheck(ctx, cmd.OutOrStdout(), opts, extractor, analyzer, promptConfirm)
	if errors.Is(err, errCancelled) {
		fmt.Fprintln(cmd.OutOrStdout(), "Analysis cancelled.")
		return nil
	}
	return err
}

func promptConfirm() (bool, error) {
	prompt := promptui.Prompt{
		Label:     "Analyze this CV",
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// runCheck drives one session through extraction and analysis.
func runCheck(ctx context.Context, out io.Writer, opts checkOptions, ex session.Extractor, an session.Analyzer, confirm confirmFunc) error {
	if strings.TrimSpace(opts.File) == "" {
		return errors.New("--file is required")
	}
	if strings.TrimSpace(opts.JobTitle) == "" {
		return &commandError{msg: session.UserMessage(analyses.ErrJobTitleRequired), err: analyses.ErrJobTitleRequired}
	}

	if err := validateFile(opts.File); err != nil {
		return err
	}
	data, err := os.ReadFile(opts.File)
	if err != nil {
		return fmt.Errorf("reading %s: %w", opts.File, err)
	}
	doc := documents.NewDocument(filepath.Base(opts.File), "", data)

	s := session.New(uuid.NewString(), ex, an, nil)
	done, err := s.StartExtraction(ctx, doc)
	if err != nil {
		return &commandError{msg: session.UserMessage(err), err: err}
	}
	snap, err := await(ctx, s, done)
	if err != nil {
		return err
	}
	if snap.State == session.StateErrored {
		return snapshotError(snap)
	}
	printExtraction(out, snap)

	if snap.Extraction == nil || !snap.Extraction.Analyzable {
		return &commandError{msg: session.UserMessage(session.ErrNothingToAnalyze), err: session.ErrNothingToAnalyze}
	}
	if !an.Configured() {
		return &commandError{msg: llm.UserMessage(llm.ErrMissingCredential), err: llm.ErrMissingCredential}
	}

	if !opts.Yes {
		ok, err := confirm()
		if err != nil {
			return err
		}
		if !ok {
			return errCancelled
		}
	}

	fmt.Fprintf(out, "\nAnalyzing against %q...\n", strings.TrimSpace(opts.JobTitle))
	done, err = s.Analyze(ctx, session.AnalyzeParams{
		JobTitle:          opts.JobTitle,
		JobDescriptionRef: opts.JobDescriptionRef,
	})
	if err != nil {
		return &commandError{msg: session.UserMessage(err), err: err}
	}
	snap, err = await(ctx, s, done)
	if err != nil {
		return err
	}
	if snap.State == session.StateErrored {
		return snapshotError(snap)
	}
	printResult(out, snap)
	return nil
}

// validateFile checks type and size from the file name and stat alone, so an
// oversized file is rejected without reading it.
func validateFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("reading %s: is a directory", path)
	}
	declared := documents.NewDocument(filepath.Base(path), "", nil)
	declared.SizeBytes = fi.Size()
	if err := documents.Validate(declared.Descriptor()); err != nil {
		return &commandError{msg: session.UserMessage(err), err: err}
	}
	return nil
}

func await(ctx context.Context, s *session.Session, done <-chan session.Snapshot) (session.Snapshot, error) {
	select {
	case snap, ok := <-done:
		if !ok {
			return s.Snapshot(), nil
		}
		return snap, nil
	case <-ctx.Done():
		s.Reset()
		return session.Snapshot{}, ctx.Err()
	}
}

func snapshotError(snap session.Snapshot) error {
	if snap.Error == nil {
		return errors.New("operation failed")
	}
	return &commandError{msg: fmt.Sprintf("%s (%s)", snap.Error.Message, snap.Error.Code)}
}

var (
	heading = promptui.Styler(promptui.FGBold)
	faint   = promptui.Styler(promptui.FGFaint)
)

func printExtraction(out io.Writer, snap session.Snapshot) {
	ext := snap.Extraction
	if ext == nil {
		return
	}
	fmt.Fprintln(out, heading("Extracted text"))
	if snap.Document != nil {
		fmt.Fprintf(out, "File: %s (%s, %d bytes)\n", snap.Document.FileName, snap.Document.MimeType, snap.Document.SizeBytes)
	}
	if ext.TotalPages > 0 {
		fmt.Fprintf(out, "Pages: %d/%d extracted\n", ext.SuccessfulPages, ext.TotalPages)
	}
	fmt.Fprintf(out, "Characters: %d\n", ext.TextChars)
	if ext.Notice != "" {
		fmt.Fprintln(out, promptui.Styler(promptui.FGYellow)(ext.Notice))
	}
	fmt.Fprintf(out, "Preview: %s\n", faint(ext.Preview))
}

func printResult(out io.Writer, snap session.Snapshot) {
	res := snap.Result
	if res == nil {
		return
	}
	fmt.Fprintln(out)
	score := "n/a"
	if res.Score != nil {
		score = fmt.Sprintf("%d/100", *res.Score)
	}
	fmt.Fprintf(out, "%s %s\n", heading("ATS score:"), bandStyle(res.ScoreBand)(score+" - "+res.BandLabel))
	if res.ScoreExplanation != "" {
		fmt.Fprintln(out, res.ScoreExplanation)
	}
	printList(out, "Problems", res.Problems)
	printList(out, "Recommendations", res.Recommendations)
	if res.Tier != analyses.TierStructuredJSON {
		fmt.Fprintln(out, faint(fmt.Sprintf("(reply parsed with %s)", res.Tier)))
	}
}

func printList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", heading(title))
	for i, item := range items {
		fmt.Fprintf(out, "  %d. %s\n", i+1, item)
	}
}

func bandStyle(b analyses.Band) func(interface{}) string {
	switch b {
	case analyses.BandExcellent:
		return promptui.Styler(promptui.FGGreen, promptui.FGBold)
	case analyses.BandGood:
		return promptui.Styler(promptui.FGYellow, promptui.FGBold)
	case analyses.BandNeedsImprovement:
		return promptui.Styler(promptui.FGRed, promptui.FGBold)
	default:
		return promptui.Styler(promptui.FGBold)
	}
}
