package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/linkedin-cli/internal/batch"
	"github.com/sells-group/linkedin-cli/internal/extract"
	"github.com/sells-group/linkedin-cli/internal/model"
	"github.com/sells-group/linkedin-cli/internal/resolver"
	"github.com/sells-group/linkedin-cli/internal/session"
)

var (
	scrapeInput     string
	scrapeOverrides string
	scrapeMode      string
	scrapeLimit     int
	scrapeOutputDir string
	scrapeVerify    bool
	scrapeDelayMin  time.Duration
	scrapeDelayMax  time.Duration
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [company names...]",
	Short: "Scrape LinkedIn company pages for a batch of companies",
	Long:  "Resolves each company name to its LinkedIn company page, then scrapes the About section for every target in order, saving a full JSON snapshot after each success.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if scrapeVerify {
			cfg.Verify.Enabled = true
		}
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		names, err := gatherNames(args)
		if err != nil {
			return err
		}
		if scrapeLimit > 0 && len(names) > scrapeLimit {
			names = names[:scrapeLimit]
		}
		if len(names) == 0 {
			return eris.New("no company names given; pass names as arguments or --input")
		}

		res, err := buildResolver(scrapeOverrides)
		if err != nil {
			return err
		}
		targets, err := res.ResolveAll(ctx, names)
		if err != nil {
			return eris.Wrap(err, "resolve targets")
		}
		zap.L().Info("targets resolved",
			zap.Int("requested", len(names)),
			zap.Int("resolved", len(targets)),
		)

		outputDir := scrapeOutputDir
		if outputDir == "" {
			outputDir = cfg.Batch.OutputDir
		}
		sink, err := batch.NewSnapshotSink(outputDir, time.Now())
		if err != nil {
			return eris.Wrap(err, "create output sink")
		}

		mode, ok := model.ParseMode(modeOrDefault(scrapeMode))
		if !ok {
			return eris.Errorf("invalid mode %q (want single_session or per_company)", modeOrDefault(scrapeMode))
		}

		driver := session.NewBrowserDriver(session.BrowserConfig{
			Headless:       cfg.Session.Headless,
			PageTimeout:    cfg.Session.PageTimeout(),
			ChallengeGrace: cfg.Session.ChallengeGrace(),
			UserAgent:      cfg.Session.UserAgent,
		})
		sessions := session.NewManager(driver, session.Credentials{
			Email:    cfg.Session.Email,
			Password: cfg.Session.Password,
		})
		extractor := extract.NewPageExtractor(cfg.Session.PageTimeout())

		delayMin, delayMax := cfg.Batch.DelayMin(), cfg.Batch.DelayMax()
		if scrapeDelayMin > 0 {
			delayMin = scrapeDelayMin
		}
		if scrapeDelayMax > 0 {
			delayMax = scrapeDelayMax
		}

		runner := batch.NewRunner(sessions, extractor, sink, batch.Options{
			Mode:     mode,
			DelayMin: delayMin,
			DelayMax: delayMax,
		})

		run, runErr := runner.Run(ctx, targets)
		run.OutputPath = sink.Path()
		recordSkipped(run, names, targets)

		// Record the run even when aborted; partial results matter.
		if st, sErr := initStore(ctx); sErr != nil {
			zap.L().Warn("run history unavailable", zap.Error(sErr))
		} else {
			defer st.Close() //nolint:errcheck
			if rErr := st.RecordRun(ctx, run); rErr != nil {
				zap.L().Warn("record run failed", zap.Error(rErr))
			}
		}

		printSummary(run)

		if runErr != nil {
			return eris.Wrap(runErr, "batch run")
		}
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeInput, "input", "", "file with one company name per line")
	scrapeCmd.Flags().StringVar(&scrapeOverrides, "overrides", "", "YAML file of name -> URL overrides")
	scrapeCmd.Flags().StringVar(&scrapeMode, "mode", "", "session mode: single_session or per_company (default from config)")
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "scrape at most N companies (0 = all)")
	scrapeCmd.Flags().StringVar(&scrapeOutputDir, "output-dir", "", "snapshot directory (default from config)")
	scrapeCmd.Flags().BoolVar(&scrapeVerify, "verify", false, "verify generated URLs with the AI verifier")
	scrapeCmd.Flags().DurationVar(&scrapeDelayMin, "delay-min", 0, "minimum delay between companies (default from config)")
	scrapeCmd.Flags().DurationVar(&scrapeDelayMax, "delay-max", 0, "maximum delay between companies (default from config)")
	rootCmd.AddCommand(scrapeCmd)
}

// recordSkipped adds a skipped record for every requested name that never
// became a target, so the run store keeps the full picture.
func recordSkipped(run *model.BatchRun, names []string, targets []model.Target) {
	resolved := make(map[string]bool, len(targets))
	for _, t := range targets {
		resolved[t.Name] = true
	}
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" && !resolved[trimmed] {
			run.Failures = append(run.Failures, model.ScrapeResult{
				Target:     model.Target{Name: trimmed},
				Outcome:    model.OutcomeSkipped,
				Error:      "name could not be resolved to a linkedin url",
				CapturedAt: run.StartedAt,
			})
		}
	}
}

// gatherNames merges positional names with the optional --input file.
func gatherNames(args []string) ([]string, error) {
	names := append([]string{}, args...)
	if scrapeInput != "" {
		fromFile, err := resolver.NamesFromFile(scrapeInput)
		if err != nil {
			return nil, eris.Wrap(err, "read input file")
		}
		names = append(names, fromFile...)
	}
	if scrapeInput == "" && cfg.Batch.InputFile != "" && len(names) == 0 {
		fromFile, err := resolver.NamesFromFile(cfg.Batch.InputFile)
		if err != nil {
			return nil, eris.Wrap(err, "read input file")
		}
		names = fromFile
	}
	return names, nil
}

func modeOrDefault(mode string) string {
	if mode != "" {
		return mode
	}
	return cfg.Batch.Mode
}

// companyLine is one scraped company in the printed summary.
type companyLine struct {
	Name        string `json:"name"`
	CompanyID   string `json:"linkedin_company_id,omitempty"`
	Industry    string `json:"industry,omitempty"`
	CompanySize string `json:"company_size,omitempty"`
}

// printSummary writes the run outcome to stdout as JSON.
func printSummary(run *model.BatchRun) {
	summary := model.Summarize(run)

	companies := make([]companyLine, 0, len(summary.Results))
	for _, res := range summary.Results {
		if res.Profile == nil {
			continue
		}
		companies = append(companies, companyLine{
			Name:        res.Profile.Name,
			CompanyID:   res.Profile.LinkedInCompanyID,
			Industry:    res.Profile.Industry,
			CompanySize: res.Profile.CompanySize,
		})
	}

	out := struct {
		RunID        string        `json:"run_id"`
		Status       string        `json:"status"`
		SuccessCount int           `json:"success_count"`
		FailureCount int           `json:"failure_count"`
		Companies    []companyLine `json:"companies,omitempty"`
		CompanyIDs   []string      `json:"company_ids,omitempty"`
		OutputPath   string        `json:"output_path,omitempty"`
	}{
		RunID:        run.ID,
		Status:       string(run.Status()),
		SuccessCount: summary.SuccessCount,
		FailureCount: summary.FailureCount,
		Companies:    companies,
		CompanyIDs:   summary.CompanyIDs(),
		OutputPath:   run.OutputPath,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
