package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/javajack/tabreport"
	"github.com/javajack/tabreport/config"
	"github.com/javajack/tabreport/mailer"
	"github.com/javajack/tabreport/tableau"
	"github.com/javajack/tabreport/xlsxout"
)

// maxConcurrentSheets bounds parallel view downloads so a workbook with
// many views doesn't hammer the server.
const maxConcurrentSheets = 4

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		noEmail bool
		strict  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:          "tabreport",
		Short:        "Generate and distribute a styled report workbook from Tableau view data",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if issues := cfg.Validate(); len(issues) > 0 {
				for _, i := range issues {
					fmt.Fprintln(os.Stderr, "config:", i)
				}
				return fmt.Errorf("config has %d problem(s)", len(issues))
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			return run(cmd.Context(), cfg, logger, strict)
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default tabreport.yaml)")
	cmd.Flags().BoolVar(&noEmail, "no-email", false, "write the workbook but skip mailing it")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail the run when a view yields no rows")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

// run executes one report cycle: sign in, locate the workbook and views,
// build all sheets in parallel, write the workbook, mail it, sign out.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, strict bool) error {
	client := tableau.NewClient(tableau.Config{
		ServerURL:   cfg.Tableau.ServerURL,
		Site:        cfg.Tableau.Site,
		TokenName:   cfg.Tableau.TokenName,
		TokenSecret: cfg.Tableau.TokenSecret,
		APIVersion:  cfg.Tableau.APIVersion,
		Timeout:     time.Duration(cfg.Tableau.TimeoutSeconds) * time.Second,
		MaxRetries:  cfg.Tableau.MaxRetries,
	}, logger)

	if err := client.Authenticate(ctx); err != nil {
		return err
	}
	defer func() {
		// Sign out even when the run fails; use a fresh context so a
		// canceled run still releases the session.
		soCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := client.SignOut(soCtx); err != nil {
			logger.Warn("sign-out failed", "error", err)
		}
	}()

	workbook, err := client.FindWorkbook(ctx, cfg.Tableau.Project, cfg.Tableau.NameContains)
	if err != nil {
		return err
	}

	targets := make([]string, len(cfg.Sheets))
	for i, s := range cfg.Sheets {
		targets[i] = s.View
	}
	views, err := client.FindViews(ctx, workbook.ID, targets)
	if err != nil {
		return err
	}
	viewByName := make(map[string]tableau.View, len(views))
	for _, v := range views {
		viewByName[v.ViewURLName] = v
		viewByName[v.Name] = v
	}

	models := make([]*tabreport.SheetModel, len(cfg.Sheets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSheets)
	for i, sheet := range cfg.Sheets {
		g.Go(func() error {
			view, ok := viewByName[sheet.View]
			if !ok {
				return fmt.Errorf("view %q not found in workbook %q", sheet.View, workbook.Name)
			}
			model, err := buildSheet(gctx, client, view, sheet, cfg.Options(), logger)
			if err != nil {
				if errors.Is(err, tabreport.ErrNoRows) && !strict {
					logger.Warn("view yielded no rows, skipping sheet", "sheet", sheet.Name)
					return nil
				}
				return fmt.Errorf("sheet %q: %w", sheet.Name, err)
			}
			models[i] = model
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	path, err := writeWorkbook(cfg, models, logger)
	if err != nil {
		return err
	}

	if cfg.NoEmail {
		logger.Info("email disabled, done", "workbook", path)
		return nil
	}
	m := mailer.New(mailer.Config{
		Host:          cfg.Mail.Host,
		Port:          cfg.Mail.Port,
		Username:      cfg.Mail.Username,
		Password:      cfg.Mail.Password,
		From:          cfg.Mail.From,
		To:            cfg.Mail.To,
		CC:            cfg.Mail.CC,
		SubjectPrefix: cfg.Mail.SubjectPrefix,
		Greeting:      cfg.Mail.Greeting,
		Signature:     cfg.Mail.Signature,
	}, logger)
	return m.Send(ctx, path, time.Now())
}

// buildSheet fetches one view's data and runs the pipeline matching the
// sheet's kind.
func buildSheet(ctx context.Context, client *tableau.Client, view tableau.View, sheet config.SheetConfig, opts []tabreport.Option, logger *slog.Logger) (*tabreport.SheetModel, error) {
	var vf *tableau.ViewFilter
	if sheet.ViewFilter.Field != "" {
		vf = &tableau.ViewFilter{Field: sheet.ViewFilter.Field, Values: sheet.ViewFilter.Values}
	}
	data, err := client.ViewDataCSV(ctx, view.ID, vf)
	if err != nil {
		return nil, err
	}
	table, err := tableau.DecodeCSV(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("view decoded", "sheet", sheet.Name, "rows", len(table.Rows))

	if sheet.Kind == config.KindRaw {
		return tabreport.BuildPlainSheet(*table, sheet.RawSpec(), opts...)
	}
	return tabreport.BuildSheet(*table, sheet.ReportSpec(), opts...)
}

// writeWorkbook renders the non-skipped models, in config order, to a
// date-stamped file under the output directory.
func writeWorkbook(cfg *config.Config, models []*tabreport.SheetModel, logger *slog.Logger) (string, error) {
	w := xlsxout.NewWriter()
	defer w.Close()

	written := 0
	for _, m := range models {
		if m == nil {
			continue
		}
		if err := w.AddSheet(m); err != nil {
			return "", err
		}
		written++
	}
	if written == 0 {
		return "", errors.New("all views yielded no rows, nothing to write")
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.xlsx", cfg.Output.FilenamePrefix, time.Now().Format("2006-01-02"))
	path := filepath.Join(cfg.Output.Dir, name)
	if err := w.SaveAs(path); err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}
	logger.Info("workbook written", "path", path, "sheets", written)
	return path, nil
}
