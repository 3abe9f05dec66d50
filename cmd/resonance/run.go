package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/resonance/internal/budget"
	"github.com/mohammad-safakhou/resonance/internal/pipeline"
	"github.com/mohammad-safakhou/resonance/internal/report"
	"github.com/mohammad-safakhou/resonance/internal/runtime"
)

func runCMD(a *app) *cobra.Command {
	var (
		requestPath   string
		analysisModel string
		outPath       string
		jsonPath      string
		pretty        bool
		limits        budget.Config
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full research pipeline for one client",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.readRequest(requestPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tel, err := runtime.SetupTelemetry(ctx, a.cfg.Telemetry, version, a.logger)
			if err != nil {
				return err
			}
			defer shutdown(a.logger, tel.Shutdown)

			factory, err := runtime.NewFactory(a.cfg, a.logger, tel.Registry)
			if err != nil {
				return err
			}
			run, err := factory.NewRun(runtime.RunOptions{AnalysisModel: analysisModel, Budget: limits})
			if err != nil {
				return err
			}

			progress, rdb, err := runtime.InitProgress(ctx, a.cfg.Storage.Redis, a.logger)
			if err != nil {
				return err
			}
			observers := []pipeline.Observer{printProgress(cmd.ErrOrStderr())}
			if progress != nil {
				defer rdb.Close()
				observers = append(observers, progress.Observe)
			}

			res := run.Orchestrator.Run(ctx, req, pipeline.Tee(observers...))
			if progress != nil {
				if err := progress.Completed(context.WithoutCancel(ctx), res); err != nil {
					a.logger.Warn("publish run completion failed", zap.Error(err))
				}
			}

			if jsonPath != "" {
				if err := writeJSON(jsonPath, res); err != nil {
					return err
				}
			}
			md := report.Markdown(res, time.Now())
			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
					return err
				}
			}
			switch {
			case pretty:
				rendered, err := renderPretty(md)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), rendered)
			case outPath == "" && jsonPath == "":
				fmt.Fprint(cmd.OutOrStdout(), md)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %d personas, $%.4f over %d requests\n",
				res.RunID, len(res.Items), res.Usage.TotalCost, res.Usage.TotalRequests)
			if res.Failed() {
				return fmt.Errorf("run aborted: %s", res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&requestPath, "request", "", "client request JSON file")
	cmd.Flags().StringVar(&analysisModel, "analysis-model", "", "override models.analysis for this run")
	cmd.Flags().StringVar(&outPath, "out", "", "write the markdown report to this file")
	cmd.Flags().StringVar(&jsonPath, "json", "", "write the full result as JSON to this file")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "render the report for the terminal")
	cmd.Flags().Float64Var(&limits.MaxCost, "max-cost", 0, "abort once spend reaches this many USD")
	cmd.Flags().Int64Var(&limits.MaxTokens, "max-tokens", 0, "abort once this many tokens are used")
	cmd.Flags().Int64Var(&limits.MaxTimeSeconds, "max-time", 0, "abort after this many seconds")
	return cmd
}

// printProgress writes one line per stage transition.
func printProgress(w io.Writer) pipeline.Observer {
	return func(e pipeline.Event) {
		switch e.Status {
		case pipeline.StatusError:
			fmt.Fprintf(w, "[%-8s] %s: %s\n", e.Status, e.StageID, e.Error)
		default:
			fmt.Fprintf(w, "[%-8s] %s\n", e.Status, e.StageID)
		}
	}
}

func renderPretty(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("init renderer: %w", err)
	}
	return r.Render(md)
}

func shutdown(logger *zap.Logger, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("telemetry shutdown", zap.Error(err))
	}
}
