package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/resonance/internal/pipeline"
	"github.com/mohammad-safakhou/resonance/internal/runtime"
)

func stageCMD(a *app) *cobra.Command {
	var (
		requestPath   string
		inputPath     string
		analysisModel string
	)
	cmd := &cobra.Command{
		Use:   "stage <stage-id>",
		Short: "Run a single stage against previously produced outputs",
		Long: `Runs one stage in isolation. --input is a JSON object that may carry
company_profile, icp, value_proposition and pain_taxonomy from an earlier run.
Stage ids: data_ingestion, audience_research, usp_extraction, pain_taxonomy,
journey_mapping.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := pipeline.ParseStage(args[0]); err != nil {
				return err
			}
			var in pipeline.StageInput
			if inputPath != "" {
				if err := readJSON(inputPath, &in); err != nil {
					return err
				}
			}
			req, err := a.readRequest(requestPath)
			if err != nil {
				return err
			}
			in.Request = req

			factory, err := runtime.NewFactory(a.cfg, a.logger, nil)
			if err != nil {
				return err
			}
			run, err := factory.NewRun(runtime.RunOptions{AnalysisModel: analysisModel})
			if err != nil {
				return err
			}
			out, err := run.Orchestrator.RunStage(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			sum := run.Ledger.Summarize()
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: $%.4f over %d requests\n", args[0], sum.TotalCost, sum.TotalRequests)
			return nil
		},
	}
	cmd.Flags().StringVar(&requestPath, "request", "", "client request JSON file")
	cmd.Flags().StringVar(&inputPath, "input", "", "JSON file with upstream stage outputs")
	cmd.Flags().StringVar(&analysisModel, "analysis-model", "", "override models.analysis")
	return cmd
}
