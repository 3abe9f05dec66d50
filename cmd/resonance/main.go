package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/resonance/config"
	"github.com/mohammad-safakhou/resonance/internal/research"
	"github.com/mohammad-safakhou/resonance/internal/runtime"
)

var version = "dev"

// app is the state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	cfgPath string
	cfg     *config.Config
	logger  *zap.Logger
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "resonance",
		Short:         "Audience research pipeline over OpenRouter",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "config file (default searches ./config and .)")

	root.AddCommand(
		runCMD(a),
		stageCMD(a),
		serveCMD(a),
		modelsCMD(a),
		tokenCMD(a),
		watchCMD(a),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) load() error {
	cfg, err := config.LoadConfig(a.cfgPath)
	if err != nil {
		return err
	}
	logger, err := runtime.NewLogger(cfg.General.LogLevel, cfg.General.Debug)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// readRequest decodes, normalizes and validates a client request file.
func (a *app) readRequest(path string) (research.ClientRequest, error) {
	var req research.ClientRequest
	if path == "" {
		return req, fmt.Errorf("--request is required")
	}
	if err := readJSON(path, &req); err != nil {
		return req, err
	}
	p := a.cfg.Pipeline
	req = req.Normalize(p.DefaultItems)
	if err := req.Validate(p.MinItems, p.MaxItems); err != nil {
		return req, err
	}
	return req, nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
