package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/resonance/internal/runtime"
)

func tokenCMD(a *app) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		scopes  []string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with server.jwt_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}
			signed, err := runtime.SignJWT(subject, runtime.LoadJWTSecret(a.cfg), ttl, scopes...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{runtime.ScopeRunsWrite}, "granted scopes")
	return cmd
}
