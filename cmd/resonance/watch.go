package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/resonance/internal/pipeline"
	"github.com/mohammad-safakhou/resonance/internal/queue/streams"
	"github.com/mohammad-safakhou/resonance/internal/runtime"
)

func watchCMD(a *app) *cobra.Command {
	var (
		group    string
		consumer string
		fromHead bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow run progress published to the Redis stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			rcfg := a.cfg.Storage.Redis
			if !rcfg.Enabled() {
				return fmt.Errorf("storage.redis.host is not configured")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg, err := runtime.InitSchemaRegistry()
			if err != nil {
				return err
			}
			rdb, err := runtime.NewRedisClient(ctx, rcfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			start := "$"
			if fromHead {
				start = "0"
			}
			if err := streams.EnsureGroup(ctx, rdb, rcfg.Stream, group, start); err != nil {
				return err
			}
			if consumer == "" {
				consumer, _ = os.Hostname()
			}
			c := streams.NewConsumer(rdb, reg, group, consumer)
			out := cmd.OutOrStdout()
			for {
				msgs, err := c.Read(ctx, rcfg.Stream, streams.WithBlock(5*time.Second), streams.WithCount(50))
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					if errors.Is(err, context.DeadlineExceeded) {
						continue
					}
					return err
				}
				ids := make([]string, 0, len(msgs))
				for _, m := range msgs {
					if err := printEnvelope(out, m.Envelope); err != nil {
						a.logger.Warn("skipping stream entry", zap.String("id", m.ID), zap.Error(err))
					}
					ids = append(ids, m.ID)
				}
				if err := c.Ack(ctx, rcfg.Stream, ids...); err != nil && ctx.Err() == nil {
					return err
				}
			}
		},
	}
	cmd.Flags().StringVar(&group, "group", "resonance-watch", "consumer group")
	cmd.Flags().StringVar(&consumer, "consumer", "", "consumer name (default hostname)")
	cmd.Flags().BoolVar(&fromHead, "from-start", false, "read the stream from the beginning when creating the group")
	return cmd
}

func printEnvelope(w io.Writer, env streams.Envelope) error {
	switch env.EventType {
	case streams.EventStageProgress:
		var e pipeline.Event
		if err := env.Decode(&e); err != nil {
			return err
		}
		line := fmt.Sprintf("%s %s [%-8s] %s", env.OccurredAt.Format(time.TimeOnly), short(e.RunID), e.Status, e.StageID)
		if e.Error != "" {
			line += ": " + e.Error
		}
		fmt.Fprintln(w, line)
	case streams.EventRunCompleted:
		var s streams.RunSummary
		if err := env.Decode(&s); err != nil {
			return err
		}
		state := "complete"
		if s.Error != "" {
			state = "aborted: " + s.Error
		}
		fmt.Fprintf(w, "%s %s run for %s %s (%d personas, %d failed stages, $%.4f)\n",
			env.OccurredAt.Format(time.TimeOnly), short(s.RunID), s.ClientName, state, s.Items, len(s.FailedStages), s.TotalCost)
	default:
		return fmt.Errorf("unknown event type %q", env.EventType)
	}
	return nil
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
