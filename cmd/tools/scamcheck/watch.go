package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/z-honeypot/backend/internal/service/events"
)

func newWatchCmd() *cobra.Command {
	var (
		natsURL string
		token   string
		prefix  string
		session string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print honeypot events from NATS as JSON lines until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			client, err := events.NewNATSClient(natsURL, token, prefix, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			lines := make(chan events.Event, 64)
			if err := client.Subscribe(func(evt events.Event) {
				if session == "" || evt.SessionID == session {
					lines <- evt
				}
			}); err != nil {
				return err
			}

			ctx := cmd.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case evt := <-lines:
					if err := enc.Encode(evt); err != nil {
						return err
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&natsURL, "nats-url", envOr("NATS_URL", "nats://localhost:4222"), "NATS server URL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("NATS_TOKEN"), "NATS auth token")
	cmd.Flags().StringVar(&prefix, "prefix", envOr("NATS_SUBJECT_PREFIX", "honeypot"), "subject prefix")
	cmd.Flags().StringVar(&session, "session", "", "only print events for this session id")
	return cmd
}
