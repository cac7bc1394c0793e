package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"streamkeeper/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			n := cfg.Notifications
			if n.NtfyTopic == "" {
				fmt.Fprintln(out, "Notifications are disabled (set notifications.ntfy_topic)")
				return nil
			}
			fmt.Fprintf(out, "Online: %s  Recording started: %s  Recording finished: %s  Errors: %s\n",
				yesNo(n.StreamOnline), yesNo(n.RecordingStarted), yesNo(n.RecordingFinished), yesNo(n.Errors))

			sendCtx, cancel := context.WithTimeout(cmd.Context(), time.Duration(n.RequestTimeout+5)*time.Second)
			defer cancel()
			if err := notifications.NewService(cfg).Publish(sendCtx, notifications.EventTest, nil); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintf(out, "Test notification sent to %s\n", n.NtfyTopic)
			return nil
		},
	}
}
