package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"streamkeeper/internal/ipc"
)

type streamerAction func(client *ipc.Client, username, site string) (*ipc.ActionResponse, error)

func newStreamerCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newActionCommand(ctx, "add <username> [site]", "Add a streamer to the watchlist and start monitoring", (*ipc.Client).Add),
		newActionCommand(ctx, "remove <username|*> [site]", "Remove a streamer from the watchlist", (*ipc.Client).Remove),
		newActionCommand(ctx, "start <username|*> [site]", "Start monitoring a streamer, or everyone with *", (*ipc.Client).Start),
		newActionCommand(ctx, "stop <username|*> [site]", "Stop monitoring and end any active recording", (*ipc.Client).Stop),
		newStatusCommand(ctx),
	}
}

func newActionCommand(ctx *commandContext, use, short string, action streamerAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, site := args[0], ""
			if len(args) > 1 {
				site = args[1]
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := action(client, username, site)
				if err != nil {
					return err
				}
				return printAction(cmd.OutOrStdout(), resp)
			})
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show streamer status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return fmt.Errorf("status: %w", err)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), status)
				}
				renderStreamers(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw status payload as JSON")
	return cmd
}
