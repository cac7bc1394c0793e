package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"streamkeeper/internal/ipc"
)

func newFilesCommand(ctx *commandContext) *cobra.Command {
	var (
		probe  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List recordings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Recordings(probe)
				if err != nil {
					return fmt.Errorf("list recordings: %w", err)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				renderRecordings(cmd.OutOrStdout(), resp, probe)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "Read duration and resolution with ffprobe")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw recordings payload as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a recording by its path relative to the recordings directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Delete(args[0])
				if err != nil {
					return err
				}
				return printAction(cmd.OutOrStdout(), resp)
			})
		},
	})
	return cmd
}
