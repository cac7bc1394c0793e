package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"streamkeeper/internal/config"
	"streamkeeper/internal/ipc"
	"streamkeeper/internal/watchlist"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <config.json>",
		Short: "Import streamers from a legacy JSON watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve import path: %w", err)
			}
			out := cmd.OutOrStdout()

			client, dialErr := ipc.Dial(cfg.SocketPath())
			if dialErr != nil {
				store, err := watchlist.Open(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				added, err := store.ImportJSON(cmd.Context(), path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Imported %d streamers into %s\n", added, store.Path())
				return nil
			}
			defer client.Close()

			entries, err := watchlist.ReadLegacyJSON(path)
			if err != nil {
				return err
			}
			added := 0
			for _, entry := range entries {
				resp, err := client.Add(entry.Username, entry.Site)
				if err != nil {
					return err
				}
				if resp.Success {
					added++
					continue
				}
				if !strings.Contains(resp.Message, "already monitored") {
					fmt.Fprintf(cmd.ErrOrStderr(), "skip %s@%s: %s\n", entry.Username, entry.Site, resp.Message)
				}
			}
			fmt.Fprintf(out, "Imported %d of %d streamers\n", added, len(entries))
			return nil
		},
	}
}
