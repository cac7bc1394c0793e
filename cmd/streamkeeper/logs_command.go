package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"streamkeeper/internal/ipc"
	"streamkeeper/internal/logging"
	"streamkeeper/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var opts logs.Options
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			apiClient, err := logs.NewStreamClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
			if err != nil {
				return fmt.Errorf("api client: %w", err)
			}
			var fallback logs.TailClient
			if client, dialErr := ipc.Dial(cfg.SocketPath()); dialErr == nil {
				defer client.Close()
				fallback = client
			}

			out := cmd.OutOrStdout()
			printed, err := logs.Stream(cmd.Context(), apiClient, fallback, opts,
				func(evt logging.LogEvent) { fmt.Fprintln(out, formatLogEvent(evt)) },
				func(line string) { fmt.Fprintln(out, line) },
			)
			if errors.Is(err, logs.ErrAPIUnavailable) && !errors.Is(err, logs.ErrFilterRequiresAPI) {
				return fmt.Errorf("daemon is not running: %w", err)
			}
			if err != nil {
				return err
			}
			if !printed && !opts.Follow {
				fmt.Fprintln(out, "No log entries")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.Lines, "lines", "n", 50, "Number of recent lines to show")
	cmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false, "Keep printing new log entries")
	cmd.Flags().StringVar(&opts.Streamer, "streamer", "", "Only show entries for this streamer")
	return cmd
}

func formatLogEvent(evt logging.LogEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s", evt.Timestamp.Local().Format("2006-01-02 15:04:05"), strings.ToUpper(evt.Level))
	if evt.Component != "" {
		fmt.Fprintf(&b, " [%s]", evt.Component)
	}
	if evt.Streamer != "" {
		fmt.Fprintf(&b, " %s", evt.Streamer)
		if evt.Site != "" {
			fmt.Fprintf(&b, "@%s", evt.Site)
		}
	}
	fmt.Fprintf(&b, " %s", evt.Message)
	writeFields(&b, evt.Fields)
	return b.String()
}

func writeFields(w io.Writer, fields map[string]string) {
	if len(fields) == 0 {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, " %s=%s", k, fields[k])
	}
}
