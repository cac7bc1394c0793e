package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"streamkeeper/internal/ipc"
)

const consolePrompt = "(streamkeeper) "

const consoleHelp = `Commands:
  add <username> <site>       add a streamer (monitoring starts immediately)
  remove <username> [site]    remove a streamer
  start <username> [site]     start monitoring
  start *                     start monitoring everyone
  stop <username> [site]      stop monitoring and end any recording
  stop *                      stop monitoring everyone
  status                      show the streamer table
  files [probe]               list recordings
  help                        show this message
  quit                        leave the console (the daemon keeps running)`

// consoleBackend is the subset of the IPC client the console drives.
type consoleBackend interface {
	Add(username, site string) (*ipc.ActionResponse, error)
	Remove(username, site string) (*ipc.ActionResponse, error)
	Start(username, site string) (*ipc.ActionResponse, error)
	Stop(username, site string) (*ipc.ActionResponse, error)
	Status() (*ipc.StatusResponse, error)
	Recordings(probe bool) (*ipc.RecordingsResponse, error)
}

func newConsoleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive prompt for managing streamers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				console := &consoleSession{backend: client, in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
				return console.run()
			})
		},
	}
}

type consoleSession struct {
	backend consoleBackend
	in      io.Reader
	out     io.Writer
}

func (c *consoleSession) run() error {
	fmt.Fprintln(c.out, "streamkeeper console. Type 'help' for commands.")
	if status, err := c.backend.Status(); err == nil {
		renderStreamers(c.out, status)
	}
	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, consolePrompt)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if quit := c.execute(scanner.Text()); quit {
			fmt.Fprintln(c.out, "Bye!")
			return nil
		}
	}
}

// execute runs one console line and reports whether the session should end.
func (c *consoleSession) execute(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	command := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch command {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(c.out, consoleHelp)
	case "add":
		if len(args) < 2 {
			fmt.Fprintln(c.out, "usage: add <username> <site>")
			return false
		}
		err = c.action(c.backend.Add, args)
	case "remove":
		err = c.actionWithUsage(c.backend.Remove, args, "usage: remove <username> [site]")
	case "start":
		err = c.actionWithUsage(c.backend.Start, args, "usage: start <username> [site]  or  start *")
	case "stop":
		err = c.actionWithUsage(c.backend.Stop, args, "usage: stop <username> [site]  or  stop *")
	case "status":
		var status *ipc.StatusResponse
		if status, err = c.backend.Status(); err == nil {
			renderStreamers(c.out, status)
		}
	case "files":
		probe := len(args) > 0 && strings.TrimLeft(strings.ToLower(args[0]), "-") == "probe"
		var resp *ipc.RecordingsResponse
		if resp, err = c.backend.Recordings(probe); err == nil {
			renderRecordings(c.out, resp, probe)
		}
	default:
		fmt.Fprintf(c.out, "unknown command: %s (type 'help')\n", command)
	}
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	return false
}

func (c *consoleSession) actionWithUsage(fn func(string, string) (*ipc.ActionResponse, error), args []string, usage string) error {
	if len(args) < 1 {
		fmt.Fprintln(c.out, usage)
		return nil
	}
	return c.action(fn, args)
}

func (c *consoleSession) action(fn func(string, string) (*ipc.ActionResponse, error), args []string) error {
	site := ""
	if len(args) > 1 {
		site = args[1]
	}
	resp, err := fn(args[0], site)
	if err != nil {
		return err
	}
	return printAction(c.out, resp)
}
