// Command streamkeeper is the CLI for the streamkeeper recorder daemon.
//
// `streamkeeper daemon run` hosts the monitor in the foreground; every other
// command talks to that process over the JSON-RPC socket in the state
// directory. `streamkeeper console` offers the same operations as an
// interactive prompt.
package main
