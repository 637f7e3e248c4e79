package main

import (
	"fmt"
	"os"
)

const usageText = `agentwatch submits tasks to agent sessions and follows their workflows.

Usage:
  agentwatch <command> [flags]

Commands:
  create      create a session and print its id
  send        submit a task and watch its workflow until it stops
  status      print a session and its workflow
  health      check the backend
  ui          run the terminal UI
  config      print configuration (effective or defaults)
  devserver   run the in-memory development backend
  help        show help

Flags:
  -h, --help   show help

Send flags:
  --session   session id (required)
  --quiet     only print the final reply

Examples:
  agentwatch create --agent research --title "pricing notes"
  agentwatch send --session s-123 "summarise the latest filings"
  agentwatch status s-123
  agentwatch config --default --format toml
  agentwatch devserver --addr 127.0.0.1:8787 --steps 5
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
