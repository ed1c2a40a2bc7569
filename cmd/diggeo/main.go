package main

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/TomasB/diggeo/internal/cli"
)

func main() {
	// no signal handling: an interrupt kills the process mid-lookup
	os.Exit(cli.Execute(context.Background(), cli.Env{
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		StdinIsTerminal: stdinIsTerminal(),
	}, os.Args[1:]))
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
