package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/collage/internal/cli"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Error())
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

// run executes the root command with args, writing command output to outW.
func run(outW io.Writer, args []string) error {
	cmd := cli.NewRootCommand()
	cmd.SetOut(outW)
	cmd.SetArgs(args)
	return cmd.Execute()
}
