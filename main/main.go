// attrcodec converts JSON documents to and from the tagged attribute-value
// wire form, flattens document graphs into path/leaf entries and packs
// records into compactwire snapshots.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var f flags
	flagSet := pflag.NewFlagSet("attrcodec", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	f.register(flagSet)
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 || len(rest) > 2 {
		printHelp(stderr, flagSet)
		return fmt.Errorf("expected a command and an optional input file")
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	cfg, err := loadConfig(flagSet, &f)
	if err != nil {
		return err
	}
	level, _ := cfg.level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	input, err := readInput(stdin, rest[1:])
	if err != nil {
		return err
	}
	logger.Debug("running", "command", rest[0], "bytes", len(input), "format", cfg.Format)

	e := &env{cfg: cfg, codec: cfg.codec(), logger: logger, out: stdout}
	return cmd(ctx, e, input)
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, `attrcodec converts between JSON and the attribute-value wire form.

Usage:
  attrcodec [flags] <command> [file]

Input is read from file, or stdin when file is omitted or "-". JSON input
may contain comments and trailing commas.

Commands:
`)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintf(w, "\nFlags:\n%s", flagSet.FlagUsages())
}
