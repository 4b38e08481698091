package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

const yesFlagName = "yes"

func resetCmd() *cli.Command {
	return &cli.Command{
		Name:            "reset",
		Usage:           "Delete all recorded training runs and predictions",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    yesFlagName,
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
		Action: cmdReset,
	}
}

func cmdReset(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}

	if !cmd.Bool(yesFlagName) {
		fmt.Fprintf(w, "This will permanently delete all runs and predictions in the %s ledger\n", cfg.Store.Dialect())
		fmt.Fprint(w, "Are you sure? [y/N]: ")

		var r io.Reader = os.Stdin
		if cmd.Root().Reader != nil {
			r = cmd.Root().Reader
		}
		answer, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && answer == "" {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	if err := cfg.Store.Reset(ctx); err != nil {
		return fmt.Errorf("resetting ledger: %w", err)
	}

	slog.Info("ledger reset", "dialect", cfg.Store.Dialect())
	fmt.Fprintln(w, "Reset complete.")
	return nil
}
