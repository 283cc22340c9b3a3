package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

// TruncateLegacyCommand creates the truncate-legacy command, a one-time
// migration aid that empties the host's standard search tables after this
// index takes over.
func TruncateLegacyCommand() *cli.Command {
	return &cli.Command{
		Name:  "truncate-legacy",
		Usage: "Empty the host's built-in search tables (one-time migration aid)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Skip the confirmation prompt",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return truncateLegacy(ctx, c.String("config"), c.Bool("yes"))
		},
	}
}

func truncateLegacy(ctx context.Context, configPath string, confirmed bool) error {
	comps, err := buildComponents(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = comps.Close()
	}()

	tables := comps.cfg.Search.LegacyTables
	if len(tables) == 0 {
		fmt.Println("No legacy tables configured; nothing to do.")
		return nil
	}

	if !confirmed {
		fmt.Printf("This will delete all rows from: %s\n", strings.Join(tables, ", "))
		fmt.Print("Type 'yes' to continue: ")
		var answer string
		if _, err := fmt.Scanln(&answer); err != nil || answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := comps.dao.ClearLegacyTables(ctx, tables); err != nil {
		return fmt.Errorf("clearing legacy tables: %w", err)
	}
	fmt.Printf("Cleared %d legacy tables.\n", len(tables))
	return nil
}
