package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// RebuildCommand creates the rebuild command
func RebuildCommand() *cli.Command {
	return &cli.Command{
		Name:  "rebuild",
		Usage: "Reindex published submissions and prune stale records",
		Flags: []cli.Flag{
			&cli.Int64SliceFlag{
				Name:  "context",
				Usage: "Context to rebuild (repeatable; all contexts when omitted)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return rebuildIndex(ctx, c.String("config"), c.Int64Slice("context"))
		},
	}
}

func rebuildIndex(ctx context.Context, configPath string, contextIDs []int64) error {
	comps, err := buildComponents(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = comps.Close()
	}()

	count := 0
	err = comps.coordinator.Rebuild(ctx, contextIDs, func(contextID, submissionID int64) {
		count++
		fmt.Printf("indexed submission %d (context %d)\n", submissionID, contextID)
	})
	if err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}

	fmt.Printf("Rebuild complete: %d submissions indexed.\n", count)
	return nil
}
