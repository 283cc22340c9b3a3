package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// PruneCommand creates the prune command
func PruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Remove index records whose submissions are no longer published",
		Flags: []cli.Flag{
			&cli.Int64SliceFlag{
				Name:  "context",
				Usage: "Context to prune (repeatable; all contexts when omitted)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return pruneIndex(ctx, c.String("config"), c.Int64Slice("context"))
		},
	}
}

func pruneIndex(ctx context.Context, configPath string, contextIDs []int64) error {
	comps, err := buildComponents(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = comps.Close()
	}()

	if len(contextIDs) == 0 {
		contexts, err := comps.reader.Contexts(ctx)
		if err != nil {
			return fmt.Errorf("listing contexts: %w", err)
		}
		for _, c := range contexts {
			contextIDs = append(contextIDs, c.ID)
		}
	}

	if err := comps.dao.PruneUnpublished(ctx, contextIDs); err != nil {
		return fmt.Errorf("pruning index: %w", err)
	}
	fmt.Printf("Pruned unpublished submissions in %d contexts.\n", len(contextIDs))
	return nil
}
