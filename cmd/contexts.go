package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"
)

var (
	contextNameStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("214"))

	contextIDStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// ContextsCommand creates the contexts command
func ContextsCommand() *cli.Command {
	return &cli.Command{
		Name:  "contexts",
		Usage: "List the host's publication contexts",
		Action: func(ctx context.Context, c *cli.Command) error {
			return listContexts(ctx, c.String("config"))
		},
	}
}

func listContexts(ctx context.Context, configPath string) error {
	comps, err := buildComponents(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = comps.Close()
	}()

	contexts, err := comps.reader.Contexts(ctx)
	if err != nil {
		return fmt.Errorf("listing contexts: %w", err)
	}
	if len(contexts) == 0 {
		fmt.Println("No contexts found.")
		return nil
	}

	for _, c := range contexts {
		fmt.Printf("%s %s\n",
			contextIDStyle.Render(fmt.Sprintf("[%d]", c.ID)),
			contextNameStyle.Render(c.Name))
	}
	return nil
}
