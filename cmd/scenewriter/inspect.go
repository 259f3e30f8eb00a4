// cmd/scenewriter/inspect.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Corphon/SceneWriter/internal/screenplay"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.fdx>",
		Short: "Show the title and paragraph counts of a Final Draft file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			title, paragraphs, err := screenplay.ParseFDX(f)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Title: %s\n", title)
			printStats(cmd, screenplay.Stats(paragraphs), len(paragraphs))
			return nil
		},
	}
}
