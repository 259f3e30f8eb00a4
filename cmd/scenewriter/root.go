// cmd/scenewriter/root.go
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scenewriter",
		Short:         "Classify, export and brainstorm screenplays from plain text",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newClassifyCmd(),
		newExportCmd(),
		newInspectCmd(),
		newAskCmd(),
	)
	return root
}

// readScript reads a script file, or stdin for "-".
func readScript(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
