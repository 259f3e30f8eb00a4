// cmd/scenewriter/classify.go
package main

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/Corphon/SceneWriter/internal/screenplay"
)

const typeColumnWidth = 15

func newClassifyCmd() *cobra.Command {
	var statsOnly bool

	cmd := &cobra.Command{
		Use:   "classify <file|->",
		Short: "Print the paragraph type of every non-empty line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}

			paragraphs := screenplay.ClassifyText(body)
			out := cmd.OutOrStdout()
			if !statsOnly {
				for _, p := range paragraphs {
					fmt.Fprintf(out, "%s\t%s\n", runewidth.FillRight(string(p.Type), typeColumnWidth), p.Text)
				}
				fmt.Fprintln(out)
			}
			printStats(cmd, screenplay.Stats(paragraphs), len(paragraphs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&statsOnly, "stats", false, "only print paragraph counts")
	return cmd
}

func printStats(cmd *cobra.Command, stats map[screenplay.ParagraphType]int, total int) {
	out := cmd.OutOrStdout()
	for _, t := range screenplay.BodyTypes {
		if n := stats[t]; n > 0 {
			fmt.Fprintf(out, "%s\t%d\n", runewidth.FillRight(string(t), typeColumnWidth), n)
		}
	}
	fmt.Fprintf(out, "%s\t%d\n", runewidth.FillRight("Total", typeColumnWidth), total)
}
