// cmd/scenewriter/export.go
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Corphon/SceneWriter/internal/models"
	"github.com/Corphon/SceneWriter/internal/services"
)

const watchDebounce = 200 * time.Millisecond

type exportFlags struct {
	title  string
	outDir string
	credit string
	watch  bool
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:       "export <fdx|pdf> <file|->",
		Short:     "Export a plain-text script as Final Draft or PDF",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{models.FormatFDX, models.FormatPDF},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, source := args[0], args[1]
			if format != models.FormatFDX && format != models.FormatPDF {
				return fmt.Errorf("unsupported format %q (want fdx or pdf)", format)
			}
			if flags.watch && source == "-" {
				return fmt.Errorf("--watch needs a file, not stdin")
			}

			exporter, err := services.NewExportService(nil, services.ExportOptions{Credit: flags.credit}, nil)
			if err != nil {
				return err
			}
			defer exporter.Close()

			run := func() error {
				path, err := exportOnce(cmd, exporter, format, source, flags)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			}

			if err := run(); err != nil {
				return err
			}
			if !flags.watch {
				return nil
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s, press Ctrl+C to stop\n", source)
			return watchFile(cmd.Context(), source, watchDebounce, func() {
				if err := run(); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "export failed:", err)
				}
			}, nil)
		},
	}

	cmd.Flags().StringVar(&flags.title, "title", "", "screenplay title")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&flags.credit, "credit", "", "title page credit line (fdx)")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "re-export whenever the file changes")
	return cmd
}

func exportOnce(cmd *cobra.Command, exporter *services.ExportService, format, source string, flags exportFlags) (string, error) {
	body, err := readScript(cmd, source)
	if err != nil {
		return "", err
	}

	result, err := exporter.Export(cmd.Context(), format, flags.title, body)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(flags.outDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(flags.outDir, result.FileName)
	if err := os.WriteFile(path, result.Content, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// watchFile calls onChange after writes to path settle, until ctx ends. The
// parent directory is watched so editors that save by rename are seen too.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func(), ready chan<- struct{}) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = time.After(debounce)
			}

		case <-pending:
			pending = nil
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}
