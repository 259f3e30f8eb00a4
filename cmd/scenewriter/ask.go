// cmd/scenewriter/ask.go
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Corphon/SceneWriter/internal/config"
	_ "github.com/Corphon/SceneWriter/internal/llm/providers/openai"
	"github.com/Corphon/SceneWriter/internal/models"
	"github.com/Corphon/SceneWriter/internal/services"
)

var errAssistFailed = errors.New("assist call failed")

func newAskCmd() *cobra.Command {
	var (
		mode   string
		apiKey string
	)

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Ask the screenwriting assistant one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			llmService := &services.LLMService{}
			if err := llmService.UpdateProvider("openai", map[string]string{
				"api_key":       cfg.OpenAIAPIKey,
				"base_url":      cfg.OpenAIBaseURL,
				"default_model": cfg.LLMModel,
			}); err != nil {
				return err
			}
			assist := services.NewAssistService(llmService, nil, nil, cfg.AssistTimeout)

			result := assist.Ask(cmd.Context(), models.AssistRequest{
				Prompt: strings.Join(args, " "),
				Mode:   mode,
				APIKey: apiKey,
			})
			fmt.Fprintln(cmd.OutOrStdout(), result.Display())
			if !result.Succeeded() {
				return errAssistFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", models.ModeCreative, "persona: professional or creative")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for this call, overrides OPENAI_API_KEY")
	return cmd
}
