package commands

import (
	"fmt"

	"github.com/benvon/smart-gantt/internal/config"
	"github.com/benvon/smart-gantt/internal/services/ai"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective server configuration",
		Long:  "Load configuration the way the server does and print it with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server port: %s\n", cfg.ServerPort)
			fmt.Fprintf(out, "Frontend URL: %s\n", cfg.FrontendURL)
			fmt.Fprintf(out, "AI provider: %s (enabled: %t)\n", cfg.AIProvider, cfg.AIEnabled())
			fmt.Fprintf(out, "AI model: %s\n", cfg.AIModel)
			if cfg.OpenAIKey != "" {
				fmt.Fprintf(out, "OpenAI key: %s\n", ai.SanitizeAPIKey(cfg.OpenAIKey))
			}
			fmt.Fprintf(out, "Redis: %s\n", orNone(cfg.RedisURL != ""))
			fmt.Fprintf(out, "RabbitMQ: %s\n", orNone(cfg.RabbitMQURL != ""))
			fmt.Fprintf(out, "Rate limit: %s\n", cfg.RateLimit)
			fmt.Fprintf(out, "Session TTL: %s\n", cfg.SessionTTL)
			fmt.Fprintf(out, "Max upload bytes: %d\n", cfg.MaxUploadBytes)
			fmt.Fprintf(out, "Telemetry: %t\n", cfg.OTELEnabled)
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to a .env file")

	return cmd
}

func orNone(configured bool) string {
	if configured {
		return "configured"
	}
	return "none"
}
