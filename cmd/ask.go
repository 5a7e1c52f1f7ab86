package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/internal/app"
	"github.com/lorekeep/lorekeep/internal/log"
)

var askTopK int

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-off question against the ingested corpus",
	Long: `Ask runs a single question through the retrieval pipeline and prints
the answer with its cited passages. Each invocation uses a fresh session,
so there is no conversation history to draw on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "number of passages to include as context (0 uses the configured default)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := log.New(log.Config{Level: slog.LevelWarn})

	a, err := app.Setup(ctx, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(context.Background()); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	question := strings.Join(args, " ")

	answer, err := a.Pipeline.Ask(ctx, uuid.NewString(), question, askTopK)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range answer.Sources {
			line := "  - " + src.Title
			if src.Source != nil {
				line += " (" + *src.Source + ")"
			}
			fmt.Println(line)
		}
	}
	return nil
}
