package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Answer a single query and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		orch, _, err := loadOrchestrator(logger)
		if err != nil {
			return err
		}

		ctx := context.Background()
		orch.Start(ctx)
		defer orch.Shutdown()

		query := strings.Join(args, " ")
		answer := orch.Submit(ctx, query, nil)

		color.New(color.FgCyan, color.Bold).Println("Answer:")
		fmt.Println(answer)
		return nil
	},
}
