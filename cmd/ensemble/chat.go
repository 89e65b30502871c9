package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session with conversation history",
	Long: `Starts an interactive loop. Each query is routed and answered with the
previous exchanges available as context. Type "exit" or "quit" to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		orch, cfg, err := loadOrchestrator(logger)
		if err != nil {
			return err
		}

		ctx := context.Background()
		orch.Start(ctx)
		defer orch.Shutdown()

		bold := color.New(color.Bold)
		prompt := color.New(color.FgGreen, color.Bold)
		answerHdr := color.New(color.FgCyan, color.Bold)

		bold.Printf("ensemble chat — %d agents configured, coordinator %q\n", len(cfg.Agents), cfg.Coordinator)
		fmt.Println(`Type "exit" to quit.`)

		conversationID := uuid.NewString()
		scanner := bufio.NewScanner(os.Stdin)
		for {
			prompt.Print("you> ")
			if !scanner.Scan() {
				break
			}
			query := strings.TrimSpace(scanner.Text())
			if query == "" {
				continue
			}
			if query == "exit" || query == "quit" {
				break
			}

			answer := orch.SubmitConversation(ctx, conversationID, query)
			answerHdr.Print("ensemble> ")
			fmt.Println(answer)
		}
		return scanner.Err()
	},
}
