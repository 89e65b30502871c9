package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ensemble-ai/ensemble/connector"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Connect to the configured agents and show their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		orch, _, err := loadOrchestrator(logger)
		if err != nil {
			return err
		}

		ctx := context.Background()
		orch.Start(ctx)
		defer orch.Shutdown()

		conns := orch.Connections()
		sort.Slice(conns, func(i, j int) bool { return conns[i].AgentID < conns[j].AgentID })

		for _, conn := range conns {
			fmt.Printf("%-16s %s", conn.AgentID, stateColor(conn.State).Sprint(conn.State))
			if len(conn.Capabilities) > 0 {
				fmt.Printf("  [%s]", strings.Join(conn.Capabilities, ", "))
			}
			fmt.Println()
		}
		return nil
	},
}

func stateColor(s connector.State) *color.Color {
	switch s {
	case connector.StateReady:
		return color.New(color.FgGreen)
	case connector.StateFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}
