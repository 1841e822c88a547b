package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geniusgordon/agentmux/agent"
)

func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List supported agent vendors",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range agent.Types() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), t); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
