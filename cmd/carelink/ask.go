package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newAskCmd sends a single question over the non-streaming endpoint and
// prints the reply. Useful for scripting; nothing is saved locally.
func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a single question without opening the chat view",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			resp, err := env.client.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(resp.Response)
			return nil
		},
	}
}
