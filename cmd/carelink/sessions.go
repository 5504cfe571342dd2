package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oykum/carelink-go/internal/chat"
	"github.com/oykum/carelink-go/internal/store"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved conversations",
	}
	cmd.AddCommand(newSessionsListCmd(), newSessionsDeleteCmd(), newSessionsRenameCmd())
	return cmd
}

// withController wires store and controller for one session command.
func withController(run func(*chat.Controller) error) error {
	env, err := setup()
	if err != nil {
		return err
	}
	if env.creds == nil {
		return fmt.Errorf("not logged in; run: carelink login")
	}
	st := store.New(env.cfg.Storage.Path)
	defer st.Close()

	ctrl := chat.New(chat.NewAPITransport(env.client), st, env.creds.UserID)
	defer ctrl.Close()
	return run(ctrl)
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved conversations, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(func(ctrl *chat.Controller) error {
				for _, s := range ctrl.Sessions() {
					marker := " "
					if s.ID == ctrl.CurrentID() {
						marker = "*"
					}
					fmt.Printf("%s %s  %-30s %3d messages  %s\n",
						marker, s.ID, s.Title, len(s.Messages), s.UpdatedAt.Local().Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a conversation locally and on the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(func(ctrl *chat.Controller) error {
				if err := ctrl.DeleteSession(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Println("Session deleted")
				return nil
			})
		},
	}
}

func newSessionsRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <session-id> <title...>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(func(ctrl *chat.Controller) error {
				if err := ctrl.RenameSession(args[0], strings.Join(args[1:], " ")); err != nil {
					return err
				}
				fmt.Println("Session renamed")
				return nil
			})
		},
	}
}
