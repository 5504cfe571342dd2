package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oykum/carelink-go/internal/auth"
	"github.com/oykum/carelink-go/internal/profile"
)

// promptPassword reads a password without echo when stdin is a terminal, and
// falls back to a plain line read otherwise (pipes, tests).
func promptPassword(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and cache the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			resp, err := env.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := env.cache.Save(auth.Credentials{UserID: resp.UserID, Email: email, Token: resp.Token}); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}
			fmt.Printf("Logged in as %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newSignupCmd() *cobra.Command {
	var req profile.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account with an optional health profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			req.Password = password
			req.Allergies = profile.NormalizeSet(req.Allergies)
			req.Diseases = profile.NormalizeSet(req.Diseases)
			req.Medications = profile.NormalizeSet(req.Medications)
			req.PastSurgeries = profile.NormalizeSet(req.PastSurgeries)

			resp, err := env.client.Signup(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := env.cache.Save(auth.Credentials{UserID: resp.UserID, Email: req.Email, Token: resp.Token}); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}
			fmt.Printf("Account created for %s\n", req.Email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Email, "email", "e", "", "account email")
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.Gender, "gender", "", "gender")
	f.IntVar(&req.Age, "age", 0, "age in years")
	f.Float64Var(&req.HeightCM, "height", 0, "height in cm")
	f.Float64Var(&req.WeightKG, "weight", 0, "weight in kg")
	f.StringSliceVar(&req.Allergies, "allergy", nil, "known allergy (repeatable)")
	f.StringSliceVar(&req.Diseases, "disease", nil, "diagnosed condition (repeatable)")
	f.StringSliceVar(&req.Medications, "medication", nil, "current medication (repeatable)")
	f.StringSliceVar(&req.PastSurgeries, "surgery", nil, "past surgery (repeatable)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			if err := env.cache.Clear(); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			if env.creds == nil {
				fmt.Println("Not logged in")
				return nil
			}
			fmt.Printf("%s (user %s), logged in %s\n",
				env.creds.Email, env.creds.UserID, env.creds.SavedAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newChangePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change-password",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			if env.creds == nil {
				return fmt.Errorf("not logged in; run: carelink login")
			}
			oldPassword, err := promptPassword("Current password")
			if err != nil {
				return err
			}
			newPassword, err := promptPassword("New password")
			if err != nil {
				return err
			}
			if err := env.client.ChangePassword(cmd.Context(), oldPassword, newPassword); err != nil {
				return err
			}
			fmt.Println("Password changed")
			return nil
		},
	}
}
