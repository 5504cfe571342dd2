package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oykum/carelink-go/internal/profile"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the health profile",
	}
	cmd.AddCommand(newProfileShowCmd(), newProfileUpdateCmd())
	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored health profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			p, err := env.client.Profile(cmd.Context())
			if err != nil {
				return err
			}
			printProfile(p)
			return nil
		},
	}
}

func printProfile(p *profile.Profile) {
	fmt.Printf("Email:      %s\n", p.Email)
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		fmt.Printf("Name:       %s\n", name)
	}
	if p.Gender != "" {
		fmt.Printf("Gender:     %s\n", p.Gender)
	}
	if p.Age > 0 {
		fmt.Printf("Age:        %d\n", p.Age)
	}
	if p.HeightCM > 0 {
		fmt.Printf("Height:     %.1f cm\n", p.HeightCM)
	}
	if p.WeightKG > 0 {
		fmt.Printf("Weight:     %.1f kg\n", p.WeightKG)
	}
	printSet := func(label string, set []string) {
		if len(set) > 0 {
			fmt.Printf("%-11s %s\n", label+":", strings.Join(set, ", "))
		}
	}
	printSet("Allergies", p.Allergies)
	printSet("Diseases", p.Diseases)
	printSet("Medications", p.Medications)
	printSet("Surgeries", p.PastSurgeries)
}

func newProfileUpdateCmd() *cobra.Command {
	var (
		email         string
		height        float64
		weight        float64
		allergies     []string
		diseases      []string
		medications   []string
		pastSurgeries []string
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update health profile fields",
		Long:  "Update health profile fields. Only flags that are set are sent; list\nflags replace the whole list, so pass every entry you want to keep.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}

			var req profile.UpdateRequest
			if cmd.Flags().Changed("email") {
				req.Email = &email
			}
			if cmd.Flags().Changed("height") {
				req.HeightCM = &height
			}
			if cmd.Flags().Changed("weight") {
				req.WeightKG = &weight
			}
			if cmd.Flags().Changed("allergy") {
				req.Allergies = profile.NormalizeSet(allergies)
			}
			if cmd.Flags().Changed("disease") {
				req.Diseases = profile.NormalizeSet(diseases)
			}
			if cmd.Flags().Changed("medication") {
				req.Medications = profile.NormalizeSet(medications)
			}
			if cmd.Flags().Changed("surgery") {
				req.PastSurgeries = profile.NormalizeSet(pastSurgeries)
			}
			if req.Empty() {
				return fmt.Errorf("nothing to update; set at least one flag")
			}

			p, err := env.client.UpdateProfile(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Println("Profile updated")
			printProfile(p)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", "", "new account email")
	f.Float64Var(&height, "height", 0, "height in cm")
	f.Float64Var(&weight, "weight", 0, "weight in kg")
	f.StringSliceVar(&allergies, "allergy", nil, "known allergy (repeatable, replaces the list)")
	f.StringSliceVar(&diseases, "disease", nil, "diagnosed condition (repeatable, replaces the list)")
	f.StringSliceVar(&medications, "medication", nil, "current medication (repeatable, replaces the list)")
	f.StringSliceVar(&pastSurgeries, "surgery", nil, "past surgery (repeatable, replaces the list)")
	return cmd
}
