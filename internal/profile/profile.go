// Package profile defines the user health record exchanged with the auth
// backend, with explicit validation of every updatable field.
package profile

import (
	"errors"
	"fmt"
	"strings"
)

// Field constraints enforced before anything is sent to the backend.
const (
	MinAge      = 0
	MaxAge      = 130
	MinHeightCM = 30
	MaxHeightCM = 275
	MinWeightKG = 1
	MaxWeightKG = 500
)

// Profile is the health record held by the backend for one user.
type Profile struct {
	UserID        string   `json:"user_id"`
	Email         string   `json:"email,omitempty"`
	FirstName     string   `json:"first_name,omitempty"`
	LastName      string   `json:"last_name,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	Allergies     []string `json:"allergies,omitempty"`
	Diseases      []string `json:"diseases,omitempty"`
	Medications   []string `json:"medications,omitempty"`
	PastSurgeries []string `json:"past_surgeries,omitempty"`
	Age           int      `json:"age,omitempty"`
	HeightCM      float64  `json:"height_cm,omitempty"`
	WeightKG      float64  `json:"weight_kg,omitempty"`
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	FirstName     string   `json:"first_name,omitempty"`
	LastName      string   `json:"last_name,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	Allergies     []string `json:"allergies,omitempty"`
	Diseases      []string `json:"diseases,omitempty"`
	Medications   []string `json:"medications,omitempty"`
	PastSurgeries []string `json:"past_surgeries,omitempty"`
	Age           int      `json:"age,omitempty"`
	HeightCM      float64  `json:"height_cm,omitempty"`
	WeightKG      float64  `json:"weight_kg,omitempty"`
}

// Validate checks the signup payload against the field constraints.
func (r SignupRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if strings.TrimSpace(r.Password) == "" {
		return errors.New("password must not be empty")
	}
	if r.Age < MinAge || r.Age > MaxAge {
		return fmt.Errorf("age must be between %d and %d", MinAge, MaxAge)
	}
	if r.HeightCM != 0 && (r.HeightCM < MinHeightCM || r.HeightCM > MaxHeightCM) {
		return fmt.Errorf("height must be between %d and %d cm", MinHeightCM, MaxHeightCM)
	}
	if r.WeightKG != 0 && (r.WeightKG < MinWeightKG || r.WeightKG > MaxWeightKG) {
		return fmt.Errorf("weight must be between %d and %d kg", MinWeightKG, MaxWeightKG)
	}
	for _, set := range [][]string{r.Allergies, r.Diseases, r.Medications, r.PastSurgeries} {
		if err := validateSet(set); err != nil {
			return err
		}
	}
	return nil
}

// UpdateRequest enumerates every updatable profile field. Nil pointers and
// nil slices mean "leave unchanged"; the backend only sees fields that were
// explicitly set.
type UpdateRequest struct {
	Email         *string  `json:"email,omitempty"`
	Password      *string  `json:"password,omitempty"`
	HeightCM      *float64 `json:"height_cm,omitempty"`
	WeightKG      *float64 `json:"weight_kg,omitempty"`
	Allergies     []string `json:"allergies,omitempty"`
	Diseases      []string `json:"diseases,omitempty"`
	Medications   []string `json:"medications,omitempty"`
	PastSurgeries []string `json:"past_surgeries,omitempty"`
}

// Empty reports whether the request changes nothing.
func (r UpdateRequest) Empty() bool {
	return r.Email == nil && r.Password == nil && r.HeightCM == nil && r.WeightKG == nil &&
		r.Allergies == nil && r.Diseases == nil && r.Medications == nil && r.PastSurgeries == nil
}

// Validate checks every set field against its constraints.
func (r UpdateRequest) Validate() error {
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.Password != nil && strings.TrimSpace(*r.Password) == "" {
		return errors.New("password must not be empty")
	}
	if r.HeightCM != nil && (*r.HeightCM < MinHeightCM || *r.HeightCM > MaxHeightCM) {
		return fmt.Errorf("height must be between %d and %d cm", MinHeightCM, MaxHeightCM)
	}
	if r.WeightKG != nil && (*r.WeightKG < MinWeightKG || *r.WeightKG > MaxWeightKG) {
		return fmt.Errorf("weight must be between %d and %d kg", MinWeightKG, MaxWeightKG)
	}
	for _, set := range [][]string{r.Allergies, r.Diseases, r.Medications, r.PastSurgeries} {
		if err := validateSet(set); err != nil {
			return err
		}
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email must not be empty")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("invalid email: %s", email)
	}
	return nil
}

// validateSet rejects blank entries in free-text string sets such as
// allergies or medications.
func validateSet(entries []string) error {
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			return errors.New("list entries must not be blank")
		}
	}
	return nil
}

// NormalizeSet trims entries and drops duplicates, preserving first-seen
// order. Used when list fields are collected from comma-separated CLI flags.
func NormalizeSet(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		key := strings.ToLower(e)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
