package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignupRequest_Validate(t *testing.T) {
	valid := SignupRequest{
		Email:    "a@b.com",
		Password: "hunter2",
		Age:      34,
		HeightCM: 178,
		WeightKG: 72,
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name string
		mut  func(*SignupRequest)
	}{
		{"missing email", func(r *SignupRequest) { r.Email = "" }},
		{"malformed email", func(r *SignupRequest) { r.Email = "not-an-email" }},
		{"blank password", func(r *SignupRequest) { r.Password = "   " }},
		{"negative age", func(r *SignupRequest) { r.Age = -1 }},
		{"implausible age", func(r *SignupRequest) { r.Age = 131 }},
		{"implausible height", func(r *SignupRequest) { r.HeightCM = 10 }},
		{"implausible weight", func(r *SignupRequest) { r.WeightKG = 900 }},
		{"blank list entry", func(r *SignupRequest) { r.Allergies = []string{"pollen", "  "} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mut(&r)
			require.Error(t, r.Validate())
		})
	}
}

func TestSignupRequest_ZeroMeasurementsAllowed(t *testing.T) {
	// Unset height and weight are legitimate; only nonzero values are range
	// checked.
	r := SignupRequest{Email: "a@b.com", Password: "x"}
	require.NoError(t, r.Validate())
}

func TestUpdateRequest_Empty(t *testing.T) {
	require.True(t, UpdateRequest{}.Empty())

	h := 180.0
	require.False(t, UpdateRequest{HeightCM: &h}.Empty())
	require.False(t, UpdateRequest{Medications: []string{"aspirin"}}.Empty())
}

func TestUpdateRequest_Validate(t *testing.T) {
	h, w := 180.0, 75.0
	email := "new@b.com"
	require.NoError(t, UpdateRequest{Email: &email, HeightCM: &h, WeightKG: &w}.Validate())

	badEmail := "nope"
	require.Error(t, UpdateRequest{Email: &badEmail}.Validate())

	blank := "  "
	require.Error(t, UpdateRequest{Password: &blank}.Validate())

	tiny := 5.0
	require.Error(t, UpdateRequest{HeightCM: &tiny}.Validate())
	require.Error(t, UpdateRequest{WeightKG: &tiny}.Validate())

	require.Error(t, UpdateRequest{Diseases: []string{""}}.Validate())
}

func TestNormalizeSet(t *testing.T) {
	in := []string{" pollen ", "dust", "", "pollen", "  "}
	require.Equal(t, []string{"pollen", "dust"}, NormalizeSet(in))
	require.Empty(t, NormalizeSet(nil))
	require.Empty(t, NormalizeSet([]string{"", "  "}))

	// Dedup is case-insensitive but keeps the first spelling.
	require.Equal(t, []string{"Aspirin"}, NormalizeSet([]string{"Aspirin", "aspirin"}))
}
