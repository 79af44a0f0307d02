package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardPathFor(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{Patient, "/patient/dashboard"},
		{Doctor, "/doctor/dashboard"},
		{Admin, "/admin/dashboard"},
		{"nurse", "/login"},
		{"", "/login"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, DashboardPathFor(tt.role))
		})
	}
}

func TestParse(t *testing.T) {
	role, err := Parse(" Doctor ")
	require.NoError(t, err)
	assert.Equal(t, Doctor, role)

	_, err = Parse("nurse")
	assert.Error(t, err)
}

func TestSelfRegistrable(t *testing.T) {
	assert.True(t, Patient.SelfRegistrable())
	assert.True(t, Doctor.SelfRegistrable())
	assert.False(t, Admin.SelfRegistrable())
	assert.False(t, Role("nurse").SelfRegistrable())
}
