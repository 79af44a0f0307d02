// Package roles defines portal roles and where each one lands after sign-in.
package roles

import (
	"fmt"
	"strings"
)

// Role is the portal role a user signs in as
type Role string

const (
	Patient Role = "patient"
	Doctor  Role = "doctor"
	Admin   Role = "admin"
)

// LoginPath is where anyone without a known role is sent
const LoginPath = "/login"

// All lists every known role
var All = []Role{Patient, Doctor, Admin}

// SelfRegistrable reports whether the role can be chosen on the public register endpoint
func (r Role) SelfRegistrable() bool {
	return r == Patient || r == Doctor
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case Patient, Doctor, Admin:
		return true
	}
	return false
}

// Parse converts user input into a Role
func Parse(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q (expected patient, doctor or admin)", s)
	}
	return r, nil
}

// DashboardPathFor returns the landing route for a role
func DashboardPathFor(role Role) string {
	switch role {
	case Patient:
		return "/patient/dashboard"
	case Doctor:
		return "/doctor/dashboard"
	case Admin:
		return "/admin/dashboard"
	default:
		return LoginPath
	}
}
