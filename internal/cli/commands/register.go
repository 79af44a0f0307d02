package commands

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/carepoint-health/carepoint/internal/cli/client"
	"github.com/carepoint-health/carepoint/internal/roles"
)

type registerOptions struct {
	email     string
	password  string
	firstName string
	lastName  string
	phone     string
	role      string
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(opts *GlobalOptions) *cobra.Command {
	reg := &registerOptions{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a CarePoint account and sign in",
		Long: `Create a patient or doctor account on the selected portal and sign in to it.

Examples:
  $ carepoint register --email jane@example.com --first-name Jane --last-name Doe
  $ carepoint register --email house@example.com --role doctor`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, opts, reg)
		},
	}

	cmd.Flags().StringVar(&reg.email, "email", "", "Email address (or set CAREPOINT_EMAIL)")
	cmd.Flags().StringVar(&reg.password, "password", "", "Password, at least 6 characters (or set CAREPOINT_PASSWORD)")
	cmd.Flags().StringVar(&reg.firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&reg.lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&reg.phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&reg.role, "role", "", "patient or doctor (prompts when interactive, default patient)")

	return cmd
}

func runRegister(cmd *cobra.Command, opts *GlobalOptions, reg *registerOptions) error {
	out := cmd.OutOrStdout()

	if reg.email == "" {
		reg.email = os.Getenv("CAREPOINT_EMAIL")
	}
	if reg.password == "" {
		reg.password = os.Getenv("CAREPOINT_PASSWORD")
	}
	if reg.email == "" {
		return fmt.Errorf("email is required (use --email flag or CAREPOINT_EMAIL env var)")
	}

	role, err := resolveRole(reg.role)
	if err != nil {
		return err
	}

	p, err := openPortal(opts)
	if err != nil {
		return err
	}

	if reg.password == "" {
		reg.password, err = readPassword(out, "CAREPOINT_PASSWORD")
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Registering on %s (%s)...\n", p.server.Alias, p.server.URL)

	user, err := p.session.Register(cmd.Context(), client.Registration{
		Email:     reg.email,
		Password:  reg.password,
		FirstName: reg.firstName,
		LastName:  reg.lastName,
		Phone:     reg.phone,
		Role:      string(role),
	})
	if err != nil {
		return sessionError("registration", err)
	}

	fmt.Fprintln(out, "✓ Account created!")
	printSignedIn(out, p, user)
	return nil
}

// resolveRole validates --role, or asks for one when running interactively
func resolveRole(flag string) (roles.Role, error) {
	if flag != "" {
		role, err := roles.Parse(flag)
		if err != nil {
			return "", err
		}
		if !role.SelfRegistrable() {
			return "", fmt.Errorf("role '%s' cannot be self-registered (expected patient or doctor)", role)
		}
		return role, nil
	}

	if !stdinIsTerminal() {
		return roles.Patient, nil
	}

	options := []roles.Role{roles.Patient, roles.Doctor}
	prompt := promptui.Select{
		Label: "Register as",
		Items: options,
	}
	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("role selection cancelled: %w", err)
	}
	return options[index], nil
}
