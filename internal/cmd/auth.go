package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/watchdesk/internal/account"
)

var loginCmd = &cobra.Command{
	Use:   "login [employee-number]",
	Short: "Sign in",
	Long: `Sign in with your employee number and password.

The employee number defaults to the one remembered with --save-id. The
password is prompted for unless --password is given. With --keep the
session survives logging out of the OS; without it the session is
cleared when the login session ends.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(appOptions{}, runLogin),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored token",
	Args:  cobra.NoArgs,
	RunE:  withApp(appOptions{}, runLogout),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in employee",
	Args:  cobra.NoArgs,
	RunE:  withApp(appOptions{}, runWhoami),
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a new employee account",
	Long: `Register a new employee account.

Missing fields are prompted for. The password must be 8-20 characters
with a letter, a digit and one of !@#$%^&*.`,
	Args: cobra.NoArgs,
	RunE: withApp(appOptions{}, runSignup),
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password",
	Args:  cobra.NoArgs,
	RunE:  withApp(appOptions{}, runPasswd),
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Delete your account",
	Long: `Delete your account after confirming your password.

This cannot be undone. You are signed out afterwards.`,
	Args: cobra.NoArgs,
	RunE: withApp(appOptions{}, runWithdraw),
}

func init() {
	loginCmd.Flags().StringP("password", "p", "", "password (prompted when omitted)")
	loginCmd.Flags().Bool("keep", false, "keep me logged in")
	loginCmd.Flags().Bool("save-id", false, "remember the employee number")

	whoamiCmd.Flags().Bool("refresh", false, "reload the profile from the server")

	signupCmd.Flags().String("emp", "", "employee number (6-10 characters)")
	signupCmd.Flags().String("name", "", "full name")
	signupCmd.Flags().String("email", "", "email address")
	signupCmd.Flags().String("phone", "", "phone number")

	withdrawCmd.Flags().Bool("yes", false, "skip the confirmation question")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, signupCmd, passwdCmd, withdrawCmd)
}

func runLogin(cmd *cobra.Command, a *app, args []string) error {
	p := newPrompter(cmd)
	ctx := cmd.Context()

	emp := a.account.SavedEmployeeID(ctx)
	if len(args) == 1 {
		emp = args[0]
	}
	var err error
	if emp == "" {
		if emp, err = p.line("Employee number"); err != nil {
			return err
		}
	}

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		if password, err = p.secret("Password"); err != nil {
			return err
		}
	}

	keep, _ := cmd.Flags().GetBool("keep")
	saveID, _ := cmd.Flags().GetBool("save-id")
	err = a.account.Login(ctx, account.LoginRequest{
		EmpNumber:    emp,
		Password:     password,
		KeepLoggedIn: keep,
		SaveID:       saveID,
	})
	return reported(err)
}

func runLogout(cmd *cobra.Command, a *app, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.account.Logout(cmd.Context())
	return nil
}

func runWhoami(cmd *cobra.Command, a *app, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		if _, err := a.account.RefreshProfile(cmd.Context()); err != nil {
			return userError(err)
		}
	}

	u := a.session.Snapshot().User
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Employee number: %s\n", u.EmpNumber)
	fmt.Fprintf(out, "Name:            %s\n", u.Name)
	if u.Email != "" {
		fmt.Fprintf(out, "Email:           %s\n", u.Email)
	}
	if u.Phone != "" {
		fmt.Fprintf(out, "Phone:           %s\n", u.Phone)
	}
	fmt.Fprintf(out, "Keep logged in:  %v\n", a.account.KeepLoggedIn(cmd.Context()))
	return nil
}

func runSignup(cmd *cobra.Command, a *app, _ []string) error {
	p := newPrompter(cmd)
	form := account.SignupForm{}

	fields := []struct {
		flag, label string
		dst         *string
	}{
		{"emp", "Employee number", &form.EmpNumber},
		{"name", "Name", &form.Name},
		{"email", "Email", &form.Email},
		{"phone", "Phone", &form.Phone},
	}
	for _, f := range fields {
		v, _ := cmd.Flags().GetString(f.flag)
		if v == "" {
			var err error
			if v, err = p.line(f.label); err != nil {
				return err
			}
		}
		*f.dst = v
	}

	var err error
	if form.Password, err = p.secret("Password"); err != nil {
		return err
	}
	if form.ConfirmPassword, err = p.secret("Confirm password"); err != nil {
		return err
	}
	return reported(a.account.Signup(cmd.Context(), form))
}

func runPasswd(cmd *cobra.Command, a *app, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	p := newPrompter(cmd)

	current, err := p.secret("Current password")
	if err != nil {
		return err
	}
	next, err := p.secret("New password")
	if err != nil {
		return err
	}
	confirm, err := p.secret("Confirm new password")
	if err != nil {
		return err
	}
	return reported(a.account.ChangePassword(cmd.Context(), current, next, confirm))
}

func runWithdraw(cmd *cobra.Command, a *app, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	p := newPrompter(cmd)

	password, err := p.secret("Password")
	if err != nil {
		return err
	}
	if err := a.account.VerifyPassword(cmd.Context(), password); err != nil {
		return reported(err)
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		ok, err := p.confirm("Delete account " + a.session.Snapshot().User.EmpNumber + "?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "Canceled.")
			return nil
		}
	}
	return reported(a.account.Withdraw(cmd.Context(), password))
}
