package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/storage"
	"github.com/felixgeelhaar/clubhub/internal/tui"
	"github.com/felixgeelhaar/clubhub/internal/ux"
)

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in, sign out and inspect the session",
		Long: `Manage your session with the club platform.

Tokens are kept in an encrypted cookie jar and the session (user, role, club and
current team) in local storage under ~/.clubhub, so later commands resume it.

Examples:
  clubhub auth login --email coach@example.com
  clubhub auth status
  clubhub auth logout`,
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE:  runAuthLogin,
	}
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password (prompted when omitted)")
	loginCmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	loginCmd.MarkFlagsMutuallyExclusive("password", "password-stdin")

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE:  runAuthRegister,
	}
	registerCmd.Flags().String("first-name", "", "first name")
	registerCmd.Flags().String("last-name", "", "last name")
	registerCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("password", "", "account password (prompted when omitted)")
	registerCmd.Flags().String("club", "", "club name")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove local credentials",
		Args:  cobra.NoArgs,
		RunE:  runAuthLogout,
	}
	logoutCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE:  runAuthStatus,
	}

	authCmd.AddCommand(loginCmd, registerCmd, logoutCmd, statusCmd)
	return authCmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	creds := platform.Credentials{}
	creds.Email, _ = cmd.Flags().GetString("email")
	creds.Password, _ = cmd.Flags().GetString("password")
	if fromStdin, _ := cmd.Flags().GetBool("password-stdin"); fromStdin {
		pw, err := ux.PromptPassword("Password")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		creds.Password = pw
	}

	if creds.Email == "" || creds.Password == "" {
		if !tui.ShouldPrompt() {
			return fmt.Errorf("required flag(s) \"email\" and \"password\" not set")
		}
		if err := tui.SignInForm(&creds); err != nil {
			return err
		}
	}

	svc, err := services(cmd)
	if err != nil {
		return err
	}
	sess, err := svc.Auth.SignIn(cmd.Context(), creds)
	if err != nil {
		return err
	}

	user := svc.Stores.App.Snapshot().User
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", displayName(user, creds.Email), sess.Role)
	fmt.Fprintln(cmd.OutOrStdout(), "Run 'clubhub team list' and 'clubhub team switch <id>' to pick a team.")
	return nil
}

func runAuthRegister(cmd *cobra.Command, _ []string) error {
	reg := platform.Registration{}
	reg.FirstName, _ = cmd.Flags().GetString("first-name")
	reg.LastName, _ = cmd.Flags().GetString("last-name")
	reg.Email, _ = cmd.Flags().GetString("email")
	reg.Password, _ = cmd.Flags().GetString("password")
	reg.ClubName, _ = cmd.Flags().GetString("club")

	if reg.FirstName == "" || reg.LastName == "" || reg.Email == "" || reg.Password == "" {
		if !tui.ShouldPrompt() {
			return fmt.Errorf("required flag(s) \"first-name\", \"last-name\", \"email\" and \"password\" not set")
		}
		if err := tui.RegisterForm(&reg); err != nil {
			return err
		}
	}

	svc, err := services(cmd)
	if err != nil {
		return err
	}
	if err := svc.Auth.SignUp(cmd.Context(), reg); err != nil {
		return err
	}

	if _, err := svc.Session(); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Account created. Signed in as %s\n", reg.Email)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Account created. Sign in with 'clubhub auth login' once it is activated.")
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	svc, err := restored(cmd)
	if err != nil {
		return err
	}
	if _, err := svc.Session(); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}
	if yes, _ := cmd.Flags().GetBool("yes"); !yes && tui.ShouldPrompt() {
		ok, err := tui.PromptForConfirmation("Sign out and remove local credentials?", true)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	if err := svc.Auth.SignOut(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

// authStatus is the machine-readable form of "auth status".
type authStatus struct {
	SignedIn      bool       `json:"signed_in" yaml:"signed_in"`
	Status        string     `json:"status" yaml:"status"`
	UserID        string     `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Name          string     `json:"name,omitempty" yaml:"name,omitempty"`
	Role          string     `json:"role,omitempty" yaml:"role,omitempty"`
	GroupID       string     `json:"group_id,omitempty" yaml:"group_id,omitempty"`
	CurrentTeamID string     `json:"current_team_id,omitempty" yaml:"current_team_id,omitempty"`
	TokenExpires  *time.Time `json:"token_expires,omitempty" yaml:"token_expires,omitempty"`
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	svc, err := restored(cmd)
	if err != nil {
		return err
	}

	st := authStatus{Status: string(svc.Stores.App.Snapshot().Status)}
	sess, err := svc.Session()
	if err == nil {
		st.SignedIn = true
		st.UserID = sess.UserID
		st.Role = sess.Role
		st.GroupID = sess.GroupID
		st.CurrentTeamID = sess.CurrentTeamID
		st.Name = displayName(svc.Stores.App.Snapshot().User, sess.UserID)
		if _, exp, ok := svc.Cookies.Get(storage.CookieAccessToken); ok {
			st.TokenExpires = &exp
		}
	}

	if commandContext(cmd).Output != "text" {
		return printResult(cmd, st)
	}
	if !st.SignedIn {
		return printResult(cmd, "Not signed in. Run 'clubhub auth login'.")
	}
	f := fields{
		{"User", st.Name},
		{"Role", st.Role},
		{"Club", st.GroupID},
		{"Team", first(st.CurrentTeamID, "(none)")},
	}
	if st.TokenExpires != nil {
		f = append(f, [2]string{"Expires", st.TokenExpires.Local().Format(time.RFC1123)})
	}
	return printResult(cmd, f)
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	svc, _, err := signedIn(cmd)
	if err != nil {
		return err
	}
	user := svc.Stores.App.Snapshot().User
	if user == nil {
		return errors.NewNotSignedInError()
	}
	return printEntity(cmd, user, fields{
		{"ID", user.ID},
		{"Name", user.FullName()},
		{"Email", user.Email},
		{"Role", user.Role},
		{"Club", user.GroupID},
	})
}

func displayName(u *platform.User, fallback string) string {
	if u != nil {
		if name := u.FullName(); name != "" {
			return name
		}
	}
	return fallback
}
