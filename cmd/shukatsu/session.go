package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hiro4859/syukatsu-base-v2/internal/auth"
)

var (
	loginFlagEmail  string
	loginFlagSignUp bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in, or create an account with --signup",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show who is signed in",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVarP(&loginFlagEmail, "email", "e", "", "Account email")
	loginCmd.Flags().BoolVar(&loginFlagSignUp, "signup", false, "Create the account first")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	src := cmd.InOrStdin()
	in := bufio.NewReader(src)
	out := cmd.ErrOrStderr()

	email := loginFlagEmail
	if email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		email = strings.TrimSpace(line)
	}
	fmt.Fprint(out, "Password: ")
	password, err := readPassword(src, in)
	fmt.Fprintln(out)
	if err != nil {
		return err
	}

	signIn := rt.auth.SignIn
	if loginFlagSignUp {
		signIn = rt.auth.SignUp
	}
	sess, err := signIn(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	rt.sync()
	fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", sess.User.Email)
	return nil
}

// readPassword hides the input on a terminal and reads a plain line otherwise.
func readPassword(src io.Reader, in *bufio.Reader) (string, error) {
	if f, ok := src.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	current := rt.session.Current()
	if current == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
		return nil
	}
	if err := rt.auth.SignOut(cmd.Context(), current.AccessToken); err != nil {
		rt.log.WithError(err).Warn("sign out failed, dropping the local session anyway")
		rt.broker.Publish(auth.Event{Type: auth.SignedOut})
	}
	rt.sync()
	fmt.Fprintln(cmd.OutOrStdout(), "signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	scope, err := rt.scope(cmd.Context())
	if err != nil {
		return err
	}
	current := rt.session.Current()
	if ok, err := printJSON(cmd.OutOrStdout(), map[string]any{"session": current, "demo": scope.Demo}); ok {
		return err
	}
	if current == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "not signed in (showing demo data)")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (session expires %s)\n",
		current.User.Email, current.ExpiresAt.In(rt.cfg.Location).Format("2006-01-02 15:04"))
	return nil
}
