package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mitaan/mitaan/internal/credstore"
	"github.com/mitaan/mitaan/internal/input"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage the admin session",
	GroupID: "session",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the content backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		username, _ := cmd.Flags().GetString("username")
		fromStdin, _ := cmd.Flags().GetBool("password-stdin")

		password := ""
		if fromStdin {
			password, err = input.FirstLine(os.Stdin)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
		}
		username, password, err = promptCredentials(username, password)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		if err := login(ctx, a, username, password); err != nil {
			output.Error("login failed: %v", err)
			return err
		}
		output.Success("Logged in as %s", username)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the session and clear stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		if err := a.Client.Logout(ctx); err != nil {
			// Local credentials are gone even when the server call fails.
			output.Warning("%v", err)
		}
		fmt.Fprintln(output.Stdout, "Logged out.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		st, err := sessionStatus(a, time.Now())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if !st.LoggedIn {
			fmt.Fprintln(output.Stdout, "Not logged in.")
			return nil
		}
		fmt.Fprintf(output.Stdout, "Server:   %s\n", a.Config.API.BaseURL)
		if st.Username != "" {
			fmt.Fprintf(output.Stdout, "User:     %s\n", st.Username)
		}
		if !st.ExpiresAt.IsZero() {
			state := "valid"
			if st.Expired {
				state = "expired, will refresh on next request"
			}
			fmt.Fprintf(output.Stdout, "Token:    %s (%s, expires %s)\n", st.TokenPrefix, state, st.ExpiresAt.Local().Format(time.RFC1123))
		} else {
			fmt.Fprintf(output.Stdout, "Token:    %s\n", st.TokenPrefix)
		}
		fmt.Fprintf(output.Stdout, "Refresh:  %v\n", st.HasRefresh)
		return nil
	},
}

var authVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Ask the backend whether the stored session is accepted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		ok, err := a.Client.Verify(ctx)
		if err != nil {
			output.Error("verify: %v", err)
			return err
		}
		if !ok {
			output.Warning("session rejected; run 'mitaan auth login'")
			return errors.New("not authenticated")
		}
		output.Success("Session accepted")
		return nil
	},
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authVerifyCmd)
	rootCmd.AddCommand(authCmd)

	authLoginCmd.Flags().StringP("username", "u", "", "admin username")
	authLoginCmd.Flags().Bool("password-stdin", false, "read the password from stdin")
}

// login exchanges credentials for a session and stores it.
func login(ctx context.Context, a *app, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return errors.New("username and password are required")
	}
	if err := a.Client.Login(ctx, username, password); err != nil {
		return err
	}
	a.Logger.Info("logged in")
	return nil
}

// promptCredentials fills in whatever is missing. A terminal gets a huh
// form when both are missing and a hidden prompt for the password alone.
func promptCredentials(username, password string) (string, string, error) {
	if username != "" && password != "" {
		return username, password, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", "", errors.New("no terminal: pass --username and --password-stdin")
	}

	if username == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Username").Value(&username),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
		)).WithTheme(huh.ThemeDracula())
		if err := form.Run(); err != nil {
			return "", "", err
		}
		return strings.TrimSpace(username), password, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	return username, string(raw), nil
}

// status describes the stored credentials.
type status struct {
	LoggedIn    bool
	Username    string
	TokenPrefix string
	ExpiresAt   time.Time
	Expired     bool
	HasRefresh  bool
}

// sessionStatus reads the stored token without verifying its signature;
// the backend remains the authority on whether it is accepted.
func sessionStatus(a *app, now time.Time) (status, error) {
	token, err := a.Client.Token()
	if err != nil {
		return status{}, fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return status{}, nil
	}
	st := status{LoggedIn: true, TokenPrefix: token}
	if len(st.TokenPrefix) > 12 {
		st.TokenPrefix = st.TokenPrefix[:12] + "..."
	}
	if rt, ok, err := a.Store.Get(credstore.KeyRefreshToken); err == nil && ok && rt != "" {
		st.HasRefresh = true
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		a.Logger.Debug("stored token is not a JWT")
		return st, nil
	}
	if u, ok := claims["username"].(string); ok {
		st.Username = u
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		st.ExpiresAt = exp.Time
		st.Expired = !now.Before(exp.Time)
	}
	return st, nil
}
