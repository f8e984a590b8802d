package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tawa-dev/TalentVerify/internal/client"
	"github.com/Tawa-dev/TalentVerify/internal/token"
)

func loginCmd(build func() *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and persist the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}

			a := build()
			user, err := a.session.Login(context.Background(), args[0], pw)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func logoutCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := build()
			a.session.Logout()
			fmt.Println("Logged out")
			return nil
		},
	}
}

func registerCmd(build func() *app) *cobra.Command {
	var password, role string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}

			a := build()
			user, err := a.session.Register(context.Background(), client.RegisterInput{
				Email:    args[0],
				Password: pw,
				Role:     role,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Registered and logged in as %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", "", "Requested role (defaults to general_user)")
	return cmd
}

func whoamiCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			user, err := a.api.Me(ctx)
			if err != nil {
				// The token-derived identity is still good enough to name
				// the account.
				user = a.session.CurrentUser()
				if user == nil {
					return err
				}
			}
			fmt.Printf("ID:      %d\n", user.ID)
			fmt.Printf("Email:   %s\n", user.Email)
			fmt.Printf("Role:    %s\n", user.Role)
			if user.CompanyID != 0 {
				fmt.Printf("Company: %d\n", user.CompanyID)
			}
			return nil
		},
	}
}

func tokenCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Inspect the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := build()
			access, err := a.store.AccessToken(context.Background())
			if err != nil {
				return err
			}
			if access == "" {
				return errNotLoggedIn
			}

			claims := token.Decode(access)
			if claims == nil {
				return errors.New("stored access token is not decodable")
			}
			fmt.Printf("Subject: %s\n", claims.Subject)
			fmt.Printf("Email:   %s\n", claims.Email)
			fmt.Printf("Role:    %s\n", token.NormalizeRole(claims.Role))
			if exp, ok := claims.ExpiresAt(); ok {
				fmt.Printf("Expires: %s", exp.Format(time.RFC3339))
				switch {
				case token.IsExpired(access, time.Now()):
					fmt.Print(" (expired)")
				case token.ExpiresSoon(access, a.cfg.RefreshBuffer, time.Now()):
					fmt.Print(" (expiring soon)")
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func resolvePassword(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password is required")
	}
	return pw, nil
}
