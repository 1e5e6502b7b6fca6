package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

func (c *cli) registerCmd() *cobra.Command {
	var (
		req          planetsdk.SignUpRequest
		mbti, gender string
		hobbies      []string
		passwordFlag string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Create a Planet account and sign in with it.

MBTI is one of the 16 four-letter types (for example INFP) and gender is
Male or Female. Pass --hobby once per hobby. The password is read from
stdin when --password is not given.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd, passwordFlag)
			if err != nil {
				return err
			}
			req.Password = password
			req.MBTI = planetsdk.MBTI(strings.ToUpper(mbti))
			req.Gender = planetsdk.Gender(gender)
			if g, err := planetsdk.ParseGender(gender); err == nil {
				req.Gender = g
			}
			req.Hobbies = hobbies

			if err := req.Validate(); err != nil {
				return &inputError{err: err}
			}

			user, err := c.app.Session.SignUp(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.render(cmd, user, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Welcome to Planet, %s! Signed in as %s.\n", user.Name, user.Email)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&passwordFlag, "password", "", "password (read from stdin when empty)")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&mbti, "mbti", "", "MBTI type, e.g. INFP")
	cmd.Flags().StringVar(&gender, "gender", "", "Male or Female")
	cmd.Flags().StringSliceVar(&hobbies, "hobby", nil, "a hobby (repeatable)")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var email, passwordFlag string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd, passwordFlag)
			if err != nil {
				return err
			}

			req := planetsdk.SignInRequest{Email: email, Password: password}
			if err := req.Validate(); err != nil {
				return &inputError{err: err}
			}

			user, err := c.app.Session.SignIn(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.render(cmd, user, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Signed in as %s (%s).\n", user.Name, user.Email)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&passwordFlag, "password", "", "password (read from stdin when empty)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credentials",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Queries.SignOut(cmd.Context()); err != nil {
				return err
			}
			return c.render(cmd, map[string]bool{"signedIn": false}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "Signed out.")
				return err
			})
		},
	}
}

type statusView struct {
	SignedIn  bool            `json:"signedIn"`
	Expired   bool            `json:"expired"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	User      *planetsdk.User `json:"user,omitempty"`
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without contacting the server",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := c.app.Session
			view := statusView{
				SignedIn: s.IsSignedIn(),
				User:     s.User(),
			}
			if exp := s.ExpiresAt(); !exp.IsZero() {
				view.ExpiresAt = &exp
				view.Expired = s.Expired(c.now())
			}

			return c.render(cmd, view, func(w io.Writer) error {
				if !view.SignedIn {
					_, err := fmt.Fprintln(w, "Not signed in. Run `planet login`.")
					return err
				}

				who := "unknown user"
				if view.User != nil {
					who = fmt.Sprintf("%s (%s)", view.User.Name, view.User.Email)
				}
				fmt.Fprintf(w, "Signed in as %s\n", who)
				fmt.Fprintf(w, "API:     %s\n", c.app.Config().BaseURL)
				if view.ExpiresAt != nil {
					state := "valid"
					if view.Expired {
						state = "expired"
					}
					fmt.Fprintf(w, "Token:   %s, expires %s\n", state, formatTime(*view.ExpiresAt))
				}
				return nil
			})
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Fetch the signed-in user from the server",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.app.Queries.Me(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, user, func(w io.Writer) error {
				return printUser(w, user)
			})
		},
	}
}

func printUser(w io.Writer, u *planetsdk.User) error {
	_, err := fmt.Fprintf(w,
		"Name:    %s\nEmail:   %s\nMBTI:    %s\nGender:  %s\nHobbies: %s\n",
		u.Name, u.Email, u.MBTI, u.Gender, strings.Join(u.Hobbies, ", "),
	)
	return err
}
