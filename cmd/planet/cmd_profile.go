package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}
	cmd.AddCommand(c.profileUpdateCmd())
	return cmd
}

func (c *cli) profileUpdateCmd() *cobra.Command {
	var (
		name, password, mbti, gender string
		hobbies                      []string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Long: `Change one or more profile fields. Only the flags you pass are sent.

Passing --hobby replaces the whole hobby list.`,
		Example: `  planet profile update --name Ann
  planet profile update --mbti ENFJ --hobby hiking --hobby chess`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req planetsdk.UserUpdateRequest
			flags := cmd.Flags()

			if flags.Changed("name") {
				req.Name = &name
			}
			if flags.Changed("password") {
				req.Password = &password
			}
			if flags.Changed("mbti") {
				m, err := planetsdk.ParseMBTI(mbti)
				if err != nil {
					return &inputError{err: err}
				}
				req.MBTI = &m
			}
			if flags.Changed("gender") {
				g, err := planetsdk.ParseGender(gender)
				if err != nil {
					return &inputError{err: err}
				}
				req.Gender = &g
			}
			if flags.Changed("hobby") {
				req.Hobbies = hobbies
				if req.Hobbies == nil {
					req.Hobbies = []string{}
				}
			}

			if err := req.Validate(); err != nil {
				return &inputError{err: err}
			}

			user, err := c.app.Queries.UpdateProfile(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.render(cmd, user, func(w io.Writer) error {
				fmt.Fprintln(w, "Profile updated.")
				return printUser(w, user)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	cmd.Flags().StringVar(&mbti, "mbti", "", "MBTI type, e.g. INFP")
	cmd.Flags().StringVar(&gender, "gender", "", "Male or Female")
	cmd.Flags().StringSliceVar(&hobbies, "hobby", nil, "a hobby (repeatable, replaces the list)")
	return cmd
}
