package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/blog-api/internal/service"
	"github.com/blog-api/internal/validation"
	"github.com/spf13/cobra"
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an active staff superuser",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		user, err := a.services.Users.CreateSuperuser(cmd.Context(), &service.UserInput{
			Username:  &username,
			Email:     &email,
			Password:  &password,
			Password2: &password,
		})
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (id %d)\n", user.Username, user.ID)
		return nil
	},
}

var flushTokensCmd = &cobra.Command{
	Use:   "flush-tokens",
	Short: "Delete blacklisted tokens that have expired",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		purged, err := a.services.Maintenance.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired tokens\n", purged)
		return nil
	},
}

var rebuildRankingCmd = &cobra.Command{
	Use:   "rebuild-ranking",
	Short: "Rebuild the popular posts ranking from stored like counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.services.Popular.Rebuild(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ranking rebuilt with %d posts\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createSuperuserCmd, flushTokensCmd, rebuildRankingCmd)

	createSuperuserCmd.Flags().StringP("username", "u", "", "username (required)")
	createSuperuserCmd.Flags().StringP("email", "e", "", "email address (required)")
	createSuperuserCmd.Flags().StringP("password", "p", "", "password (required)")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	_ = createSuperuserCmd.MarkFlagRequired("email")
	_ = createSuperuserCmd.MarkFlagRequired("password")
}

// describe flattens field errors into one line per field
func describe(err error) error {
	var verr *validation.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f+": "+strings.Join(verr.Fields[f], " "))
	}
	return errors.New(strings.Join(lines, "\n"))
}
