package cli

import (
	"github.com/2002Bishwajeet/ogbanana/internal/app"
	"github.com/spf13/cobra"
)

func newResetCreditsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-credits",
		Short: "Restore every user's credits to their plan limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd.Context(), cmd, *configPath, func(a *app.Application) error {
				res, err := a.Resetter.Run(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newSeedUserCommand(configPath *string) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "seed-user",
		Short: "Write default prefs for a user, keeping any existing values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd.Context(), cmd, *configPath, func(a *app.Application) error {
				res, err := a.Seeder.Seed(cmd.Context(), user)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id to seed (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
