package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateSuperadminCmd(opts *rootOptions) *cobra.Command {
	var username, password string
	c := &cobra.Command{
		Use:   "create-superadmin",
		Short: "Create a superadmin account",
		Long: `create-superadmin creates a user with the superadmin role. Only a superadmin
can register users through the API, so the first one has to be created here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.build(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()
			u, err := a.accounts.BootstrapSuperadmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created superadmin %q (id %d)\n", u.Username, u.ID)
			return nil
		},
	}
	c.Flags().StringVar(&username, "username", "", "username of the new superadmin")
	c.Flags().StringVar(&password, "password", "", "password of the new superadmin (at least 8 characters)")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}
