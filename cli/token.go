package cli

import (
	"errors"
	"fmt"
	"time"

	"devicetracker/utils"

	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

// tokenCmd mints a bearer token for POST /reset.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for POST /reset",
	Long:  `Signs an HS256 token with RESET_JWT_SECRET. The server only checks tokens when that secret is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.ResetSecret == "" {
			return errors.New("RESET_JWT_SECRET is not set")
		}

		token, exp, err := utils.GenerateToken([]byte(cfg.ResetSecret), tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", time.Unix(exp, 0).UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "subject recorded in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
