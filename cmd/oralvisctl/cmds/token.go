package cmds

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oralvis/oralvis-api/internal/config"
	"github.com/oralvis/oralvis-api/internal/patienttoken"
)

var (
	tokenEmail   string
	tokenSubject string
	tokenSecret  string
	tokenTTL     time.Duration
)

// Stands in for the login service in development
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a patient token",
	Long:  "Signs a patient token with the configured secret, or with --secret when given.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		secret := tokenSecret
		if secret == "" {
			cfg, err := config.GetConfig()
			if err != nil {
				return fmt.Errorf("no --secret given and config failed to load: %w", err)
			}
			secret = cfg.Auth.JWTSecret
		}
		if len(secret) < 16 {
			return errors.New("secret must be at least 16 characters")
		}

		subject := tokenSubject
		if subject == "" {
			subject = uuid.NewString()
		}

		token, err := patienttoken.Issue([]byte(secret), subject, tokenEmail, tokenTTL, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Patient email")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Subject claim, random when empty")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "HMAC secret, read from config when empty")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
	if err := tokenCmd.MarkFlagRequired("email"); err != nil {
		panic("Internal error contact a contributor [email-flag-required]")
	}
	rootCmd.AddCommand(tokenCmd)
}
