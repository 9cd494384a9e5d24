package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const tokenHashCost = 14

var tokenCmd = &cobra.Command{
	Use:   "token [token]",
	Short: "Hash an access token for GYMTRACKER_ACCESS_SECRET_HASH",
	Long: `token hashes the given access token with bcrypt. Without an argument a
random token is generated first. Put the hash in the service environment
and send the token in the X-GYM-TOKEN header.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := ""
		if len(args) == 1 {
			token = args[0]
		}
		return tokenRun(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func tokenRun(token string) error {
	if token == "" {
		var err error
		token, err = generateToken(32)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		ui.Info("token: %s", cyan(token))
	}

	hash, err := hashToken(token, tokenHashCost)
	if err != nil {
		return fmt.Errorf("hash token: %w", err)
	}
	ui.Success("hash: %s", hash)

	return nil
}

func hashToken(token string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	return string(hash), err
}

// generateToken returns a URL-safe, base64 encoded random token of n bytes.
func generateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
