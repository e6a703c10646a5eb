package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repoviz/internal/auth"
)

var tokenSave bool

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the API bearer token",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new API token",
	Long: `Generate a new API token and print it together with its bcrypt hash.
The token is shown once. Put the hash in server.tokenHash, or pass --save to
write it to .repoviz/config.json in the current directory.`,
	Args: cobra.NoArgs,
	RunE: runTokenCreate,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenCreateCmd)

	tokenCreateCmd.Flags().BoolVar(&tokenSave, "save", false, "Store the hash in the project config")
}

func runTokenCreate(cmd *cobra.Command, args []string) error {
	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	hash, err := auth.HashToken(token)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Token: %s\n", token)
	fmt.Fprintf(out, "Hash:  %s\n", hash)

	if !tokenSave {
		return nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Server.TokenHash = hash
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := cfg.Save(wd); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved hash for %s to .repoviz/config.json\n", auth.MaskToken(token))
	return nil
}
