package main

import (
	"fmt"

	"evernote-drive/auth"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to Google Drive",
	Long: `Auth runs the OAuth consent flow for the client in credentials.json and
stores the resulting token. The consent page redirects to a short-lived
server on 127.0.0.1, so the port must match the OAuth client's redirect URI.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		oauthConfig, err := auth.LoadConfig(appConfig.CredentialsFile, appConfig.AuthPort)
		if err != nil {
			return err
		}

		store := auth.NewTokenStore(appConfig.TokenFile)
		if _, err := auth.Authorize(cmd.Context(), oauthConfig, store, cmd.OutOrStdout(), logger); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Authorized. Token saved to %s\n", store.Path())
		return nil
	},
}

func init() {
	authCmd.Flags().Int("port", auth.DefaultPort, "loopback port for the OAuth redirect")
	authCmd.Flags().String("credentials", "", "OAuth client secret file (default: ~/.config/evernote-drive/credentials.json)")

	bindFlags(authCmd.Flags().Lookup, map[string]string{
		"auth_port":        "port",
		"credentials_file": "credentials",
	})

	rootCmd.AddCommand(authCmd)
}
