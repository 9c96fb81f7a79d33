package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"identivibe/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials",
	Long: `Manage stored API credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Known providers: apify, youtube, openai.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login <provider>",
	Short: "Store a provider token securely",
	Long: `Store an API token securely in the system keychain or encrypted file.

The token is read from the terminal without echoing.`,
	Example: `  # Store the Apify token
  identivibe auth login apify

  # Store the YouTube API key
  identivibe auth login youtube`,
	Args: cobra.ExactArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <provider>",
	Short: "Remove a stored token",
	Args:  cobra.ExactArgs(1),
	Run:   runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials",
	Long:  `List all stored credentials with masked tokens.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	provider := args[0]

	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	token, err := auth.PromptToken(provider)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if token == "" {
		fmt.Fprintln(os.Stderr, "empty token, nothing stored")
		os.Exit(1)
	}

	if err := manager.Store(&auth.Credential{Provider: provider, Token: token}); err != nil {
		fmt.Fprintln(os.Stderr, "failed to store credential:", err)
		os.Exit(1)
	}

	fmt.Printf("Stored %s token (%s)\n", provider, auth.MaskToken(token))
}

func runLogout(cmd *cobra.Command, args []string) {
	provider := args[0]

	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	if err := manager.Delete(provider); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Removed %s credential\n", provider)
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	creds, err := manager.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to list credentials:", err)
		os.Exit(1)
	}
	if len(creds) == 0 {
		fmt.Println("No stored credentials")
		return
	}

	for _, cred := range creds {
		fmt.Printf("%-10s %s  (modified %s)\n",
			cred.Provider, auth.MaskToken(cred.Token),
			cred.LastModified.Format("2006-01-02 15:04"))
	}
}
