package cmd

import (
	"statusboard/internal/auth"

	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an API key for a new user",
	Long: `Generate a random API key and print it with the hash the controller stores.

Give the key to the user and add the hash to the controller's users list:

  users:
    - id: planner
      api_key_hash: <hash>

Example:
  statusctl keygen --user planner`,
	Run: func(cmd *cobra.Command, args []string) {
		user, _ := cmd.Flags().GetString("user")

		key, err := auth.GenerateKey()
		if err != nil {
			cmd.Printf("Error: failed to generate key: %v\n", err)
			return
		}

		cmd.Printf("API Key: %s\n", key)
		cmd.Printf("Key Hash: %s\n", auth.HashKey(key))
		if user != "" {
			cmd.Printf("\nConfig entry:\n  - id: %s\n    api_key_hash: %s\n", user, auth.HashKey(key))
		}
	},
}

func init() {
	keygenCmd.Flags().StringP("user", "u", "", "User id to print a config entry for")

	rootCmd.AddCommand(keygenCmd)
}
