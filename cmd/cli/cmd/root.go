package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "statusctl",
	Short: "Statusctl is a command line tool for the statusboard job status API",
	Long: `statusctl is the command-line interface for the statusboard controller.

Statusboard tracks asynchronous jobs per user. Finished and failed jobs are
reported once by the status endpoints and then removed, so polling always
shows what is still running plus anything that finished since the last poll.

Common workflows:

  Submit a job:
    statusctl submit --type validate-feed --name "Validate March feed"

  List your jobs:
    statusctl jobs

  List every user's jobs (admin):
    statusctl jobs all --type deploy

  Show one job:
    statusctl status <job-id>

  Report deploy progress from a provisioned instance:
    statusctl report <job-id> --user <owner> --job-token <token> --milestone graph-build

  Create a key for a new user:
    statusctl keygen --user planner

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    STATUSBOARD_URL          API endpoint (default: http://localhost:6161)
    STATUSBOARD_API_PREFIX   Route prefix (default: /api/)
    STATUSBOARD_TOKEN        User API key for authentication`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".statusctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".statusctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "STATUSBOARD_VARNAME"
	viper.SetEnvPrefix("STATUSBOARD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.statusctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "Statusboard controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().String("api-prefix", "/api/", "Route prefix of the controller API")
	viper.BindPFlag("api_prefix", rootCmd.PersistentFlags().Lookup("api-prefix"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API key for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}

// newClient builds a client from the resolved configuration.
func newClient() *JobClient {
	return NewJobClient(viper.GetString("url"), viper.GetString("api_prefix"), viper.GetString("token"))
}

// requireToken prints a hint and returns false when no API key is set.
func requireToken(cmd *cobra.Command) bool {
	if viper.GetString("token") == "" {
		cmd.Println("API token not found. Please set it using the --token flag or the STATUSBOARD_TOKEN environment variable")
		return false
	}
	return true
}

func printAPIError(cmd *cobra.Command, action string, err error) {
	if apiErr, ok := err.(*APIError); ok {
		cmd.Printf("%s failed (%d): %s\n", action, apiErr.StatusCode, apiErr.Message)
		return
	}
	cmd.Printf("%s failed: %v\n", action, err)
}
