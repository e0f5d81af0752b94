package cmd

import (
	"statusboard/pkg/api"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new job",
	Long: `Submit a new job to the controller's execution engine.

Deploy jobs print a job token. Hand it to the provisioned instance so it can
report its progress with 'statusctl report'.

Example:
  statusctl submit --type validate-feed --name "Validate March feed"
  statusctl submit --type deploy --name "Deploy to production"
  statusctl submit --type command --command "sh,-c,echo hello"`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		jobType, _ := flags.GetString("type")
		name, _ := flags.GetString("name")
		command, _ := flags.GetStringSlice("command")

		if !requireToken(cmd) {
			return
		}

		if jobType == "" {
			cmd.Println("Error: --type is required")
			return
		}

		if jobType == "command" && len(command) == 0 {
			cmd.Println("Error: --command is required for command jobs")
			return
		}

		result, err := newClient().SubmitJob(api.SubmitJobRequest{
			Type:    jobType,
			Name:    name,
			Command: command,
		})
		if err != nil {
			printAPIError(cmd, "Submit", err)
			return
		}

		cmd.Printf("✓ Job submitted!\nJob ID: %s\n", result.JobID)
		if result.Token != "" {
			cmd.Printf("Job Token: %s\n", result.Token)
		}
	},
}

func init() {
	flags := submitCmd.Flags()
	flags.String("type", "", "Job type: deploy, validate-feed, process-snapshot, merge-feed-versions, export-gis, command (required)")
	flags.StringP("name", "n", "", "Name of the job (optional)")
	flags.StringSliceP("command", "c", []string{}, "Command to execute, for command jobs")

	rootCmd.AddCommand(submitCmd)
}
