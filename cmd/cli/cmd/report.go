package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

// milestones maps the short names accepted by --milestone to report parameters.
var milestones = map[string]string{
	"graph-build":     "graphBuildSuccess",
	"bundle-download": "bundleDownloadSuccess",
}

var reportCmd = &cobra.Command{
	Use:   "report [job_id]",
	Short: "Report deploy progress as a provisioned instance",
	Long: `Report a deploy milestone for a job. This is what a provisioned routing
server does once it has downloaded its bundle or built its graph. It uses the
job token printed by 'statusctl submit', not an API key.

Example:
  statusctl report <job-id> --user u1 --job-token <token> --milestone bundle-download
  statusctl report <job-id> --user u1 --job-token <token> --milestone graph-build --failed`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		user, _ := flags.GetString("user")
		jobToken, _ := flags.GetString("job-token")
		name, _ := flags.GetString("milestone")
		failed, _ := flags.GetBool("failed")

		if user == "" || jobToken == "" {
			cmd.Println("Error: --user and --job-token are required")
			return
		}

		update, ok := milestones[strings.ToLower(name)]
		if !ok {
			cmd.Println("Error: --milestone must be graph-build or bundle-download")
			return
		}

		applied, err := newClient().ReportStatus(args[0], user, jobToken, update, !failed)
		if err != nil {
			printAPIError(cmd, "Report", err)
			return
		}

		if !applied {
			cmd.Println("Report accepted but nothing changed (the job may already be finished).")
			return
		}
		cmd.Printf("✓ Reported %s for job %s\n", name, args[0])
	},
}

func init() {
	flags := reportCmd.Flags()
	flags.String("user", "", "Owner of the job (required)")
	flags.String("job-token", "", "Job token returned at submission (required)")
	flags.String("milestone", "", "Milestone to report: graph-build or bundle-download (required)")
	flags.Bool("failed", false, "Report the milestone as failed")

	rootCmd.AddCommand(reportCmd)
}
