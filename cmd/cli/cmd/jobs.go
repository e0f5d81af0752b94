package cmd

import (
	"fmt"
	"text/tabwriter"

	"statusboard/pkg/api"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List your jobs",
	Long: `List the jobs you own. Jobs that finished or failed since the last
listing are shown one final time and then removed by the controller.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !requireToken(cmd) {
			return
		}

		jobs, err := newClient().ListJobs()
		if err != nil {
			printAPIError(cmd, "List", err)
			return
		}
		printJobs(cmd, jobs, false)
	},
}

var jobsAllCmd = &cobra.Command{
	Use:   "all",
	Short: "List every user's jobs (admin only)",
	Long: `List the jobs of every user. Requires an administrator API key. This
view never removes finished jobs.

Example:
  statusctl jobs all
  statusctl jobs all --type deploy,export-gis`,
	Run: func(cmd *cobra.Command, args []string) {
		types, _ := cmd.Flags().GetStringSlice("type")

		if !requireToken(cmd) {
			return
		}

		jobs, err := newClient().ListAllJobs(types)
		if err != nil {
			printAPIError(cmd, "List", err)
			return
		}
		printJobs(cmd, jobs, true)
	},
}

func printJobs(cmd *cobra.Command, jobs []api.JobResponse, withOwner bool) {
	if len(jobs) == 0 {
		cmd.Println("No jobs found.")
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if withOwner {
		fmt.Fprintln(w, "ID\tOWNER\tTYPE\tNAME\tSTATE\tPROGRESS\tMESSAGE")
	} else {
		fmt.Fprintln(w, "ID\tTYPE\tNAME\tSTATE\tPROGRESS\tMESSAGE")
	}
	for _, j := range jobs {
		if withOwner {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
				j.ID, j.OwnerID, j.Type, j.Name, jobState(j.Status), j.Status.PercentComplete, j.Status.Message)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
				j.ID, j.Type, j.Name, jobState(j.Status), j.Status.PercentComplete, j.Status.Message)
		}
	}
	w.Flush()
}

func init() {
	jobsAllCmd.Flags().StringSlice("type", []string{}, "Only show jobs of these types")

	jobsCmd.AddCommand(jobsAllCmd)
	rootCmd.AddCommand(jobsCmd)
}
