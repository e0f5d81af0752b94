package cmd

import (
	"fmt"
	"time"

	"statusboard/pkg/api"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "Get status of a job",
	Long: `Retrieve detailed status information for a job, including its state
(PENDING, RUNNING, COMPLETED, FAILED), progress message and timestamps.

A finished job is shown once; after that the controller no longer knows it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !requireToken(cmd) {
			return
		}

		job, err := newClient().GetJob(args[0])
		if err != nil {
			printAPIError(cmd, "Status", err)
			return
		}

		printStatus(cmd, *job)
	},
}

// jobState condenses a job status into one display word.
func jobState(s api.JobStatus) string {
	switch {
	case s.Error:
		return "FAILED"
	case s.Completed:
		return "COMPLETED"
	case s.StartedAt != nil:
		return "RUNNING"
	default:
		return "PENDING"
	}
}

func printStatus(cmd *cobra.Command, job api.JobResponse) {
	state := jobState(job.Status)

	// Header with status icon
	cmd.Printf("%s %sJob Details%s\n", statusIcon(state), colorBold, colorReset)
	cmd.Println("──────────────────────────────")

	cmd.Printf("%sID:%s          %s\n", colorDim, colorReset, job.ID)
	cmd.Printf("%sName:%s        %s\n", colorDim, colorReset, job.Name)
	cmd.Printf("%sType:%s        %s\n", colorDim, colorReset, job.Type)
	cmd.Printf("%sStatus:%s      %s\n", colorDim, colorReset, colorizeStatus(state))
	cmd.Printf("%sProgress:%s    %.0f%%\n", colorDim, colorReset, job.Status.PercentComplete)

	if job.Status.Message != "" {
		cmd.Printf("%sMessage:%s     %s\n", colorDim, colorReset, job.Status.Message)
	}

	if job.Type == "deploy" {
		cmd.Printf("%sBundle:%s      %s\n", colorDim, colorReset, milestone(job.Status.BundleDownloaded))
		cmd.Printf("%sGraph:%s       %s\n", colorDim, colorReset, milestone(job.Status.GraphBuilt))
	}

	// Error (if present)
	if job.Status.Exception != "" {
		cmd.Printf("%sError:%s       %s%s%s\n", colorDim, colorReset, colorRed, job.Status.Exception, colorReset)
	}

	cmd.Printf("%sStarted:%s     %s\n", colorDim, colorReset, formatTimeWithRelative(job.Status.StartedAt))

	// Duration if both times available
	if job.Status.StartedAt != nil && job.Status.FinishedAt != nil {
		duration := job.Status.FinishedAt.Sub(*job.Status.StartedAt)
		cmd.Printf("%sFinished:%s    %s %s(%s)%s\n", colorDim, colorReset,
			formatTimeWithRelative(job.Status.FinishedAt),
			colorCyan, formatDuration(duration), colorReset)
	} else {
		cmd.Printf("%sFinished:%s    %s\n", colorDim, colorReset, formatTimeWithRelative(job.Status.FinishedAt))
	}
}

func milestone(done bool) string {
	if done {
		return colorGreen + "done" + colorReset
	}
	return colorDim + "waiting" + colorReset
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(state string) string {
	switch state {
	case "COMPLETED":
		return colorGreen + "✓" + colorReset
	case "FAILED":
		return colorRed + "✗" + colorReset
	case "RUNNING":
		return colorYellow + "⏳" + colorReset
	case "PENDING":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(state string) string {
	icon := statusIcon(state)
	switch state {
	case "COMPLETED":
		return icon + " " + colorGreen + state + colorReset
	case "FAILED":
		return icon + " " + colorRed + state + colorReset
	case "RUNNING":
		return icon + " " + colorYellow + state + colorReset
	case "PENDING":
		return icon + " " + colorCyan + state + colorReset
	default:
		return state
	}
}

func formatTimeWithRelative(t *time.Time) string {
	if t == nil {
		return "-"
	}
	relative := relativeTime(*t)
	return fmt.Sprintf("%s %s(%s ago)%s", t.Format("Mon, 02 Jan 2006 15:04:05 MST"), colorDim, relative, colorReset)
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
