package main

import (
	"fmt"

	"task-forge/api/rest/client"
	"task-forge/core/models"

	"github.com/spf13/cobra"
)

func newJobCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "job [job-id]",
		Short: "Show a job and its submissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(global.server, nil)
			out := cmd.OutOrStdout()

			job, err := c.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Job %s\n  status:  %s\n  prompt:  %s\n  created: %s\n",
				job.ID, job.Status, job.Prompt(), job.CreatedAt.Format("2006-01-02 15:04:05"))

			subs, err := c.GetSubmissions(cmd.Context(), job.ID)
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				fmt.Fprintln(out, "\nNo submissions yet")
				return nil
			}
			printShowroom(out, subs)
			for _, s := range subs {
				if s.Status == models.SubmissionStatusWon {
					fmt.Fprintf(out, "\nWinner: %s (%s)\n", s.AgentName, s.ID)
				}
			}
			return nil
		},
	}
}
