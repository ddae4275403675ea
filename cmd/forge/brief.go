package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"task-forge/api/rest/client"
	"task-forge/core/brief"
	"task-forge/core/models"
	"task-forge/core/poller"
	"task-forge/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type briefOptions struct {
	file     string
	pick     int
	pickBest bool
	interval time.Duration
	wait     time.Duration
}

func newBriefCmd(global *globalOptions) *cobra.Command {
	opts := &briefOptions{}

	cmd := &cobra.Command{
		Use:   "brief [prompt]",
		Short: "Submit a brief and select a winner",
		Long: `Creates a job from the prompt (or a YAML brief file), polls its
submissions until the showroom fills, prints them and selects a winner.

Example:
  forge brief "Minimalist logo for a coffee shop" --pick-best
  forge brief -f brief.yaml --pick 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(args, opts.file)
			if err != nil {
				return err
			}
			logger, err := logging.New(global.logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return runBrief(cmd.Context(), cmd.OutOrStdout(), client.New(global.server, nil), *req, opts, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "YAML brief file")
	cmd.Flags().IntVar(&opts.pick, "pick", 0, "Select the Nth submission (1-based)")
	cmd.Flags().BoolVar(&opts.pickBest, "pick-best", false, "Select the highest scored submission")
	cmd.Flags().DurationVar(&opts.interval, "interval", envDuration("POLL_INTERVAL", poller.DefaultInterval), "Polling interval (defaults to POLL_INTERVAL)")
	cmd.Flags().DurationVar(&opts.wait, "wait", 2*time.Minute, "Give up when the showroom stays empty this long")
	cmd.MarkFlagsMutuallyExclusive("pick", "pick-best")
	return cmd
}

// envDuration reads a positive duration from the environment
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		fmt.Fprintf(os.Stderr, "ignoring invalid %s=%q\n", key, v)
		return fallback
	}
	return d
}

func buildRequest(args []string, file string) (*models.CreateJobRequest, error) {
	switch {
	case file != "" && len(args) > 0:
		return nil, errors.New("give either a prompt or --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return brief.ParseBrief(string(data))
	case len(args) == 1:
		return &models.CreateJobRequest{Prompt: args[0]}, nil
	default:
		return nil, errors.New("a prompt or --file is required")
	}
}

func runBrief(ctx context.Context, out io.Writer, c *client.Client, req models.CreateJobRequest, opts *briefOptions, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	job, err := c.CreateJob(ctx, req)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	fmt.Fprintf(out, "Job %s (%s)\n", job.ID, job.Status)

	batches := make(chan []models.Submission, 1)
	p := poller.New(c, opts.interval, func(_ string, subs []models.Submission) {
		if len(subs) == 0 {
			return
		}
		select {
		case batches <- subs:
		default:
		}
	}, logger)
	defer p.Stop()

	p.Sync(poller.StepShowroom, job.ID)

	var subs []models.Submission
	select {
	case subs = <-batches:
	case <-time.After(opts.wait):
		return fmt.Errorf("no submissions for job %s after %s", job.ID, opts.wait)
	case <-ctx.Done():
		return ctx.Err()
	}

	printShowroom(out, subs)

	chosen, err := pickSubmission(subs, opts.pick, opts.pickBest)
	if err != nil {
		return err
	}
	if _, err := c.SelectWinner(ctx, job.ID, chosen.ID); err != nil {
		return fmt.Errorf("select winner: %w", err)
	}
	p.Sync(poller.StepWinner, job.ID)

	fmt.Fprintf(out, "\nWinner: %s (%s)\n", chosen.AgentName, chosen.ID)
	return nil
}

// pickSubmission resolves the selection flags. Without flags the first
// submission wins.
func pickSubmission(subs []models.Submission, pick int, best bool) (models.Submission, error) {
	if len(subs) == 0 {
		return models.Submission{}, errors.New("no submissions to choose from")
	}
	if best {
		chosen := subs[0]
		for _, s := range subs[1:] {
			if s.Score != nil && (chosen.Score == nil || *s.Score > *chosen.Score) {
				chosen = s
			}
		}
		return chosen, nil
	}
	if pick == 0 {
		return subs[0], nil
	}
	if pick < 1 || pick > len(subs) {
		return models.Submission{}, fmt.Errorf("--pick %d out of range 1..%d", pick, len(subs))
	}
	return subs[pick-1], nil
}

func printShowroom(out io.Writer, subs []models.Submission) {
	fmt.Fprintln(out, "\nShowroom:")
	for i, s := range subs {
		score := "-"
		if s.Score != nil {
			score = fmt.Sprintf("%.1f/%g", *s.Score, models.MaxScore)
		}
		fmt.Fprintf(out, "  %d. %-16s %-6s score %-7s %s\n", i+1, s.AgentName, s.ContentKind(), score, preview(s))
	}
}

func preview(s models.Submission) string {
	var text string
	switch s.ContentKind() {
	case models.ContentImage:
		text = s.AssetURL
	case models.ContentCode:
		text = s.Code
	default:
		text = s.ProposalText
	}
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > 60 {
		text = string(runes[:57]) + "..."
	}
	return text
}
