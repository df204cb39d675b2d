// Command admin runs operator tasks against the NagarNeuron database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"nagarneuron/backend/internal/app"
	"nagarneuron/backend/internal/audit"
	"nagarneuron/backend/internal/config"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/models"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

type rootOpts struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:           "admin",
		Short:         "NagarNeuron operator commands",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", os.Getenv("NAGAR_CONFIG_FILE"), "path to a YAML config file")

	root.AddCommand(
		newSeedCmd(opts),
		newSetStatusCmd(opts),
		newAwardCmd(opts),
		newCheckCmd(opts),
	)
	return root
}

// withApp loads the config, builds the app and runs fn against it.
func withApp(cmd *cobra.Command, opts *rootOpts, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newSeedCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load sample complaints and hotspots into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				return a.SeedSamples(ctx)
			})
		},
	}
}

func newSetStatusCmd(opts *rootOpts) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "set-status <complaintId> <status>",
		Short: "Move a complaint to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := models.Status(args[1])
			if !status.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			var notes *string
			if note != "" {
				notes = &note
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				out, err := a.Lifecycle.Transition(ctx, args[0], status, notes)
				if err != nil {
					return err
				}
				cmd.Printf("complaint %s is now %s (%d history entries)\n",
					out.Complaint.ComplaintID, out.Complaint.Status, len(out.Complaint.StatusHistory))
				if out.PointsEarned > 0 {
					cmd.Printf("reporter earned %d points\n", out.PointsEarned)
				}
				printWarnings(cmd, out.Warnings)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note stored on the history entry")
	return cmd
}

func newAwardCmd(opts *rootOpts) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "award <userId> <action>",
		Short: "Grant the points of an action to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				award, err := a.Gamification.AwardPoints(ctx, uint(id), models.Action(args[1]), description, nil)
				if err != nil {
					return err
				}
				cmd.Printf("user %d earned %d points, total %d\n", id, award.PointsEarned, award.TotalPoints)
				for _, b := range award.NewBadges {
					cmd.Printf("unlocked badge %s %s\n", b.Icon, b.Name)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "Manual award", "ledger description")
	return cmd
}

func newCheckCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Audit stored complaints and users for broken invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				violations, err := audit.Run(ctx, a.DB)
				if err != nil {
					return err
				}
				for _, v := range violations {
					cmd.Println(v.String())
				}
				if len(violations) > 0 {
					return fmt.Errorf("%d invariant violations", len(violations))
				}
				cmd.Println("ok")
				return nil
			})
		},
	}
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		cmd.PrintErrf("warning: %s\n", w)
	}
}
