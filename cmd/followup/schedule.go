package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/followup/internal/schedule"
)

var (
	scheduleClientID   string
	scheduleTemplateID string
	scheduleDelay      string
	scheduleLanguage   string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule a follow-up email",
	Example: `  followup schedule --client 01J... --template check-in --delay 1week
  followup schedule --client 01J... --template check-in --delay immediate --lang es`,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		delay, err := schedule.ParseDelay(scheduleDelay)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, rt.close(ctx)) }()

		svc := schedule.NewService(rt.store, schedule.WithLogger(rt.log))
		rec, err := svc.ScheduleEmail(ctx, schedule.ScheduleParams{
			ClientID:   scheduleClientID,
			TemplateID: scheduleTemplateID,
			Delay:      delay,
			Language:   scheduleLanguage,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <scheduled-email-id>",
	Short: "Cancel a pending follow-up email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, rt.close(ctx)) }()

		rec, err := schedule.NewService(rt.store, schedule.WithLogger(rt.log)).Cancel(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleClientID, "client", "", "client id")
	scheduleCmd.Flags().StringVar(&scheduleTemplateID, "template", "", "template id")
	scheduleCmd.Flags().StringVar(&scheduleDelay, "delay", string(schedule.DelayOneDay), "immediate, 1day, 1week or 1month")
	scheduleCmd.Flags().StringVar(&scheduleLanguage, "lang", "", "language override (default en)")
	_ = scheduleCmd.MarkFlagRequired("client")
	_ = scheduleCmd.MarkFlagRequired("template")
}
