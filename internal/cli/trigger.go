package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewTriggerCmd создаёт группу команд для управления триггерами.
func NewTriggerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Manage pipeline triggers",
	}

	cmd.AddCommand(
		newTriggerListCmd(clientFn, outputFn),
		newTriggerCreateCmd(clientFn, outputFn),
		newTriggerDeleteCmd(clientFn, outputFn),
		newTriggerEnableCmd(clientFn, outputFn, true),
		newTriggerEnableCmd(clientFn, outputFn, false),
	)

	return cmd
}

func newTriggerListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			triggers, err := client.ListTriggers()
			if err != nil {
				return err
			}

			headers := []string{"ID", "PIPELINE", "SCHEDULE", "ENABLED", "NEXT_DUE"}
			rows := make([][]string, len(triggers))
			for i, t := range triggers {
				schedule := t.CronExpr
				if schedule == "" {
					schedule = "every " + strconv.Itoa(t.IntervalSec) + "s"
				}
				rows[i] = []string{t.ID, t.Pipeline, schedule, strconv.FormatBool(t.Enabled), t.NextDueAt}
			}

			out.Print(headers, rows, triggers)
			return nil
		},
	}
}

func newTriggerCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var cronExpr string
	var intervalSec int
	var timezone string
	var disabled bool

	cmd := &cobra.Command{
		Use:   "create PIPELINE",
		Short: "Create a trigger for a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			enabled := !disabled
			trg, err := client.CreateTrigger(CreateTriggerRequest{
				Pipeline:    args[0],
				CronExpr:    cronExpr,
				IntervalSec: intervalSec,
				Timezone:    timezone,
				Enabled:     &enabled,
			})
			if err != nil {
				return err
			}

			out.Success("Trigger created: " + trg.ID)
			out.JSON(trg)
			return nil
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (e.g. \"0 12 * * *\")")
	cmd.Flags().IntVar(&intervalSec, "interval", 0, "Interval in seconds")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone (e.g. Europe/Berlin)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the trigger disabled")

	return cmd
}

func newTriggerDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a trigger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteTrigger(args[0]); err != nil {
				return err
			}
			outputFn().Success("Trigger deleted: " + args[0])
			return nil
		},
	}
}

func newTriggerEnableCmd(clientFn func() *Client, outputFn func() *Output, enable bool) *cobra.Command {
	use, short, done := "enable ID", "Enable a trigger", "Trigger enabled: "
	if !enable {
		use, short, done = "disable ID", "Disable a trigger", "Trigger disabled: "
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().SetTriggerEnabled(args[0], enable); err != nil {
				return err
			}
			outputFn().Success(done + args[0])
			return nil
		},
	}
}
