package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewRecordCmd создаёт группу команд для журнала ошибок.
func NewRecordCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Manage error records",
	}

	cmd.AddCommand(
		newRecordListCmd(clientFn, outputFn),
		newRecordShowCmd(clientFn, outputFn),
		newRecordReportCmd(clientFn, outputFn),
	)

	return cmd
}

func newRecordListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var kind string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List error records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			records, err := client.ListRecords(ListRecordsOpts{Kind: kind, Limit: limit})
			if err != nil {
				return err
			}

			headers := []string{"ID", "KIND", "ATTEMPTED", "RECOVERED", "CONTEXT", "TIMESTAMP"}
			rows := make([][]string, len(records))
			for i, rec := range records {
				rows[i] = []string{
					rec.ID,
					rec.Kind,
					fmt.Sprintf("%t", rec.RecoveryAttempted),
					fmt.Sprintf("%t", rec.RecoverySuccessful),
					rec.Context,
					rec.Timestamp,
				}
			}

			out.Print(headers, rows, records)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by error kind")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRecordShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an error record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := clientFn().GetRecord(args[0])
			if err != nil {
				return err
			}
			outputFn().JSON(rec)
			return nil
		},
	}
}

func newRecordReportCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var details []string
	var callContext string

	cmd := &cobra.Command{
		Use:   "report KIND",
		Short: "Run an error through the recovery dispatcher",
		Long: `Report a classified error and attempt recovery.

Known kinds: missing-credential, missing-file, missing-dependency,
permission-denied, network-error, interrupted-workflow-cycle,
storage-failure, execution-error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := ReportErrorRequest{
				Kind:    args[0],
				Context: callContext,
			}
			if len(details) > 0 {
				req.Details = make(map[string]any)
				for _, kv := range details {
					parts := strings.SplitN(kv, "=", 2)
					if len(parts) != 2 {
						return fmt.Errorf("invalid detail format %q, expected KEY=VALUE", kv)
					}
					req.Details[parts[0]] = parts[1]
				}
			}

			outcome, err := client.ReportError(req)
			if err != nil {
				return err
			}

			out.Success("Outcome: " + outcome.Status)
			out.JSON(outcome)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&details, "detail", "d", nil, "Error details (KEY=VALUE, repeatable)")
	cmd.Flags().StringVar(&callContext, "context", "", "Call context description")

	return cmd
}
