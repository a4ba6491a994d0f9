package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewPipelineCmd создаёт группу команд для управления конвейерами.
func NewPipelineCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Manage pipelines",
	}

	cmd.AddCommand(
		newPipelineListCmd(clientFn, outputFn),
		newPipelineCreateCmd(clientFn, outputFn),
		newPipelineShowCmd(clientFn, outputFn),
		newPipelineExecuteCmd(clientFn, outputFn),
		newPipelinePauseCmd(clientFn, outputFn),
		newPipelineResumeCmd(clientFn, outputFn),
		newPipelineResetCmd(clientFn, outputFn),
		newPipelineDeleteCmd(clientFn, outputFn),
		newPipelineResultsCmd(clientFn, outputFn),
		newPipelineMetricsCmd(clientFn, outputFn),
	)

	return cmd
}

func pipelineRow(p PipelineResponse) []string {
	progress := fmt.Sprintf("%d/%d", p.CompletedSteps, p.TotalSteps)
	lastErr := ""
	if p.LastError != nil {
		lastErr = p.LastError.Step + ": " + p.LastError.Message
	}
	return []string{p.Name, p.Status, progress, strconv.Itoa(p.HandledFailures), lastErr}
}

func newPipelineListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pipelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			pipelines, err := client.ListPipelines()
			if err != nil {
				return err
			}

			headers := []string{"NAME", "STATUS", "STEPS", "HANDLED", "LAST_ERROR"}
			rows := make([][]string, len(pipelines))
			for i, p := range pipelines {
				rows[i] = pipelineRow(p)
			}

			out.Print(headers, rows, pipelines)
			return nil
		},
	}
}

func newPipelineCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a pipeline from a steps file",
		Long: `Create a pipeline from a JSON file with declarative steps.

File format:

  [
    {"name": "wait", "type": "delay", "config": {"duration_sec": 1}},
    {
      "name": "probe", "type": "probe-http",
      "config": {"url": "https://example.com/health", "expect_status": 200},
      "retry": {"max_retries": 3, "base_delay_ms": 500}
    }
  ]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read steps file: %w", err)
			}

			var steps []StepDef
			if err := json.Unmarshal(data, &steps); err != nil {
				return fmt.Errorf("parse steps file: %w", err)
			}

			p, err := client.CreatePipeline(CreatePipelineRequest{
				Name:  args[0],
				Steps: steps,
			})
			if err != nil {
				return err
			}

			out.Success("Pipeline created: " + p.Name)
			out.Print([]string{"NAME", "STATUS", "STEPS", "HANDLED", "LAST_ERROR"},
				[][]string{pipelineRow(*p)}, p)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to JSON steps file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newPipelineShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show pipeline state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			p, err := client.GetPipeline(args[0])
			if err != nil {
				return err
			}

			out.Print([]string{"NAME", "STATUS", "STEPS", "HANDLED", "LAST_ERROR"},
				[][]string{pipelineRow(*p)}, p)
			return nil
		},
	}
}

func newPipelineExecuteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var inputs []string

	cmd := &cobra.Command{
		Use:   "execute NAME",
		Short: "Execute a pipeline and wait for completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var input map[string]any
			if len(inputs) > 0 {
				input = make(map[string]any)
				for _, kv := range inputs {
					parts := strings.SplitN(kv, "=", 2)
					if len(parts) != 2 {
						return fmt.Errorf("invalid input format %q, expected KEY=VALUE", kv)
					}
					input[parts[0]] = parts[1]
				}
			}

			result, err := client.ExecutePipeline(args[0], input)
			if err != nil {
				return err
			}

			out.Success("Pipeline " + result.Pipeline + ": " + result.Status)
			out.JSON(result)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "Input values (KEY=VALUE, repeatable)")

	return cmd
}

func newPipelinePauseCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "pause NAME",
		Short: "Pause a running pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().PausePipeline(args[0]); err != nil {
				return err
			}
			outputFn().Success("Pipeline paused: " + args[0])
			return nil
		},
	}
}

func newPipelineResumeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "resume NAME",
		Short: "Resume a paused pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().ResumePipeline(args[0]); err != nil {
				return err
			}
			outputFn().Success("Pipeline resumed: " + args[0])
			return nil
		},
	}
}

func newPipelineResetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reset NAME",
		Short: "Reset a finished pipeline back to PENDING",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().ResetPipeline(args[0]); err != nil {
				return err
			}
			outputFn().Success("Pipeline reset: " + args[0])
			return nil
		},
	}
}

func newPipelineDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeletePipeline(args[0]); err != nil {
				return err
			}
			outputFn().Success("Pipeline deleted: " + args[0])
			return nil
		},
	}
}

func newPipelineMetricsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics NAME",
		Short: "Show full pipeline metrics including per-step attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics, err := clientFn().GetMetrics(args[0])
			if err != nil {
				return err
			}
			outputFn().JSON(metrics)
			return nil
		},
	}
}

func newPipelineResultsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "results NAME",
		Short: "Show accumulated pipeline results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := clientFn().GetResults(args[0])
			if err != nil {
				return err
			}
			outputFn().JSON(results)
			return nil
		},
	}
}
