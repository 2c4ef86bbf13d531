package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewHistoryCmd создаёт группу команд истории выполнений.
func NewHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect chain execution history",
	}

	cmd.AddCommand(
		newHistoryListCmd(clientFn, outputFn),
		newHistoryDeleteCmd(clientFn, outputFn),
		newHistoryClearCmd(clientFn, outputFn),
	)

	return cmd
}

func newHistoryListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			results, err := client.ListHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "TEMPLATE", "STATUS", "STEPS", "DURATION", "EXECUTED"}
			rows := make([][]string, len(results))
			for i, r := range results {
				status := "ok"
				if _, pos := r.FailedStep(); pos > 0 {
					status = fmt.Sprintf("failed at %d", pos)
				}

				tmpl := r.TemplateName
				if tmpl == "" {
					tmpl = "-"
				}

				rows[i] = []string{
					r.ID,
					truncate(tmpl, 30),
					status,
					strconv.Itoa(len(r.Steps)),
					fmt.Sprintf("%.2fms", r.TotalDuration),
					r.Timestamp.Local().Format(time.DateTime),
				}
			}

			out.Print(headers, rows, results)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries")

	return cmd
}

func newHistoryDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteHistory(cmd.Context(), args[0]); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("History entry deleted: %s", args[0]))
			return nil
		},
	}
}

func newHistoryClearCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().ClearHistory(cmd.Context()); err != nil {
				return err
			}

			outputFn().Success("History cleared")
			return nil
		},
	}
}
