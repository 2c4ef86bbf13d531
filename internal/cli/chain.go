package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewChainCmd создаёт группу команд выполнения цепочек.
func NewChainCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Execute and validate chains",
	}

	cmd.AddCommand(
		newChainRunCmd(clientFn, outputFn),
		newChainValidateCmd(clientFn, outputFn),
	)

	return cmd
}

func newChainRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var stepsFile, input string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a chain from a steps file",
		Long: `Execute a chain of steps on the server.

The steps file is JSON or YAML: either an array of steps or an object
with a "steps" field (e.g. an exported template). Input text comes from
--input or from stdin.`,
		Example: `  cipherchain chain run --steps chain.yaml --input "hello world"
  echo -n secret | cipherchain chain run --steps chain.json -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := readFile(cmd, stepsFile)
			if err != nil {
				return err
			}
			chainSteps, err := decodeSteps(data)
			if err != nil {
				return err
			}

			text, err := readInput(cmd, input)
			if err != nil {
				return err
			}

			res, err := client.ExecuteChain(cmd.Context(), chainSteps, text)
			if err != nil {
				return err
			}

			out.ChainResult(res, verbose)
			if !res.Success {
				return ErrReported
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stepsFile, "steps", "", "Steps file, JSON or YAML (required)")
	cmd.Flags().StringVar(&input, "input", "", "Input text (default: read stdin)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print per-step results")
	cmd.MarkFlagRequired("steps")

	return cmd
}

func newChainValidateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var stepsFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a chain without executing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := readFile(cmd, stepsFile)
			if err != nil {
				return err
			}
			chainSteps, err := decodeSteps(data)
			if err != nil {
				return err
			}

			res, err := client.ValidateChain(cmd.Context(), chainSteps)
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(res)
			} else if res.Valid {
				out.Success(fmt.Sprintf("Chain is valid (%d steps)", len(chainSteps)))
			} else {
				for _, e := range res.Errors {
					out.Error(e)
				}
			}

			if !res.Valid {
				return ErrReported
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stepsFile, "steps", "", "Steps file, JSON or YAML (required)")
	cmd.MarkFlagRequired("steps")

	return cmd
}
