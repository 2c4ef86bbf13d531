// Cipherchain CLI — выполнение цепочек и управление ключами, шаблонами
// и историей через HTTP API.
//
// Использование:
//
//	cipherchain [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	chain     Выполнение и проверка цепочек
//	url       Анализ URL для http-шагов
//	key       Управление RSA-ключами
//	template  Управление шаблонами
//	history   История выполнений
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Cipherchain/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "cipherchain",
		Short:         "Cipherchain CLI — RSA and encoding chains",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := os.Getenv("CIPHERCHAIN_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewChainCmd(clientFn, outputFn),
		cli.NewURLCmd(clientFn, outputFn),
		cli.NewKeyCmd(clientFn, outputFn),
		cli.NewTemplateCmd(clientFn, outputFn),
		cli.NewHistoryCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
