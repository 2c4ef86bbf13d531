package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewKeyCmd создаёт группу команд для управления RSA-ключами.
func NewKeyCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage RSA keys",
	}

	cmd.AddCommand(
		newKeyListCmd(clientFn, outputFn),
		newKeyShowCmd(clientFn, outputFn),
		newKeyGenerateCmd(clientFn, outputFn),
		newKeyImportCmd(clientFn, outputFn),
		newKeyDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

var keyHeaders = []string{"ID", "NAME", "SIZE", "ALGORITHM", "PRIVATE", "CREATED"}

func keyRow(k KeyResponse) []string {
	alg := k.PreferredAlgorithm
	if alg == "" {
		alg = "-"
	}
	return []string{
		k.ID,
		k.Name,
		strconv.Itoa(k.KeySize),
		alg,
		strconv.FormatBool(k.HasPrivateKey),
		k.Created.Local().Format(time.DateTime),
	}
}

func newKeyListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			keys, err := client.ListKeys(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(keys))
			for i, k := range keys {
				rows[i] = keyRow(k)
			}

			out.Print(keyHeaders, rows, keys)
			return nil
		},
	}
}

func newKeyShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show key details and the public key PEM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			key, err := client.GetKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(key)
				return nil
			}

			out.Table(keyHeaders, [][]string{keyRow(*key)})
			out.Raw("")
			out.Raw(key.PublicKey)
			return nil
		},
	}
}

func newKeyGenerateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req GenerateKeyRequest

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new RSA key pair on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			key, err := client.GenerateKey(cmd.Context(), req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Key generated: %s", key.ID))
			out.Print(keyHeaders, [][]string{keyRow(*key)}, key)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Key name (required)")
	cmd.Flags().IntVar(&req.KeySize, "size", 2048, "Key size in bits (1024, 2048, 3072, 4096)")
	cmd.Flags().StringVar(&req.PreferredAlgorithm, "algorithm", "", "Preferred algorithm: RSA-OAEP or RSA-PKCS1")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newKeyImportCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req ImportKeyRequest
	var publicFile, privateFile string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a key pair from PEM files",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			pub, err := os.ReadFile(publicFile)
			if err != nil {
				return fmt.Errorf("read public key: %w", err)
			}
			req.PublicKey = string(pub)

			if privateFile != "" {
				priv, err := os.ReadFile(privateFile)
				if err != nil {
					return fmt.Errorf("read private key: %w", err)
				}
				req.PrivateKey = string(priv)
			}

			key, err := client.ImportKey(cmd.Context(), req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Key imported: %s", key.ID))
			out.Print(keyHeaders, [][]string{keyRow(*key)}, key)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Key name (required)")
	cmd.Flags().StringVar(&publicFile, "public", "", "Public key PEM file (required)")
	cmd.Flags().StringVar(&privateFile, "private", "", "Private key PEM file")
	cmd.Flags().StringVar(&req.PreferredAlgorithm, "algorithm", "", "Preferred algorithm: RSA-OAEP or RSA-PKCS1")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("public")

	return cmd
}

func newKeyDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteKey(cmd.Context(), args[0]); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Key deleted: %s", args[0]))
			return nil
		},
	}
}
