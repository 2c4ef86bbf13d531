package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewURLCmd создаёт группу команд для работы с URL.
func NewURLCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Analyze URLs for http-parse and http-build steps",
	}

	cmd.AddCommand(newURLAnalyzeCmd(clientFn, outputFn))
	return cmd
}

func newURLAnalyzeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze URL",
		Short: "Suggest path and query templates for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			a, err := client.AnalyzeURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(a)
				return nil
			}

			out.Fields([][2]string{
				{"Origin", a.Origin},
				{"Path template", a.SuggestedPathTemplate},
				{"Query template", a.SuggestedQueryTemplate},
			})
			out.Raw("")

			rows := make([][]string, len(a.Segments))
			for i, s := range a.Segments {
				rows[i] = []string{strconv.Itoa(s.Index), s.Value, string(s.Kind), strconv.FormatBool(s.Dynamic), s.Name}
			}
			out.Table([]string{"#", "SEGMENT", "TYPE", "DYNAMIC", "NAME"}, rows)

			if len(a.QueryParams) > 0 {
				out.Raw("")
				qrows := make([][]string, len(a.QueryParams))
				for i, q := range a.QueryParams {
					qrows[i] = []string{q.Key, q.Value, strconv.FormatBool(q.Dynamic)}
				}
				out.Table([]string{"PARAM", "VALUE", "DYNAMIC"}, qrows)
			}
			return nil
		},
	}
}
