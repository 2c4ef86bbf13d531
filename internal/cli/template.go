package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// NewTemplateCmd создаёт группу команд для шаблонов цепочек.
func NewTemplateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates"},
		Short:   "Manage saved chain templates",
	}

	cmd.AddCommand(
		newTemplateListCmd(clientFn, outputFn),
		newTemplateShowCmd(clientFn, outputFn),
		newTemplateRunCmd(clientFn, outputFn),
		newTemplateDeleteCmd(clientFn, outputFn),
		newTemplateExportCmd(clientFn, outputFn),
		newTemplateImportCmd(clientFn, outputFn),
	)

	return cmd
}

// templateDoc — YAML-представление шаблона для export/import.
type templateDoc struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Tags        []string         `yaml:"tags,omitempty,flow"`
	Steps       []map[string]any `yaml:"steps"`
}

func formatLastUsed(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func newTemplateListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			templates, err := client.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "STEPS", "TAGS", "LAST USED"}
			rows := make([][]string, len(templates))
			for i, t := range templates {
				rows[i] = []string{
					t.ID,
					truncate(t.Name, 40),
					strconv.Itoa(len(t.Steps)),
					strings.Join(t.Tags, ","),
					formatLastUsed(t.LastUsed),
				}
			}

			out.Print(headers, rows, templates)
			return nil
		},
	}
}

func newTemplateShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show template with its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tmpl, err := client.GetTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(tmpl)
				return nil
			}

			out.Fields([][2]string{
				{"ID", tmpl.ID},
				{"Name", tmpl.Name},
				{"Description", tmpl.Description},
				{"Tags", strings.Join(tmpl.Tags, ", ")},
				{"Created", tmpl.Created.Local().Format(time.DateTime)},
				{"Last used", formatLastUsed(tmpl.LastUsed)},
			})
			out.Raw("")

			rows := make([][]string, len(tmpl.Steps))
			for i, s := range tmpl.Steps {
				rows[i] = []string{strconv.Itoa(i + 1), s.ID, s.DisplayName(), strconv.FormatBool(s.Enabled)}
			}
			out.Table([]string{"#", "STEP", "NAME", "ENABLED"}, rows)
			return nil
		},
	}
}

func newTemplateRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var input string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run ID",
		Short: "Execute a saved template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			text, err := readInput(cmd, input)
			if err != nil {
				return err
			}

			res, err := client.RunTemplate(cmd.Context(), args[0], text)
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

	cmd.Flags().StringVar(&input, "input", "", "Input text (default: read stdin)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print per-step results")

	return cmd
}

func newTemplateDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteTemplate(cmd.Context(), args[0]); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Template deleted: %s", args[0]))
			return nil
		},
	}
}

func newTemplateExportCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a template as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tmpl, err := client.GetTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			data, err := marshalTemplateDoc(tmpl)
			if err != nil {
				return err
			}

			if outputPath == "" {
				_, err = out.w.Write(data)
				return err
			}

			if err := os.WriteFile(outputPath, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outputPath, err)
			}
			out.Success(fmt.Sprintf("Template exported to %s", outputPath))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write YAML to file instead of stdout")

	return cmd
}

func newTemplateImportCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create a template from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := readFile(cmd, args[0])
			if err != nil {
				return err
			}

			req, err := unmarshalTemplateDoc(data)
			if err != nil {
				return err
			}
			if name != "" {
				req.Name = name
			}

			tmpl, err := client.CreateTemplate(cmd.Context(), req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Template imported: %s", tmpl.ID))
			out.Print(
				[]string{"ID", "NAME", "STEPS"},
				[][]string{{tmpl.ID, tmpl.Name, strconv.Itoa(len(tmpl.Steps))}},
				tmpl,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Override template name")

	return cmd
}

// marshalTemplateDoc сериализует шаблон в YAML. Шаги проходят через JSON,
// чтобы формат параметров совпадал с API.
func marshalTemplateDoc(tmpl *domain.ChainTemplate) ([]byte, error) {
	doc := templateDoc{
		Name:        tmpl.Name,
		Description: tmpl.Description,
		Tags:        tmpl.Tags,
		Steps:       make([]map[string]any, 0, len(tmpl.Steps)),
	}

	for _, s := range tmpl.Steps {
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("marshal step %s: %w", s.ID, err)
		}

		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("marshal step %s: %w", s.ID, err)
		}
		doc.Steps = append(doc.Steps, m)
	}

	return yaml.Marshal(doc)
}

// unmarshalTemplateDoc читает YAML (или JSON) шаблона в запрос создания.
func unmarshalTemplateDoc(data []byte) (TemplateRequest, error) {
	var doc templateDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return TemplateRequest{}, fmt.Errorf("parse template: %w", err)
	}
	if len(doc.Steps) == 0 {
		return TemplateRequest{}, errors.New("template has no steps")
	}

	raw, err := json.Marshal(doc.Steps)
	if err != nil {
		return TemplateRequest{}, fmt.Errorf("convert steps: %w", err)
	}

	var chainSteps []domain.Step
	if err := json.Unmarshal(raw, &chainSteps); err != nil {
		return TemplateRequest{}, fmt.Errorf("decode steps: %w", err)
	}

	return TemplateRequest{
		Name:        doc.Name,
		Description: doc.Description,
		Tags:        doc.Tags,
		Steps:       chainSteps,
	}, nil
}
