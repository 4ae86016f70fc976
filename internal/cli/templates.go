package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opencode-ai/narrator/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	templatesListType     string
	templatesListCategory string
	templatesListKeyword  string
)

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)

	templatesListCmd.Flags().StringVar(&templatesListType, "type", "", "filter by type (finding, action, shared)")
	templatesListCmd.Flags().StringVar(&templatesListCategory, "category", "", "filter shared templates by category")
	templatesListCmd.Flags().StringVar(&templatesListKeyword, "keyword", "", "filter by a word of the name or description")
}

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"tmpl"},
	Short:   "Browse report templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary(cmd)
		if err != nil {
			return err
		}

		templates := lib.All()
		if templatesListType != "" {
			templateType := models.TemplateType(strings.ToLower(templatesListType))
			switch templateType {
			case models.TemplateTypeFinding, models.TemplateTypeAction, models.TemplateTypeShared:
			default:
				return fmt.Errorf("invalid --type %q (expected finding, action or shared)", templatesListType)
			}
			templates = lib.ListByType(templateType)
		}
		if templatesListCategory != "" {
			templates = intersect(templates, lib.ListByCategory(templatesListCategory))
		}
		if templatesListKeyword != "" {
			templates = intersect(templates, lib.ByKeyword(templatesListKeyword))
		}
		sort.SliceStable(templates, func(i, j int) bool {
			return templates[i].ID < templates[j].ID
		})

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), templates)
		}

		if len(templates) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No templates found")
			return nil
		}

		rows := make([][]string, 0, len(templates))
		for _, tmpl := range templates {
			rows = append(rows, []string{
				tmpl.ID,
				formatTemplateType(tmpl.Type),
				tmpl.Name,
				tmpl.Version,
				orDash(tmpl.Category),
				orDash(tmpl.Source),
			})
		}
		return writeTable(cmd.OutOrStdout(), []string{"ID", "TYPE", "NAME", "VERSION", "CATEGORY", "SOURCE"}, rows)
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary(cmd)
		if err != nil {
			return err
		}
		if err := findTemplate(lib, args[0]); err != nil {
			return err
		}
		tmpl, _ := lib.Get(args[0])

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), tmpl)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", formatHeading(tmpl.Name), formatTemplateType(tmpl.Type))
		fmt.Fprintf(out, "Source: %s\n\n", orDash(tmpl.Source))

		data, err := yaml.Marshal(tmpl)
		if err != nil {
			return fmt.Errorf("failed to render template: %w", err)
		}
		fmt.Fprint(out, string(data))

		if rels := lib.Relationships(tmpl.ID); len(rels) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, formatHeading("Relationships:"))
			for _, rel := range rels {
				line := fmt.Sprintf("  %s %s", rel.Kind, rel.To)
				if rel.Required {
					line += " (required)"
				}
				if len(rel.Conditions) > 0 {
					line += fmt.Sprintf(" [%d condition(s)]", len(rel.Conditions))
				}
				fmt.Fprintln(out, line)
			}
		}
		return nil
	},
}

func intersect(a, b []*models.Template) []*models.Template {
	keep := make(map[string]struct{}, len(b))
	for _, tmpl := range b {
		keep[tmpl.ID] = struct{}{}
	}
	out := make([]*models.Template, 0, len(a))
	for _, tmpl := range a {
		if _, ok := keep[tmpl.ID]; ok {
			out = append(out, tmpl)
		}
	}
	return out
}
