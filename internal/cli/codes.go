package cli

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/narrator/internal/codes"
	"github.com/opencode-ai/narrator/internal/models"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(codesCmd)
}

// codesOutput is the payload of `narrator codes --json`.
type codesOutput struct {
	Assignments   []codes.Assignment  `json:"assignments"`
	Compatibility codes.Compatibility `json:"compatibility"`
	Summary       codes.Summary       `json:"summary"`
}

var codesCmd = &cobra.Command{
	Use:   "codes <template-id>...",
	Short: "Assign SNOMED codes for templates",
	Long: `Assign SNOMED codes for the given templates in order. The first template
supplies the primary code; duplicate primary codes are reported as conflicts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary(cmd)
		if err != nil {
			return err
		}
		templates := make([]*models.Template, 0, len(args))
		for _, id := range args {
			if err := findTemplate(lib, id); err != nil {
				return err
			}
			tmpl, _ := lib.Get(id)
			templates = append(templates, tmpl)
		}

		assignments := codes.Assign(templates)
		result := codesOutput{
			Assignments:   assignments,
			Compatibility: codes.ValidateCompatibility(assignments),
			Summary:       codes.Format(assignments),
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), result)
		}

		out := cmd.OutOrStdout()
		rows := make([][]string, 0, len(assignments))
		for _, assignment := range assignments {
			rows = append(rows, []string{assignment.Source, orDash(assignment.Primary), formatList(assignment.Modifiers)})
		}
		if err := writeTable(out, []string{"TEMPLATE", "PRIMARY", "MODIFIERS"}, rows); err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Primary: %s\n", orDash(result.Summary.Primary))
		fmt.Fprintf(out, "Sources: %s\n", strings.Join(result.Summary.Sources, ", "))
		for _, conflict := range result.Compatibility.Conflicts {
			fmt.Fprintln(out, formatWarning("Warning: %s", conflict))
		}
		return nil
	},
}
