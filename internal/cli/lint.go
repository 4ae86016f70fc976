package cli

import (
	"fmt"

	"github.com/opencode-ai/narrator/internal/library"
	"github.com/spf13/cobra"
)

var lintStrict bool

func init() {
	rootCmd.AddCommand(lintCmd)
	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "exit non-zero when issues are found")
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check templates for constructs the engine cannot render",
	Long: `Check every loaded template for conditions and ternaries outside the
supported comparison grammar, unknown functions, undeclared placeholders and
dangling references to other templates.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary(cmd)
		if err != nil {
			return err
		}
		issues := lib.Lint()
		if issues == nil {
			issues = []library.Issue{}
		}

		if IsJSONOutput() || IsJSONLOutput() {
			if err := WriteOutput(cmd.OutOrStdout(), issues); err != nil {
				return err
			}
		} else if len(issues) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d templates, no issues\n", formatValidity(true), lib.Len())
		} else {
			rows := make([][]string, 0, len(issues))
			for _, issue := range issues {
				rows = append(rows, []string{issue.TemplateID, issue.Field, issue.Message})
			}
			if err := writeTable(cmd.OutOrStdout(), []string{"TEMPLATE", "FIELD", "ISSUE"}, rows); err != nil {
				return err
			}
		}

		if lintStrict && len(issues) > 0 {
			return fmt.Errorf("%d lint issue(s)", len(issues))
		}
		return nil
	},
}
