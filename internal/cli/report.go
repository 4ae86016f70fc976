package cli

import (
	"fmt"

	"github.com/opencode-ai/narrator/internal/models"
	"github.com/opencode-ai/narrator/internal/report"
	"github.com/spf13/cobra"
)

var (
	reportFinding       string
	reportAction        string
	reportFindingSet    []string
	reportActionSet     []string
	reportFindingValues string
	reportActionValues  string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFinding, "finding", "", "finding template id")
	reportCmd.Flags().StringVar(&reportAction, "action", "", "action template id")
	reportCmd.Flags().StringArrayVar(&reportFindingSet, "finding-set", nil, "finding field value as key=value (repeatable)")
	reportCmd.Flags().StringArrayVar(&reportActionSet, "action-set", nil, "action field value as key=value (repeatable)")
	reportCmd.Flags().StringVar(&reportFindingValues, "finding-values", "", "YAML or JSON file of finding values")
	reportCmd.Flags().StringVar(&reportActionValues, "action-values", "", "YAML or JSON file of action values")
}

// reportOutput is the payload of `narrator report --json`.
type reportOutput struct {
	*report.Report
	AvailableActions []string `json:"availableActions"`
	SuggestedActions []string `json:"suggestedActions"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build a report from a finding and an action",
	Example: `  narrator report --finding polyp --finding-set number=1 --finding-set 'location=[asc]' \
    --action polypectomy --action-set 'technique=cold snare' --action-set complete=true`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportFinding == "" && reportAction == "" {
			return fmt.Errorf("at least one of --finding or --action is required")
		}
		findingValues, err := resolveValues(reportFindingValues, reportFindingSet)
		if err != nil {
			return err
		}
		actionValues, err := resolveValues(reportActionValues, reportActionSet)
		if err != nil {
			return err
		}

		lib, err := loadLibrary(cmd)
		if err != nil {
			return err
		}
		session := report.New(lib, report.WithLogger(logger), report.WithEngine(newEngine()))

		if reportFinding != "" {
			if err := findTemplate(lib, reportFinding); err != nil {
				return err
			}
			if err := session.SetFinding(reportFinding); err != nil {
				return err
			}
			if err := session.UpdateFindingValues(findingValues); err != nil {
				return err
			}
		}
		if reportAction != "" {
			if err := findTemplate(lib, reportAction); err != nil {
				return err
			}
			if err := session.SetAction(reportAction); err != nil {
				return err
			}
			if err := session.UpdateActionValues(actionValues); err != nil {
				return err
			}
		}

		snapshot := reportOutput{
			Report:           session.Report(),
			AvailableActions: templateIDs(session.AvailableActions()),
			SuggestedActions: templateIDs(session.SuggestedActions()),
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), snapshot)
		}
		printReport(cmd, snapshot)
		return nil
	},
}

func printReport(cmd *cobra.Command, r reportOutput) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n\n", formatHeading("Report"), r.ID)
	fmt.Fprintln(out, r.Text)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Primary code:  %s\n", orDash(r.Codes.Primary))
	fmt.Fprintf(out, "Modifiers:     %s\n", formatList(r.Codes.Modifiers))
	fmt.Fprintf(out, "Sources:       %s\n", formatList(r.Codes.Sources))
	fmt.Fprintf(out, "Compatible:    %s\n", formatYesNo(r.Compatible))
	fmt.Fprintf(out, "Available:     %s\n", formatList(r.AvailableActions))
	fmt.Fprintf(out, "Suggested:     %s\n", formatList(r.SuggestedActions))

	if len(r.OptionCodes) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(r.OptionCodes))
		for _, assignment := range r.OptionCodes {
			rows = append(rows, []string{assignment.Source, assignment.Primary})
		}
		_ = writeTable(out, []string{"OPTION", "CODE"}, rows)
	}
	for _, conflict := range r.Conflicts {
		fmt.Fprintln(out, formatWarning("Warning: %s", conflict))
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(out)
		printFieldErrors(cmd, r.Errors)
	}
}

func templateIDs(templates []*models.Template) []string {
	out := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		out = append(out, tmpl.ID)
	}
	return out
}
