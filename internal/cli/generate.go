package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/opencode-ai/narrator/internal/validation"
	"github.com/spf13/cobra"
)

var (
	generateSet    []string
	generateValues string
	generateStrict bool

	validateSet    []string
	validateValues string
)

var errValidationFailed = errors.New("validation failed")

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)

	generateCmd.Flags().StringArrayVar(&generateSet, "set", nil, "field value as key=value (repeatable)")
	generateCmd.Flags().StringVar(&generateValues, "values", "", "YAML or JSON file of field values")
	generateCmd.Flags().BoolVar(&generateStrict, "strict", false, "fail instead of rendering when values are invalid")

	validateCmd.Flags().StringArrayVar(&validateSet, "set", nil, "field value as key=value (repeatable)")
	validateCmd.Flags().StringVar(&validateValues, "values", "", "YAML or JSON file of field values")
}

var generateCmd = &cobra.Command{
	Use:   "generate <template-id>",
	Short: "Render narrative text for a template",
	Example: `  narrator generate polyp --set number=2 --set 'location=[asc,sig]' --set morphology=sessile
  narrator generate biopsy --values biopsy.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := resolveValues(generateValues, generateSet)
		if err != nil {
			return err
		}
		lib, err := loadLibrary(cmd)
		if err != nil {
			return err
		}
		if err := findTemplate(lib, args[0]); err != nil {
			return err
		}
		tmpl, _ := lib.Get(args[0])

		if generateStrict {
			validator := validation.New(validation.WithLogger(logger))
			if result := validator.Validate(tmpl.Variables, values, lib.SharedPool()); !result.IsValid {
				printFieldErrors(cmd, result.Errors)
				return errValidationFailed
			}
		}

		text := newEngine().GenerateTemplate(tmpl, values, lib.SharedPool())
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), map[string]any{
				"id":   tmpl.ID,
				"text": text,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <template-id>",
	Short: "Validate field values against a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := resolveValues(validateValues, validateSet)
		if err != nil {
			return err
		}
		lib, err := loadLibrary(cmd)
		if err != nil {
			return err
		}
		if err := findTemplate(lib, args[0]); err != nil {
			return err
		}
		tmpl, _ := lib.Get(args[0])

		validator := validation.New(validation.WithLogger(logger))
		result := validator.Validate(tmpl.Variables, values, lib.SharedPool())

		if IsJSONOutput() || IsJSONLOutput() {
			if err := WriteOutput(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		} else if result.IsValid {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: values are valid\n", formatValidity(true), tmpl.ID)
		} else {
			printFieldErrors(cmd, result.Errors)
		}

		if !result.IsValid {
			return errValidationFailed
		}
		return nil
	},
}

func printFieldErrors(cmd *cobra.Command, errs map[string]string) {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	rows := make([][]string, 0, len(fields))
	for _, field := range fields {
		rows = append(rows, []string{formatValidity(false), field, errs[field]})
	}
	_ = writeTable(cmd.OutOrStdout(), []string{"", "FIELD", "ERROR"}, rows)
}
