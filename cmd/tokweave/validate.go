package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmoose/dtcgcore/pkg/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a token document's structure and reference integrity",
	Long: `Validate loads a single token document and checks it for structural
schema compliance (when --schema is given), unresolved references, and
reference cycles or excessive reference depth.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var (
	validateStrict   bool
	validateSchema   string
	validateMaxDepth int
)

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Promote reference warnings (unresolved, cycles, depth) to errors")
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Path to a JSON Schema document to validate against")
	validateCmd.Flags().IntVar(&validateMaxDepth, "max-depth", 0, "Maximum acceptable reference chain depth (default: resolver default)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	fmt.Printf("Validating %s...\n", path)

	l := newLoader()
	doc, err := l.ReadDocument(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	opts := validate.Options{Strict: validateStrict, MaxDepth: validateMaxDepth}
	if validateSchema != "" {
		schemaBytes, err := os.ReadFile(validateSchema)
		if err != nil {
			return fmt.Errorf("failed to read schema %s: %w", validateSchema, err)
		}
		sv, err := validate.NewJSONSchemaValidator(validateSchema, schemaBytes)
		if err != nil {
			return fmt.Errorf("failed to compile schema %s: %w", validateSchema, err)
		}
		opts.Schema = sv
	}

	adapter := validate.New(opts)
	result, err := adapter.Validate(doc)
	if err != nil {
		return fmt.Errorf("validation failed to run: %w", err)
	}

	for _, w := range result.Warnings {
		fmt.Printf("  [Warning] %s: %s\n", w.Kind, w.Message)
	}
	for _, e := range result.Errors {
		fmt.Printf("  [Error] %s: %s\n", e.Kind, e.Message)
	}

	if !result.Valid() {
		os.Exit(1)
	}

	fmt.Println("Validation Passed!")
	return nil
}
