package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/streamparse/internal/harness"
)

// FileValidation holds the validation outcome of one scenario file.
type FileValidation struct {
	Path   string   `json:"path"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario YAML files without running them.

Checks every file against the scenario schema, then decodes it strictly
and resolves its recognizer and integer test. Faster than test for
authoring feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	files, err := harness.FindScenarios(dir, "")
	if err != nil {
		return outputValidateError(formatter, ErrCodeInvalid, err.Error())
	}
	if len(files) == 0 {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("no scenario files in %s", dir))
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	for _, path := range files {
		formatter.VerboseLog("Validating %s", path)
		fv := validateFile(path)
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	return outputValidationResult(formatter, result)
}

// validateFile reports each schema error separately. The semantic checks
// only run on schema-valid files.
func validateFile(path string) FileValidation {
	fv := FileValidation{Path: path, Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		fv.Valid = false
		fv.Errors = []string{err.Error()}
		return fv
	}

	if errs := harness.Validate(data); len(errs) > 0 {
		fv.Valid = false
		for _, e := range errs {
			fv.Errors = append(fv.Errors, e.Error())
		}
		return fv
	}

	if _, err := harness.ParseScenario(data); err != nil {
		fv.Valid = false
		fv.Errors = []string{err.Error()}
	}
	return fv
}

// outputValidateError outputs a command-level error (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func outputValidationResult(formatter *OutputFormatter, result ValidationResult) error {
	invalid := 0
	for _, f := range result.Files {
		if !f.Valid {
			invalid++
		}
	}

	if formatter.JSON() {
		response := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    ErrCodeInvalid,
				Message: fmt.Sprintf("%d invalid scenario file(s)", invalid),
			}
		}
		if err := formatter.Respond(response); err != nil {
			return err
		}
	} else {
		for _, f := range result.Files {
			if f.Valid {
				if formatter.Verbose {
					fmt.Fprintf(formatter.Writer, "✓ %s\n", f.Path)
				}
				continue
			}
			fmt.Fprintf(formatter.Writer, "✗ %s\n", f.Path)
			for _, e := range f.Errors {
				fmt.Fprintf(formatter.Writer, "  %s\n", e)
			}
		}
		if result.Valid {
			fmt.Fprintf(formatter.Writer, "✓ All %d scenario(s) valid\n", len(result.Files))
		}
	}

	if !result.Valid {
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d file(s)", invalid))
	}
	return nil
}
