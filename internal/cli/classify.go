package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/streamparse/predicate"
)

// ClassifyOptions holds flags for the classify command.
type ClassifyOptions struct {
	*RootOptions
	Test string // YAML form of the integer test
}

// Classification is the verdict for one value.
type Classification struct {
	Value  int64 `json:"value"`
	Accept bool  `json:"accept"`
}

// ClassifyResult holds the classify output.
type ClassifyResult struct {
	Test    string           `json:"test"`
	Kind    string           `json:"kind"`
	Results []Classification `json:"results"`
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClassifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "classify --test <yaml> <value>...",
		Short: "Apply an integer test to values",
		Long: `Apply an integer test to one or more integers.

The test is written in the same YAML forms a scenario's test field
accepts: true or false, a number, a list of numbers (a set), a
{min, max} map, or a list of such maps. Values may use Go integer
literal syntax (0x1f, 0b101, 1_000).

Examples:
  streamparse classify --test '[1, 3, 5]' 1 2 3
  streamparse classify --test '{min: 10, max: 20}' 9 10 0x14
  streamparse classify --test '[{min: 0, max: 9}, {min: 100, max: 199}]' 150 --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Test, "test", "", "integer test as YAML (required)")
	_ = cmd.MarkFlagRequired("test")

	return cmd
}

func runClassify(opts *ClassifyOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	test, err := parseIntegerTest(opts.Test)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalid, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid test", err)
	}

	result := ClassifyResult{
		Test:    test.String(),
		Kind:    string(test.Kind()),
		Results: make([]Classification, 0, len(args)),
	}
	for _, arg := range args {
		v, err := strconv.ParseInt(arg, 0, 64)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalid, fmt.Sprintf("invalid integer %q", arg), nil)
			return WrapExitError(ExitCommandError, "invalid value", err)
		}
		result.Results = append(result.Results, Classification{Value: v, Accept: test.Test(v)})
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "test: %s (%s)\n", result.Test, result.Kind)
	for _, c := range result.Results {
		verdict := "reject"
		if c.Accept {
			verdict = "accept"
		}
		fmt.Fprintf(w, "%d\t%s\n", c.Value, verdict)
	}
	return nil
}

// parseIntegerTest decodes a YAML test and converts it.
func parseIntegerTest(src string) (predicate.IntegerTest, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(src), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse test: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("test is empty")
	}
	return predicate.ToIntegerTest(raw)
}
