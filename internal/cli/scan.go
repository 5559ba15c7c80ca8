package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/streamparse/parse"
	"github.com/roach88/streamparse/stream"
	"github.com/roach88/streamparse/textrange"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	Tokens    []string // name=regexp rules, tried in order
	Skip      []string // token names left out of the output
	Normalize bool
}

// Lexeme is one recognized token.
type Lexeme struct {
	Kind  string `json:"kind"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// ScanResult holds the scan output.
type ScanResult struct {
	Tokens []Lexeme `json:"tokens"`
	// Unlexed is the byte offset where no rule matched, or -1.
	Unlexed int `json:"unlexed"`
}

// tokenRule is a compiled --token flag.
type tokenRule struct {
	kind string
	re   *regexp.Regexp
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan --token name=regexp... <file>",
		Short: "Lex a text file with regexp token rules",
		Long: `Lex a text file with an ordered list of regexp token rules.

At each position the first rule matching the remaining text wins. Scanning
stops where no rule matches; that offset is reported and the exit code
is 1. Use - to read standard input.

Examples:
  streamparse scan -t num='\d+' -t op='[-+*/]' -t ws='\s+' --skip ws expr.txt
  echo 'a = 1' | streamparse scan -t id='[a-z]+' -t eq='=' -t num='\d+' -t ws=' ' -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Tokens, "token", "t", nil, "token rule as name=regexp (repeatable, required)")
	_ = cmd.MarkFlagRequired("token")
	cmd.Flags().StringSliceVar(&opts.Skip, "skip", nil, "token names to omit from the output")
	cmd.Flags().BoolVar(&opts.Normalize, "nfc", false, "normalize input to Unicode NFC before scanning")

	return cmd
}

func runScan(opts *ScanOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	rules, err := parseTokenRules(opts.Tokens)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalid, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid token rule", err)
	}

	src, err := readSource(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	input := textrange.New(src)
	if opts.Normalize {
		input = textrange.NewNormalized(src)
	}

	lexemes, unlexed, err := scan(cmd.Context(), rules, input)
	if err != nil {
		return WrapExitError(ExitCommandError, "scan failed", err)
	}

	result := ScanResult{Tokens: make([]Lexeme, 0, len(lexemes)), Unlexed: unlexed}
	for _, l := range lexemes {
		if !slices.Contains(opts.Skip, l.Kind) {
			result.Tokens = append(result.Tokens, l)
		}
	}
	formatter.VerboseLog("Scanned %d token(s), %d shown", len(lexemes), len(result.Tokens))

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if unlexed >= 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeUnlexed, Message: fmt.Sprintf("no rule matches at offset %d", unlexed)}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, l := range result.Tokens {
			fmt.Fprintf(w, "%d:%d\t%s\t%q\n", l.Start, l.End, l.Kind, l.Text)
		}
		if unlexed >= 0 {
			fmt.Fprintf(w, "✗ no rule matches at offset %d\n", unlexed)
		}
	}

	if unlexed >= 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("unlexed input at offset %d", unlexed))
	}
	return nil
}

// scan lexes input with rules. It returns the recognized lexemes and the
// offset of the first byte no rule matched, or -1 when all of input was
// consumed.
func scan(ctx context.Context, rules []tokenRule, input textrange.Range) ([]Lexeme, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	matchers := make([]parse.Matcher[textrange.Range, Lexeme], len(rules))
	for i, rule := range rules {
		kind := rule.kind
		matchers[i] = parse.Map(textrange.MatchRegexp(rule.re), func(r textrange.Range) Lexeme {
			return Lexeme{Kind: kind, Start: r.Start(), End: r.End(), Text: r.String()}
		})
	}
	lexer := parse.Capture(parse.FirstMatch(matchers...), 0, parse.Unbounded)

	steps, err := stream.Collect(ctx, lexer(stream.Of(input)))
	if err != nil {
		return nil, 0, err
	}

	var lexemes []Lexeme
	unlexed := -1
	for _, step := range steps {
		switch s := step.(type) {
		case parse.Item[textrange.Range, Lexeme]:
			// A zero-width rule match ends the scan without a token.
			if s.Value.Start < s.Value.End {
				lexemes = append(lexemes, s.Value)
			}
		case parse.Done[textrange.Range, Lexeme]:
			if s.Suffix == nil {
				continue
			}
			rest, err := stream.Collect(ctx, s.Suffix)
			stream.Release(s.Suffix)
			if err != nil {
				return nil, 0, err
			}
			for _, r := range rest {
				if r.Len() > 0 {
					unlexed = r.Start()
					break
				}
			}
		}
	}
	return lexemes, unlexed, nil
}

// parseTokenRules compiles name=regexp flags.
func parseTokenRules(flags []string) ([]tokenRule, error) {
	rules := make([]tokenRule, 0, len(flags))
	for _, f := range flags {
		name, expr, ok := strings.Cut(f, "=")
		if !ok || name == "" || expr == "" {
			return nil, fmt.Errorf("token rule %q: want name=regexp", f)
		}
		if _, err := regexp.Compile(expr); err != nil {
			return nil, fmt.Errorf("token rule %q: %w", name, err)
		}
		// Anchored, so a rule that does not apply fails at the cursor
		// instead of searching the rest of the source.
		re := regexp.MustCompile(`^(?:` + expr + `)`)
		rules = append(rules, tokenRule{kind: name, re: re})
	}
	return rules, nil
}

func readSource(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
