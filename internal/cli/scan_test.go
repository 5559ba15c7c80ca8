package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamparse/textrange"
)

func writeText(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func mustRules(t *testing.T, flags ...string) []tokenRule {
	t.Helper()
	rules, err := parseTokenRules(flags)
	require.NoError(t, err)
	return rules
}

func TestScan(t *testing.T) {
	rules := mustRules(t, `num=\d+`, `op=[-+*/]`, `ws=\s+`)

	lexemes, unlexed, err := scan(context.Background(), rules, textrange.New("12 + 3"))
	require.NoError(t, err)
	assert.Equal(t, -1, unlexed)
	assert.Equal(t, []Lexeme{
		{Kind: "num", Start: 0, End: 2, Text: "12"},
		{Kind: "ws", Start: 2, End: 3, Text: " "},
		{Kind: "op", Start: 3, End: 4, Text: "+"},
		{Kind: "ws", Start: 4, End: 5, Text: " "},
		{Kind: "num", Start: 5, End: 6, Text: "3"},
	}, lexemes)
}

func TestScan_FirstRuleWins(t *testing.T) {
	rules := mustRules(t, `kw=if`, `id=[a-z]+`)

	lexemes, _, err := scan(context.Background(), rules, textrange.New("iffy"))
	require.NoError(t, err)
	require.Len(t, lexemes, 2)
	assert.Equal(t, Lexeme{Kind: "kw", Start: 0, End: 2, Text: "if"}, lexemes[0])
	assert.Equal(t, Lexeme{Kind: "id", Start: 2, End: 4, Text: "fy"}, lexemes[1])
}

func TestScan_Unlexed(t *testing.T) {
	rules := mustRules(t, `num=\d+`)

	lexemes, unlexed, err := scan(context.Background(), rules, textrange.New("42x7"))
	require.NoError(t, err)
	assert.Equal(t, 2, unlexed)
	assert.Len(t, lexemes, 1)
}

func TestScan_ZeroWidthRuleStops(t *testing.T) {
	rules := mustRules(t, `a=a*`)

	lexemes, unlexed, err := scan(context.Background(), rules, textrange.New("aab"))
	require.NoError(t, err)
	assert.Equal(t, []Lexeme{{Kind: "a", Start: 0, End: 2, Text: "aa"}}, lexemes)
	assert.Equal(t, 2, unlexed)
}

func TestScan_EmptyInput(t *testing.T) {
	lexemes, unlexed, err := scan(context.Background(), mustRules(t, `num=\d+`), textrange.New(""))
	require.NoError(t, err)
	assert.Empty(t, lexemes)
	assert.Equal(t, -1, unlexed)
}

func TestParseTokenRules(t *testing.T) {
	rules := mustRules(t, `eq==`, `num=\d+`)
	require.Len(t, rules, 2)
	assert.Equal(t, "eq", rules[0].kind)
	assert.Equal(t, "^(?:=)", rules[0].re.String())

	for _, bad := range []string{"noequals", "=abc", "name=", "bad=("} {
		_, err := parseTokenRules([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestScanCommand(t *testing.T) {
	path := writeText(t, "a = 10")

	out, err := execute(t, "scan", "-t", "id=[a-z]+", "-t", "eq==", "-t", `num=\d+`, "-t", "ws=\\s+", "--skip", "ws", path)
	require.NoError(t, err)
	assert.Equal(t, "0:1\tid\t\"a\"\n2:3\teq\t\"=\"\n4:6\tnum\t\"10\"\n", out)
}

func TestScanCommandUnlexed(t *testing.T) {
	path := writeText(t, "1+2")

	out, err := execute(t, "scan", "-t", `num=\d+`, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ no rule matches at offset 1")
}

func TestScanCommandJSON(t *testing.T) {
	path := writeText(t, "1+2")

	out, err := execute(t, "scan", "-t", `num=\d+`, "--format", "json", path)
	require.Error(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnlexed, resp.Error.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(1), data["unlexed"])
	assert.Len(t, data["tokens"], 1)
}

func TestScanCommandStdinAndNormalize(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	// "e" followed by a combining acute accent.
	cmd.SetIn(bytes.NewBufferString("e\u0301"))
	cmd.SetArgs([]string{"scan", "--nfc", "-t", "e=\u00e9", "-"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "0:2\te\t\"\u00e9\"\n", out.String())
}

func TestScanCommandErrors(t *testing.T) {
	_, err := execute(t, "scan", "-t", "bad=(", writeText(t, "x"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "scan", "-t", "x=x", "/nonexistent/file")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read input")

	_, err = execute(t, "scan", writeText(t, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "token" not set`)
}
