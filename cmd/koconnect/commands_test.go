package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koconnect/koconnect/internal/domain"
	"github.com/koconnect/koconnect/internal/handler"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	jsonOutput, alignedOpt = false, false
	t.Cleanup(func() { jsonOutput, alignedOpt = false, false })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestDiffCommand_Table(t *testing.T) {
	out := execute(t, "diff", "나는 학교에 간다", "저는 학교에 갑니다")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "ACTION")
	assert.Contains(t, out, "저는")
	assert.Contains(t, out, "갑니다")
	assert.NotContains(t, out, "학교에")
}

func TestDiffCommand_JSON(t *testing.T) {
	out := execute(t, "diff", "--json", "a b", "a b c")

	var changes []domain.ChangeEntry
	require.NoError(t, json.Unmarshal([]byte(out), &changes))
	require.Len(t, changes, 1)
	assert.Equal(t, "c", changes[0].Word)
	assert.Equal(t, domain.ActionAdded, changes[0].Action)
	assert.Nil(t, changes[0].Counterpart)
}

func TestDiffCommand_Aligned(t *testing.T) {
	out := execute(t, "diff", "--json", "--aligned", "a b c", "x a b c")

	var changes []domain.ChangeEntry
	require.NoError(t, json.Unmarshal([]byte(out), &changes))
	require.Len(t, changes, 1)
	assert.Equal(t, "x", changes[0].Word)
	assert.Equal(t, domain.ActionAdded, changes[0].Action)
}

func TestLanguagesCommand_JSON(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	out := execute(t, "languages", "--json")

	var langs []handler.Language
	require.NoError(t, json.Unmarshal([]byte(out), &langs))
	require.NotEmpty(t, langs)
	assert.Equal(t, domain.Korean, langs[0].Name)
	assert.Equal(t, "한국어", langs[0].Label)
}

func TestStylesCommand(t *testing.T) {
	out := execute(t, "styles")
	for _, label := range []string{"formal", "문어체", "hanja", "한자어", "descriptive"} {
		assert.Contains(t, out, label)
	}
}

func TestReadInput(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("안녕하세요\n"))

	got, err := readInput(cmd, []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	got, err = readInput(cmd, []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요", got)
}
