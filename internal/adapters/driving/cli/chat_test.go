package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

func TestChatCmd_Use(t *testing.T) {
	assert.Equal(t, "chat", chatCmd.Use)
}

func TestChatCmd_HasPlainFlag(t *testing.T) {
	flag := chatCmd.Flags().Lookup("plain")
	require.NotNil(t, flag, "plain flag should exist")
	assert.Equal(t, "false", flag.DefValue)
}

func runPlainChat(t *testing.T, input string) (*mockSearchService, string) {
	t.Helper()
	mock, _, cleanup := setupTestServices()
	t.Cleanup(cleanup)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs([]string{"chat", "--plain"})

	require.NoError(t, rootCmd.Execute())
	return mock, buf.String()
}

func TestChatCmd_AsksThenRefines(t *testing.T) {
	mock, out := runPlainChat(t, "brake pads\nanything cheaper?\nexit\n")

	require.Len(t, mock.requests, 1)
	assert.Equal(t, "brake pads", mock.requests[0].Query)
	assert.Equal(t, domain.DefaultLimit, mock.requests[0].Limit)

	assert.Contains(t, out, "[1] BRK-001 Ceramic brake pad")
	assert.Contains(t, out, "Found 1 cheaper alternatives")
	assert.Contains(t, out, "[1] BRK-009 Budget pad")
	assert.Contains(t, out, "saves 1500.00 against BRK-001")
}

func TestChatCmd_FollowUpWithoutContext(t *testing.T) {
	mock, out := runPlainChat(t, "compare them\nquit\n")

	assert.Empty(t, mock.requests)
	assert.Contains(t, out, "There are no previous results to refine yet.")
}

func TestChatCmd_Comparison(t *testing.T) {
	_, out := runPlainChat(t, "pads\ncompare them\n")

	assert.Contains(t, out, "material: ceramic | metal")
	assert.Contains(t, out, "BRK-001 is cheaper by 500.00")
}

func TestChatCmd_SkipsBlankLinesAndStopsAtEOF(t *testing.T) {
	mock, _ := runPlainChat(t, "\n   \npads")

	require.Len(t, mock.requests, 1)
	assert.Equal(t, "pads", mock.requests[0].Query)
}

func TestChatCmd_ReportsQueryErrorsAndContinues(t *testing.T) {
	mock, _, cleanup := setupTestServices()
	defer cleanup()
	mock.queryErr = assert.AnError

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("pads\nfilters\nexit\n"))
	rootCmd.SetArgs([]string{"chat", "--plain"})

	require.NoError(t, rootCmd.Execute())
	assert.Len(t, mock.requests, 2)
	assert.Equal(t, 2, strings.Count(buf.String(), "Error: "))
}
