package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunio-health/eunio-sync/internal/adapters/driving/mcp"
)

func TestMCPServeCmd_PortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")

	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestMCPServeCmd_HelpListsTools(t *testing.T) {
	out, err := executeCommand("mcp", "serve", "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "sync_user_data")
	assert.Contains(t, out, "resolve_conflict")
}

func TestMCPServeCmd_MissingServices(t *testing.T) {
	defer withServices(Services{})()

	_, err := executeCommand("mcp", "serve")

	assert.ErrorIs(t, err, mcp.ErrMissingSyncOrchestrator)
}
