package main

import (
	"context"
	"testing"

	"mintylist/backend/internal/config"
	"mintylist/backend/internal/docstore"
	"mintylist/backend/internal/identity"
	"mintylist/backend/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	require.NoError(t, cmd.ParseFlags([]string{"--port", "9000", "--config", "c.yaml"}))

	port, err := cmd.Flags().GetString("port")
	require.NoError(t, err)
	assert.Equal(t, "9000", port)
	envFile, err := cmd.Flags().GetString("env-file")
	require.NoError(t, err)
	assert.Equal(t, ".env", envFile)
}

func TestOpenBackends_InMemory(t *testing.T) {
	b, err := openBackends(context.Background(), config.Default())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &identity.Memory{}, b.identity)
	assert.IsType(t, &docstore.Memory{}, b.docs)
	assert.IsType(t, &session.MemoryStore{}, b.sessions)
}
