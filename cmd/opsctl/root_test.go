package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	for _, name := range []string{"health", "errors", "lead", "resolve", "action"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, "command %q not registered", name)
		require.NotNil(t, cmd)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestParseParams(t *testing.T) {
	t.Run("TypedValues", func(t *testing.T) {
		params, err := parseParams([]string{"window=1h", "limit=25", "force=true", "ratio=0.5"})
		require.NoError(t, err)

		// JSON-скаляры сохраняют тип, остальное остаётся строкой
		assert.Equal(t, "1h", params["window"])
		assert.Equal(t, float64(25), params["limit"])
		assert.Equal(t, true, params["force"])
		assert.Equal(t, 0.5, params["ratio"])
	})

	t.Run("ValueMayContainEquals", func(t *testing.T) {
		params, err := parseParams([]string{"query=a=b"})
		require.NoError(t, err)
		assert.Equal(t, "a=b", params["query"])
	})

	t.Run("EmptyInputGivesNil", func(t *testing.T) {
		params, err := parseParams(nil)
		require.NoError(t, err)
		assert.Nil(t, params)
	})

	t.Run("MalformedPairRejected", func(t *testing.T) {
		_, err := parseParams([]string{"no-separator"})
		assert.Error(t, err)

		_, err = parseParams([]string{"=value"})
		assert.Error(t, err)
	})
}
