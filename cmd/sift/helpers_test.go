package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userCommands builds fresh instances of every command that defines a
// --user flag, subcommands included.
func userCommands() []*cobra.Command {
	commands := []*cobra.Command{importCmd(), categorizeCmd()}
	for _, sub := range rulesCmd().Commands() {
		if sub.Flags().Lookup("user") != nil {
			commands = append(commands, sub)
		}
	}
	return commands
}

func TestResolveUserIDReadsEachCommandsOwnFlag(t *testing.T) {
	t.Cleanup(viper.Reset)

	commands := userCommands()
	require.Len(t, commands, 4)

	// Every command's flag must resolve even with all commands registered,
	// so no command's flag can shadow another's through a shared binding.
	for _, cmd := range commands {
		require.NoError(t, cmd.Flags().Set("user", "bob"), cmd.Name())
	}
	for _, cmd := range commands {
		got, err := resolveUserID(cmd)
		require.NoError(t, err, cmd.Name())
		assert.Equal(t, "bob", got, cmd.Name())
	}
}

func TestResolveUserIDFallsBackToConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("user", "carol")

	for _, cmd := range userCommands() {
		got, err := resolveUserID(cmd)
		require.NoError(t, err, cmd.Name())
		assert.Equal(t, "carol", got, cmd.Name())
	}
}

func TestResolveUserIDFlagBeatsConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("user", "carol")

	cmd := categorizeCmd()
	require.NoError(t, cmd.Flags().Set("user", "bob"))

	got, err := resolveUserID(cmd)
	require.NoError(t, err)
	assert.Equal(t, "bob", got)
}

func TestResolveUserIDMissing(t *testing.T) {
	t.Cleanup(viper.Reset)

	_, err := resolveUserID(importCmd())
	assert.Error(t, err)
}
