package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		clockBirthdate = ""
	})

	rootCmd.SetArgs([]string{"clock"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "age: 30")
	assert.Contains(t, out.String(), "future value per hour: 2600.00")

	out.Reset()
	rootCmd.SetArgs([]string{"clock", "--birthdate", "not-a-date"})
	assert.Error(t, rootCmd.Execute())
}
