package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "analyze", "schedule", "serve", "stores"} {
		assert.True(t, names[want], want)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

func TestAnalyzeCmd_RequiresArgs(t *testing.T) {
	assert.Error(t, analyzeCmd.Args(analyzeCmd, nil))
	assert.NoError(t, analyzeCmd.Args(analyzeCmd, []string{"page1.png"}))
}

func TestNewResultValidator_WarnsWithoutAnchors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	v := newResultValidator(nil)
	assert.False(t, v.HasAnchors())
	assert.Equal(t, 1, logs.FilterMessageSnippet("no anchor keywords").Len())

	v = newResultValidator([]string{"broccoli"})
	assert.True(t, v.HasAnchors())
	assert.Equal(t, 1, logs.Len())
}
