package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storeledger/internal/integrity"
	_ "github.com/odyssey-erp/storeledger/internal/testing/guard"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CACHE_ENABLED", "false")
	root := NewRootCommand()
	stdout := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestNextIDPreviewsFirstNumber(t *testing.T) {
	got, err := run(t, "next-id", "customer_order")
	require.NoError(t, err)
	assert.Equal(t, "CO-1\n", got)
}

func TestNextIDRejectsUnknownDocType(t *testing.T) {
	_, err := run(t, "next-id", "receipt")
	require.Error(t, err)
}

func TestCheckOnEmptyLedger(t *testing.T) {
	got, err := run(t, "check", "--strict")
	require.NoError(t, err)
	assert.Equal(t, "ledger is consistent\n", got)
}

func TestCheckJSONOutput(t *testing.T) {
	got, err := run(t, "check", "--json")
	require.NoError(t, err)
	var report integrity.Report
	require.NoError(t, json.Unmarshal([]byte(got), &report))
	assert.True(t, report.Clean())
}

func TestMigrateOnMemoryDriver(t *testing.T) {
	got, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, got, "memory driver keeps no schema")
}

func TestJobsTriggerRejectsUnknownTask(t *testing.T) {
	_, err := run(t, "jobs", "trigger", "reindex")
	require.ErrorContains(t, err, "unsupported job")
}

func TestServeBuildsRouterInTestMode(t *testing.T) {
	_, err := run(t, "serve", "--access-log")
	require.NoError(t, err)
}
