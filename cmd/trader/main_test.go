package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := `
data_source:
  provider: mock
watchlist: [AAPL, MSFT]
risk:
  auto_reconcile: true
adaptive:
  state_file: ` + filepath.Join(dir, "attribution.json") + `
ledger:
  backend: sqlite
  sqlite_path: ` + filepath.Join(dir, "ledger.db") + `
database:
  sqlite_path: ` + filepath.Join(dir, "events.db") + `
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestNewAppRunsCycle(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, writeConfig(t))
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.notifier.Enabled())
	summary, err := a.engine.RunCycle(ctx)
	require.NoError(t, err)
	assert.Len(t, summary.Reports, 2)
	assert.Len(t, a.closers, 2)
}

func TestNewAppRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_source:\n  provider: bloomberg\n"), 0o644))
	_, err := newApp(context.Background(), path)
	assert.ErrorContains(t, err, "config validation")
}

func TestPortfolioCommand(t *testing.T) {
	configPath = writeConfig(t)
	var out bytes.Buffer
	portfolioCmd.SetOut(&out)
	portfolioCmd.SetContext(context.Background())

	require.NoError(t, runPortfolio(portfolioCmd, nil))
	assert.Contains(t, out.String(), "Cash: $100000.00")
	assert.NotContains(t, out.String(), "<b>")
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "Portfolio S&P <x>", plain("<b>Portfolio</b> S&amp;P &lt;x&gt;"))
}
