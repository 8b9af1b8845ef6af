package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridflow/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing.
func SetupAppTest(t *testing.T, cfg Config, opts ...Option) (*App, *testutil.SafeBuffer) {
	t.Helper()

	cfg.LogLevel = "debug"
	if cfg.Retries == 0 {
		cfg.Retries = -1
	}
	appConfig, err := NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &testutil.SafeBuffer{}
	testApp := NewApp(logBuffer, appConfig, opts...)

	t.Cleanup(func() {
		if os.Getenv("GRIDFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return testApp, logBuffer
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// writeShop lays out a small project in dir:
//
//	raw_orders (source) -> stg_orders -> orders -> report
//	                                          \-> revenue
//	raw_customers (source) -> stg_customers -> orders
func writeShop(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "project.hcl"), `
project "shop" {
  concurrency = 3
  retries     = 1
}
`)
	writeFile(t, filepath.Join(dir, "models", "staging.hcl"), `
source "raw_orders" {}
source "raw_customers" {}

model "stg_orders" {
  tags       = ["nightly"]
  depends_on = ["raw_orders"]
  sql        = "select * from raw.orders"
}

model "stg_customers" {
  tags       = ["nightly"]
  depends_on = ["raw_customers"]
  sql        = "select * from raw.customers"
}
`)
	writeFile(t, filepath.Join(dir, "models", "marts.hcl"), `
model "orders" {
  depends_on = ["stg_orders", "stg_customers"]
  sql        = "select 1"
}

model "revenue" {
  tags       = ["finance"]
  depends_on = ["orders"]
  sql        = "select 2"
}

model "report" {
  depends_on = ["orders"]
  sql        = "select 3"
}
`)
}
