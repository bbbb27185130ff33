package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/helpline/pkg/cli/config"
	"github.com/secmon-lab/helpline/pkg/domain/types"
)

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categories.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestCategories_Configure(t *testing.T) {
	t.Run("valid rule file", func(t *testing.T) {
		path := writeRuleFile(t, `
[[category]]
id = "deployment"
keywords = ["deploy", "rollout"]

[[category]]
id = "ci"
keywords = ["pipeline"]
`)
		cfg := config.NewCategories(path)
		rules, err := cfg.Configure()
		gt.NoError(t, err).Required()
		gt.Array(t, rules).Length(2)
		gt.Value(t, rules[0].ID).Equal(types.CategoryID("deployment"))
		gt.Array(t, rules[0].Keywords).Length(2)
	})

	t.Run("no file configured yields no rules", func(t *testing.T) {
		cfg := config.NewCategories("")
		rules, err := cfg.Configure()
		gt.NoError(t, err).Required()
		gt.Array(t, rules).Length(0)
	})

	t.Run("duplicate category ID is rejected", func(t *testing.T) {
		path := writeRuleFile(t, `
[[category]]
id = "ci"
keywords = ["pipeline"]

[[category]]
id = "ci"
keywords = ["build"]
`)
		_, err := config.NewCategories(path).Configure()
		gt.Error(t, err)
	})

	t.Run("rule without keywords is rejected", func(t *testing.T) {
		path := writeRuleFile(t, `
[[category]]
id = "ci"
keywords = []
`)
		_, err := config.NewCategories(path).Configure()
		gt.Error(t, err)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := config.NewCategories("/no/such/file.toml").Configure()
		gt.Error(t, err)
	})
}
