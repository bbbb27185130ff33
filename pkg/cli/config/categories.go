package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Categories holds the CLI flag for the category rule file. The file is
// TOML with one [[category]] table per rule:
//
//	[[category]]
//	id = "deployment"
//	keywords = ["deploy", "rollout", "release"]
type Categories struct {
	path string
}

type categoryFile struct {
	Categories []model.CategoryRule `toml:"category"`
}

// NewCategories creates a Categories config with a fixed file path
func NewCategories(path string) *Categories {
	return &Categories{path: path}
}

// Flags returns CLI flags for the category rules
func (x *Categories) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "category-rules",
			Usage:       "Path to the TOML file with category keyword rules",
			Sources:     cli.EnvVars("HELPLINE_CATEGORY_RULES"),
			Destination: &x.path,
		},
	}
}

// Configure loads and validates the category rules. Returns nil rules when
// no file is configured; new threads then get no categories.
func (x *Categories) Configure() ([]model.CategoryRule, error) {
	if x.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(x.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read category rule file", goerr.V("path", x.path))
	}

	var file categoryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse category rule file", goerr.V("path", x.path))
	}

	seen := make(map[string]bool, len(file.Categories))
	for _, rule := range file.Categories {
		if rule.ID == "" {
			return nil, goerr.New("category rule without id", goerr.V("path", x.path))
		}
		if seen[rule.ID.String()] {
			return nil, goerr.New("duplicate category ID", goerr.V("id", rule.ID))
		}
		seen[rule.ID.String()] = true

		if len(rule.Keywords) == 0 {
			return nil, goerr.New("category rule without keywords", goerr.V("id", rule.ID))
		}
	}

	return file.Categories, nil
}
