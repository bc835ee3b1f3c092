package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/flottaio/carburante/internal/common"
	"github.com/flottaio/carburante/internal/config"
	"github.com/flottaio/carburante/internal/extract"
	"github.com/flottaio/carburante/internal/match"
	"github.com/flottaio/carburante/internal/model"
	"github.com/flottaio/carburante/internal/normalize"
	"github.com/flottaio/carburante/internal/storage"
)

// openStorage opens the configured database and brings its schema up to
// date. Callers own closing it.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not open database at %s", dbPath), err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, common.NewUserError("could not migrate database", err)
	}

	return store, nil
}

func configuredLocale() normalize.Locale {
	switch viper.GetString("extraction.locale") {
	case "en":
		return normalize.LocaleEnglish
	default:
		return normalize.LocaleItalian
	}
}

func newExtractor() *extract.Engine {
	return extract.NewEngine(configuredLocale())
}

func newMatcher() *match.Engine {
	return match.NewEngine(normalize.DefaultFuelTable())
}

// loadTemplateConfig reads and validates a template config JSON file.
func loadTemplateConfig(path string) (model.TemplateConfig, error) {
	var cfg model.TemplateConfig

	if path == "" {
		return cfg, fmt.Errorf("%w: template config file", common.ErrMissingConfig)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read template file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse template file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := lintTemplateRegexes(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// lintTemplateRegexes compiles every regex in the config up front. At
// extraction time a bad regex only degrades a line; when authoring a template
// it should be a hard error.
func lintTemplateRegexes(cfg *model.TemplateConfig) error {
	checkPattern := func(where, pattern string, group int) error {
		if pattern == "" {
			return nil
		}
		groups, err := common.ValidateRegex(pattern)
		if err != nil {
			return fmt.Errorf("%s: invalid regex %q: %w", where, pattern, err)
		}
		if group > groups {
			return fmt.Errorf("%s: regex %q has %d capture groups, group %d requested",
				where, pattern, groups, group)
		}
		return nil
	}

	for name, rule := range cfg.Fields {
		if err := checkPattern("field "+name, rule.Regex, rule.GroupOrDefault()); err != nil {
			return err
		}
		for i, pattern := range rule.RegexPatterns {
			where := fmt.Sprintf("field %s, pattern %d", name, i)
			if err := checkPattern(where, pattern.Regex, pattern.GroupOrDefault()); err != nil {
				return err
			}
		}
	}
	for i, filter := range cfg.LineFilters {
		if err := checkPattern(fmt.Sprintf("lineFilters[%d]", i), filter.Regex, 0); err != nil {
			return err
		}
	}
	return nil
}

// expandFileArgs expands glob patterns and checks direct paths.
func expandFileArgs(args []string) ([]string, error) {
	var files []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("no files found matching %s", pattern)
			}
			files = append(files, pattern)
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to process")
	}
	return files, nil
}
