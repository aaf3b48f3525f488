// Package config resolves pipeline settings from an optional YAML file
// overlaid with environment variables. Environment wins over file, file wins
// over defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grantlab/awardgraph/internal/platform/envutil"
	"github.com/grantlab/awardgraph/internal/platform/neo4jdb"
)

const defaultAwardSearchBaseURL = "https://www.nsf.gov/awardsearch/showAward"

type SourceConfig struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
}

type TitlesConfig struct {
	DistanceThreshold int `yaml:"distance_threshold"`
}

type AnalysisConfig struct {
	MaxHops      int `yaml:"max_hops"`
	MinNeighbors int `yaml:"min_neighbors"`
}

type Config struct {
	Source             SourceConfig   `yaml:"source"`
	Neo4j              neo4jdb.Config `yaml:"neo4j"`
	Titles             TitlesConfig   `yaml:"titles"`
	Analysis           AnalysisConfig `yaml:"analysis"`
	AwardSearchBaseURL string         `yaml:"award_search_base_url"`
}

func defaults() Config {
	return Config{
		Source: SourceConfig{Delimiter: ","},
		Neo4j: neo4jdb.Config{
			User:           "neo4j",
			TimeoutSeconds: 10,
			MaxPoolSize:    50,
		},
		Titles:             TitlesConfig{DistanceThreshold: 4},
		Analysis:           AnalysisConfig{MaxHops: 9, MinNeighbors: 11},
		AwardSearchBaseURL: defaultAwardSearchBaseURL,
	}
}

// Load reads path (if non-empty) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if cfg.Source.Delimiter == "" {
		cfg.Source.Delimiter = ","
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Source.Path = envutil.String("GRANTGRAPH_SOURCE", cfg.Source.Path)
	cfg.Source.Delimiter = envutil.String("GRANTGRAPH_DELIMITER", cfg.Source.Delimiter)
	cfg.Titles.DistanceThreshold = envutil.Int("GRANTGRAPH_TITLE_DISTANCE", cfg.Titles.DistanceThreshold)
	cfg.Analysis.MaxHops = envutil.Int("GRANTGRAPH_MAX_HOPS", cfg.Analysis.MaxHops)
	cfg.Analysis.MinNeighbors = envutil.Int("GRANTGRAPH_MIN_NEIGHBORS", cfg.Analysis.MinNeighbors)
	cfg.AwardSearchBaseURL = envutil.String("GRANTGRAPH_AWARD_SEARCH_URL", cfg.AwardSearchBaseURL)

	cfg.Neo4j.URI = envutil.String("NEO4J_URI", cfg.Neo4j.URI)
	cfg.Neo4j.User = envutil.String("NEO4J_USER", cfg.Neo4j.User)
	cfg.Neo4j.Password = envutil.String("NEO4J_PASSWORD", cfg.Neo4j.Password)
	cfg.Neo4j.Database = envutil.String("NEO4J_DATABASE", cfg.Neo4j.Database)
	cfg.Neo4j.TimeoutSeconds = envutil.Int("NEO4J_TIMEOUT_SECONDS", cfg.Neo4j.TimeoutSeconds)
	cfg.Neo4j.MaxPoolSize = envutil.Int("NEO4J_MAX_POOL_SIZE", cfg.Neo4j.MaxPoolSize)
}

// DelimiterRune returns the configured field delimiter as a rune. Tab may be
// written as "\t" or "tab" in config.
func (c Config) DelimiterRune() rune {
	switch c.Source.Delimiter {
	case "\\t", "\t", "tab":
		return '\t'
	case "":
		return ','
	default:
		return []rune(c.Source.Delimiter)[0]
	}
}
