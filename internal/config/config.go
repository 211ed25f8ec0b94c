package config

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	Role     string `yaml:"role"`
}

// DumpConfig controls how pg_dump is invoked.
type DumpConfig struct {
	Binary           string `yaml:"binary"`
	WorkDir          string `yaml:"work_dir"`
	NoOwner          bool   `yaml:"no_owner"`
	NoPrivileges     bool   `yaml:"no_privileges"`
	NoSecurityLabels bool   `yaml:"no_security_labels"`
	NoTablespaces    bool   `yaml:"no_tablespaces"`
}

// ProjectConfig controls how the project tree is generated.
type ProjectConfig struct {
	Force       bool `yaml:"force"`
	Gitkeep     bool `yaml:"gitkeep"`
	RemoveEmpty bool `yaml:"remove_empty"`
	Strict      bool `yaml:"strict"`
}

type LoggingConfig struct {
	File    string `yaml:"file"`
	Verbose bool   `yaml:"verbose"`
	Debug   bool   `yaml:"debug"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Dump     DumpConfig     `yaml:"dump"`
	Project  ProjectConfig  `yaml:"project"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Default returns the configuration used when no file is given: a local
// server reached as the current OS user.
func Default() *Config {
	name := currentUsername()
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: name,
			Username: name,
			SSLMode:  "disable",
		},
		Dump: DumpConfig{
			Binary: "pg_dump",
		},
	}
}

// LoadConfig reads a YAML file on top of Default. An empty path returns the
// defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()
	if strings.TrimSpace(configPath) == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Database.SSLMode == "" {
		config.Database.SSLMode = "disable"
	}
	if config.Database.Port == 0 {
		config.Database.Port = 5432
	}
	if strings.TrimSpace(config.Dump.Binary) == "" {
		config.Dump.Binary = "pg_dump"
	}

	return config, nil
}

// Validate rejects option combinations the generator cannot honor.
func (c *Config) Validate() error {
	if c.Project.Gitkeep && c.Project.RemoveEmpty {
		return fmt.Errorf("can not specify gitkeep and remove_empty together")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if strings.TrimSpace(c.Database.Database) == "" {
		return fmt.Errorf("database name is required")
	}
	return nil
}

func (c *Config) GetConnectionString() string {
	parts := []string{
		fmt.Sprintf("host=%s", quoteValue(c.Database.Host)),
		fmt.Sprintf("port=%d", c.Database.Port),
		fmt.Sprintf("user=%s", quoteValue(c.Database.Username)),
		fmt.Sprintf("dbname=%s", quoteValue(c.Database.Database)),
		fmt.Sprintf("sslmode=%s", quoteValue(c.Database.SSLMode)),
	}
	if c.Database.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", quoteValue(c.Database.Password)))
	}
	return strings.Join(parts, " ")
}

// quoteValue quotes a libpq keyword value when it is empty or contains
// spaces, quotes or backslashes.
func quoteValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return "'" + escaped + "'"
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "postgres"
}
