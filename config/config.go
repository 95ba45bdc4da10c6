/*
Package config implements config file handling for translation-sync.

Normally it will be used by simply passing a config file name to the Load function to obtain a
Config struct. Files are read as TOML unless their extension is .yaml or .yml.
*/
package config

import (
	"errors"
	"fmt"
	"github.com/BurntSushi/toml"
	"github.com/petert82/go-translation-sync/trans"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"strings"
)

const (
	DbDriverSqlite3    = "sqlite3"
	DbDriverPostgresql = "postgres"

	StoreKindSQL  = "sql"
	StoreKindXLSX = "xlsx"

	// Write only the rows a sync touched.
	StrategyTargeted = "targeted"
	// Rewrite the whole store on every sync.
	StrategyRewrite = "rewrite"
)

// Config represents the parsed configuration for translation-sync.
type Config struct {
	Debug     bool             `toml:"debug" yaml:"debug"`
	DB        DbConfig         `toml:"database" yaml:"database"`
	Server    ServerConfig     `toml:"server" yaml:"server"`
	XLIFF     XliffConfig      `toml:"xliff" yaml:"xliff"`
	Store     StoreConfig      `toml:"store" yaml:"store"`
	Sync      SyncConfig       `toml:"sync" yaml:"sync"`
	Columns   trans.Columns    `toml:"columns" yaml:"columns"`
	Languages []trans.Language `toml:"languages" yaml:"languages"`
}

// valid checks if the Config is valid in its current state.
func (c *Config) valid() error {
	switch c.Store.Kind {
	case StoreKindSQL:
		if err := c.DB.valid(); err != nil {
			return err
		}
	case StoreKindXLSX:
		if len(c.Store.Workbook) == 0 {
			return errors.New("config: missing store.workbook value")
		}
		if len(c.Store.Sheet) == 0 {
			return errors.New("config: missing store.sheet value")
		}
	default:
		return fmt.Errorf("config: invalid store.kind value (must be one of: '%v')", strings.Join([]string{StoreKindSQL, StoreKindXLSX}, ", "))
	}
	if c.Server.Port < 0 {
		return errors.New("config: server.port is invalid")
	}
	if len(c.XLIFF.ImportPath) == 0 {
		return errors.New("config: missing xliff.import_path value")
	}
	if len(c.XLIFF.ExportPath) == 0 {
		return errors.New("config: missing xliff.export_path value")
	}
	if len(c.XLIFF.SourceLanguage) == 0 {
		return errors.New("config: missing xliff.source_language value")
	}
	if c.Sync.Strategy != StrategyRewrite && c.Sync.Strategy != StrategyTargeted {
		return fmt.Errorf("config: invalid sync.strategy value (must be one of: '%v')", strings.Join([]string{StrategyRewrite, StrategyTargeted}, ", "))
	}
	if len(c.Languages) == 0 {
		return errors.New("config: at least one [[languages]] entry is required")
	}
	seen := make(map[string]bool)
	for _, name := range c.Columns.Base() {
		if len(name) == 0 {
			return errors.New("config: column names must not be empty")
		}
		if seen[name] {
			return fmt.Errorf("config: column name %q used more than once", name)
		}
		seen[name] = true
	}
	for _, l := range c.Languages {
		if seen[l.Name] {
			return fmt.Errorf("config: language %q clashes with a column name", l.Name)
		}
	}
	return nil
}

// DbConfig contains Database connection configuration.
type DbConfig struct {
	// Must be 'sqlite3' or 'postgres'
	Driver string `toml:"driver" yaml:"driver"`
	// When driver is sqlite3, this is the path to the database file
	File     string `toml:"file" yaml:"file"`
	Host     string `toml:"host" yaml:"host"`
	Port     int    `toml:"port" yaml:"port"`
	Name     string `toml:"name" yaml:"name"`
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"password" yaml:"password"`
}

func (d *DbConfig) valid() error {
	if d.Driver != DbDriverSqlite3 && d.Driver != DbDriverPostgresql {
		drivers := []string{DbDriverPostgresql, DbDriverSqlite3}
		return fmt.Errorf("config: invalid database.driver value. (Must be one of: '%v')", strings.Join(drivers, ", "))
	}
	if d.Driver == DbDriverSqlite3 && len(d.File) == 0 {
		return errors.New("config: missing database.file value")
	}
	if d.Driver == DbDriverPostgresql {
		if len(d.Host) == 0 {
			return errors.New("config: missing database.host value")
		}
		if len(d.Name) == 0 {
			return errors.New("config: missing database.name value")
		}
		if len(d.User) == 0 {
			return errors.New("config: missing database.user value")
		}
		if d.Port < 0 {
			return errors.New("config: invalid database.port value")
		}
	}
	return nil
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port that the server should run on.
	Port int `toml:"port" yaml:"port"`
}

// XliffConfig contains XLIFF import/export configuration.
type XliffConfig struct {
	// Path to import XLIFF files from
	ImportPath string `toml:"import_path" yaml:"import_path"`
	// Path to export XLIFF files to
	ExportPath string `toml:"export_path" yaml:"export_path"`
	// The only source-language accepted in imported files
	SourceLanguage string `toml:"source_language" yaml:"source_language"`
	// Base name of exported files, and the 'original' attribute written into them
	FileName string `toml:"file_name" yaml:"file_name"`
	Original string `toml:"original" yaml:"original"`
}

// StoreConfig selects where records are kept.
type StoreConfig struct {
	// 'sql' uses the [database] section, 'xlsx' a spreadsheet workbook
	Kind     string `toml:"kind" yaml:"kind"`
	Workbook string `toml:"workbook" yaml:"workbook"`
	Sheet    string `toml:"sheet" yaml:"sheet"`
}

// SyncConfig controls how a sync writes to the store.
type SyncConfig struct {
	Strategy string `toml:"strategy" yaml:"strategy"`
}

// Gets a connection string for this config.
func (d *DbConfig) ConnectionString() string {
	cStr := ""
	switch d.Driver {
	case DbDriverPostgresql:
		cStr = fmt.Sprintf("postgres://%v:%v@%v:%v/%v?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name)
	case DbDriverSqlite3:
		cStr = d.File
	}
	return cStr
}

// DefaultLanguages are used when the config file lists none.
func DefaultLanguages() []trans.Language {
	return []trans.Language{
		{Name: "German", Code: "de"},
		{Name: "Spanish", Code: "es"},
		{Name: "French", Code: "fr"},
		{Name: "Italian", Code: "it"},
		{Name: "Polish", Code: "pl"},
		{Name: "Portuguese (Brazil)", Code: "pt_BR"},
		{Name: "Dutch", Code: "nl_NL"},
		{Name: "Czech", Code: "cs"},
		{Name: "Hungarian", Code: "hu"},
		{Name: "French (Canada)", Code: "fr_CA"},
		{Name: "English (UK)", Code: "en_GB"},
		{Name: "Spanish (Mexico)", Code: "es_MX"},
	}
}

// Creates a new Config with some default values.
func New() Config {
	c := Config{
		DB: DbConfig{
			Driver: DbDriverSqlite3,
			File:   filepath.FromSlash("./translations.db"),
			Port:   5432, // Postgres default port
		},
		Server: ServerConfig{
			Port: 8181,
		},
		XLIFF: XliffConfig{
			ImportPath:     filepath.FromSlash("./xliff-in"),
			ExportPath:     filepath.FromSlash("./xliff-out"),
			SourceLanguage: "en_US",
			FileName:       "translations",
			Original:       "Salesforce",
		},
		Store: StoreConfig{
			Kind:     StoreKindSQL,
			Workbook: filepath.FromSlash("./translations.xlsx"),
			Sheet:    "Translations",
		},
		Sync: SyncConfig{
			Strategy: StrategyRewrite,
		},
		Columns: trans.DefaultColumns(),
	}
	return c
}

// Loads config from a TOML or YAML file and checks its validity.
func Load(file string) (Config, error) {
	conf := New()

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(file)
		if err != nil {
			return conf, err
		}
		if err = yaml.Unmarshal(data, &conf); err != nil {
			return conf, fmt.Errorf("config: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(file, &conf); err != nil {
			return conf, err
		}
	}

	if len(conf.Languages) == 0 {
		conf.Languages = DefaultLanguages()
	}

	if err := conf.valid(); err != nil {
		return conf, err
	}

	return conf, nil
}
