/*
A tool for keeping a table of translations in sync with the XLIFF documents a translation platform
exports, and for exporting the translations back out as one XLIFF document per language.

Program settings are controlled by a TOML (or YAML) config file. By default, the program will look
for a file called 'translation-sync.toml' in the working directory.

The program must be run with a 'command' argument to indicate what you would like it to do.
Available commands are:

  - init-db: Creates the database tables and the fixed and language columns.
  - import: Syncs the store with an XLIFF file, or with every file in the xliff 'import_path'.
  - export: Writes one language, or every available language, to the xliff 'export_path'.
  - languages: Lists the languages that can be exported.
  - serve: Starts an HTTP server providing a JSON API for syncing and exporting.
  - help: Prints usage instructions
*/
package main

import (
	"fmt"
	"github.com/petert82/go-translation-sync/config"
	"github.com/spf13/pflag"
	"os"
	"path/filepath"
	"strings"
)

var (
	configPath string
	debug      bool
)

const (
	cmdMissing      = "missing"
	cmdUnrecognised = "unrecognised"
	cmdHelp         = "help"
	cmdInitDb       = "init-db"
	cmdImport       = "import"
	cmdExport       = "export"
	cmdLanguages    = "languages"
	cmdServe        = "serve"
)

func init() {
	defaultConfigPath := filepath.FromSlash("./translation-sync.toml")
	pflag.StringVarP(&configPath, "config", "c", defaultConfigPath, "Full `path` and file name to the config file")
	pflag.BoolVar(&debug, "debug", false, "Log at debug level, overriding the config file")
}

type Command interface {
	Run(c config.Config, args []string) error
}

type CommandFunc func(config.Config, []string) error

func (f CommandFunc) Run(c config.Config, args []string) error {
	return f(c, args)
}

// Gets list of available commands
func availableCommands() []string {
	return []string{cmdInitDb, cmdImport, cmdExport, cmdLanguages, cmdServe, cmdHelp}
}

func checkFatal(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Converts the positional arguments to one of the cmd* constants.
func parseArgs(args []string) (command string) {
	if len(args) < 1 {
		return cmdMissing
	}

	for _, cmd := range availableCommands() {
		if args[0] == cmd {
			return cmd
		}
	}

	return cmdUnrecognised
}

// Prints a normal usage message.
func printUsage(c config.Config, args []string) error {
	fmt.Fprintf(os.Stderr, "Usage: %v [flags] <command> [argument]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "  init-db               create the database tables and columns")
	fmt.Fprintln(os.Stderr, "  import [file]         sync with one XLIFF file, or every file in import_path")
	fmt.Fprintln(os.Stderr, "  export [language]     export one language (name or code), or all of them")
	fmt.Fprintln(os.Stderr, "  languages             list the languages that can be exported")
	fmt.Fprintln(os.Stderr, "  serve                 start the HTTP API")
	fmt.Fprintln(os.Stderr, "\nFlags:")
	pflag.PrintDefaults()
	return nil
}

// Prints a usage message indicating that a command must be given.
func printMissingCommandUsage(c config.Config, args []string) error {
	fmt.Fprintf(os.Stderr, "No command given. Command can be one of: %v\n\n", strings.Join(availableCommands(), ", "))
	return printUsage(c, args)
}

// Prints a usage message indicating that the given command was not recognised.
func printUnrecognisedCommandUsage(cmd string) CommandFunc {
	return func(c config.Config, args []string) error {
		fmt.Fprintf(os.Stderr, "Command '%v' not recognised. Command must be one of: %v\n\n", cmd, strings.Join(availableCommands(), ", "))
		return printUsage(c, args)
	}
}

func main() {
	pflag.Parse()
	cfg, cfgErr := config.Load(configPath)
	if debug {
		cfg.Debug = true
	}
	args := pflag.Args()
	var command = parseArgs(args)

	var commandFunc = CommandFunc(printMissingCommandUsage)
	switch command {
	case cmdUnrecognised:
		commandFunc = printUnrecognisedCommandUsage(args[0])
	case cmdHelp:
		commandFunc = CommandFunc(printUsage)
	case cmdInitDb:
		commandFunc = CommandFunc(initDb)
	case cmdImport:
		commandFunc = CommandFunc(importXliff)
	case cmdExport:
		commandFunc = CommandFunc(exportXliff)
	case cmdLanguages:
		commandFunc = CommandFunc(listLanguages)
	case cmdServe:
		commandFunc = CommandFunc(serve)
	}

	// Invalid config only matters for non-'help' commands
	if command != cmdUnrecognised && command != cmdMissing && command != cmdHelp {
		checkFatal(cfgErr)
	}

	if len(args) > 0 {
		args = args[1:]
	}
	checkFatal(commandFunc.Run(cfg, args))
}
