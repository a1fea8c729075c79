// Package cli parses command-line arguments, validates user input, and
// translates flags into the application's configuration. Process-level
// concerns like exit codes live here.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/mrwogu/promptscript/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated
// app.Config, a boolean indicating the program should exit cleanly (for
// -help and bare invocations), or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("prsc", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
prsc - compile PromptScript documents into assistant instruction files.

Usage:
  prsc [options] ENTRY

Arguments:
  ENTRY
    Path to the entry .prs document.

Options:
`)
		flagSet.PrintDefaults()
	}

	entryFlag := flagSet.String("entry", "", "Path to the entry document.")
	eFlag := flagSet.String("e", "", "Path to the entry document (shorthand).")
	targetsFlag := flagSet.String("targets", "claude", "Comma-separated output targets: claude, copilot, cursor, agents.")
	outFlag := flagSet.String("out", ".", "Directory to write output files into.")
	registryFlag := flagSet.String("registry", "", "Base URL of the document registry for @collection identifiers.")
	noValidateFlag := flagSet.Bool("no-validate", false, "Skip content validation of the resolved document.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	entry := ""
	if *entryFlag != "" {
		entry = *entryFlag
	} else if *eFlag != "" {
		entry = *eFlag
	} else if flagSet.NArg() > 0 {
		entry = flagSet.Arg(0)
	}

	if entry == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var targets []string
	for _, t := range strings.Split(*targetsFlag, ",") {
		t = strings.TrimSpace(strings.ToLower(t))
		if t != "" {
			targets = append(targets, t)
		}
	}

	config, err := app.NewConfig(app.Config{
		EntryPath:   entry,
		Targets:     targets,
		OutputDir:   *outFlag,
		RegistryURL: *registryFlag,
		NoValidate:  *noValidateFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
