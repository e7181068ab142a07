package cli

import (
	"errors"
	"fmt"

	"privacyviz/redactor/pkg/config"
	"privacyviz/redactor/pkg/redaction"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitRun     = 2
	ExitConfig  = 3
)

// ConfigError represents an error in configuration or flags.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps an error returned by a command to a process exit code.
// An aborted redaction run exits with ExitRun so that schedulers wrapping
// `redactor run` can tell it apart from bad configuration.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		configErr     *ConfigError
		validationErr config.ValidationError
		runErr        *redaction.RunError
	)
	switch {
	case errors.As(err, &configErr), errors.As(err, &validationErr):
		return ExitConfig
	case errors.As(err, &runErr):
		return ExitRun
	default:
		return ExitFailure
	}
}
