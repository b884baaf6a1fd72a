package npmcli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/dependable/internal/execshell"
	"github.com/temirov/dependable/internal/npm"
)

const (
	// DefaultExecutable is the npm executable resolved through PATH when none is configured.
	DefaultExecutable = string(execshell.CommandNpm)
	// DefaultCommandTimeout bounds a single npm invocation when no timeout is configured.
	DefaultCommandTimeout = 5 * time.Minute

	auditSubcommandConstant                 = "audit"
	outdatedSubcommandConstant              = "outdated"
	jsonFlagConstant                        = "--json"
	updateNotifierEnvironmentKeyConstant    = "npm_config_update_notifier"
	updateNotifierDisabledValueConstant     = "false"
	executorNotConfiguredMessageConstant    = "npm cli executor not configured"
	operationErrorTemplateConstant          = "%s operation failed: %v"
	standardErrorLogMessageConstant         = "npm reported diagnostics"
	commandFieldNameConstant                = "command"
	projectPathFieldNameConstant            = "project_path"
	standardErrorFieldNameConstant          = "stderr"
	commandDescriptionSeparatorConstant     = " "
	runAuditOperationNameConstant           = OperationName("RunAudit")
	runOutdatedOperationNameConstant        = OperationName("RunOutdated")
	commandOutputParseErrorTemplateConstant = "unable to parse output of %s: %v"
)

// OperationName describes a named npm workflow supported by the client.
type OperationName string

// NpmCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type NpmCommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// OperationError wraps execution issues for npm operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// CommandOutputParseError indicates that npm produced output that is not the expected JSON payload.
type CommandOutputParseError struct {
	Command string
	Cause   error
}

// Error describes the parse failure.
func (parseError CommandOutputParseError) Error() string {
	return fmt.Sprintf(commandOutputParseErrorTemplateConstant, parseError.Command, parseError.Cause)
}

// Unwrap exposes the underlying cause.
func (parseError CommandOutputParseError) Unwrap() error {
	return parseError.Cause
}

// ClientConfiguration tunes how npm is invoked.
type ClientConfiguration struct {
	Executable     string
	CommandTimeout time.Duration
}

// Client coordinates npm invocations through execshell.
type Client struct {
	executor       NpmCommandExecutor
	logger         *zap.Logger
	executable     string
	commandTimeout time.Duration
}

// NewClient constructs an npm client. Blank configuration values select the defaults.
func NewClient(executor NpmCommandExecutor, logger *zap.Logger, configuration ClientConfiguration) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	executable := strings.TrimSpace(configuration.Executable)
	if len(executable) == 0 {
		executable = DefaultExecutable
	}
	commandTimeout := configuration.CommandTimeout
	if commandTimeout <= 0 {
		commandTimeout = DefaultCommandTimeout
	}

	return &Client{executor: executor, logger: logger, executable: executable, commandTimeout: commandTimeout}, nil
}

// RunAudit runs npm audit --json in projectPath and returns the parsed report.
// npm exits non-zero when vulnerabilities exist, so the exit status is ignored.
func (client *Client) RunAudit(executionContext context.Context, projectPath string) (npm.AuditReport, error) {
	standardOutput, executionError := client.run(executionContext, runAuditOperationNameConstant, projectPath, auditSubcommandConstant)
	if executionError != nil {
		return npm.AuditReport{}, executionError
	}

	auditReport, parseError := ParseAuditReport([]byte(standardOutput))
	if parseError != nil {
		return npm.AuditReport{}, CommandOutputParseError{Command: client.describeCommand(auditSubcommandConstant), Cause: parseError}
	}
	return auditReport, nil
}

// RunOutdated runs npm outdated --json in projectPath and returns the parsed report.
// npm exits non-zero when outdated packages exist, so the exit status is ignored.
func (client *Client) RunOutdated(executionContext context.Context, projectPath string) (npm.OutdatedReport, error) {
	standardOutput, executionError := client.run(executionContext, runOutdatedOperationNameConstant, projectPath, outdatedSubcommandConstant)
	if executionError != nil {
		return npm.OutdatedReport{}, executionError
	}

	outdatedReport, parseError := ParseOutdatedReport([]byte(standardOutput))
	if parseError != nil {
		return npm.OutdatedReport{}, CommandOutputParseError{Command: client.describeCommand(outdatedSubcommandConstant), Cause: parseError}
	}
	return outdatedReport, nil
}

func (client *Client) run(executionContext context.Context, operation OperationName, projectPath string, subcommand string) (string, error) {
	timeoutContext, cancel := context.WithTimeout(executionContext, client.commandTimeout)
	defer cancel()

	command := execshell.ShellCommand{
		Name: execshell.CommandName(client.executable),
		Details: execshell.CommandDetails{
			Arguments:            []string{subcommand, jsonFlagConstant},
			WorkingDirectory:     projectPath,
			EnvironmentVariables: map[string]string{updateNotifierEnvironmentKeyConstant: updateNotifierDisabledValueConstant},
		},
	}

	executionResult, executionError := client.executor.Execute(timeoutContext, command)
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if !errors.As(executionError, &failedError) {
			return "", OperationError{Operation: operation, Cause: executionError}
		}
		executionResult = failedError.Result
	}

	if trimmedStandardError := strings.TrimSpace(executionResult.StandardError); len(trimmedStandardError) > 0 {
		client.logger.Warn(standardErrorLogMessageConstant,
			zap.String(commandFieldNameConstant, client.describeCommand(subcommand)),
			zap.String(projectPathFieldNameConstant, projectPath),
			zap.String(standardErrorFieldNameConstant, trimmedStandardError),
		)
	}

	return executionResult.StandardOutput, nil
}

func (client *Client) describeCommand(subcommand string) string {
	return strings.Join([]string{client.executable, subcommand, jsonFlagConstant}, commandDescriptionSeparatorConstant)
}
