package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandMessageFormatterDescribesNpmSubcommands(t *testing.T) {
	formatter := CommandMessageFormatter{}
	auditCommand := ShellCommand{
		Name: CommandNpm,
		Details: CommandDetails{
			Arguments:        []string{"audit", "--json"},
			WorkingDirectory: "/workspace/app",
		},
	}
	outdatedCommand := ShellCommand{
		Name: CommandName("/usr/local/bin/npm"),
		Details: CommandDetails{
			Arguments:        []string{"outdated", "--json"},
			WorkingDirectory: "/workspace/app",
		},
	}

	require.Equal(t, "Auditing dependencies in /workspace/app", formatter.BuildStartedMessage(auditCommand))
	require.Equal(t, "Audited dependencies in /workspace/app", formatter.BuildSuccessMessage(auditCommand))
	require.Equal(t, "npm audit reported findings in /workspace/app (exit code 1: found 2 vulnerabilities)", formatter.BuildFailureMessage(auditCommand, ExecutionResult{ExitCode: 1, StandardError: "found 2 vulnerabilities\n"}))
	require.Equal(t, "Unable to audit dependencies in /workspace/app: executable file not found", formatter.BuildExecutionFailureMessage(auditCommand, errors.New("executable file not found")))

	require.Equal(t, "Checking for outdated dependencies in /workspace/app", formatter.BuildStartedMessage(outdatedCommand))
	require.Equal(t, "npm outdated reported outdated dependencies in /workspace/app (exit code 1)", formatter.BuildFailureMessage(outdatedCommand, ExecutionResult{ExitCode: 1}))
}

func TestCommandMessageFormatterFallsBackToGenericMessages(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandNpm,
		Details: CommandDetails{
			Arguments: []string{"--version"},
		},
	}

	require.Equal(t, "Running npm --version", formatter.BuildStartedMessage(command))
	require.Equal(t, "npm --version failed: unknown error", formatter.BuildExecutionFailureMessage(command, nil))
}

func TestBuildStartedMessageWithoutWorkingDirectoryUsesCurrentDirectoryLabel(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandName("npm.cmd"),
		Details: CommandDetails{
			Arguments: []string{"audit", "--json"},
		},
	}

	require.Equal(t, "Auditing dependencies in current directory", formatter.BuildStartedMessage(command))
}
