package health

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dependable/internal/execshell"
	"github.com/temirov/dependable/internal/manifest"
	"github.com/temirov/dependable/internal/npmcli"
	"github.com/temirov/dependable/internal/report"
	"github.com/temirov/dependable/internal/ui"
	"github.com/temirov/dependable/internal/utils"
	"github.com/temirov/dependable/internal/utils/flags"
	pathutils "github.com/temirov/dependable/internal/utils/path"
)

const (
	commandUseConstant                      = "report"
	commandShortDescriptionConstant         = "Report vulnerable and outdated npm dependencies"
	commandLongDescriptionConstant          = "report reads the project manifest, runs npm audit and npm outdated, and prints a consolidated dependency health report."
	formatFlagNameConstant                  = "format"
	formatFlagShorthandConstant             = "f"
	formatFlagDescriptionConstant           = "Report format."
	pathFlagNameConstant                    = "path"
	pathFlagShorthandConstant               = "p"
	pathFlagDescriptionConstant             = "Project directory containing the manifest (defaults to the working directory)."
	pathFlagPlaceholderConstant             = "<dir>"
	manifestFlagNameConstant                = "manifest"
	manifestFlagShorthandConstant           = "m"
	manifestFlagDescriptionConstant         = "Manifest file name inside the project directory."
	manifestFlagPlaceholderConstant         = "<file>"
	unexpectedArgumentsErrorMessageConstant = "report does not accept positional arguments"
	projectPathErrorTemplateConstant        = "invalid project path: %w"
	configurationSourceMessageConstant      = "report configuration loaded from file"
	configurationFileFieldNameConstant      = "config_file"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current health report configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the health report cobra command. Zero-valued collaborators select the
// operating system implementations.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider func() bool
	FileSystem                   afero.Fs
	CommandRunner                execshell.CommandRunner
	PathResolver                 *pathutils.ProjectPathResolver
}

// Build constructs the report command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	builder.BindFlags(command)

	return command, nil
}

// BindFlags registers the report flags on command so another command can run the report directly.
func (builder *CommandBuilder) BindFlags(command *cobra.Command) {
	var formatValue string
	var projectPathValue string
	var manifestValue string

	defaults := DefaultConfiguration()
	flags.AddChoiceFlag(command.Flags(), &formatValue, formatFlagNameConstant, formatFlagShorthandConstant, defaults.Format, report.SupportedFormats(), formatFlagDescriptionConstant)
	command.Flags().StringVarP(&projectPathValue, pathFlagNameConstant, pathFlagShorthandConstant, "", flags.FormatChoiceUsage("", nil, pathFlagDescriptionConstant, pathFlagPlaceholderConstant))
	command.Flags().StringVarP(&manifestValue, manifestFlagNameConstant, manifestFlagShorthandConstant, defaults.Manifest, flags.FormatChoiceUsage("", nil, manifestFlagDescriptionConstant, manifestFlagPlaceholderConstant))
}

// Run executes the report for command using its parsed flags.
func (builder *CommandBuilder) Run(command *cobra.Command, arguments []string) error {
	return builder.run(command, arguments)
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	configuration := builder.resolveConfiguration()
	options, optionsError := builder.parseOptions(command, configuration)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	if configurationFilePath, recorded := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context()); recorded {
		logger.Debug(configurationSourceMessageConstant, zap.String(configurationFileFieldNameConstant, configurationFilePath))
	}

	commandExecutor, executorError := builder.resolveCommandExecutor(logger)
	if executorError != nil {
		return executorError
	}

	npmClient, clientError := npmcli.NewClient(commandExecutor, logger, npmcli.ClientConfiguration{
		Executable:     configuration.NpmExecutable,
		CommandTimeout: configuration.CommandTimeout,
	})
	if clientError != nil {
		return clientError
	}

	service, serviceError := NewService(ServiceDependencies{
		ManifestReader:    manifest.NewReader(builder.FileSystem),
		DependencyChecker: npmClient,
		Logger:            logger,
		Output:            utils.NewFlushingWriter(command.OutOrStdout()),
	})
	if serviceError != nil {
		return serviceError
	}

	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, configuration Configuration) (Options, error) {
	formatValue, formatError := selectFlagValue(command, formatFlagNameConstant, configuration.Format)
	if formatError != nil {
		return Options{}, formatError
	}
	manifestValue, manifestError := selectFlagValue(command, manifestFlagNameConstant, configuration.Manifest)
	if manifestError != nil {
		return Options{}, manifestError
	}
	projectPathValue, projectPathFlagError := selectFlagValue(command, pathFlagNameConstant, configuration.ProjectPath)
	if projectPathFlagError != nil {
		return Options{}, projectPathFlagError
	}

	pathResolver := builder.PathResolver
	if pathResolver == nil {
		pathResolver = pathutils.NewProjectPathResolver()
	}
	projectPath, projectPathError := pathResolver.Resolve(projectPathValue)
	if projectPathError != nil {
		return Options{}, fmt.Errorf(projectPathErrorTemplateConstant, projectPathError)
	}

	return Options{
		ProjectPath:      projectPath,
		ManifestFileName: manifestValue,
		Format:           formatValue,
	}, nil
}

func selectFlagValue(command *cobra.Command, flagName string, configuredValue string) (string, error) {
	if !command.Flags().Changed(flagName) {
		return configuredValue, nil
	}
	return command.Flags().GetString(flagName)
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider().sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveCommandExecutor(logger *zap.Logger) (*execshell.ShellExecutor, error) {
	commandRunner := builder.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}

	var observers []execshell.CommandEventObserver
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		observers = append(observers, ui.NewConsoleCommandEventLogger(logger))
	}

	return execshell.NewShellExecutor(logger, commandRunner, observers...)
}
