package utils

import "context"

type commandContextKey int

const (
	configurationFilePathContextKey commandContextKey = iota
)

// CommandContextAccessor stores values resolved by the root command for use by subcommands.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath records the configuration file the command was loaded from.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKey, configurationFilePath)
}

// ConfigurationFilePath returns the recorded configuration file. The boolean is false when no
// file was recorded or the recorded path is empty.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, _ := executionContext.Value(configurationFilePathContextKey).(string)
	return configurationFilePath, len(configurationFilePath) > 0
}
