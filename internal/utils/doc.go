// Package utils holds the ambient plumbing shared by the dependable commands: the Viper backed
// ConfigurationLoader, the zap LoggerFactory, the FlushingWriter used for report output, and the
// CommandContextAccessor that passes root command state to subcommands.
package utils
