package health

import (
	"strings"
	"time"

	"github.com/temirov/dependable/internal/manifest"
	"github.com/temirov/dependable/internal/npmcli"
	"github.com/temirov/dependable/internal/report"
)

const (
	formatConfigurationKeyConstant         = "format"
	manifestConfigurationKeyConstant       = "manifest"
	projectPathConfigurationKeyConstant    = "project_path"
	npmExecutableConfigurationKeyConstant  = "npm_executable"
	commandTimeoutConfigurationKeyConstant = "command_timeout"
	configurationKeySeparatorConstant      = "."
)

// Configuration captures the persisted settings of the health report command.
type Configuration struct {
	Format         string        `mapstructure:"format"`
	Manifest       string        `mapstructure:"manifest"`
	ProjectPath    string        `mapstructure:"project_path"`
	NpmExecutable  string        `mapstructure:"npm_executable"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// DefaultConfiguration provides baseline values for the health report command.
func DefaultConfiguration() Configuration {
	return Configuration{
		Format:         string(report.FormatConsole),
		Manifest:       manifest.DefaultManifestFileName,
		ProjectPath:    "",
		NpmExecutable:  npmcli.DefaultExecutable,
		CommandTimeout: npmcli.DefaultCommandTimeout,
	}
}

// DefaultConfigurationValues flattens DefaultConfiguration into viper defaults under configurationPrefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	defaults := DefaultConfiguration()
	keyPrefix := strings.TrimSpace(configurationPrefix)
	if len(keyPrefix) > 0 {
		keyPrefix += configurationKeySeparatorConstant
	}

	return map[string]any{
		keyPrefix + formatConfigurationKeyConstant:         defaults.Format,
		keyPrefix + manifestConfigurationKeyConstant:       defaults.Manifest,
		keyPrefix + projectPathConfigurationKeyConstant:    defaults.ProjectPath,
		keyPrefix + npmExecutableConfigurationKeyConstant:  defaults.NpmExecutable,
		keyPrefix + commandTimeoutConfigurationKeyConstant: defaults.CommandTimeout.String(),
	}
}

// sanitize trims configured values and restores defaults for blank or non-positive entries.
func (configuration Configuration) sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := Configuration{
		Format:         strings.TrimSpace(configuration.Format),
		Manifest:       strings.TrimSpace(configuration.Manifest),
		ProjectPath:    strings.TrimSpace(configuration.ProjectPath),
		NpmExecutable:  strings.TrimSpace(configuration.NpmExecutable),
		CommandTimeout: configuration.CommandTimeout,
	}

	if len(sanitized.Format) == 0 {
		sanitized.Format = defaults.Format
	}
	if len(sanitized.Manifest) == 0 {
		sanitized.Manifest = defaults.Manifest
	}
	if len(sanitized.NpmExecutable) == 0 {
		sanitized.NpmExecutable = defaults.NpmExecutable
	}
	if sanitized.CommandTimeout <= 0 {
		sanitized.CommandTimeout = defaults.CommandTimeout
	}

	return sanitized
}
