package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/dependable/internal/utils"
)

const (
	testEnvironmentPrefixConstant                     = "TESTDEPENDABLE"
	testLogLevelKeyConstant                           = "common.log_level"
	testCommandTimeoutKeyConstant                     = "dependable.command_timeout"
	testLogLevelEnvironmentVariableConstant           = testEnvironmentPrefixConstant + "_COMMON_LOG_LEVEL"
	testCommandTimeoutEnvironmentVariableConstant     = testEnvironmentPrefixConstant + "_DEPENDABLE_COMMAND_TIMEOUT"
	testDefaultLogLevelConstant                       = "warn"
	testEmbeddedLogLevelConstant                      = "info"
	testFileLogLevelConstant                          = "debug"
	testEnvironmentLogLevelConstant                   = "error"
	testDefaultCommandTimeoutConstant                 = "5m"
	testConfigFileNameConstant                        = "config.yaml"
	testConfigContentTemplateConstant                 = "common:\n  log_level: %s\n"
	testTimeoutConfigContentConstant                  = "dependable:\n  command_timeout: 90s\n  npm_arguments: --omit=dev,--workspaces\n"
	testConfigurationNameConstant                     = "config"
	testConfigurationTypeConstant                     = "yaml"
	testUserConfigurationDirectoryNameConstant        = "dependable"
	testXDGConfigHomeDirectoryNameConstant            = "config"
	testCaseSearchPathWorkingDirectoryMessageConstant = "searches_working_directory"
	testCaseSearchPathHomeDirectoryMessageConstant    = "searches_user_configuration_directory"
)

type configurationFixture struct {
	Common     configurationCommonFixture     `mapstructure:"common"`
	Dependable configurationDependableFixture `mapstructure:"dependable"`
}

type configurationCommonFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

type configurationDependableFixture struct {
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	NpmArguments   []string      `mapstructure:"npm_arguments"`
}

func newTestConfigurationLoader(searchPaths ...string) *utils.ConfigurationLoader {
	return utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, searchPaths)
}

func testDefaultValues() map[string]any {
	return map[string]any{
		testLogLevelKeyConstant:       testDefaultLogLevelConstant,
		testCommandTimeoutKeyConstant: testDefaultCommandTimeoutConstant,
	}
}

func TestConfigurationLoaderPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embeddedLogLevel    string
		fileLogLevel        string
		environmentLogLevel string
		expectedLogLevel    string
	}{
		{
			name:             "defaults_apply_without_other_sources",
			expectedLogLevel: testDefaultLogLevelConstant,
		},
		{
			name:             "embedded_configuration_overrides_defaults",
			embeddedLogLevel: testEmbeddedLogLevelConstant,
			expectedLogLevel: testEmbeddedLogLevelConstant,
		},
		{
			name:             "configuration_file_overrides_embedded",
			embeddedLogLevel: testEmbeddedLogLevelConstant,
			fileLogLevel:     testFileLogLevelConstant,
			expectedLogLevel: testFileLogLevelConstant,
		},
		{
			name:                "environment_overrides_configuration_file",
			embeddedLogLevel:    testEmbeddedLogLevelConstant,
			fileLogLevel:        testFileLogLevelConstant,
			environmentLogLevel: testEnvironmentLogLevelConstant,
			expectedLogLevel:    testEnvironmentLogLevelConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			temporaryDirectory := testInstance.TempDir()

			configurationFilePath := ""
			if len(testCase.fileLogLevel) > 0 {
				configurationFilePath = filepath.Join(temporaryDirectory, testConfigFileNameConstant)
				configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileLogLevel)
				require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))
			}

			if len(testCase.environmentLogLevel) > 0 {
				testInstance.Setenv(testLogLevelEnvironmentVariableConstant, testCase.environmentLogLevel)
			}

			configurationLoader := newTestConfigurationLoader(temporaryDirectory)
			if len(testCase.embeddedLogLevel) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.embeddedLogLevel)), testConfigurationTypeConstant)
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, testDefaultValues(), &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedLogLevel, loadedConfiguration.Common.LogLevel)
			require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderDecodesDurationsAndLists(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(temporaryDirectory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(testTimeoutConfigContentConstant), 0o600))

	loadedConfiguration := configurationFixture{}
	_, loadError := newTestConfigurationLoader().LoadConfiguration(configurationFilePath, testDefaultValues(), &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 90*time.Second, loadedConfiguration.Dependable.CommandTimeout)
	require.Equal(testInstance, []string{"--omit=dev", "--workspaces"}, loadedConfiguration.Dependable.NpmArguments)
}

func TestConfigurationLoaderDurationFromEnvironment(testInstance *testing.T) {
	testInstance.Setenv(testCommandTimeoutEnvironmentVariableConstant, "2m30s")

	loadedConfiguration := configurationFixture{}
	_, loadError := newTestConfigurationLoader(testInstance.TempDir()).LoadConfiguration("", testDefaultValues(), &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 150*time.Second, loadedConfiguration.Dependable.CommandTimeout)
}

func TestConfigurationLoaderMissingExplicitFile(testInstance *testing.T) {
	missingConfigurationPath := filepath.Join(testInstance.TempDir(), testConfigFileNameConstant)

	loadedConfiguration := configurationFixture{}
	_, loadError := newTestConfigurationLoader().LoadConfiguration(missingConfigurationPath, testDefaultValues(), &loadedConfiguration)
	require.Error(testInstance, loadError)

	var notFoundError utils.ConfigurationFileNotFoundError
	require.ErrorAs(testInstance, loadError, &notFoundError)
	require.Equal(testInstance, missingConfigurationPath, notFoundError.Path)
}

func TestConfigurationLoaderRejectsMalformedEmbeddedConfiguration(testInstance *testing.T) {
	configurationLoader := newTestConfigurationLoader()
	configurationLoader.SetEmbeddedConfiguration([]byte("common: [unterminated"), testConfigurationTypeConstant)

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration("", testDefaultValues(), &loadedConfiguration)
	require.ErrorContains(testInstance, loadError, "failed to merge embedded configuration")
}

func TestConfigurationLoaderSearchPaths(testInstance *testing.T) {
	testCases := []struct {
		name                         string
		configurationDirectorySelect func(workingDirectoryPath string, userConfigurationDirectoryPath string) string
	}{
		{
			name: testCaseSearchPathWorkingDirectoryMessageConstant,
			configurationDirectorySelect: func(workingDirectoryPath string, userConfigurationDirectoryPath string) string {
				return workingDirectoryPath
			},
		},
		{
			name: testCaseSearchPathHomeDirectoryMessageConstant,
			configurationDirectorySelect: func(workingDirectoryPath string, userConfigurationDirectoryPath string) string {
				return userConfigurationDirectoryPath
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			workingDirectoryPath := testInstance.TempDir()
			homeDirectoryPath := testInstance.TempDir()
			testInstance.Setenv("HOME", homeDirectoryPath)
			testInstance.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDirectoryPath, testXDGConfigHomeDirectoryNameConstant))

			userConfigurationBaseDirectoryPath, userConfigurationDirectoryError := os.UserConfigDir()
			require.NoError(testInstance, userConfigurationDirectoryError)

			userConfigurationDirectoryPath := filepath.Join(userConfigurationBaseDirectoryPath, testUserConfigurationDirectoryNameConstant)
			require.NoError(testInstance, os.MkdirAll(userConfigurationDirectoryPath, 0o755))

			configurationFilePath := filepath.Join(testCase.configurationDirectorySelect(workingDirectoryPath, userConfigurationDirectoryPath), testConfigFileNameConstant)
			configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testFileLogLevelConstant)
			require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))

			loadedConfiguration := configurationFixture{}
			metadata, loadError := newTestConfigurationLoader(workingDirectoryPath, userConfigurationDirectoryPath).LoadConfiguration("", testDefaultValues(), &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testFileLogLevelConstant, loadedConfiguration.Common.LogLevel)
			require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}
