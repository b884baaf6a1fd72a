package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/dependable/internal/utils"
)

const (
	testLoggerFactoryCaseSupportedFormatConstant   = "supported_log_level_%s_format_%s"
	testLoggerFactoryCaseUnsupportedLevelConstant  = "unsupported_log_level"
	testLoggerFactoryCaseUnsupportedFormatConstant = "unsupported_log_format"
	testInvalidLogLevelConstant                    = "verbose"
	testInvalidLogFormatConstant                   = "xml"
	testLogMessageConstant                         = "logger_factory_test_message"
	testANSIEscapeConstant                         = "\x1b["
)

func captureStandardError(testInstance *testing.T, emit func()) string {
	testInstance.Helper()

	pipeReader, pipeWriter, pipeError := os.Pipe()
	require.NoError(testInstance, pipeError)

	originalStandardError := os.Stderr
	os.Stderr = pipeWriter
	emit()
	os.Stderr = originalStandardError

	require.NoError(testInstance, pipeWriter.Close())
	capturedOutput, readError := io.ReadAll(pipeReader)
	require.NoError(testInstance, readError)
	require.NoError(testInstance, pipeReader.Close())

	return string(bytes.TrimSpace(capturedOutput))
}

func syncLogger(testInstance *testing.T, syncError error) {
	testInstance.Helper()
	if syncError != nil {
		require.True(testInstance, errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL))
	}
}

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name                string
		requestedLogLevel   utils.LogLevel
		requestedLogFormat  utils.LogFormat
		expectError         bool
		expectStructuredLog bool
	}{
		{
			name:                fmt.Sprintf(testLoggerFactoryCaseSupportedFormatConstant, utils.LogLevelDebug, utils.LogFormatStructured),
			requestedLogLevel:   utils.LogLevelDebug,
			requestedLogFormat:  utils.LogFormatStructured,
			expectStructuredLog: true,
		},
		{
			name:                fmt.Sprintf(testLoggerFactoryCaseSupportedFormatConstant, utils.LogLevelInfo, utils.LogFormatConsole),
			requestedLogLevel:   utils.LogLevelInfo,
			requestedLogFormat:  utils.LogFormatConsole,
			expectStructuredLog: false,
		},
		{
			name:                "mixed_case_values_are_accepted",
			requestedLogLevel:   utils.LogLevel(" INFO "),
			requestedLogFormat:  utils.LogFormat("Structured"),
			expectStructuredLog: true,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedLevelConstant,
			requestedLogLevel:  utils.LogLevel(testInvalidLogLevelConstant),
			requestedLogFormat: utils.LogFormatStructured,
			expectError:        true,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedFormatConstant,
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormat(testInvalidLogFormatConstant),
			expectError:        true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			if testCase.expectError {
				logger, creationError := utils.NewLoggerFactory().CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)
				require.Error(testInstance, creationError)
				require.Nil(testInstance, logger)
				return
			}

			capturedOutput := captureStandardError(testInstance, func() {
				logger, creationError := utils.NewLoggerFactory().WithoutColor().CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)
				require.NoError(testInstance, creationError)
				logger.Info(testLogMessageConstant)
				syncLogger(testInstance, logger.Sync())
			})

			require.Contains(testInstance, capturedOutput, testLogMessageConstant)
			require.Equal(testInstance, testCase.expectStructuredLog, json.Valid([]byte(capturedOutput)))
		})
	}
}

func TestLoggerFactoryHonorsLevel(testInstance *testing.T) {
	capturedOutput := captureStandardError(testInstance, func() {
		logger, creationError := utils.NewLoggerFactory().CreateLogger(utils.LogLevelWarn, utils.LogFormatStructured)
		require.NoError(testInstance, creationError)
		logger.Info(testLogMessageConstant)
		syncLogger(testInstance, logger.Sync())
	})

	require.Empty(testInstance, capturedOutput)
}

func TestLoggerFactoryConsoleColor(testInstance *testing.T) {
	testCases := []struct {
		name          string
		loggerFactory *utils.LoggerFactory
		expectColor   bool
	}{
		{name: "colored_levels_by_default", loggerFactory: utils.NewLoggerFactory(), expectColor: true},
		{name: "plain_levels_without_color", loggerFactory: utils.NewLoggerFactory().WithoutColor(), expectColor: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			capturedOutput := captureStandardError(testInstance, func() {
				logger, creationError := testCase.loggerFactory.CreateLogger(utils.LogLevelInfo, utils.LogFormatConsole)
				require.NoError(testInstance, creationError)
				logger.Warn(testLogMessageConstant)
				syncLogger(testInstance, logger.Sync())
			})

			require.Contains(testInstance, capturedOutput, "WARN")
			require.Equal(testInstance, testCase.expectColor, bytes.Contains([]byte(capturedOutput), []byte(testANSIEscapeConstant)))
		})
	}
}

func TestParseLogLevel(testInstance *testing.T) {
	parsedLevel, parseError := utils.ParseLogLevel(" Debug")
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, utils.LogLevelDebug, parsedLevel)

	_, parseError = utils.ParseLogLevel(testInvalidLogLevelConstant)
	require.EqualError(testInstance, parseError, "unsupported log level: verbose")
}

func TestParseLogFormat(testInstance *testing.T) {
	parsedFormat, parseError := utils.ParseLogFormat("CONSOLE")
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, utils.LogFormatConsole, parsedFormat)

	_, parseError = utils.ParseLogFormat(testInvalidLogFormatConstant)
	require.EqualError(testInstance, parseError, "unsupported log format: xml")
}
