package npm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/dependable/internal/npm"
)

func TestOutdatedEntryUpdateType(testInstance *testing.T) {
	testCases := []struct {
		name         string
		entry        npm.OutdatedEntry
		expectedType npm.UpdateType
	}{
		{name: "major", entry: npm.OutdatedEntry{Current: "4.17.1", Latest: "5.0.0"}, expectedType: npm.UpdateTypeMajor},
		{name: "minor", entry: npm.OutdatedEntry{Current: "4.17.1", Latest: "4.18.0"}, expectedType: npm.UpdateTypeMinor},
		{name: "patch", entry: npm.OutdatedEntry{Current: "4.17.1", Latest: "4.17.3"}, expectedType: npm.UpdateTypePatch},
		{name: "up_to_date", entry: npm.OutdatedEntry{Current: "4.17.1", Latest: "4.17.1"}, expectedType: npm.UpdateTypeNone},
		{name: "not_installed", entry: npm.OutdatedEntry{Current: "", Latest: "4.17.1"}, expectedType: npm.UpdateTypeUnknown},
		{name: "non_semver_latest", entry: npm.OutdatedEntry{Current: "1.0.0", Latest: "git"}, expectedType: npm.UpdateTypeUnknown},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedType, testCase.entry.UpdateType())
		})
	}
}
