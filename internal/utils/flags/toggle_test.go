package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestAddToggleFlagParsesValues(t *testing.T) {
	testCases := []struct {
		name              string
		arguments         []string
		expectedValue     bool
		expectedChanged   bool
		expectedArguments []string
	}{
		{name: "DefaultFalse", arguments: []string{}, expectedValue: false, expectedChanged: false},
		{name: "ImplicitTrue", arguments: []string{"--no-color"}, expectedValue: true, expectedChanged: true},
		{name: "ExplicitYes", arguments: []string{"--no-color", "yes"}, expectedValue: true, expectedChanged: true},
		{name: "ExplicitTrueUppercase", arguments: []string{"--no-color", "TRUE"}, expectedValue: true, expectedChanged: true},
		{name: "ExplicitNo", arguments: []string{"--no-color", "no"}, expectedValue: false, expectedChanged: true},
		{name: "AssignedOff", arguments: []string{"--no-color=off"}, expectedValue: false, expectedChanged: true},
		{name: "Shorthand", arguments: []string{"-C", "no"}, expectedValue: false, expectedChanged: true},
		{name: "PositionalKept", arguments: []string{"--no-color", "report"}, expectedValue: true, expectedChanged: true, expectedArguments: []string{"report"}},
		{name: "TerminatorStopsRewriting", arguments: []string{"--", "--no-color", "no"}, expectedValue: false, expectedChanged: false, expectedArguments: []string{"--no-color", "no"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			command := &cobra.Command{}

			var toggleValue bool
			AddToggleFlag(command.Flags(), &toggleValue, "no-color", "C", false, "Disable colored output")

			normalizedArguments := NormalizeToggleArguments(command.Flags(), testCase.arguments)
			require.NoError(t, command.ParseFlags(normalizedArguments))

			require.Equal(t, testCase.expectedValue, toggleValue)

			flag := command.Flags().Lookup("no-color")
			require.NotNil(t, flag)
			require.Equal(t, testCase.expectedChanged, flag.Changed)

			remainingArguments := command.Flags().Args()
			if len(testCase.expectedArguments) == 0 {
				require.Empty(t, remainingArguments)
			} else {
				require.Equal(t, testCase.expectedArguments, remainingArguments)
			}
		})
	}
}

func TestAddToggleFlagRejectsInvalidValues(t *testing.T) {
	command := &cobra.Command{}

	var toggleValue bool
	AddToggleFlag(command.Flags(), &toggleValue, "no-color", "", false, "Disable colored output")

	parseError := command.ParseFlags(NormalizeToggleArguments(command.Flags(), []string{"--no-color=maybe"}))
	require.ErrorContains(t, parseError, `invalid toggle value "maybe"`)
	require.False(t, toggleValue)
}

func TestAddToggleFlagUsage(t *testing.T) {
	command := &cobra.Command{}

	var enabled bool
	var disabled bool
	AddToggleFlag(command.Flags(), &enabled, "enabled", "", true, "Enabled by default.")
	AddToggleFlag(command.Flags(), &disabled, "disabled", "", false, "")

	require.Equal(t, "`<YES|no>` Enabled by default.", command.Flags().Lookup("enabled").Usage)
	require.Equal(t, "`<yes|NO>`", command.Flags().Lookup("disabled").Usage)
	require.True(t, enabled)
	require.False(t, disabled)
}

func TestNormalizeToggleArgumentsIgnoresOtherFlags(t *testing.T) {
	command := &cobra.Command{}

	var toggleValue bool
	var formatValue string
	AddToggleFlag(command.Flags(), &toggleValue, "no-color", "", false, "Disable colored output")
	command.Flags().StringVar(&formatValue, "format", "", "Report format")

	normalizedArguments := NormalizeToggleArguments(command.Flags(), []string{"--format", "yes", "--no-color", "y"})
	require.Equal(t, []string{"--format", "yes", "--no-color=y"}, normalizedArguments)
	require.Nil(t, NormalizeToggleArguments(command.Flags(), nil))
}
