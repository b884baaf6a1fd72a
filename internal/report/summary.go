package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"

	"github.com/temirov/dependable/internal/npm"
)

// SummaryColor classifies the urgency of a summary line.
type SummaryColor int

// Summary colors from least to most urgent.
const (
	SummaryColorGreen SummaryColor = iota
	SummaryColorYellow
	SummaryColorRed
)

const (
	bannerMessageConstant               = "Dependable is running!"
	dependencyListTemplateConstant      = "Project Dependencies: %s"
	dependencyListEntryTemplateConstant = "%s@%s"
	dependencyListSeparatorConstant     = ", "
	emptyDependencyListConstant         = "none"
	auditSummaryTemplateConstant        = "NPM Audit Summary: Total: %d, Critical: %d, High: %d, Moderate: %d, Low: %d"
	outdatedSummaryTemplateConstant     = "NPM Outdated Summary: Total outdated packages: %d"
	updateTypeSummaryTemplateConstant   = "Outdated by update type: major %d, minor %d, patch %d, unknown %d"
	summaryWriteErrorTemplateConstant   = "unable to write summary: %w"
)

// SummaryLine is a single colored line of the console summary.
type SummaryLine struct {
	Text  string
	Color SummaryColor
}

// BuildSummary derives the console summary lines from the document.
func BuildSummary(document npm.ReportDocument) []SummaryLine {
	vulnerabilityCounts := document.Audit.Metadata.Vulnerabilities
	auditColor := SummaryColorGreen
	switch {
	case vulnerabilityCounts.Critical > 0 || vulnerabilityCounts.High > 0:
		auditColor = SummaryColorRed
	case vulnerabilityCounts.Moderate > 0:
		auditColor = SummaryColorYellow
	}

	summaryLines := []SummaryLine{{
		Text:  fmt.Sprintf(auditSummaryTemplateConstant, vulnerabilityCounts.Total, vulnerabilityCounts.Critical, vulnerabilityCounts.High, vulnerabilityCounts.Moderate, vulnerabilityCounts.Low),
		Color: auditColor,
	}}

	outdatedCount := document.Outdated.Len()
	if outdatedCount == 0 {
		return append(summaryLines, SummaryLine{Text: fmt.Sprintf(outdatedSummaryTemplateConstant, outdatedCount), Color: SummaryColorGreen})
	}
	summaryLines = append(summaryLines, SummaryLine{Text: fmt.Sprintf(outdatedSummaryTemplateConstant, outdatedCount), Color: SummaryColorYellow})

	outdatedEntries := document.Outdated.Values()
	countUpdateType := func(updateType npm.UpdateType) int {
		return lo.CountBy(outdatedEntries, func(outdatedEntry npm.OutdatedEntry) bool {
			return outdatedEntry.UpdateType() == updateType
		})
	}
	majorCount := countUpdateType(npm.UpdateTypeMajor)
	updateTypeColor := SummaryColorYellow
	if majorCount > 0 {
		updateTypeColor = SummaryColorRed
	}
	return append(summaryLines, SummaryLine{
		Text:  fmt.Sprintf(updateTypeSummaryTemplateConstant, majorCount, countUpdateType(npm.UpdateTypeMinor), countUpdateType(npm.UpdateTypePatch), countUpdateType(npm.UpdateTypeUnknown)),
		Color: updateTypeColor,
	})
}

// WriteBanner writes the startup banner.
func WriteBanner(writer io.Writer) error {
	if _, writeError := color.New(color.FgGreen).Fprintln(writer, bannerMessageConstant); writeError != nil {
		return fmt.Errorf(summaryWriteErrorTemplateConstant, writeError)
	}
	return nil
}

// FormatDependencyList renders the declared dependencies on one line as name@range pairs in manifest order.
func FormatDependencyList(dependencies npm.DependencyMap) string {
	if dependencies.Len() == 0 {
		return fmt.Sprintf(dependencyListTemplateConstant, emptyDependencyListConstant)
	}
	dependencyNames := dependencies.Keys()
	versionRanges := dependencies.Values()
	dependencyEntries := lo.Map(dependencyNames, func(dependencyName string, dependencyIndex int) string {
		return fmt.Sprintf(dependencyListEntryTemplateConstant, dependencyName, versionRanges[dependencyIndex])
	})
	return fmt.Sprintf(dependencyListTemplateConstant, strings.Join(dependencyEntries, dependencyListSeparatorConstant))
}

// WriteDependencyList writes the uncolored dependency line that precedes the summary.
func WriteDependencyList(writer io.Writer, dependencies npm.DependencyMap) error {
	if _, writeError := fmt.Fprintln(writer, FormatDependencyList(dependencies)); writeError != nil {
		return fmt.Errorf(summaryWriteErrorTemplateConstant, writeError)
	}
	return nil
}

// WriteSummary writes each summary line in its color. Colors are omitted when color.NoColor is set.
func WriteSummary(writer io.Writer, summaryLines []SummaryLine) error {
	for _, summaryLine := range summaryLines {
		if _, writeError := colorFor(summaryLine.Color).Fprintln(writer, summaryLine.Text); writeError != nil {
			return fmt.Errorf(summaryWriteErrorTemplateConstant, writeError)
		}
	}
	return nil
}

func colorFor(summaryColor SummaryColor) *color.Color {
	switch summaryColor {
	case SummaryColorRed:
		return color.New(color.FgRed)
	case SummaryColorYellow:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
