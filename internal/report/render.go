package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/temirov/dependable/internal/npm"
)

// Format selects how a ReportDocument is rendered.
type Format string

// Supported output formats.
const (
	FormatConsole  Format = "console"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

const (
	reportTitleConstant                   = "# Dependable Health Report\n\n"
	dependenciesHeadingConstant           = "## Project Dependencies\n"
	dependencyLineTemplateConstant        = "- %s: %s\n"
	noDependenciesMessageConstant         = "No dependencies found.\n"
	vulnerabilitiesHeadingConstant        = "## Security Vulnerabilities (npm audit)\n"
	advisoryHeadingTemplateConstant       = "### %s (Severity: %s)\n"
	advisoryPackageTemplateConstant       = "- Package: %s\n"
	advisoryVulnerableTemplateConstant    = "- Vulnerable Versions: %s\n"
	advisoryPatchedTemplateConstant       = "- Patched Versions: %s\n"
	advisoryOverviewTemplateConstant      = "- Overview: %s\n"
	advisoryURLTemplateConstant           = "- URL: %s\n\n"
	noVulnerabilitiesMessageConstant      = "No security vulnerabilities found.\n"
	outdatedHeadingConstant               = "## Outdated Dependencies (npm outdated)\n"
	outdatedLineTemplateConstant          = "- %s: Current %s, Wanted %s, Latest %s\n"
	noOutdatedDependenciesMessageConstant = "No outdated dependencies found.\n"
	sectionTerminatorConstant             = "\n"
	jsonIndentConstant                    = "  "
	jsonEncodingErrorTemplateConstant     = "unable to encode report as JSON: %w"
)

// ParseFormat resolves a user supplied format name. An empty value selects the console format.
// Unrecognized values fall back to markdown and report recognized as false.
func ParseFormat(value string) (format Format, recognized bool) {
	normalizedValue := Format(strings.ToLower(strings.TrimSpace(value)))
	switch normalizedValue {
	case "":
		return FormatConsole, true
	case FormatConsole, FormatJSON, FormatMarkdown:
		return normalizedValue, true
	default:
		return FormatMarkdown, false
	}
}

// SupportedFormats lists the recognized format names with the default first.
func SupportedFormats() []string {
	return []string{string(FormatConsole), string(FormatJSON), string(FormatMarkdown)}
}

// Render converts the document into text. JSON output is the indented document; every other
// format produces the markdown report. Rendering never reorders entries.
func Render(document npm.ReportDocument, format Format) (string, error) {
	if format == FormatJSON {
		return renderJSON(document)
	}
	return renderMarkdown(document), nil
}

func renderJSON(document npm.ReportDocument) (string, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", jsonIndentConstant)
	if encodingError := encoder.Encode(document); encodingError != nil {
		return "", fmt.Errorf(jsonEncodingErrorTemplateConstant, encodingError)
	}
	return strings.TrimSuffix(buffer.String(), "\n"), nil
}

func renderMarkdown(document npm.ReportDocument) string {
	var builder strings.Builder
	builder.WriteString(reportTitleConstant)

	builder.WriteString(dependenciesHeadingConstant)
	if document.Dependencies.Len() > 0 {
		document.Dependencies.Each(func(dependencyName string, versionRange string) bool {
			fmt.Fprintf(&builder, dependencyLineTemplateConstant, dependencyName, versionRange)
			return true
		})
	} else {
		builder.WriteString(noDependenciesMessageConstant)
	}
	builder.WriteString(sectionTerminatorConstant)

	builder.WriteString(vulnerabilitiesHeadingConstant)
	if document.Audit.Advisories.Len() > 0 {
		document.Audit.Advisories.Each(func(_ string, advisory npm.Advisory) bool {
			fmt.Fprintf(&builder, advisoryHeadingTemplateConstant, advisory.Title, advisory.Severity)
			fmt.Fprintf(&builder, advisoryPackageTemplateConstant, advisory.ModuleName)
			fmt.Fprintf(&builder, advisoryVulnerableTemplateConstant, advisory.VulnerableVersions)
			fmt.Fprintf(&builder, advisoryPatchedTemplateConstant, advisory.PatchedVersions)
			fmt.Fprintf(&builder, advisoryOverviewTemplateConstant, advisory.Overview)
			fmt.Fprintf(&builder, advisoryURLTemplateConstant, advisory.URL)
			return true
		})
	} else {
		builder.WriteString(noVulnerabilitiesMessageConstant)
	}
	builder.WriteString(sectionTerminatorConstant)

	builder.WriteString(outdatedHeadingConstant)
	if document.Outdated.Len() > 0 {
		document.Outdated.Each(func(dependencyName string, outdatedEntry npm.OutdatedEntry) bool {
			fmt.Fprintf(&builder, outdatedLineTemplateConstant, dependencyName, outdatedEntry.Current, outdatedEntry.Wanted, outdatedEntry.Latest)
			return true
		})
	} else {
		builder.WriteString(noOutdatedDependenciesMessageConstant)
	}
	builder.WriteString(sectionTerminatorConstant)

	return builder.String()
}
