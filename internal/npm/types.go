package npm

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/temirov/dependable/internal/ordered"
)

// UpdateType classifies the distance between an installed and the latest published version.
type UpdateType string

// Supported update types.
const (
	UpdateTypeMajor   UpdateType = "major"
	UpdateTypeMinor   UpdateType = "minor"
	UpdateTypePatch   UpdateType = "patch"
	UpdateTypeNone    UpdateType = "none"
	UpdateTypeUnknown UpdateType = "unknown"
)

// DependencyMap maps package names to declared version ranges in manifest order.
type DependencyMap = ordered.Map[string]

// AdvisoryMap maps advisory identifiers to advisories in report order.
type AdvisoryMap = ordered.Map[Advisory]

// OutdatedReport maps package names to outdated entries in report order.
type OutdatedReport = ordered.Map[OutdatedEntry]

// VulnerabilityCounts captures per-severity vulnerability totals reported by npm audit.
type VulnerabilityCounts struct {
	Info     int `json:"info"`
	Low      int `json:"low"`
	Moderate int `json:"moderate"`
	High     int `json:"high"`
	Critical int `json:"critical"`
	Total    int `json:"total"`
}

// AuditMetadata holds the metadata section of an npm audit report.
type AuditMetadata struct {
	Vulnerabilities VulnerabilityCounts `json:"vulnerabilities"`
}

// Advisory describes a single security advisory.
type Advisory struct {
	Title              string `json:"title"`
	Severity           string `json:"severity"`
	ModuleName         string `json:"module_name"`
	VulnerableVersions string `json:"vulnerable_versions"`
	PatchedVersions    string `json:"patched_versions"`
	Overview           string `json:"overview"`
	URL                string `json:"url"`
}

// AuditReport is the validated subset of the npm audit JSON payload.
type AuditReport struct {
	AuditReportVersion int           `json:"auditReportVersion,omitempty"`
	Metadata           AuditMetadata `json:"metadata"`
	Advisories         AdvisoryMap   `json:"advisories"`
}

// OutdatedEntry compares the installed, wanted, and latest versions of a dependency.
type OutdatedEntry struct {
	Current   string `json:"current"`
	Wanted    string `json:"wanted"`
	Latest    string `json:"latest"`
	Dependent string `json:"dependent"`
	Location  string `json:"location,omitempty"`
}

// UpdateType reports how far the installed version lags behind the latest version.
func (outdatedEntry OutdatedEntry) UpdateType() UpdateType {
	currentVersion, currentError := semver.NewVersion(strings.TrimSpace(outdatedEntry.Current))
	if currentError != nil {
		return UpdateTypeUnknown
	}
	latestVersion, latestError := semver.NewVersion(strings.TrimSpace(outdatedEntry.Latest))
	if latestError != nil {
		return UpdateTypeUnknown
	}

	switch {
	case !latestVersion.GreaterThan(currentVersion):
		return UpdateTypeNone
	case latestVersion.Major() > currentVersion.Major():
		return UpdateTypeMajor
	case latestVersion.Minor() > currentVersion.Minor():
		return UpdateTypeMinor
	default:
		return UpdateTypePatch
	}
}

// ReportDocument aggregates the manifest dependencies with the audit and outdated results.
type ReportDocument struct {
	Dependencies DependencyMap  `json:"dependencies"`
	Audit        AuditReport    `json:"audit"`
	Outdated     OutdatedReport `json:"outdated"`
}
