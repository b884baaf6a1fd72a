package npmcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/temirov/dependable/internal/npm"
	"github.com/temirov/dependable/internal/ordered"
)

const (
	emptyOutputMessageConstant                = "empty output"
	invalidJSONMessageConstant                = "invalid JSON"
	topLevelTypeTemplateConstant              = "top-level value must be an object, found %s"
	npmErrorTemplateConstant                  = "npm reported an error: %s"
	npmErrorWithCodeTemplateConstant          = "npm reported error %s: %s"
	vulnerabilityCountsMissingMessageConstant = "metadata.vulnerabilities is missing"
	vulnerabilityCountsTypeTemplateConstant   = "metadata.vulnerabilities must be an object, found %s"
	vulnerabilityCountsDecodeTemplateConstant = "metadata.vulnerabilities is malformed: %w"
	advisoriesDecodeTemplateConstant          = "advisories are malformed: %w"
	vulnerabilitiesTypeTemplateConstant       = "vulnerabilities must be an object, found %s"
	outdatedEntryTypeTemplateConstant         = "outdated entry %q must be an object, found %s"
	outdatedEntryDecodeTemplateConstant       = "outdated entry %q is malformed: %w"
	outdatedEntryEmptyTemplateConstant        = "outdated entry %q lists no locations"
	patchedVersionsTemplateConstant           = ">=%s"
	errorFieldPathConstant                    = "error"
	errorCodeFieldPathConstant                = "error.code"
	errorSummaryFieldPathConstant             = "error.summary"
	errorDetailFieldPathConstant              = "error.detail"
	auditReportVersionFieldPathConstant       = "auditReportVersion"
	vulnerabilityCountsFieldPathConstant      = "metadata.vulnerabilities"
	advisoriesFieldPathConstant               = "advisories"
	vulnerabilitiesFieldPathConstant          = "vulnerabilities"
	viaFieldPathConstant                      = "via"
	fixAvailableFieldPathConstant             = "fixAvailable"
	sourceFieldPathConstant                   = "source"
	nameFieldPathConstant                     = "name"
	versionFieldPathConstant                  = "version"
	titleFieldPathConstant                    = "title"
	severityFieldPathConstant                 = "severity"
	rangeFieldPathConstant                    = "range"
	urlFieldPathConstant                      = "url"
	currentFieldNameConstant                  = "current"
	wantedFieldNameConstant                   = "wanted"
	latestFieldNameConstant                   = "latest"
)

// ParseAuditReport validates and decodes the output of npm audit --json. Reports produced by npm 7
// and later carry their findings under vulnerabilities, which are folded into advisories.
func ParseAuditReport(output []byte) (npm.AuditReport, error) {
	document, documentError := parseObjectDocument(output)
	if documentError != nil {
		return npm.AuditReport{}, documentError
	}

	vulnerabilityCountsResult := document.Get(vulnerabilityCountsFieldPathConstant)
	if !vulnerabilityCountsResult.Exists() {
		return npm.AuditReport{}, errors.New(vulnerabilityCountsMissingMessageConstant)
	}
	if !vulnerabilityCountsResult.IsObject() {
		return npm.AuditReport{}, fmt.Errorf(vulnerabilityCountsTypeTemplateConstant, ordered.DescribeType(vulnerabilityCountsResult))
	}

	var vulnerabilityCounts npm.VulnerabilityCounts
	if decodeError := json.Unmarshal([]byte(vulnerabilityCountsResult.Raw), &vulnerabilityCounts); decodeError != nil {
		return npm.AuditReport{}, fmt.Errorf(vulnerabilityCountsDecodeTemplateConstant, decodeError)
	}

	auditReport := npm.AuditReport{
		AuditReportVersion: int(document.Get(auditReportVersionFieldPathConstant).Int()),
		Metadata:           npm.AuditMetadata{Vulnerabilities: vulnerabilityCounts},
	}

	advisoriesResult := document.Get(advisoriesFieldPathConstant)
	if advisoriesResult.Exists() && advisoriesResult.Type != gjson.Null {
		advisories, advisoriesError := ordered.FromJSON[npm.Advisory](advisoriesResult, nil)
		if advisoriesError != nil {
			return npm.AuditReport{}, fmt.Errorf(advisoriesDecodeTemplateConstant, advisoriesError)
		}
		auditReport.Advisories = advisories
		return auditReport, nil
	}

	advisories, normalizationError := collectAdvisoriesFromVulnerabilities(document.Get(vulnerabilitiesFieldPathConstant))
	if normalizationError != nil {
		return npm.AuditReport{}, normalizationError
	}
	auditReport.Advisories = advisories
	return auditReport, nil
}

// ParseOutdatedReport validates and decodes the output of npm outdated --json. npm 7 and later
// list a package outdated in several locations as an array; the first location is reported.
func ParseOutdatedReport(output []byte) (npm.OutdatedReport, error) {
	document, documentError := parseObjectDocument(output)
	if documentError != nil {
		return npm.OutdatedReport{}, documentError
	}

	outdatedReport := npm.OutdatedReport{}
	var entryError error
	document.ForEach(func(key gjson.Result, value gjson.Result) bool {
		packageName := key.String()
		if value.IsArray() {
			locations := value.Array()
			if len(locations) == 0 {
				entryError = fmt.Errorf(outdatedEntryEmptyTemplateConstant, packageName)
				return false
			}
			value = locations[0]
		}
		if !value.IsObject() {
			entryError = fmt.Errorf(outdatedEntryTypeTemplateConstant, packageName, ordered.DescribeType(value))
			return false
		}
		var outdatedEntry npm.OutdatedEntry
		if decodeError := json.Unmarshal([]byte(value.Raw), &outdatedEntry); decodeError != nil {
			entryError = fmt.Errorf(outdatedEntryDecodeTemplateConstant, packageName, decodeError)
			return false
		}
		outdatedReport.Set(packageName, outdatedEntry)
		return true
	})
	if entryError != nil {
		return npm.OutdatedReport{}, entryError
	}
	return outdatedReport, nil
}

func parseObjectDocument(output []byte) (gjson.Result, error) {
	if len(strings.TrimSpace(string(output))) == 0 {
		return gjson.Result{}, errors.New(emptyOutputMessageConstant)
	}
	if !gjson.ValidBytes(output) {
		return gjson.Result{}, errors.New(invalidJSONMessageConstant)
	}

	document := gjson.ParseBytes(output)
	if !document.IsObject() {
		return gjson.Result{}, fmt.Errorf(topLevelTypeTemplateConstant, ordered.DescribeType(document))
	}
	if isNpmErrorDocument(document) {
		return gjson.Result{}, describeNpmError(document)
	}
	return document, nil
}

// isNpmErrorDocument reports whether the payload is npm's error envelope rather than an outdated
// entry for a package that happens to be named "error".
func isNpmErrorDocument(document gjson.Result) bool {
	errorResult := document.Get(errorFieldPathConstant)
	if !errorResult.IsObject() {
		return false
	}
	for _, entryFieldName := range []string{currentFieldNameConstant, wantedFieldNameConstant, latestFieldNameConstant} {
		if errorResult.Get(entryFieldName).Exists() {
			return false
		}
	}
	return document.Get(errorCodeFieldPathConstant).Exists() ||
		document.Get(errorSummaryFieldPathConstant).Exists() ||
		document.Get(errorDetailFieldPathConstant).Exists()
}

func describeNpmError(document gjson.Result) error {
	errorMessage := strings.TrimSpace(document.Get(errorSummaryFieldPathConstant).String())
	if len(errorMessage) == 0 {
		errorMessage = strings.TrimSpace(document.Get(errorDetailFieldPathConstant).String())
	}
	errorCode := strings.TrimSpace(document.Get(errorCodeFieldPathConstant).String())
	if len(errorCode) == 0 {
		return fmt.Errorf(npmErrorTemplateConstant, errorMessage)
	}
	return fmt.Errorf(npmErrorWithCodeTemplateConstant, errorCode, errorMessage)
}

// collectAdvisoriesFromVulnerabilities turns the via records of an npm 7+ report into advisories
// keyed by advisory source identifier. The first record seen for an identifier is kept.
func collectAdvisoriesFromVulnerabilities(vulnerabilitiesResult gjson.Result) (npm.AdvisoryMap, error) {
	advisories := npm.AdvisoryMap{}
	if !vulnerabilitiesResult.Exists() || vulnerabilitiesResult.Type == gjson.Null {
		return advisories, nil
	}
	if !vulnerabilitiesResult.IsObject() {
		return advisories, fmt.Errorf(vulnerabilitiesTypeTemplateConstant, ordered.DescribeType(vulnerabilitiesResult))
	}

	vulnerabilitiesResult.ForEach(func(_ gjson.Result, vulnerability gjson.Result) bool {
		fixAvailable := vulnerability.Get(fixAvailableFieldPathConstant)
		for _, viaRecord := range vulnerability.Get(viaFieldPathConstant).Array() {
			if !viaRecord.IsObject() {
				continue
			}
			advisoryIdentifier := strings.TrimSpace(viaRecord.Get(sourceFieldPathConstant).String())
			if len(advisoryIdentifier) == 0 {
				continue
			}
			if _, exists := advisories.Get(advisoryIdentifier); exists {
				continue
			}
			moduleName := viaRecord.Get(nameFieldPathConstant).String()
			advisories.Set(advisoryIdentifier, npm.Advisory{
				Title:              viaRecord.Get(titleFieldPathConstant).String(),
				Severity:           viaRecord.Get(severityFieldPathConstant).String(),
				ModuleName:         moduleName,
				VulnerableVersions: viaRecord.Get(rangeFieldPathConstant).String(),
				PatchedVersions:    describePatchedVersions(fixAvailable, moduleName),
				URL:                viaRecord.Get(urlFieldPathConstant).String(),
			})
		}
		return true
	})
	return advisories, nil
}

func describePatchedVersions(fixAvailable gjson.Result, moduleName string) string {
	if !fixAvailable.IsObject() {
		return ""
	}
	if fixAvailable.Get(nameFieldPathConstant).String() != moduleName {
		return ""
	}
	fixedVersion := strings.TrimSpace(fixAvailable.Get(versionFieldPathConstant).String())
	if len(fixedVersion) == 0 {
		return ""
	}
	return fmt.Sprintf(patchedVersionsTemplateConstant, fixedVersion)
}
