package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/dependable/internal/npm"
	"github.com/temirov/dependable/internal/report"
)

const (
	manifestReaderMissingMessageConstant    = "health service requires a manifest reader"
	dependencyCheckerMissingMessageConstant = "health service requires a dependency checker"
	reportWriteErrorTemplateConstant        = "unable to write report: %w"
	checkStartedMessageConstant             = "dependency health check started"
	reportGeneratedMessageConstant          = "dependency health report generated"
	unrecognizedFormatMessageConstant       = "unrecognized report format; rendering markdown"
	projectPathFieldNameConstant            = "project_path"
	manifestFieldNameConstant               = "manifest"
	formatFieldNameConstant                 = "format"
	supportedFormatsFieldNameConstant       = "supported_formats"
	dependencyCountFieldNameConstant        = "dependencies"
	advisoryCountFieldNameConstant          = "advisories"
	outdatedCountFieldNameConstant          = "outdated"
)

var (
	// ErrManifestReaderNotConfigured indicates the service was constructed without a manifest reader.
	ErrManifestReaderNotConfigured = errors.New(manifestReaderMissingMessageConstant)
	// ErrDependencyCheckerNotConfigured indicates the service was constructed without a dependency checker.
	ErrDependencyCheckerNotConfigured = errors.New(dependencyCheckerMissingMessageConstant)
)

// ManifestReader loads declared dependencies from a project manifest.
type ManifestReader interface {
	ReadDependencies(projectPath string, manifestFileName string) (npm.DependencyMap, error)
}

// DependencyChecker runs the package manager audit and outdated checks.
type DependencyChecker interface {
	RunAudit(executionContext context.Context, projectPath string) (npm.AuditReport, error)
	RunOutdated(executionContext context.Context, projectPath string) (npm.OutdatedReport, error)
}

// Options describe a single health report run.
type Options struct {
	ProjectPath      string
	ManifestFileName string
	Format           string
}

// ServiceDependencies groups the collaborators required by Service.
type ServiceDependencies struct {
	ManifestReader    ManifestReader
	DependencyChecker DependencyChecker
	Logger            *zap.Logger
	Output            io.Writer
}

// Service produces dependency health reports.
type Service struct {
	manifestReader    ManifestReader
	dependencyChecker DependencyChecker
	logger            *zap.Logger
	output            io.Writer
}

// NewService validates dependencies and constructs a Service. A nil logger discards diagnostics and a nil
// output discards the report.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.ManifestReader == nil {
		return nil, ErrManifestReaderNotConfigured
	}
	if dependencies.DependencyChecker == nil {
		return nil, ErrDependencyCheckerNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}

	return &Service{
		manifestReader:    dependencies.ManifestReader,
		dependencyChecker: dependencies.DependencyChecker,
		logger:            logger,
		output:            output,
	}, nil
}

// BuildDocument reads the manifest and runs both checks concurrently. A manifest failure prevents the
// checks from running, and the first failing check cancels the other. No partial document is returned.
func (service *Service) BuildDocument(executionContext context.Context, options Options) (npm.ReportDocument, error) {
	service.logger.Debug(
		checkStartedMessageConstant,
		zap.String(projectPathFieldNameConstant, options.ProjectPath),
		zap.String(manifestFieldNameConstant, options.ManifestFileName),
	)

	dependencies, manifestError := service.manifestReader.ReadDependencies(options.ProjectPath, options.ManifestFileName)
	if manifestError != nil {
		return npm.ReportDocument{}, manifestError
	}

	var auditReport npm.AuditReport
	var outdatedReport npm.OutdatedReport

	checkGroup, groupContext := errgroup.WithContext(executionContext)
	checkGroup.Go(func() error {
		var auditError error
		auditReport, auditError = service.dependencyChecker.RunAudit(groupContext, options.ProjectPath)
		return auditError
	})
	checkGroup.Go(func() error {
		var outdatedError error
		outdatedReport, outdatedError = service.dependencyChecker.RunOutdated(groupContext, options.ProjectPath)
		return outdatedError
	})
	if checkError := checkGroup.Wait(); checkError != nil {
		return npm.ReportDocument{}, checkError
	}

	return npm.ReportDocument{
		Dependencies: dependencies,
		Audit:        auditReport,
		Outdated:     outdatedReport,
	}, nil
}

// Run builds the report document and writes it in the requested format. The console format prefixes the
// report with a banner, the dependency list, and colored summary lines; an unrecognized format is logged and rendered as markdown.
func (service *Service) Run(executionContext context.Context, options Options) error {
	format, recognized := report.ParseFormat(options.Format)
	if !recognized {
		service.logger.Warn(
			unrecognizedFormatMessageConstant,
			zap.String(formatFieldNameConstant, options.Format),
			zap.String(supportedFormatsFieldNameConstant, strings.Join(report.SupportedFormats(), ", ")),
		)
	}

	document, documentError := service.BuildDocument(executionContext, options)
	if documentError != nil {
		return documentError
	}

	renderedReport, renderError := report.Render(document, format)
	if renderError != nil {
		return renderError
	}

	if format == report.FormatConsole {
		if bannerError := report.WriteBanner(service.output); bannerError != nil {
			return bannerError
		}
		if dependencyListError := report.WriteDependencyList(service.output, document.Dependencies); dependencyListError != nil {
			return dependencyListError
		}
		if summaryError := report.WriteSummary(service.output, report.BuildSummary(document)); summaryError != nil {
			return summaryError
		}
		if _, separatorError := fmt.Fprintln(service.output); separatorError != nil {
			return fmt.Errorf(reportWriteErrorTemplateConstant, separatorError)
		}
	}

	if _, writeError := fmt.Fprintln(service.output, renderedReport); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, writeError)
	}

	service.logger.Info(
		reportGeneratedMessageConstant,
		zap.String(formatFieldNameConstant, string(format)),
		zap.Int(dependencyCountFieldNameConstant, document.Dependencies.Len()),
		zap.Int(advisoryCountFieldNameConstant, document.Audit.Advisories.Len()),
		zap.Int(outdatedCountFieldNameConstant, document.Outdated.Len()),
	)

	return nil
}
