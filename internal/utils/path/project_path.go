package pathutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant                   = "~"
	tildeForwardSlashPrefixConstant       = "~/"
	workingDirectoryErrorTemplateConstant = "unable to determine working directory: %w"
	absolutePathErrorTemplateConstant     = "unable to resolve project path %s: %w"
)

// DirectoryProvider resolves a well-known directory such as the user's home or the working directory.
type DirectoryProvider func() (string, error)

// ProjectPathResolver turns user supplied project paths into absolute directories. A leading tilde is
// expanded to the home directory and an empty path selects the working directory.
type ProjectPathResolver struct {
	homeDirectoryProvider    DirectoryProvider
	workingDirectoryProvider DirectoryProvider
	homeDirectory            string
	homeDirectoryError       error
	homeDirectoryGuard       sync.Once
}

// NewProjectPathResolver constructs a resolver backed by the operating system lookups.
func NewProjectPathResolver() *ProjectPathResolver {
	return NewProjectPathResolverWithProviders(os.UserHomeDir, os.Getwd)
}

// NewProjectPathResolverWithProviders constructs a resolver with custom lookups. Nil providers fall back
// to the operating system.
func NewProjectPathResolverWithProviders(homeDirectoryProvider DirectoryProvider, workingDirectoryProvider DirectoryProvider) *ProjectPathResolver {
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	if workingDirectoryProvider == nil {
		workingDirectoryProvider = os.Getwd
	}
	return &ProjectPathResolver{
		homeDirectoryProvider:    homeDirectoryProvider,
		workingDirectoryProvider: workingDirectoryProvider,
	}
}

// ExpandHome resolves a leading "~" or "~/" to the home directory. Other paths, including "~user",
// and paths seen while the home directory is unavailable are returned unchanged.
func (resolver *ProjectPathResolver) ExpandHome(candidatePath string) string {
	if !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	homeDirectory := resolver.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return candidatePath
	}

	switch {
	case candidatePath == tildeSymbolConstant:
		return homeDirectory
	case strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant):
		return filepath.Join(homeDirectory, strings.TrimPrefix(candidatePath, tildeForwardSlashPrefixConstant))
	case strings.HasPrefix(candidatePath, tildeSymbolConstant+string(os.PathSeparator)):
		return filepath.Join(homeDirectory, strings.TrimPrefix(candidatePath, tildeSymbolConstant+string(os.PathSeparator)))
	default:
		return candidatePath
	}
}

// Resolve returns the absolute, cleaned project directory for candidatePath.
func (resolver *ProjectPathResolver) Resolve(candidatePath string) (string, error) {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		workingDirectory, workingDirectoryError := resolver.workingDirectoryProvider()
		if workingDirectoryError != nil {
			return "", fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
		}
		return filepath.Clean(workingDirectory), nil
	}

	expandedPath := resolver.ExpandHome(trimmedPath)
	if filepath.IsAbs(expandedPath) {
		return filepath.Clean(expandedPath), nil
	}

	workingDirectory, workingDirectoryError := resolver.workingDirectoryProvider()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(absolutePathErrorTemplateConstant, expandedPath, workingDirectoryError)
	}
	return filepath.Join(workingDirectory, expandedPath), nil
}

func (resolver *ProjectPathResolver) resolveHomeDirectory() string {
	resolver.homeDirectoryGuard.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})
	if resolver.homeDirectoryError != nil {
		return ""
	}
	return resolver.homeDirectory
}
