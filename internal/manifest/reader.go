package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/temirov/dependable/internal/npm"
	"github.com/temirov/dependable/internal/ordered"
)

const (
	// DefaultManifestFileName is the manifest consulted when no explicit file name is supplied.
	DefaultManifestFileName = "package.json"

	dependenciesSectionNameConstant     = "dependencies"
	devDependenciesSectionNameConstant  = "devDependencies"
	yamlExtensionConstant               = ".yaml"
	ymlExtensionConstant                = ".yml"
	existenceCheckErrorTemplateConstant = "unable to check manifest %s: %w"
	readErrorTemplateConstant           = "unable to read manifest %s: %w"
	invalidJSONMessageConstant          = "invalid JSON"
	topLevelTypeTemplateConstant        = "top-level value must be an object, found %s"
	sectionTypeTemplateConstant         = "section %q must be an object, found %s"
	dependencyValueTypeTemplateConstant = "section %q entry %q must be a scalar version range, found %s"
	yamlDecodeErrorTemplateConstant     = "invalid YAML: %w"
	yamlEmptyDocumentMessageConstant    = "empty YAML document"
	yamlMappingKindLabelConstant        = "mapping"
	yamlSequenceKindLabelConstant       = "sequence"
	yamlAliasKindLabelConstant          = "alias"
	yamlUnknownKindLabelConstant        = "unknown"
	yamlNullKindLabelConstant           = "null"
	yamlNumberKindLabelConstant         = "number"
	yamlStringKindLabelConstant         = "string"
	yamlNullTagConstant                 = "!!null"
	yamlIntegerTagConstant              = "!!int"
	yamlFloatTagConstant                = "!!float"
)

// Reader loads dependency declarations from project manifests.
type Reader struct {
	fileSystem afero.Fs
}

// NewReader constructs a Reader over the provided filesystem. A nil filesystem selects the operating system.
func NewReader(fileSystem afero.Fs) *Reader {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Reader{fileSystem: fileSystem}
}

// ReadDependencies returns the merged dependencies and devDependencies declared by the manifest
// located in projectPath. Entries from devDependencies overwrite same-named dependencies entries.
func (reader *Reader) ReadDependencies(projectPath string, manifestFileName string) (npm.DependencyMap, error) {
	trimmedFileName := strings.TrimSpace(manifestFileName)
	if len(trimmedFileName) == 0 {
		trimmedFileName = DefaultManifestFileName
	}
	manifestPath := filepath.Join(projectPath, trimmedFileName)

	manifestExists, existenceError := afero.Exists(reader.fileSystem, manifestPath)
	if existenceError != nil {
		return npm.DependencyMap{}, fmt.Errorf(existenceCheckErrorTemplateConstant, manifestPath, existenceError)
	}
	if !manifestExists {
		return npm.DependencyMap{}, ManifestNotFoundError{Path: manifestPath}
	}

	manifestContent, readError := afero.ReadFile(reader.fileSystem, manifestPath)
	if readError != nil {
		return npm.DependencyMap{}, fmt.Errorf(readErrorTemplateConstant, manifestPath, readError)
	}

	var sections []npm.DependencyMap
	var parseError error
	if isYAMLManifest(manifestPath) {
		sections, parseError = parseYAMLSections(manifestContent)
	} else {
		sections, parseError = parseJSONSections(manifestContent)
	}
	if parseError != nil {
		return npm.DependencyMap{}, ManifestParseError{Path: manifestPath, Cause: parseError}
	}

	merged := npm.DependencyMap{}
	for _, section := range sections {
		merged.Merge(section)
	}
	return merged, nil
}

func isYAMLManifest(manifestPath string) bool {
	extension := strings.ToLower(filepath.Ext(manifestPath))
	return extension == yamlExtensionConstant || extension == ymlExtensionConstant
}

func parseJSONSections(manifestContent []byte) ([]npm.DependencyMap, error) {
	if !gjson.ValidBytes(manifestContent) {
		return nil, errors.New(invalidJSONMessageConstant)
	}
	document := gjson.ParseBytes(manifestContent)
	if !document.IsObject() {
		return nil, fmt.Errorf(topLevelTypeTemplateConstant, ordered.DescribeType(document))
	}

	sections := make([]npm.DependencyMap, 0, 2)
	for _, sectionName := range []string{dependenciesSectionNameConstant, devDependenciesSectionNameConstant} {
		section, sectionError := parseJSONSection(sectionName, document.Get(sectionName))
		if sectionError != nil {
			return nil, sectionError
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func parseJSONSection(sectionName string, sectionResult gjson.Result) (npm.DependencyMap, error) {
	section := npm.DependencyMap{}
	if !sectionResult.Exists() || sectionResult.Type == gjson.Null {
		return section, nil
	}
	if !sectionResult.IsObject() {
		return section, fmt.Errorf(sectionTypeTemplateConstant, sectionName, ordered.DescribeType(sectionResult))
	}

	var entryError error
	sectionResult.ForEach(func(key gjson.Result, value gjson.Result) bool {
		if value.Type != gjson.String && value.Type != gjson.Number {
			entryError = fmt.Errorf(dependencyValueTypeTemplateConstant, sectionName, key.String(), ordered.DescribeType(value))
			return false
		}
		section.Set(key.String(), value.String())
		return true
	})
	if entryError != nil {
		return npm.DependencyMap{}, entryError
	}
	return section, nil
}

func parseYAMLSections(manifestContent []byte) ([]npm.DependencyMap, error) {
	var document yaml.Node
	if decodeError := yaml.Unmarshal(manifestContent, &document); decodeError != nil {
		return nil, fmt.Errorf(yamlDecodeErrorTemplateConstant, decodeError)
	}
	if document.Kind != yaml.DocumentNode || len(document.Content) == 0 {
		return nil, errors.New(yamlEmptyDocumentMessageConstant)
	}

	rootNode := document.Content[0]
	if rootNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf(topLevelTypeTemplateConstant, describeYAMLKind(rootNode))
	}

	sections := make([]npm.DependencyMap, 0, 2)
	for _, sectionName := range []string{dependenciesSectionNameConstant, devDependenciesSectionNameConstant} {
		section, sectionError := parseYAMLSection(sectionName, findYAMLMappingValue(rootNode, sectionName))
		if sectionError != nil {
			return nil, sectionError
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func parseYAMLSection(sectionName string, sectionNode *yaml.Node) (npm.DependencyMap, error) {
	section := npm.DependencyMap{}
	if sectionNode == nil || isYAMLNull(sectionNode) {
		return section, nil
	}
	if sectionNode.Kind != yaml.MappingNode {
		return section, fmt.Errorf(sectionTypeTemplateConstant, sectionName, describeYAMLKind(sectionNode))
	}

	for contentIndex := 0; contentIndex+1 < len(sectionNode.Content); contentIndex += 2 {
		keyNode := sectionNode.Content[contentIndex]
		valueNode := sectionNode.Content[contentIndex+1]
		if valueNode.Kind != yaml.ScalarNode || isYAMLNull(valueNode) {
			return npm.DependencyMap{}, fmt.Errorf(dependencyValueTypeTemplateConstant, sectionName, keyNode.Value, describeYAMLKind(valueNode))
		}
		section.Set(keyNode.Value, valueNode.Value)
	}
	return section, nil
}

func findYAMLMappingValue(mappingNode *yaml.Node, key string) *yaml.Node {
	var located *yaml.Node
	for contentIndex := 0; contentIndex+1 < len(mappingNode.Content); contentIndex += 2 {
		if mappingNode.Content[contentIndex].Value == key {
			located = mappingNode.Content[contentIndex+1]
		}
	}
	return located
}

func isYAMLNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == yamlNullTagConstant
}

func describeYAMLKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return yamlMappingKindLabelConstant
	case yaml.SequenceNode:
		return yamlSequenceKindLabelConstant
	case yaml.AliasNode:
		return yamlAliasKindLabelConstant
	case yaml.ScalarNode:
		if isYAMLNull(node) {
			return yamlNullKindLabelConstant
		}
		if node.Tag == yamlIntegerTagConstant || node.Tag == yamlFloatTagConstant {
			return yamlNumberKindLabelConstant
		}
		return yamlStringKindLabelConstant
	default:
		return yamlUnknownKindLabelConstant
	}
}
