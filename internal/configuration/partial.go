package configuration

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/tidwall/jsonc"
)

// PartialConfiguration is one layer's explicit settings. Every field is
// optional: a nil field means the layer did not set it and a lower-precedence
// layer's value is inherited. Slice fields use nil for "unset"; a non-nil
// empty slice is an explicit (overriding) empty value.
//
// Values are never mutated after creation; ExpandRelativePaths and Merge
// always produce new values.
type PartialConfiguration struct {
	Binary                    *string
	BuckMode                  *BuckMode
	DoNotIgnoreErrorsIn       []string
	DotPyreDirectory          *string
	Excludes                  []string
	Extensions                []Extension
	IDEFeatures               *IDEFeatures
	IgnoreAllErrors           []string
	IsolationPrefix           *string
	Logger                    *string
	NumberOfWorkers           *int
	Oncall                    *string
	OtherCriticalFiles        []string
	PysaVersionHash           *string
	PythonVersion             *PythonVersion
	SearchPath                []SimpleRawElement
	SharedMemory              *SharedMemory
	SitePackageSearchStrategy *SearchStrategy
	SiteRoots                 []string
	SourceDirectories         []SimpleRawElement
	Strict                    *bool
	TaintModelsPath           []string
	Targets                   []string
	Typeshed                  *string
	UnwatchedDependency       *UnwatchedDependency
	UseBuck2                  *bool
	VersionHash               *string
}

// deprecatedFields maps removed configuration keys to their replacements.
// Values are never migrated automatically; the user must move them.
var deprecatedFields = map[string]string{
	"do_not_check": "ignore_all_errors",
}

// extraFields are known keys consumed by other tooling; they are accepted
// without validation and without an "unrecognized item" warning.
var extraFields = map[string]bool{
	"create_open_source_configuration": true,
	"saved_state":                      true,
	"stable_client":                    true,
	"taint_models_path":                true,
	"unstable_client":                  true,
}

// FromFile reads and decodes a configuration file. The returned warnings are
// non-fatal diagnostics (deprecated or unrecognized keys).
func FromFile(path string) (*PartialConfiguration, []string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read configuration file `%s`: %w", path, err)
	}
	partial, warnings, err := FromDocument(contents)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration file `%s`: %w", path, err)
	}
	return partial, warnings, nil
}

// FromDocument decodes a JSON (or JSONC) configuration document into a
// partial configuration. Recognized keys are consumed and type-checked; a
// type mismatch fails the whole decode. Deprecated and unrecognized keys
// produce warnings.
func FromDocument(contents []byte) (*PartialConfiguration, []string, error) {
	var document map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(contents), &document); err != nil {
		return nil, nil, fmt.Errorf("configuration is not a valid JSON object: %w", err)
	}

	var warnings []string
	for _, deprecated := range sortedKeys(deprecatedFields) {
		if _, present := document[deprecated]; present {
			delete(document, deprecated)
			warnings = append(warnings, fmt.Sprintf(
				"configuration file uses deprecated item `%s`; please migrate to its replacement `%s`",
				deprecated, deprecatedFields[deprecated]))
		}
	}

	partial := &PartialConfiguration{}
	var err error
	if partial.Binary, err = popString(document, "binary"); err != nil {
		return nil, nil, err
	}
	if partial.BuckMode, err = popBuckMode(document, "buck_mode"); err != nil {
		return nil, nil, err
	}
	if partial.DoNotIgnoreErrorsIn, err = popStringList(document, "do_not_ignore_errors_in", false); err != nil {
		return nil, nil, err
	}
	if partial.DotPyreDirectory, err = popString(document, "dot_pyre_directory"); err != nil {
		return nil, nil, err
	}
	if partial.Excludes, err = popStringList(document, "exclude", true); err != nil {
		return nil, nil, err
	}
	if partial.Extensions, err = popExtensions(document, "extensions"); err != nil {
		return nil, nil, err
	}
	if partial.IDEFeatures, err = popIDEFeatures(document, "ide_features"); err != nil {
		return nil, nil, err
	}
	if partial.IgnoreAllErrors, err = popStringList(document, "ignore_all_errors", false); err != nil {
		return nil, nil, err
	}
	if partial.IsolationPrefix, err = popString(document, "isolation_prefix"); err != nil {
		return nil, nil, err
	}
	if partial.Logger, err = popString(document, "logger"); err != nil {
		return nil, nil, err
	}
	if partial.NumberOfWorkers, err = popInt(document, "workers"); err != nil {
		return nil, nil, err
	}
	if partial.Oncall, err = popString(document, "oncall"); err != nil {
		return nil, nil, err
	}
	if partial.OtherCriticalFiles, err = popStringList(document, "critical_files", false); err != nil {
		return nil, nil, err
	}
	if partial.PysaVersionHash, err = popString(document, "pysa_version"); err != nil {
		return nil, nil, err
	}
	if partial.PythonVersion, err = popPythonVersion(document, "python_version"); err != nil {
		return nil, nil, err
	}
	searchPath, err := popStringList(document, "search_path", true)
	if err != nil {
		return nil, nil, err
	}
	partial.SearchPath = rawElements(searchPath)
	if partial.SharedMemory, err = popSharedMemory(document, "shared_memory"); err != nil {
		return nil, nil, err
	}
	if partial.SitePackageSearchStrategy, err = popSearchStrategy(document, "site_package_search_strategy"); err != nil {
		return nil, nil, err
	}
	if partial.SiteRoots, err = popStringList(document, "site_roots", false); err != nil {
		return nil, nil, err
	}
	sourceDirectories, err := popStringList(document, "source_directories", false)
	if err != nil {
		return nil, nil, err
	}
	partial.SourceDirectories = rawElements(sourceDirectories)
	if partial.Strict, err = popBool(document, "strict"); err != nil {
		return nil, nil, err
	}
	if partial.TaintModelsPath, err = popStringList(document, "taint_models_path", true); err != nil {
		return nil, nil, err
	}
	if partial.Targets, err = popStringList(document, "targets", false); err != nil {
		return nil, nil, err
	}
	if partial.Typeshed, err = popString(document, "typeshed"); err != nil {
		return nil, nil, err
	}
	if partial.UnwatchedDependency, err = popUnwatchedDependency(document, "unwatched_dependency"); err != nil {
		return nil, nil, err
	}
	if partial.UseBuck2, err = popBool(document, "use_buck2"); err != nil {
		return nil, nil, err
	}
	if partial.VersionHash, err = popString(document, "version"); err != nil {
		return nil, nil, err
	}

	for _, unrecognized := range sortedDocumentKeys(document) {
		if !extraFields[unrecognized] {
			warnings = append(warnings, fmt.Sprintf("unrecognized configuration item: `%s`", unrecognized))
		}
	}

	return partial, warnings, nil
}

// rawElements wraps plain path strings as search-path elements. A nil input
// stays nil so "unset" survives the conversion.
func rawElements(roots []string) []SimpleRawElement {
	if roots == nil {
		return nil
	}
	elements := make([]SimpleRawElement, 0, len(roots))
	for _, root := range roots {
		elements = append(elements, SimpleRawElement{Root: root})
	}
	return elements
}

func popString(document map[string]any, name string) (*string, error) {
	value, present := document[name]
	if !present {
		return nil, nil
	}
	delete(document, name)
	s, ok := value.(string)
	if !ok {
		return nil, &DecodeError{Field: name, Expected: "string", Actual: value}
	}
	return &s, nil
}

func popBool(document map[string]any, name string) (*bool, error) {
	value, present := document[name]
	if !present {
		return nil, nil
	}
	delete(document, name)
	b, ok := value.(bool)
	if !ok {
		return nil, &DecodeError{Field: name, Expected: "bool", Actual: value}
	}
	return &b, nil
}

func popInt(document map[string]any, name string) (*int, error) {
	value, present := document[name]
	if !present {
		return nil, nil
	}
	delete(document, name)
	f, ok := value.(float64)
	if !ok || f != math.Trunc(f) {
		return nil, &DecodeError{Field: name, Expected: "integer", Actual: value}
	}
	i := int(f)
	return &i, nil
}

// popStringList consumes a list-of-strings field. When allowSingleString is
// set, a bare string is accepted and treated as a one-element list. Returns
// nil when the key is absent and a non-nil slice when it is present, so
// explicit emptiness is distinguishable from "unset".
func popStringList(document map[string]any, name string, allowSingleString bool) ([]string, error) {
	value, present := document[name]
	if !present {
		return nil, nil
	}
	delete(document, name)
	if allowSingleString {
		if s, ok := value.(string); ok {
			return []string{s}, nil
		}
	}
	items, ok := value.([]any)
	if !ok {
		return nil, &DecodeError{Field: name, Expected: "list of strings", Actual: value}
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &DecodeError{Field: name, Expected: "list of strings", Actual: value}
		}
		result = append(result, s)
	}
	return result, nil
}

func popObject(document map[string]any, name string) (map[string]any, error) {
	value, present := document[name]
	if !present {
		return nil, nil
	}
	delete(document, name)
	object, ok := value.(map[string]any)
	if !ok {
		return nil, &DecodeError{Field: name, Expected: "object", Actual: value}
	}
	return object, nil
}

// popBuckMode accepts either a plain mode string or a platform-to-mode dict.
func popBuckMode(document map[string]any, name string) (*BuckMode, error) {
	value, present := document[name]
	if !present {
		return nil, nil
	}
	delete(document, name)
	switch mode := value.(type) {
	case string:
		return &BuckMode{Mode: mode}, nil
	case map[string]any:
		platforms := make(map[string]string, len(mode))
		for platform, platformMode := range mode {
			s, ok := platformMode.(string)
			if !ok {
				return nil, &DecodeError{Field: name, Expected: "string or dict of strings", Actual: value}
			}
			platforms[platform] = s
		}
		return &BuckMode{Platforms: platforms}, nil
	default:
		return nil, &DecodeError{Field: name, Expected: "string or dict of strings", Actual: value}
	}
}

// popExtensions accepts a list whose items are either bare suffix strings or
// objects carrying a suffix and a qualifier-inclusion flag.
func popExtensions(document map[string]any, name string) ([]Extension, error) {
	value, present := document[name]
	if !present {
		return nil, nil
	}
	delete(document, name)
	items, ok := value.([]any)
	if !ok {
		return nil, &DecodeError{Field: name, Expected: "list", Actual: value}
	}
	extensions := make([]Extension, 0, len(items))
	for _, item := range items {
		switch element := item.(type) {
		case string:
			extensions = append(extensions, Extension{Suffix: element})
		case map[string]any:
			suffix, err := popString(element, "suffix")
			if err != nil || suffix == nil {
				return nil, &DecodeError{Field: name, Expected: "list of extension objects", Actual: value}
			}
			include, err := popBool(element, "include_suffix_in_module_qualifier")
			if err != nil {
				return nil, &DecodeError{Field: name, Expected: "list of extension objects", Actual: value}
			}
			extension := Extension{Suffix: *suffix}
			if include != nil {
				extension.IncludeSuffixInModuleQualifier = *include
			}
			extensions = append(extensions, extension)
		default:
			return nil, &DecodeError{Field: name, Expected: "list of extension objects", Actual: value}
		}
	}
	return extensions, nil
}

func popIDEFeatures(document map[string]any, name string) (*IDEFeatures, error) {
	object, err := popObject(document, name)
	if err != nil || object == nil {
		return nil, err
	}
	features := &IDEFeatures{}
	if features.HoverEnabled, err = popBool(object, "hover_enabled"); err != nil {
		return nil, err
	}
	if features.GoToDefinitionEnabled, err = popBool(object, "go_to_definition_enabled"); err != nil {
		return nil, err
	}
	if features.FindSymbolsEnabled, err = popBool(object, "find_symbols_enabled"); err != nil {
		return nil, err
	}
	if features.FindAllReferencesEnabled, err = popBool(object, "find_all_references_enabled"); err != nil {
		return nil, err
	}
	return features, nil
}

func popSharedMemory(document map[string]any, name string) (*SharedMemory, error) {
	object, err := popObject(document, name)
	if err != nil || object == nil {
		return nil, err
	}
	memory := &SharedMemory{}
	if memory.HeapSize, err = popInt(object, "heap_size"); err != nil {
		return nil, err
	}
	if memory.DependencyTablePower, err = popInt(object, "dependency_table_power"); err != nil {
		return nil, err
	}
	if memory.HashTablePower, err = popInt(object, "hash_table_power"); err != nil {
		return nil, err
	}
	return memory, nil
}

func popPythonVersion(document map[string]any, name string) (*PythonVersion, error) {
	value, err := popString(document, name)
	if err != nil || value == nil {
		return nil, err
	}
	version, err := ParsePythonVersion(*value)
	if err != nil {
		return nil, &DecodeError{Field: name, Expected: "version string 'X.Y.Z'", Actual: *value}
	}
	return version, nil
}

func popSearchStrategy(document map[string]any, name string) (*SearchStrategy, error) {
	value, err := popString(document, name)
	if err != nil || value == nil {
		return nil, err
	}
	strategy, err := ParseSearchStrategy(*value)
	if err != nil {
		return nil, &DecodeError{Field: name, Expected: "one of `none`, `all`, `pep561`", Actual: *value}
	}
	return &strategy, nil
}

func popUnwatchedDependency(document map[string]any, name string) (*UnwatchedDependency, error) {
	object, err := popObject(document, name)
	if err != nil || object == nil {
		return nil, err
	}
	changeIndicator, err := popString(object, "change_indicator")
	if err != nil {
		return nil, err
	}
	files, err := popObject(object, "files")
	if err != nil {
		return nil, err
	}
	if changeIndicator == nil || files == nil {
		return nil, &DecodeError{Field: name, Expected: "object with `change_indicator` and `files`", Actual: object}
	}
	root, err := popString(files, "root")
	if err != nil {
		return nil, err
	}
	checksumPath, err := popString(files, "checksum_path")
	if err != nil {
		return nil, err
	}
	if root == nil || checksumPath == nil {
		return nil, &DecodeError{Field: name, Expected: "files object with `root` and `checksum_path`", Actual: files}
	}
	return &UnwatchedDependency{
		ChangeIndicator: *changeIndicator,
		Files:           UnwatchedFiles{Root: *root, ChecksumPath: *checksumPath},
	}, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedDocumentKeys(document map[string]any) []string {
	keys := make([]string, 0, len(document))
	for key := range document {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
