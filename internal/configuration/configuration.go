// Package configuration resolves the effective runtime configuration for the
// client: it discovers the global and local configuration files, decodes each
// layer into a partial configuration, merges the layers (global file < local
// file < environment < command line), and normalizes every path-valued field
// into canonical absolute paths.
package configuration

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pyrecheck/pyre-client/internal/discovery"
	"github.com/pyrecheck/pyre-client/internal/logging"
)

// Configuration is the fully-resolved, immutable result of resolution. All
// paths are absolute; optional knobs have collapsed to concrete values or
// their zero values.
type Configuration struct {
	ProjectRoot               string               `json:"project_root"`
	RelativeLocalRoot         string               `json:"relative_local_root,omitempty"`
	DotPyreDirectory          string               `json:"dot_pyre_directory"`
	Binary                    string               `json:"binary,omitempty"`
	BuckMode                  *BuckMode            `json:"buck_mode,omitempty"`
	DoNotIgnoreErrorsIn       []string             `json:"do_not_ignore_errors_in,omitempty"`
	Excludes                  []string             `json:"exclude,omitempty"`
	Extensions                []Extension          `json:"extensions,omitempty"`
	IDEFeatures               *IDEFeatures         `json:"ide_features,omitempty"`
	IgnoreAllErrors           []string             `json:"ignore_all_errors,omitempty"`
	IsolationPrefix           string               `json:"isolation_prefix,omitempty"`
	Logger                    string               `json:"logger,omitempty"`
	NumberOfWorkers           int                  `json:"workers,omitempty"`
	Oncall                    string               `json:"oncall,omitempty"`
	OtherCriticalFiles        []string             `json:"critical_files,omitempty"`
	PysaVersionHash           string               `json:"pysa_version,omitempty"`
	PythonVersion             *PythonVersion       `json:"python_version,omitempty"`
	SearchPath                []string             `json:"search_path,omitempty"`
	SharedMemory              SharedMemory         `json:"shared_memory"`
	SitePackageSearchStrategy SearchStrategy       `json:"site_package_search_strategy"`
	SiteRoots                 []string             `json:"site_roots,omitempty"`
	SourceDirectories         []string             `json:"source_directories,omitempty"`
	Strict                    bool                 `json:"strict"`
	TaintModelsPath           []string             `json:"taint_models_path,omitempty"`
	Targets                   []string             `json:"targets,omitempty"`
	Typeshed                  string               `json:"typeshed,omitempty"`
	UnwatchedDependency       *UnwatchedDependency `json:"unwatched_dependency,omitempty"`
	UseBuck2                  bool                 `json:"use_buck2"`
	VersionHash               string               `json:"version,omitempty"`
}

// Create resolves the effective configuration for a command invocation.
// baseDirectory is where discovery starts (normally the working directory);
// an explicit --local-configuration path shifts the search base and makes a
// missing local configuration fatal. The returned warnings are the non-fatal
// diagnostics collected across all layers.
func Create(arguments CommandArguments, baseDirectory string) (*Configuration, []string, error) {
	searchBase := baseDirectory
	if arguments.LocalConfiguration != nil {
		if filepath.IsAbs(*arguments.LocalConfiguration) {
			searchBase = *arguments.LocalConfiguration
		} else {
			searchBase = filepath.Join(baseDirectory, *arguments.LocalConfiguration)
		}
	}
	foundRoot := discovery.FindGlobalAndLocalRoot(searchBase)

	// An explicitly requested local configuration must exist; never fall
	// back to the nearest ancestor project.
	if arguments.LocalConfiguration != nil {
		if foundRoot == nil {
			return nil, nil, &MissingLocalConfigurationError{
				SearchBase: searchBase,
				Filename:   discovery.ConfigurationFile,
			}
		}
		if foundRoot.LocalRoot == "" {
			return nil, nil, &MissingLocalConfigurationError{
				SearchBase: searchBase,
				Filename:   discovery.LocalConfigurationFile,
			}
		}
	}

	workingDirectory, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot determine working directory: %w", err)
	}

	commandLineLayer, err := FromCommandArguments(arguments)
	if err != nil {
		return nil, nil, err
	}
	commandLineLayer, err = commandLineLayer.ExpandRelativePaths(workingDirectory)
	if err != nil {
		return nil, nil, err
	}
	environmentLayer, err := FromEnvironment()
	if err != nil {
		return nil, nil, err
	}
	environmentLayer, err = environmentLayer.ExpandRelativePaths(workingDirectory)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	var projectRoot, relativeLocalRoot string
	var partial *PartialConfiguration

	if foundRoot == nil {
		// No project anywhere: the working directory becomes the project
		// root and only environment and command-line settings apply.
		projectRoot = workingDirectory
		partial = Merge(environmentLayer, commandLineLayer)
	} else {
		projectRoot = foundRoot.GlobalRoot
		globalFile := filepath.Join(projectRoot, discovery.ConfigurationFile)
		globalLayer, globalWarnings, err := FromFile(globalFile)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, globalWarnings...)
		partial, err = globalLayer.ExpandRelativePaths(projectRoot)
		if err != nil {
			return nil, nil, err
		}

		if foundRoot.LocalRoot != "" {
			relativeLocalRoot = discovery.RelativeLocalRoot(projectRoot, foundRoot.LocalRoot)
			localFile := filepath.Join(foundRoot.LocalRoot, discovery.LocalConfigurationFile)
			localLayer, localWarnings, err := FromFile(localFile)
			if err != nil {
				return nil, nil, err
			}
			warnings = append(warnings, localWarnings...)
			localLayer, err = localLayer.ExpandRelativePaths(foundRoot.LocalRoot)
			if err != nil {
				return nil, nil, err
			}
			partial = Merge(partial, localLayer)
		}

		partial = Merge(partial, environmentLayer)
		partial = Merge(partial, commandLineLayer)
	}

	resolved, assemblyWarnings, err := fromPartialConfiguration(projectRoot, relativeLocalRoot, partial)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, assemblyWarnings...)
	for _, warning := range warnings {
		logging.Warn().Msg(warning)
	}
	return resolved, warnings, nil
}

// fromPartialConfiguration materializes the merged layers into the final
// configuration: project-root (`//`) markers are resolved, search-path globs
// are expanded, defaults are applied, and invariants are checked.
func fromPartialConfiguration(
	projectRoot string,
	relativeLocalRoot string,
	partial *PartialConfiguration,
) (*Configuration, []string, error) {
	var warnings []string

	searchPath, globWarnings, err := expandSearchPath(partial.SearchPath, projectRoot)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, globWarnings...)

	sourceDirectories, err := expandedElementPaths(partial.SourceDirectories, projectRoot)
	if err != nil {
		return nil, nil, err
	}

	if partial.UnwatchedDependency != nil {
		if err := partial.UnwatchedDependency.Validate(); err != nil {
			return nil, nil, err
		}
	}

	configuration := &Configuration{
		ProjectRoot:               projectRoot,
		RelativeLocalRoot:         relativeLocalRoot,
		DotPyreDirectory:          stringOr(partial.DotPyreDirectory, filepath.Join(projectRoot, discovery.LogDirectory)),
		Binary:                    stringOr(partial.Binary, ""),
		BuckMode:                  partial.BuckMode,
		DoNotIgnoreErrorsIn:       partial.DoNotIgnoreErrorsIn,
		Excludes:                  partial.Excludes,
		Extensions:                partial.Extensions,
		IDEFeatures:               partial.IDEFeatures,
		IgnoreAllErrors:           partial.IgnoreAllErrors,
		IsolationPrefix:           stringOr(partial.IsolationPrefix, ""),
		Logger:                    stringOr(partial.Logger, ""),
		NumberOfWorkers:           intOr(partial.NumberOfWorkers, 0),
		Oncall:                    stringOr(partial.Oncall, ""),
		OtherCriticalFiles:        partial.OtherCriticalFiles,
		PysaVersionHash:           stringOr(partial.PysaVersionHash, ""),
		PythonVersion:             partial.PythonVersion,
		SearchPath:                searchPath,
		SitePackageSearchStrategy: SearchStrategyNone,
		SiteRoots:                 partial.SiteRoots,
		SourceDirectories:         sourceDirectories,
		Strict:                    boolOr(partial.Strict, false),
		TaintModelsPath:           partial.TaintModelsPath,
		Targets:                   partial.Targets,
		Typeshed:                  stringOr(partial.Typeshed, ""),
		UnwatchedDependency:       partial.UnwatchedDependency,
		UseBuck2:                  boolOr(partial.UseBuck2, false),
		VersionHash:               stringOr(partial.VersionHash, ""),
	}
	if partial.SharedMemory != nil {
		configuration.SharedMemory = *partial.SharedMemory
	}
	if partial.SitePackageSearchStrategy != nil {
		configuration.SitePackageSearchStrategy = *partial.SitePackageSearchStrategy
	}
	return configuration, warnings, nil
}

// expandSearchPath resolves `//` markers against the project root and then
// expands glob metacharacters. Patterns matching nothing are dropped with a
// warning.
func expandSearchPath(elements []SimpleRawElement, projectRoot string) ([]string, []string, error) {
	if elements == nil {
		return nil, nil, nil
	}
	var warnings []string
	paths := make([]string, 0, len(elements))
	for _, element := range elements {
		globallyExpanded, err := element.ExpandGlobalRoot(projectRoot)
		if err != nil {
			return nil, nil, err
		}
		matches, err := globallyExpanded.ExpandGlob()
		if err != nil {
			return nil, nil, err
		}
		if len(matches) == 0 {
			warnings = append(warnings, fmt.Sprintf(
				"`%s` does not match any paths", globallyExpanded.(SimpleRawElement).Root))
			continue
		}
		for _, match := range matches {
			paths = append(paths, match.(SimpleRawElement).ToElement().Path())
		}
	}
	return paths, warnings, nil
}

// expandedElementPaths resolves `//` markers for single-directory elements;
// globs are never expanded here.
func expandedElementPaths(elements []SimpleRawElement, projectRoot string) ([]string, error) {
	if elements == nil {
		return nil, nil
	}
	paths := make([]string, 0, len(elements))
	for _, element := range elements {
		expanded, err := element.ExpandGlobalRoot(projectRoot)
		if err != nil {
			return nil, err
		}
		paths = append(paths, expanded.(SimpleRawElement).ToElement().Path())
	}
	return paths, nil
}

func stringOr(value *string, fallback string) string {
	if value != nil {
		return *value
	}
	return fallback
}

func intOr(value *int, fallback int) int {
	if value != nil {
		return *value
	}
	return fallback
}

func boolOr(value *bool, fallback bool) bool {
	if value != nil {
		return *value
	}
	return fallback
}
