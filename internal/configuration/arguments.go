package configuration

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// CommandArguments is the flat projection of the CLI flag surface. Pointer
// fields are nil when the flag was not supplied.
type CommandArguments struct {
	LocalConfiguration *string
	Debug              bool
	Sequential         bool
	Strict             bool
	ShowErrorTraces    bool
	Output             string
	EnableProfiling    bool
	EnableMemory       bool
	Noninteractive     bool
	LoggingSections    []string
	LogIdentifier      *string
	Logger             *string

	Targets             []string
	SourceDirectories   []string
	DoNotIgnoreErrorsIn []string
	BuckMode            *string
	SearchPath          []string
	Binary              *string
	Exclude             []string
	Typeshed            *string
	DotPyreDirectory    *string
	IsolationPrefix     *string
	PythonVersion       *string

	SharedMemoryHeapSize             *int
	SharedMemoryDependencyTablePower *int
	SharedMemoryHashTablePower       *int
	NumberOfWorkers                  *int

	EnableHover             *bool
	EnableGoToDefinition    *bool
	EnableFindSymbols       *bool
	EnableFindAllReferences *bool
	UseBuck2                *bool
}

// FromCommandArguments projects CLI arguments into a partial configuration
// layer. Absence rules: the strict flag becomes an explicit true only when
// set (false would shadow a file-level strict setting); empty repeated flags
// stay unset so they never override an inherited non-empty list with
// emptiness.
func FromCommandArguments(arguments CommandArguments) (*PartialConfiguration, error) {
	partial := &PartialConfiguration{
		Binary:              arguments.Binary,
		DoNotIgnoreErrorsIn: arguments.DoNotIgnoreErrorsIn,
		DotPyreDirectory:    arguments.DotPyreDirectory,
		Excludes:            arguments.Exclude,
		IsolationPrefix:     arguments.IsolationPrefix,
		Logger:              arguments.Logger,
		NumberOfWorkers:     arguments.NumberOfWorkers,
		SearchPath:          rawElements(arguments.SearchPath),
		Typeshed:            arguments.Typeshed,
		UseBuck2:            arguments.UseBuck2,
	}

	if arguments.Strict {
		strict := true
		partial.Strict = &strict
	}
	if arguments.BuckMode != nil {
		partial.BuckMode = &BuckMode{Mode: *arguments.BuckMode}
	}
	if len(arguments.Targets) > 0 {
		partial.Targets = arguments.Targets
	}
	if len(arguments.SourceDirectories) > 0 {
		partial.SourceDirectories = rawElements(arguments.SourceDirectories)
	}
	if arguments.PythonVersion != nil {
		version, err := ParsePythonVersion(*arguments.PythonVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid --python-version: %w", err)
		}
		partial.PythonVersion = version
	}
	if arguments.EnableHover != nil ||
		arguments.EnableGoToDefinition != nil ||
		arguments.EnableFindSymbols != nil ||
		arguments.EnableFindAllReferences != nil {
		partial.IDEFeatures = &IDEFeatures{
			HoverEnabled:             arguments.EnableHover,
			GoToDefinitionEnabled:    arguments.EnableGoToDefinition,
			FindSymbolsEnabled:       arguments.EnableFindSymbols,
			FindAllReferencesEnabled: arguments.EnableFindAllReferences,
		}
	}
	if arguments.SharedMemoryHeapSize != nil ||
		arguments.SharedMemoryDependencyTablePower != nil ||
		arguments.SharedMemoryHashTablePower != nil {
		partial.SharedMemory = &SharedMemory{
			HeapSize:             arguments.SharedMemoryHeapSize,
			DependencyTablePower: arguments.SharedMemoryDependencyTablePower,
			HashTablePower:       arguments.SharedMemoryHashTablePower,
		}
	}

	return partial, nil
}

// environmentOverrides is the PYRE_* environment variable layer, decoded with
// caarlos0/env. Pointer fields stay nil when the variable is unset.
type environmentOverrides struct {
	Binary           *string `env:"PYRE_BINARY"`
	Typeshed         *string `env:"PYRE_TYPESHED"`
	DotPyreDirectory *string `env:"PYRE_DOT_PYRE_DIRECTORY"`
	NumberOfWorkers  *int    `env:"PYRE_NUMBER_OF_WORKERS"`
	IsolationPrefix  *string `env:"PYRE_ISOLATION_PREFIX"`
	VersionHash      *string `env:"PYRE_VERSION_HASH"`
}

// FromEnvironment decodes the environment variable layer. It merges above
// the configuration files and below the command line.
func FromEnvironment() (*PartialConfiguration, error) {
	var overrides environmentOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("cannot parse PYRE_* environment overrides: %w", err)
	}
	return &PartialConfiguration{
		Binary:           overrides.Binary,
		Typeshed:         overrides.Typeshed,
		DotPyreDirectory: overrides.DotPyreDirectory,
		NumberOfWorkers:  overrides.NumberOfWorkers,
		IsolationPrefix:  overrides.IsolationPrefix,
		VersionHash:      overrides.VersionHash,
	}, nil
}
