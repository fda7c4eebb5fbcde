package configuration

import (
	"fmt"
	"strconv"
	"strings"
)

// PythonVersion is the target interpreter version, parsed from a
// "major.minor.micro" string.
type PythonVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Micro int `json:"micro"`
}

// ParsePythonVersion parses a version string of one to three dot-separated
// integers. Omitted components default to zero.
func ParsePythonVersion(s string) (*PythonVersion, error) {
	splits := strings.Split(s, ".")
	if len(splits) > 3 {
		return nil, fmt.Errorf("version string is expected to have the form of 'X.Y.Z' but got `%s`", s)
	}
	parts := make([]int, 3)
	for i, split := range splits {
		value, err := strconv.Atoi(split)
		if err != nil {
			return nil, fmt.Errorf("version string is expected to have the form of 'X.Y.Z' but got `%s`", s)
		}
		parts[i] = value
	}
	return &PythonVersion{Major: parts[0], Minor: parts[1], Micro: parts[2]}, nil
}

func (v PythonVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// SharedMemory holds the shared-memory sizing knobs passed through to the
// backend. Each knob is independently optional.
type SharedMemory struct {
	HeapSize             *int `json:"heap_size,omitempty"`
	DependencyTablePower *int `json:"dependency_table_power,omitempty"`
	HashTablePower       *int `json:"hash_table_power,omitempty"`
}

// IDEFeatures groups the four independent IDE feature toggles. A nil toggle
// means the layer did not set it.
type IDEFeatures struct {
	HoverEnabled             *bool `json:"hover_enabled,omitempty"`
	GoToDefinitionEnabled    *bool `json:"go_to_definition_enabled,omitempty"`
	FindSymbolsEnabled       *bool `json:"find_symbols_enabled,omitempty"`
	FindAllReferencesEnabled *bool `json:"find_all_references_enabled,omitempty"`
}

// SearchStrategy is the policy for discovering installed third-party
// packages.
type SearchStrategy string

const (
	SearchStrategyNone   SearchStrategy = "none"
	SearchStrategyAll    SearchStrategy = "all"
	SearchStrategyPEP561 SearchStrategy = "pep561"
)

// ParseSearchStrategy converts a configuration string into a SearchStrategy.
func ParseSearchStrategy(s string) (SearchStrategy, error) {
	switch SearchStrategy(s) {
	case SearchStrategyNone, SearchStrategyAll, SearchStrategyPEP561:
		return SearchStrategy(s), nil
	default:
		return "", fmt.Errorf("unknown site package search strategy `%s`", s)
	}
}

// BuckMode is a platform-aware buck build mode: either a single mode applied
// everywhere or a mapping from platform name to mode.
type BuckMode struct {
	Mode      string            `json:"mode,omitempty"`
	Platforms map[string]string `json:"platforms,omitempty"`
}

// Extension describes an additional file suffix the backend should treat as
// a Python module.
type Extension struct {
	Suffix                         string `json:"suffix"`
	IncludeSuffixInModuleQualifier bool   `json:"include_suffix_in_module_qualifier"`
}
