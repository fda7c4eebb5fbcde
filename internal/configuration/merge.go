package configuration

// Merge combines two layers: whenever overwrite explicitly set a field, its
// value wins, otherwise base's value is kept. List fields are override-wins
// (a present, even empty, list wholly replaces the base list) with two
// documented exceptions: DoNotIgnoreErrorsIn and OtherCriticalFiles
// accumulate across layers, base entries first. Neither input is mutated.
func Merge(base, overwrite *PartialConfiguration) *PartialConfiguration {
	merged := *base

	if overwrite.Binary != nil {
		merged.Binary = overwrite.Binary
	}
	if overwrite.BuckMode != nil {
		merged.BuckMode = overwrite.BuckMode
	}
	merged.DoNotIgnoreErrorsIn = appendLayers(base.DoNotIgnoreErrorsIn, overwrite.DoNotIgnoreErrorsIn)
	if overwrite.DotPyreDirectory != nil {
		merged.DotPyreDirectory = overwrite.DotPyreDirectory
	}
	if overwrite.Excludes != nil {
		merged.Excludes = overwrite.Excludes
	}
	if overwrite.Extensions != nil {
		merged.Extensions = overwrite.Extensions
	}
	if overwrite.IDEFeatures != nil {
		merged.IDEFeatures = mergeIDEFeatures(base.IDEFeatures, overwrite.IDEFeatures)
	}
	if overwrite.IgnoreAllErrors != nil {
		merged.IgnoreAllErrors = overwrite.IgnoreAllErrors
	}
	if overwrite.IsolationPrefix != nil {
		merged.IsolationPrefix = overwrite.IsolationPrefix
	}
	if overwrite.Logger != nil {
		merged.Logger = overwrite.Logger
	}
	if overwrite.NumberOfWorkers != nil {
		merged.NumberOfWorkers = overwrite.NumberOfWorkers
	}
	if overwrite.Oncall != nil {
		merged.Oncall = overwrite.Oncall
	}
	merged.OtherCriticalFiles = appendLayers(base.OtherCriticalFiles, overwrite.OtherCriticalFiles)
	if overwrite.PysaVersionHash != nil {
		merged.PysaVersionHash = overwrite.PysaVersionHash
	}
	if overwrite.PythonVersion != nil {
		merged.PythonVersion = overwrite.PythonVersion
	}
	if overwrite.SearchPath != nil {
		merged.SearchPath = overwrite.SearchPath
	}
	if overwrite.SharedMemory != nil {
		merged.SharedMemory = mergeSharedMemory(base.SharedMemory, overwrite.SharedMemory)
	}
	if overwrite.SitePackageSearchStrategy != nil {
		merged.SitePackageSearchStrategy = overwrite.SitePackageSearchStrategy
	}
	if overwrite.SiteRoots != nil {
		merged.SiteRoots = overwrite.SiteRoots
	}
	if overwrite.SourceDirectories != nil {
		merged.SourceDirectories = overwrite.SourceDirectories
	}
	if overwrite.Strict != nil {
		merged.Strict = overwrite.Strict
	}
	if overwrite.TaintModelsPath != nil {
		merged.TaintModelsPath = overwrite.TaintModelsPath
	}
	if overwrite.Targets != nil {
		merged.Targets = overwrite.Targets
	}
	if overwrite.Typeshed != nil {
		merged.Typeshed = overwrite.Typeshed
	}
	if overwrite.UnwatchedDependency != nil {
		merged.UnwatchedDependency = overwrite.UnwatchedDependency
	}
	if overwrite.UseBuck2 != nil {
		merged.UseBuck2 = overwrite.UseBuck2
	}
	if overwrite.VersionHash != nil {
		merged.VersionHash = overwrite.VersionHash
	}

	return &merged
}

// appendLayers concatenates accumulating list fields into a fresh slice.
// The result is nil only when both layers left the field unset.
func appendLayers(base, overwrite []string) []string {
	if base == nil && overwrite == nil {
		return nil
	}
	combined := make([]string, 0, len(base)+len(overwrite))
	combined = append(combined, base...)
	combined = append(combined, overwrite...)
	return combined
}

// mergeIDEFeatures merges the four toggles individually so a layer setting
// only one of them does not clear the other three.
func mergeIDEFeatures(base, overwrite *IDEFeatures) *IDEFeatures {
	if base == nil {
		merged := *overwrite
		return &merged
	}
	merged := *base
	if overwrite.HoverEnabled != nil {
		merged.HoverEnabled = overwrite.HoverEnabled
	}
	if overwrite.GoToDefinitionEnabled != nil {
		merged.GoToDefinitionEnabled = overwrite.GoToDefinitionEnabled
	}
	if overwrite.FindSymbolsEnabled != nil {
		merged.FindSymbolsEnabled = overwrite.FindSymbolsEnabled
	}
	if overwrite.FindAllReferencesEnabled != nil {
		merged.FindAllReferencesEnabled = overwrite.FindAllReferencesEnabled
	}
	return &merged
}

// mergeSharedMemory merges the sizing knobs individually.
func mergeSharedMemory(base, overwrite *SharedMemory) *SharedMemory {
	if base == nil {
		merged := *overwrite
		return &merged
	}
	merged := *base
	if overwrite.HeapSize != nil {
		merged.HeapSize = overwrite.HeapSize
	}
	if overwrite.DependencyTablePower != nil {
		merged.DependencyTablePower = overwrite.DependencyTablePower
	}
	if overwrite.HashTablePower != nil {
		merged.HashTablePower = overwrite.HashTablePower
	}
	return &merged
}
