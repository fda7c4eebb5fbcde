package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPointer(b bool) *bool       { return &b }
func intPointer(i int) *int          { return &i }
func stringPointer(s string) *string { return &s }

func TestMergeOverwriteWins(t *testing.T) {
	base := &PartialConfiguration{
		Binary:          stringPointer("/base/binary"),
		NumberOfWorkers: intPointer(4),
		Strict:          boolPointer(false),
	}
	overwrite := &PartialConfiguration{
		Binary: stringPointer("/overwrite/binary"),
		Strict: boolPointer(true),
	}

	merged := Merge(base, overwrite)
	assert.Equal(t, "/overwrite/binary", *merged.Binary)
	assert.True(t, *merged.Strict)
	// Fields the overwrite layer left unset are inherited.
	require.NotNil(t, merged.NumberOfWorkers)
	assert.Equal(t, 4, *merged.NumberOfWorkers)
}

func TestMergeEmptyListOverrides(t *testing.T) {
	base := &PartialConfiguration{
		Strict:  boolPointer(true),
		Targets: []string{"//foo:bar"},
	}
	overwrite := &PartialConfiguration{
		Targets: []string{},
	}

	merged := Merge(base, overwrite)
	// strict was not set by the overwrite layer: inherited.
	require.NotNil(t, merged.Strict)
	assert.True(t, *merged.Strict)
	// An explicitly present empty list wholly replaces the base list.
	require.NotNil(t, merged.Targets)
	assert.Empty(t, merged.Targets)
}

func TestMergeUnsetListInherits(t *testing.T) {
	base := &PartialConfiguration{Targets: []string{"//foo:bar"}}
	merged := Merge(base, &PartialConfiguration{})
	assert.Equal(t, []string{"//foo:bar"}, merged.Targets)
}

func TestMergeAccumulatingFields(t *testing.T) {
	base := &PartialConfiguration{
		DoNotIgnoreErrorsIn: []string{"/a"},
		OtherCriticalFiles:  []string{"setup.py"},
	}
	overwrite := &PartialConfiguration{
		DoNotIgnoreErrorsIn: []string{"/b"},
		OtherCriticalFiles:  []string{"requirements.txt"},
	}

	merged := Merge(base, overwrite)
	assert.Equal(t, []string{"/a", "/b"}, merged.DoNotIgnoreErrorsIn)
	assert.Equal(t, []string{"setup.py", "requirements.txt"}, merged.OtherCriticalFiles)

	// Inputs are untouched.
	assert.Equal(t, []string{"/a"}, base.DoNotIgnoreErrorsIn)
	assert.Equal(t, []string{"/b"}, overwrite.DoNotIgnoreErrorsIn)
}

func TestMergeIDEFeaturesPerToggle(t *testing.T) {
	base := &PartialConfiguration{
		IDEFeatures: &IDEFeatures{HoverEnabled: boolPointer(true)},
	}
	overwrite := &PartialConfiguration{
		IDEFeatures: &IDEFeatures{GoToDefinitionEnabled: boolPointer(true)},
	}

	merged := Merge(base, overwrite)
	require.NotNil(t, merged.IDEFeatures)
	require.NotNil(t, merged.IDEFeatures.HoverEnabled)
	assert.True(t, *merged.IDEFeatures.HoverEnabled)
	require.NotNil(t, merged.IDEFeatures.GoToDefinitionEnabled)
	assert.True(t, *merged.IDEFeatures.GoToDefinitionEnabled)
}

func TestMergeSharedMemoryPerKnob(t *testing.T) {
	base := &PartialConfiguration{
		SharedMemory: &SharedMemory{HeapSize: intPointer(1024)},
	}
	overwrite := &PartialConfiguration{
		SharedMemory: &SharedMemory{HashTablePower: intPointer(20)},
	}

	merged := Merge(base, overwrite)
	require.NotNil(t, merged.SharedMemory)
	require.NotNil(t, merged.SharedMemory.HeapSize)
	assert.Equal(t, 1024, *merged.SharedMemory.HeapSize)
	require.NotNil(t, merged.SharedMemory.HashTablePower)
	assert.Equal(t, 20, *merged.SharedMemory.HashTablePower)
}
