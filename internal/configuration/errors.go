package configuration

import "fmt"

// DecodeError reports a configuration field whose runtime type does not
// match the schema. It is fatal for the whole decode.
type DecodeError struct {
	Field    string
	Expected string
	Actual   any
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf(
		"configuration field `%s` is expected to have type %s but got: `%v`",
		e.Field, e.Expected, e.Actual)
}

// MissingLocalConfigurationError reports an explicitly requested local
// configuration that discovery could not find. This is a user-facing error,
// never a silent fallback.
type MissingLocalConfigurationError struct {
	SearchBase string
	Filename   string
}

func (e *MissingLocalConfigurationError) Error() string {
	return fmt.Sprintf(
		"a local configuration path was explicitly specified, but no %s file was found in %s or its parents",
		e.Filename, e.SearchBase)
}
