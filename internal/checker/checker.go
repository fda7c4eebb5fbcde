// Package checker drives the external type-checking backend: it writes the
// JSON argument file describing a check, invokes the backend binary, and
// decodes the diagnostics it prints.
package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pyrecheck/pyre-client/internal/configuration"
	"github.com/pyrecheck/pyre-client/internal/logging"
)

// TypeError is one diagnostic reported by the backend.
type TypeError struct {
	Line               int    `json:"line"`
	Column             int    `json:"column"`
	StopLine           int    `json:"stop_line"`
	StopColumn         int    `json:"stop_column"`
	Path               string `json:"path"`
	Code               int    `json:"code"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	LongDescription    string `json:"long_description"`
	ConciseDescription string `json:"concise_description"`
}

func (e TypeError) String() string {
	return fmt.Sprintf("%s:%d:%d %s [%d]: %s", e.Path, e.Line, e.Column, e.Name, e.Code, e.Description)
}

// CommandFailedError reports a backend invocation that did not exit cleanly.
type CommandFailedError struct {
	Binary   string
	ExitCode int
	Stderr   string
}

func (e *CommandFailedError) Error() string {
	message := fmt.Sprintf("`%s` exited with code %d", e.Binary, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		message += ": " + stderr
	}
	return message
}

// ResponseDecodeError reports backend output that is not a valid diagnostics
// array.
type ResponseDecodeError struct {
	Err error
}

func (e *ResponseDecodeError) Error() string {
	return fmt.Sprintf("cannot decode checker response as JSON: %v", e.Err)
}

func (e *ResponseDecodeError) Unwrap() error { return e.Err }

// Arguments is the document handed to the backend through the argument file.
type Arguments struct {
	LogIdentifier       string                             `json:"log_identifier,omitempty"`
	GlobalRoot          string                             `json:"global_root"`
	RelativeLocalRoot   string                             `json:"relative_local_root,omitempty"`
	SourceDirectories   []string                           `json:"source_directories,omitempty"`
	Targets             []string                           `json:"targets,omitempty"`
	SearchPath          []string                           `json:"search_path,omitempty"`
	Excludes            []string                           `json:"excludes,omitempty"`
	Extensions          []configuration.Extension          `json:"extensions,omitempty"`
	IgnoreAllErrors     []string                           `json:"ignore_all_errors,omitempty"`
	DoNotIgnoreErrorsIn []string                           `json:"do_not_ignore_errors_in,omitempty"`
	Strict              bool                               `json:"strict"`
	Debug               bool                               `json:"debug"`
	Sequential          bool                               `json:"sequential"`
	ShowErrorTraces     bool                               `json:"show_error_traces"`
	NumberOfWorkers     int                                `json:"number_of_workers,omitempty"`
	PythonVersion       string                             `json:"python_version,omitempty"`
	SharedMemory        configuration.SharedMemory         `json:"shared_memory"`
	Typeshed            string                             `json:"typeshed,omitempty"`
	TaintModelsPath     []string                           `json:"taint_models_path,omitempty"`
	UnwatchedDependency *configuration.UnwatchedDependency `json:"unwatched_dependency,omitempty"`
	Profiling           bool                               `json:"enable_profiling"`
	MemoryProfiling     bool                               `json:"enable_memory_profiling"`
}

// ArgumentsFromConfiguration projects the resolved configuration and the
// check-specific flags into a backend argument document.
func ArgumentsFromConfiguration(
	resolved *configuration.Configuration,
	arguments configuration.CommandArguments,
	logIdentifier string,
) *Arguments {
	checkArguments := &Arguments{
		LogIdentifier:       logIdentifier,
		GlobalRoot:          resolved.ProjectRoot,
		RelativeLocalRoot:   resolved.RelativeLocalRoot,
		SourceDirectories:   resolved.SourceDirectories,
		Targets:             resolved.Targets,
		SearchPath:          resolved.SearchPath,
		Excludes:            resolved.Excludes,
		Extensions:          resolved.Extensions,
		IgnoreAllErrors:     resolved.IgnoreAllErrors,
		DoNotIgnoreErrorsIn: resolved.DoNotIgnoreErrorsIn,
		Strict:              resolved.Strict,
		Debug:               arguments.Debug,
		Sequential:          arguments.Sequential,
		ShowErrorTraces:     arguments.ShowErrorTraces,
		NumberOfWorkers:     resolved.NumberOfWorkers,
		SharedMemory:        resolved.SharedMemory,
		Typeshed:            resolved.Typeshed,
		TaintModelsPath:     resolved.TaintModelsPath,
		UnwatchedDependency: resolved.UnwatchedDependency,
		Profiling:           arguments.EnableProfiling,
		MemoryProfiling:     arguments.EnableMemory,
	}
	if resolved.PythonVersion != nil {
		checkArguments.PythonVersion = resolved.PythonVersion.String()
	}
	return checkArguments
}

// WriteArgumentFile serializes the arguments into the tool's private state
// directory and returns the file path.
func WriteArgumentFile(dotPyreDirectory string, arguments *Arguments) (string, error) {
	if err := os.MkdirAll(dotPyreDirectory, 0o755); err != nil {
		return "", fmt.Errorf("cannot create state directory `%s`: %w", dotPyreDirectory, err)
	}
	data, err := json.MarshalIndent(arguments, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dotPyreDirectory, fmt.Sprintf("check_arguments_%s.json", arguments.LogIdentifier))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("cannot write argument file `%s`: %w", path, err)
	}
	return path, nil
}

// Run invokes `<binary> newcheck <argumentFilePath>` and decodes the
// diagnostics array the backend prints on success. The backend's stdout is
// fully drained before being interpreted. A non-zero exit is a
// CommandFailedError regardless of output; a zero exit with a non-empty
// diagnostics array is a user-visible check failure, reported by the caller.
func Run(ctx context.Context, binary, argumentFilePath string) ([]TypeError, error) {
	cmd := exec.CommandContext(ctx, binary, "newcheck", argumentFilePath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Debug().Str("binary", binary).Str("argument_file", argumentFilePath).Msg("Invoking checker")
	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, &CommandFailedError{
				Binary:   binary,
				ExitCode: exitError.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return nil, fmt.Errorf("cannot invoke `%s`: %w", binary, err)
	}

	var typeErrors []TypeError
	if err := json.Unmarshal(stdout.Bytes(), &typeErrors); err != nil {
		return nil, &ResponseDecodeError{Err: err}
	}
	return typeErrors, nil
}
