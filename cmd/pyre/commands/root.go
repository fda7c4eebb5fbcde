// Package commands provides the CLI commands for the pyre client.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pyrecheck/pyre-client/internal/configuration"
	"github.com/pyrecheck/pyre-client/internal/logging"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

// rootFlags backs the persistent flag surface. Optional flags are projected
// into pointer-valued CommandArguments fields only when actually supplied,
// so that absence means "inherit from a configuration file".
var rootFlags struct {
	localConfiguration string
	debug              bool
	sequential         bool
	strict             bool
	showErrorTraces    bool
	output             string
	enableProfiling    bool
	enableMemory       bool
	noninteractive     bool
	loggingSections    []string
	logIdentifier      string
	logger             string
	logLevel           string

	targets             []string
	sourceDirectories   []string
	doNotIgnoreErrorsIn []string
	buckMode            string
	searchPath          []string
	binary              string
	exclude             []string
	typeshed            string
	dotPyreDirectory    string
	isolationPrefix     string
	pythonVersion       string

	sharedMemoryHeapSize             int
	sharedMemoryDependencyTablePower int
	sharedMemoryHashTablePower       int
	numberOfWorkers                  int

	enableHover             bool
	enableGoToDefinition    bool
	enableFindSymbols       bool
	enableFindAllReferences bool
	useBuck2                bool
}

var rootCmd = &cobra.Command{
	Use:   "pyre",
	Short: "Client for the pyre type checker",
	Long: `pyre resolves the project configuration (.pyre_configuration and
.pyre_configuration.local files plus command-line overrides) and delegates
type checking to the backend binary.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env file can supply PYRE_* overrides during development.
		_ = godotenv.Load()
		logging.Init(logging.Config{
			Level:          logging.ParseLevel(rootFlags.logLevel),
			Noninteractive: rootFlags.noninteractive,
			Sections:       rootFlags.loggingSections,
		})
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlags.localConfiguration, "local-configuration", "", "Path to a local configuration subtree; missing local configuration is then an error")
	flags.BoolVar(&rootFlags.debug, "debug", false, "Enable backend debug mode")
	flags.BoolVar(&rootFlags.sequential, "sequential", false, "Run the backend without parallelism")
	flags.BoolVar(&rootFlags.strict, "strict", false, "Enable strict mode")
	flags.BoolVar(&rootFlags.showErrorTraces, "show-error-traces", false, "Show long error descriptions")
	flags.StringVar(&rootFlags.output, "output", "text", "Diagnostics output format (text|json)")
	flags.BoolVar(&rootFlags.enableProfiling, "enable-profiling", false, "Profile the backend run")
	flags.BoolVar(&rootFlags.enableMemory, "enable-memory-profiling", false, "Profile backend memory usage")
	flags.BoolVar(&rootFlags.noninteractive, "noninteractive", false, "Plain JSON log output")
	flags.StringSliceVar(&rootFlags.loggingSections, "logging-sections", nil, "Restrict logging to the named sections")
	flags.StringVar(&rootFlags.logIdentifier, "log-identifier", "", "Identifier recorded with this run's logs")
	flags.StringVar(&rootFlags.logger, "logger", "", "Logger command forwarded to the backend")
	flags.StringVar(&rootFlags.logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")

	flags.StringArrayVar(&rootFlags.targets, "target", nil, "Buck target to check")
	flags.StringArrayVar(&rootFlags.sourceDirectories, "source-directory", nil, "Directory containing sources to check")
	flags.StringArrayVar(&rootFlags.doNotIgnoreErrorsIn, "do-not-ignore-errors-in", nil, "Directory in which errors stay enabled")
	flags.StringVar(&rootFlags.buckMode, "buck-mode", "", "Buck build mode")
	flags.StringArrayVar(&rootFlags.searchPath, "search-path", nil, "Additional module search path entry (globs allowed)")
	flags.StringVar(&rootFlags.binary, "binary", "", "Path to the backend binary")
	flags.StringArrayVar(&rootFlags.exclude, "exclude", nil, "Pattern of files to exclude")
	flags.StringVar(&rootFlags.typeshed, "typeshed", "", "Path to the typeshed stubs")
	flags.StringVar(&rootFlags.dotPyreDirectory, "dot-pyre-directory", "", "Override the private state directory")
	flags.StringVar(&rootFlags.isolationPrefix, "isolation-prefix", "", "Buck isolation prefix")
	flags.StringVar(&rootFlags.pythonVersion, "python-version", "", "Target Python version (X.Y.Z)")

	flags.IntVar(&rootFlags.sharedMemoryHeapSize, "shared-memory-heap-size", 0, "Shared memory heap size")
	flags.IntVar(&rootFlags.sharedMemoryDependencyTablePower, "shared-memory-dependency-table-power", 0, "Shared memory dependency table power")
	flags.IntVar(&rootFlags.sharedMemoryHashTablePower, "shared-memory-hash-table-power", 0, "Shared memory hash table power")
	flags.IntVar(&rootFlags.numberOfWorkers, "number-of-workers", 0, "Number of backend workers")

	flags.BoolVar(&rootFlags.enableHover, "enable-hover", false, "Enable IDE hover")
	flags.BoolVar(&rootFlags.enableGoToDefinition, "enable-go-to-definition", false, "Enable IDE go-to-definition")
	flags.BoolVar(&rootFlags.enableFindSymbols, "enable-find-symbols", false, "Enable IDE find-symbols")
	flags.BoolVar(&rootFlags.enableFindAllReferences, "enable-find-all-references", false, "Enable IDE find-all-references")
	flags.BoolVar(&rootFlags.useBuck2, "use-buck2", false, "Build targets with buck2")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(debugCmd)
}

// commandArguments projects the flag surface into CommandArguments, turning
// flags the user did not touch into nil fields.
func commandArguments(cmd *cobra.Command) configuration.CommandArguments {
	flags := cmd.Flags()
	arguments := configuration.CommandArguments{
		Debug:               rootFlags.debug,
		Sequential:          rootFlags.sequential,
		Strict:              rootFlags.strict,
		ShowErrorTraces:     rootFlags.showErrorTraces,
		Output:              rootFlags.output,
		EnableProfiling:     rootFlags.enableProfiling,
		EnableMemory:        rootFlags.enableMemory,
		Noninteractive:      rootFlags.noninteractive,
		LoggingSections:     rootFlags.loggingSections,
		Targets:             rootFlags.targets,
		SourceDirectories:   rootFlags.sourceDirectories,
		DoNotIgnoreErrorsIn: rootFlags.doNotIgnoreErrorsIn,
		SearchPath:          rootFlags.searchPath,
		Exclude:             rootFlags.exclude,
	}

	setIfChanged := func(name string, target **string, value *string) {
		if flags.Changed(name) {
			*target = value
		}
	}
	setIfChanged("local-configuration", &arguments.LocalConfiguration, &rootFlags.localConfiguration)
	setIfChanged("log-identifier", &arguments.LogIdentifier, &rootFlags.logIdentifier)
	setIfChanged("logger", &arguments.Logger, &rootFlags.logger)
	setIfChanged("buck-mode", &arguments.BuckMode, &rootFlags.buckMode)
	setIfChanged("binary", &arguments.Binary, &rootFlags.binary)
	setIfChanged("typeshed", &arguments.Typeshed, &rootFlags.typeshed)
	setIfChanged("dot-pyre-directory", &arguments.DotPyreDirectory, &rootFlags.dotPyreDirectory)
	setIfChanged("isolation-prefix", &arguments.IsolationPrefix, &rootFlags.isolationPrefix)
	setIfChanged("python-version", &arguments.PythonVersion, &rootFlags.pythonVersion)

	setIntIfChanged := func(name string, target **int, value *int) {
		if flags.Changed(name) {
			*target = value
		}
	}
	setIntIfChanged("shared-memory-heap-size", &arguments.SharedMemoryHeapSize, &rootFlags.sharedMemoryHeapSize)
	setIntIfChanged("shared-memory-dependency-table-power", &arguments.SharedMemoryDependencyTablePower, &rootFlags.sharedMemoryDependencyTablePower)
	setIntIfChanged("shared-memory-hash-table-power", &arguments.SharedMemoryHashTablePower, &rootFlags.sharedMemoryHashTablePower)
	setIntIfChanged("number-of-workers", &arguments.NumberOfWorkers, &rootFlags.numberOfWorkers)

	setBoolIfChanged := func(name string, target **bool, value *bool) {
		if flags.Changed(name) {
			*target = value
		}
	}
	setBoolIfChanged("enable-hover", &arguments.EnableHover, &rootFlags.enableHover)
	setBoolIfChanged("enable-go-to-definition", &arguments.EnableGoToDefinition, &rootFlags.enableGoToDefinition)
	setBoolIfChanged("enable-find-symbols", &arguments.EnableFindSymbols, &rootFlags.enableFindSymbols)
	setBoolIfChanged("enable-find-all-references", &arguments.EnableFindAllReferences, &rootFlags.enableFindAllReferences)
	setBoolIfChanged("use-buck2", &arguments.UseBuck2, &rootFlags.useBuck2)

	return arguments
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
