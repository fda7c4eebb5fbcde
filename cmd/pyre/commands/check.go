package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/pyrecheck/pyre-client/internal/checker"
	"github.com/pyrecheck/pyre-client/internal/configuration"
	"github.com/pyrecheck/pyre-client/internal/logging"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a one-off type check",
	Long: `Resolve the effective configuration, hand it to the backend binary,
and report the type errors it finds. Exits non-zero when type errors exist.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	arguments := commandArguments(cmd)

	workingDirectory, err := os.Getwd()
	if err != nil {
		return err
	}
	resolved, _, err := configuration.Create(arguments, workingDirectory)
	if err != nil {
		return err
	}
	if resolved.Binary == "" {
		return fmt.Errorf("no `binary` is configured; set it in %s or pass --binary", resolved.ProjectRoot)
	}

	logIdentifier := ulid.Make().String()
	if arguments.LogIdentifier != nil {
		logIdentifier = *arguments.LogIdentifier
	}

	checkArguments := checker.ArgumentsFromConfiguration(resolved, arguments, logIdentifier)
	argumentFile, err := checker.WriteArgumentFile(resolved.DotPyreDirectory, checkArguments)
	if err != nil {
		return err
	}
	logging.Info().
		Str("log_identifier", logIdentifier).
		Str("project_root", resolved.ProjectRoot).
		Msg("Starting check")

	typeErrors, err := checker.Run(cmd.Context(), resolved.Binary, argumentFile)
	if err != nil {
		return err
	}
	if err := printTypeErrors(typeErrors, rootFlags.output); err != nil {
		return err
	}
	if len(typeErrors) > 0 {
		return fmt.Errorf("found %d type error(s)", len(typeErrors))
	}
	logging.Info().Msg("No type errors found")
	return nil
}

func printTypeErrors(typeErrors []checker.TypeError, output string) error {
	if output == "json" {
		data, err := json.MarshalIndent(typeErrors, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	for _, typeError := range typeErrors {
		fmt.Println(typeError.String())
		if rootFlags.showErrorTraces && typeError.LongDescription != "" {
			fmt.Println("  " + typeError.LongDescription)
		}
	}
	return nil
}
