package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyrecheck/pyre-client/internal/configuration"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debug utilities",
	Long:  `Debug utilities for troubleshooting configuration resolution.`,
}

var debugConfigurationCmd = &cobra.Command{
	Use:   "configuration",
	Short: "Show the resolved configuration",
	RunE:  runDebugConfiguration,
}

func init() {
	debugCmd.AddCommand(debugConfigurationCmd)
}

func runDebugConfiguration(cmd *cobra.Command, args []string) error {
	workingDirectory, err := os.Getwd()
	if err != nil {
		return err
	}
	resolved, warnings, err := configuration.Create(commandArguments(cmd), workingDirectory)
	if err != nil {
		return err
	}

	document := struct {
		Configuration *configuration.Configuration `json:"configuration"`
		Warnings      []string                     `json:"warnings,omitempty"`
	}{Configuration: resolved, Warnings: warnings}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
