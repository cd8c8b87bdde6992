package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var headersCmd = &cobra.Command{
	Use:   "headers",
	Short: "List the HTTP headers the engine inspects",
	Args:  cobra.NoArgs,
	RunE:  runHeaders,
}

func init() {
	rootCmd.AddCommand(headersCmd)
}

func runHeaders(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	for _, name := range eng.HTTPHeaders() {
		fmt.Println(name)
	}
	return nil
}
