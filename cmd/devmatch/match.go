package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var matchProperties []string

var matchCmd = &cobra.Command{
	Use:   "match <user-agent>",
	Short: "Classify a User-Agent string",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().StringArrayVar(&matchProperties, "property", nil,
		"property to report (repeatable; default: all loaded properties)")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eng, err := openEngine(matchProperties...)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	session, err := eng.MatchAgent(args[0])
	if err != nil {
		return err
	}
	defer session.Release()

	names := matchProperties
	if len(names) == 0 {
		names = eng.AvailableProperties()
	}

	for _, name := range names {
		value, found, err := session.Property(name)
		if err != nil {
			return err
		}
		if !found {
			logger.Warn("property not in loaded data", zap.String("property", name))
			continue
		}
		fmt.Printf("%s: %s\n", name, value)
	}

	if matched, ok, err := session.MatchedAgent(); err == nil && ok {
		fmt.Printf("MatchedAgent: %s\n", matched)
	}
	return nil
}
