// Command nanohs parses a module from a source file and prints its
// top-level declarations.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	nanohs "github.com/mniip/nanohs"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:          "nanohs",
	Short:        "nanohs",
	SilenceUsage: true,
	Long:         "A lexer and parser for a small non-strict functional language core.",
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a source file and print its AST",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logrus.StandardLogger()
		if level, err := logrus.ParseLevel(logLevel); err == nil {
			logger.SetLevel(level)
		}

		if len(args) != 1 {
			_ = cmd.Help()
			return fmt.Errorf("need to specify argument <file>")
		}
		path := args[0]

		src, err := os.ReadFile(path)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"phase": "read",
				"file":  path,
			}).Errorf("can't read source file: %s", err)
			return err
		}

		cfg := nanohs.NewConfig()
		interner := nanohs.NewInterner()
		lex := nanohs.NewLexer(src, interner, cfg)
		parser := nanohs.NewParser(lex, interner, cfg)

		module, err := parser.ParseModule()
		if err != nil {
			fields := logrus.Fields{"phase": "parse", "file": path}
			if pe, ok := err.(nanohs.ParseError); ok {
				fields["line"] = pe.Span.Start.Line
				fields["column"] = pe.Span.Start.Column
			} else if le, ok := err.(nanohs.LexError); ok {
				fields["line"] = le.Position.Line
				fields["column"] = le.Position.Column
			}
			logger.WithFields(fields).Errorf("%s", err)
			return err
		}

		fmt.Println(dumpAST(module))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logging verbosity (debug, info, warn, error)")
	rootCmd.AddCommand(parseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
