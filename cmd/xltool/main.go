// Command xltool inspects and edits spreadsheet packages.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adnsv/go-xlsx/crypt"
	"github.com/adnsv/go-xlsx/xl"
)

var (
	verbose   bool
	password  string
	spinCount int
)

var rootCmd = &cobra.Command{
	Use:   "xltool",
	Short: "Inspect and edit .xlsx workbooks",
	Long: `xltool reads and writes SpreadsheetML packages, including
password-protected ones.

Commands:
  info         Summarize sheets, names and package parts.
  roundtrip    Load a workbook and save it again.
  encrypt      Wrap a package in an encrypted container.
  decrypt      Unwrap an encrypted package.
  insert-rows  Insert rows into a sheet, rewriting references.
  remove-rows  Remove rows from a sheet, rewriting references.
  insert-cols  Insert columns into a sheet.
  remove-cols  Remove columns from a sheet.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log load and save events to stderr")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Password of an encrypted workbook")
	rootCmd.PersistentFlags().IntVar(&spinCount, "spin-count", crypt.DefaultSpinCount, "Key derivation iterations used when encrypting")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// options builds the load/save options from the global flags.
func options() (xl.Options, func()) {
	opts := xl.DefaultOptions()
	opts.Password = password
	opts.SpinCount = spinCount
	if !verbose {
		return opts, func() {}
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return opts, func() {}
	}
	opts.Logger = logger
	return opts, func() { _ = logger.Sync() }
}
