package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/adnsv/go-xlsx/crypt"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt <in.xlsx> <out.xlsx>",
	Short: "Encrypt a package with --password",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if password == "" {
			return errors.New("--password is required")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "read input")
		}
		if crypt.IsCompound(data) {
			return errors.New("input is already encrypted")
		}
		env, err := crypt.Encrypt(data, password, crypt.Options{SpinCount: spinCount})
		if err != nil {
			return err
		}
		return errors.Wrap(os.WriteFile(args[1], env, 0666), "write output")
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <in.xlsx> <out.xlsx>",
	Short: "Decrypt a package protected by --password",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "read input")
		}
		pkg, err := crypt.Decrypt(data, password)
		if err != nil {
			return err
		}
		return errors.Wrap(os.WriteFile(args[1], pkg, 0666), "write output")
	},
}

func init() {
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)
}
