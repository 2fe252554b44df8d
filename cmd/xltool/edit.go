package main

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adnsv/go-xlsx/xl"
)

var (
	outputPath   string
	keepPassword bool
)

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip <in.xlsx> <out.xlsx>",
	Short: "Load a workbook and save it again",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, done := options()
		defer done()
		wb, err := xl.OpenFile(args[0], opts)
		if err != nil {
			return err
		}
		return save(wb, args[1], opts)
	},
}

// editCmd builds one of the row and column edit commands.
func editCmd(use, short string, apply func(sh *xl.Sheet, root, count int)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <file.xlsx> <sheet> <index> [count]",
		Short: short,
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := strconv.Atoi(args[2])
			if err != nil || root < 1 {
				return errors.Errorf("invalid index %q", args[2])
			}
			count := 1
			if len(args) == 4 {
				if count, err = strconv.Atoi(args[3]); err != nil || count < 1 {
					return errors.Errorf("invalid count %q", args[3])
				}
			}
			opts, done := options()
			defer done()
			wb, err := xl.OpenFile(args[0], opts)
			if err != nil {
				return err
			}
			sh := wb.Sheet(args[1])
			if sh == nil {
				return errors.Errorf("no sheet named '%s'", args[1])
			}
			apply(sh, root, count)
			if opts.Logger != nil {
				opts.Logger.Info(use, zap.String("sheet", sh.Name), zap.Int("index", root), zap.Int("count", count))
			}
			out := outputPath
			if out == "" {
				out = args[0]
			}
			return save(wb, out, opts)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: overwrite the input)")
	return cmd
}

// save writes wb, encrypted again only when asked to.
func save(wb *xl.Workbook, name string, opts xl.Options) error {
	if !keepPassword {
		opts.Password = ""
	}
	return errors.Wrapf(wb.SaveAs(name, opts), "save %s", name)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&keepPassword, "keep-password", false, "Encrypt the saved workbook with --password")
	rootCmd.AddCommand(roundtripCmd)
	rootCmd.AddCommand(editCmd("insert-rows", "Insert rows before index", (*xl.Sheet).InsertRows))
	rootCmd.AddCommand(editCmd("remove-rows", "Remove rows starting at index", (*xl.Sheet).RemoveRows))
	rootCmd.AddCommand(editCmd("insert-cols", "Insert columns before index", (*xl.Sheet).InsertCols))
	rootCmd.AddCommand(editCmd("remove-cols", "Remove columns starting at index", (*xl.Sheet).RemoveCols))
}
