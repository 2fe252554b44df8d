package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/adnsv/go-xlsx/crypt"
	"github.com/adnsv/go-xlsx/opc"
	"github.com/adnsv/go-xlsx/ref"
	"github.com/adnsv/go-xlsx/xl"
)

var (
	infoFormat string
	infoParts  bool
	infoRefs   bool
)

var infoCmd = &cobra.Command{
	Use:   "info <file.xlsx>",
	Short: "Summarize a workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().StringVarP(&infoFormat, "format", "f", "text", "Output format: text or yaml")
	infoCmd.Flags().BoolVar(&infoParts, "parts", false, "List package parts with their sizes")
	infoCmd.Flags().BoolVar(&infoRefs, "refs", false, "List the ranges each sheet's formulas refer to")
	rootCmd.AddCommand(infoCmd)
}

type bookInfo struct {
	File         string      `yaml:"file"`
	Size         string      `yaml:"size"`
	Encrypted    bool        `yaml:"encrypted,omitempty"`
	Application  string      `yaml:"application,omitempty"`
	Date1904     bool        `yaml:"date1904,omitempty"`
	Sheets       []sheetInfo `yaml:"sheets"`
	DefinedNames []nameInfo  `yaml:"definedNames,omitempty"`
	Parts        []partInfo  `yaml:"parts,omitempty"`
}

type sheetInfo struct {
	Name        string   `yaml:"name"`
	State       string   `yaml:"state,omitempty"`
	Dimension   string   `yaml:"dimension,omitempty"`
	Cells       int      `yaml:"cells"`
	Formulas    int      `yaml:"formulas,omitempty"`
	BadFormulas int      `yaml:"badFormulas,omitempty"`
	References  []string `yaml:"references,omitempty"`
	Merges      int      `yaml:"merges,omitempty"`
	Comments    int      `yaml:"comments,omitempty"`
	Drawings    int      `yaml:"drawings,omitempty"`
	Tables      []string `yaml:"tables,omitempty"`
	PivotTables []string `yaml:"pivotTables,omitempty"`
}

type nameInfo struct {
	Name     string `yaml:"name"`
	Scope    string `yaml:"scope,omitempty"`
	RefersTo string `yaml:"refersTo"`
}

type partInfo struct {
	Name string `yaml:"name"`
	Size string `yaml:"size"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	if infoFormat != "text" && infoFormat != "yaml" {
		return errors.Errorf("invalid format: %s (must be text or yaml)", infoFormat)
	}
	opts, done := options()
	defer done()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	info := bookInfo{File: args[0], Size: humanize.Bytes(uint64(len(data)))}
	if crypt.IsCompound(data) {
		info.Encrypted = true
		if opts.Password == "" {
			return errors.New("workbook is encrypted; pass --password")
		}
		if data, err = crypt.Decrypt(data, opts.Password); err != nil {
			return err
		}
	}
	pkg, err := opc.OpenBytes(data)
	if err != nil {
		return err
	}
	if infoParts {
		for _, name := range pkg.SortedParts() {
			info.Parts = append(info.Parts, partInfo{Name: name, Size: humanize.Bytes(uint64(pkg.Size(name)))})
		}
	}
	wb, err := xl.Read(pkg, opts)
	if err != nil {
		return err
	}
	describe(&info, wb)

	if infoFormat == "yaml" {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return err
		}
		return enc.Close()
	}
	printInfo(cmd.OutOrStdout(), &info)
	return nil
}

func describe(info *bookInfo, wb *xl.Workbook) {
	info.Application = wb.AppName
	info.Date1904 = wb.Date1904
	for _, sh := range wb.Sheets {
		si := sheetInfo{
			Name:     sh.Name,
			State:    string(sh.State),
			Merges:   len(sh.MergeCells),
			Comments: len(sh.Comments),
		}
		if rng, ok := sh.Dimension(); ok {
			si.Dimension = rng.Coordinate()
		}
		seen := map[string]bool{}
		for _, c := range sh.Cells() {
			si.Cells++
			if !c.HasFormula() {
				continue
			}
			si.Formulas++
			f := c.Formula()
			if ref.CheckFormula(f) != nil {
				si.BadFormulas++
			}
			if !infoRefs {
				continue
			}
			for _, r := range ref.FormulaReferences(f) {
				if !seen[r] {
					seen[r] = true
					si.References = append(si.References, r)
				}
			}
		}
		if sh.Drawing != nil {
			si.Drawings = len(sh.Drawing.Anchors)
		}
		for _, t := range sh.Tables {
			si.Tables = append(si.Tables, t.Name+" "+t.Ref.Coordinate())
		}
		for _, pt := range sh.PivotTables {
			si.PivotTables = append(si.PivotTables, pt.Name)
		}
		info.Sheets = append(info.Sheets, si)
	}
	for _, dn := range wb.DefinedNames {
		ni := nameInfo{Name: dn.Name, RefersTo: dn.RefersTo}
		if dn.Scope != nil {
			ni.Scope = dn.Scope.Name
		}
		info.DefinedNames = append(info.DefinedNames, ni)
	}
}

func printInfo(w io.Writer, info *bookInfo) {
	fmt.Fprintf(w, "%s (%s", info.File, info.Size)
	if info.Encrypted {
		fmt.Fprint(w, ", encrypted")
	}
	fmt.Fprintln(w, ")")
	if info.Application != "" {
		fmt.Fprintf(w, "  written by %s\n", info.Application)
	}
	for _, s := range info.Sheets {
		var extra []string
		if s.State != "" {
			extra = append(extra, s.State)
		}
		if s.Formulas > 0 {
			extra = append(extra, fmt.Sprintf("%d formulas", s.Formulas))
		}
		if s.BadFormulas > 0 {
			extra = append(extra, fmt.Sprintf("%d malformed", s.BadFormulas))
		}
		if s.Drawings > 0 {
			extra = append(extra, fmt.Sprintf("%d drawing objects", s.Drawings))
		}
		if s.Comments > 0 {
			extra = append(extra, fmt.Sprintf("%d comments", s.Comments))
		}
		fmt.Fprintf(w, "  sheet %q %s: %s cells", s.Name, s.Dimension, humanize.Comma(int64(s.Cells)))
		if len(extra) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(extra, ", "))
		}
		fmt.Fprintln(w)
		for _, t := range s.Tables {
			fmt.Fprintf(w, "    table %s\n", t)
		}
		for _, p := range s.PivotTables {
			fmt.Fprintf(w, "    pivot %s\n", p)
		}
		if len(s.References) > 0 {
			fmt.Fprintf(w, "    refs %s\n", strings.Join(s.References, " "))
		}
	}
	for _, n := range info.DefinedNames {
		if n.Scope != "" {
			fmt.Fprintf(w, "  name %s [%s] = %s\n", n.Name, n.Scope, n.RefersTo)
		} else {
			fmt.Fprintf(w, "  name %s = %s\n", n.Name, n.RefersTo)
		}
	}
	for _, p := range info.Parts {
		fmt.Fprintf(w, "  %-48s %s\n", p.Name, p.Size)
	}
}
