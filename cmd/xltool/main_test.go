package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/adnsv/go-xlsx/xl"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func sample(t *testing.T, dir string) string {
	t.Helper()
	wb := xl.NewWorkbook()
	sh, err := wb.AddSheet("Data")
	require.NoError(t, err)
	sh.Cell(1, 1).SetFloat(1)
	sh.Cell(1, 2).SetFloat(2)
	sh.Cell(1, 3).SetFormula("SUM(A1:A2)")
	name := filepath.Join(dir, "in.xlsx")
	require.NoError(t, wb.SaveAs(name, xl.DefaultOptions()))
	return name
}

func TestInfoYAML(t *testing.T) {
	name := sample(t, t.TempDir())
	out := run(t, "info", "--format", "yaml", "--parts", "--refs", name)

	var info bookInfo
	require.NoError(t, yaml.Unmarshal([]byte(out), &info))
	require.Len(t, info.Sheets, 1)
	assert.Equal(t, "Data", info.Sheets[0].Name)
	assert.Equal(t, 3, info.Sheets[0].Cells)
	assert.Equal(t, 1, info.Sheets[0].Formulas)
	assert.Zero(t, info.Sheets[0].BadFormulas)
	assert.Equal(t, []string{"A1:A2"}, info.Sheets[0].References)
	assert.Equal(t, "A1:A3", info.Sheets[0].Dimension)
	assert.NotEmpty(t, info.Parts)
	assert.False(t, info.Encrypted)
}

func TestInsertRowsAndEncrypt(t *testing.T) {
	dir := t.TempDir()
	name := sample(t, dir)
	edited := filepath.Join(dir, "edited.xlsx")
	run(t, "insert-rows", name, "Data", "2", "3", "-o", edited)

	wb, err := xl.OpenFile(edited, xl.DefaultOptions())
	require.NoError(t, err)
	c := wb.Sheet("Data").LookupCell(1, 6)
	require.NotNil(t, c)
	assert.Equal(t, "SUM(A1:A5)", c.Formula())

	locked := filepath.Join(dir, "locked.xlsx")
	plain := filepath.Join(dir, "plain.xlsx")
	run(t, "encrypt", "--password", "secret", "--spin-count", "1000", edited, locked)
	_, err = xl.OpenFile(locked, xl.DefaultOptions())
	assert.ErrorIs(t, err, xl.ErrWrongPassword)

	run(t, "decrypt", "--password", "secret", locked, plain)
	wb, err = xl.OpenFile(plain, xl.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "SUM(A1:A5)", wb.Sheet("Data").LookupCell(1, 6).Formula())
	password = ""
}
