// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"stackcollapse/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testTables() []table.TableValues {
	return []table.TableValues{
		{
			TableDefinition: table.TableDefinition{Name: "Summary"},
			Fields: []table.Field{
				{Name: "Samples", Values: []string{"12"}},
				{Name: "Stacks", Values: []string{"3"}},
			},
		},
		{
			TableDefinition: table.TableDefinition{Name: "Processes", HasRows: true},
			Fields: []table.Field{
				{Name: "Process", Values: []string{"java", "perl"}},
				{Name: "Samples", Values: []string{"10", "2"}},
			},
		},
		{
			TableDefinition: table.TableDefinition{Name: "Empty", NoDataFound: "No stacks."},
		},
	}
}

func TestCreateText(t *testing.T) {
	out, err := Create(FormatTxt, testTables())
	require.NoError(t, err)
	expected := "Summary\n" +
		"=======\n" +
		"Samples: 12\n" +
		"Stacks:  3\n" +
		"\n" +
		"Processes\n" +
		"=========\n" +
		"Process   Samples\n" +
		"-------   -------\n" +
		"java      10\n" +
		"perl      2\n" +
		"\n" +
		"Empty\n" +
		"=====\n" +
		"No stacks.\n\n"
	assert.Equal(t, expected, string(out))
}

func TestCreateJson(t *testing.T) {
	out, err := Create(FormatJson, testTables())
	require.NoError(t, err)
	var decoded map[string][]map[string]string
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, []map[string]string{{"Process": "java", "Samples": "10"}, {"Process": "perl", "Samples": "2"}}, decoded["Processes"])
	assert.Empty(t, decoded["Empty"])
}

func TestCreateXlsx(t *testing.T) {
	out, err := Create(FormatXlsx, testTables())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	value, err := f.GetCellValue(XlsxPrimarySheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Summary", value)
	value, err = f.GetCellValue(XlsxPrimarySheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "12", value)
}

func TestCreateBadFormat(t *testing.T) {
	_, err := Create("html", testTables())
	assert.Error(t, err)
}

func TestCreateMismatchedFields(t *testing.T) {
	_, err := Create(FormatTxt, []table.TableValues{{
		TableDefinition: table.TableDefinition{Name: "Broken"},
		Fields: []table.Field{
			{Name: "A", Values: []string{"1", "2"}},
			{Name: "B", Values: []string{"1"}},
		},
	}})
	assert.Error(t, err)
}
