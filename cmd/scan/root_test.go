package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceText = `ACME Cleaning GmbH
Invoice No: 2024-0042
Date: 12.10.2024
Pos.  Material  Description  Qty  Price  Total
0001  0.033-709.0  Spray Nozzle  2 PC  23.50  47.00
0002  6.390-028.0  Hochdruckschlauch  1 PC  89.90  89.90
Total: 136.90 EUR
`

func execute(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	return &out, cmd.Execute()
}

func TestTextCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte(invoiceText), 0o600))

	out, err := execute(t, "text", path, "--explain")
	require.NoError(t, err)

	var got output
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))

	require.NotNil(t, got.Invoice)
	assert.Equal(t, "2024-0042", got.Invoice.InvoiceNumber.Value)
	assert.Equal(t, "2024-10-12", got.Invoice.Date.Value)
	require.Len(t, got.Invoice.Items, 2)
	assert.Greater(t, got.Confidence, 0.0)

	require.Len(t, got.Explain, 2)
	assert.Equal(t, "Spray Nozzle", got.Explain[0].Name)
	assert.NotEmpty(t, got.Explain[0].Rule)
}

func TestTextCommand_WithoutExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte(invoiceText), 0o600))

	out, err := execute(t, "text", path)
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.NotContains(t, got, "explain")
}

func TestCommandErrors(t *testing.T) {
	type testCase struct {
		name string
		args []string
	}

	tests := []testCase{
		{name: "MissingFile", args: []string{"text", filepath.Join(t.TempDir(), "nope.txt")}},
		{name: "NoArgs", args: []string{"image"}},
		{name: "InvalidRate", args: []string{"fiscal", "https://example.com", "--rate", "zero"}},
		{name: "FiscalWithoutIIC", args: []string{"fiscal", "https://efiskalizimi-app.tatime.gov.al/invoice-check/#/verify?tin=K12345678L"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
