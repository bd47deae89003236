// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePDF_TooSmallFailsHeaderCheck(t *testing.T) {
	ok, _, err := validatePDF([]byte("Not a PDF"), 10240, 104857600)
	require.False(t, ok)
	require.Error(t, err)
}

func TestValidatePDF_ValidSizeAndMarkers(t *testing.T) {
	body := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 20*1024)...)
	body = append(body, []byte("\n%%EOF")...)

	ok, encrypted, err := validatePDF(body, 10240, 104857600)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, encrypted)
}

func TestValidatePDF_MissingEOFTrailerFails(t *testing.T) {
	body := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 20*1024)...)
	ok, _, err := validatePDF(body, 10240, 104857600)
	require.False(t, ok)
	require.Error(t, err)
}

func TestValidatePDF_TooSmallForMinBound(t *testing.T) {
	body := []byte("%PDF-1.4\n%%EOF")
	ok, _, err := validatePDF(body, 10240, 104857600)
	require.False(t, ok)
	require.Error(t, err)
}

func TestValidatePDF_EncryptedStillValidatesWithFlag(t *testing.T) {
	body := append([]byte("%PDF-1.4\n/Encrypt 5 0 R\n"), bytes.Repeat([]byte("x"), 20*1024)...)
	body = append(body, []byte("\n%%EOF")...)

	ok, encrypted, err := validatePDF(body, 10240, 104857600)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, encrypted)
}
