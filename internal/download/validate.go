// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"bytes"
	"fmt"
)

const (
	pdfMagic       = "%PDF"
	pdfEOFMarker   = "%%EOF"
	pdfEOFWindow   = 1024
)

// validatePDF implements  step 4 /  invariant 5: the first four
// bytes must be "%PDF", "%%EOF" must appear within the last 1024 bytes,
// and size must fall within [minSize, maxSize]. Encryption is reported
// but never rejects the file").
func validatePDF(data []byte, minSize, maxSize int64) (ok bool, encrypted bool, err error) {
	size := int64(len(data))
	if size < int64(len(pdfMagic)) || string(data[:len(pdfMagic)]) != pdfMagic {
		return false, false, fmt.Errorf("missing %%PDF header")
	}
	if size < minSize || size > maxSize {
		return false, false, fmt.Errorf("size %d outside [%d, %d]", size, minSize, maxSize)
	}
	tail := data
	if len(tail) > pdfEOFWindow {
		tail = tail[len(tail)-pdfEOFWindow:]
	}
	if !bytes.Contains(tail, []byte(pdfEOFMarker)) {
		return false, false, fmt.Errorf("missing %%%%EOF trailer in final %d bytes", pdfEOFWindow)
	}
	encrypted = bytes.Contains(data, []byte("/Encrypt"))
	return true, encrypted, nil
}
