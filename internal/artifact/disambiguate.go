package artifact

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Package artifact handles the binary blobs the provider delivers for an
// invoice: sniffing their shape, selecting the one data-bearing document out
// of an archive that also carries signature wrappers, and re-obtaining a blob
// through the retrieval ladder.

var (
	// ErrUnrecognizedFormat marks a blob that is neither an archive nor a
	// markup document.
	ErrUnrecognizedFormat = errors.New("unrecognized artifact format")
	// ErrNoDataDocument marks an archive with no qualifying data document.
	// Extraction must never run against a signature wrapper, so an
	// all-wrapper archive yields this rather than a guess.
	ErrNoDataDocument = errors.New("no data document in archive")
)

var zipMagic = []byte("PK\x03\x04")

const (
	signaturePrefix  = "semnatura_"
	signatureMarker  = "<Signature"
	invoiceMarker    = "<Invoice"
	markerScanWindow = 256
)

// DataDocument resolves a retrieved blob to the data-bearing document text.
// Archives are unpacked and disambiguated; a raw markup blob is returned as
// is; anything else is rejected.
func DataDocument(blob []byte) ([]byte, string, error) {
	switch {
	case bytes.HasPrefix(blob, zipMagic):
		reader, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
		if err != nil {
			return nil, "", fmt.Errorf("open archive: %w", err)
		}
		return SelectDataDocument(reader)
	case looksLikeMarkup(blob):
		return blob, "", nil
	default:
		return nil, "", ErrUnrecognizedFormat
	}
}

// SelectDataDocument picks the one data document out of an archive. Members
// not following the signature-wrapper naming convention are preferred, but
// naming alone is never trusted: a member only qualifies if its leading
// content carries the invoice root marker and not the signature one.
func SelectDataDocument(reader *zip.Reader) ([]byte, string, error) {
	var preferred, fallback []*zip.File
	for _, f := range reader.File {
		name := path.Base(f.Name)
		if !strings.HasSuffix(strings.ToLower(name), ".xml") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(name), signaturePrefix) {
			fallback = append(fallback, f)
		} else {
			preferred = append(preferred, f)
		}
	}

	for _, f := range append(preferred, fallback...) {
		content, err := readMember(f)
		if err != nil {
			continue
		}
		head := content
		if len(head) > markerScanWindow {
			head = head[:markerScanWindow]
		}
		if bytes.Contains(head, []byte(signatureMarker)) {
			continue
		}
		if bytes.Contains(head, []byte(invoiceMarker)) {
			return content, f.Name, nil
		}
	}
	return nil, "", ErrNoDataDocument
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// looksLikeMarkup reports whether the blob starts with a markup tag, skipping
// whitespace and a UTF-8 byte order mark.
func looksLikeMarkup(blob []byte) bool {
	blob = bytes.TrimPrefix(blob, []byte("\xef\xbb\xbf"))
	blob = bytes.TrimLeft(blob, " \t\r\n")
	return len(blob) > 0 && blob[0] == '<'
}
