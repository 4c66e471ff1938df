package products

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

const barcodeSuffix = "-barcode.png"

// BarcodeFile is a barcode ready to be saved by the browser. Inline images carry
// their bytes in Data; other references only set Location.
type BarcodeFile struct {
	Name        string
	ContentType string
	Data        []byte
	Location    string
}

// BarcodeFilename returns the download name for a product's barcode.
func BarcodeFilename(productName string) string {
	return productName + barcodeSuffix
}

// BarcodeFile decodes the already-loaded barcode reference of p.
func (p Product) BarcodeFile() (BarcodeFile, error) {
	ref := strings.TrimSpace(p.Barcode)
	if ref == "" {
		return BarcodeFile{}, ErrNoBarcode
	}
	file := BarcodeFile{Name: BarcodeFilename(p.Name)}
	if !strings.HasPrefix(ref, "data:") {
		file.Location = ref
		return file, nil
	}
	contentType, data, err := decodeDataURL(ref)
	if err != nil {
		return BarcodeFile{}, fmt.Errorf("decode barcode of %s: %w", p.ID, err)
	}
	file.ContentType = contentType
	file.Data = data
	return file, nil
}

// decodeDataURL parses data:[<mediatype>][;base64],<payload>.
func decodeDataURL(ref string) (string, []byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data url")
	}
	meta, isBase64 := strings.CutSuffix(meta, ";base64")
	if meta == "" {
		meta = "text/plain;charset=US-ASCII"
	}
	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, err
		}
		return meta, data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, err
	}
	return meta, []byte(text), nil
}
