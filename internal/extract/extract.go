// Package extract turns uploaded documents into plain text.
package extract

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrInvalidDocument is returned when the bytes are not a readable PDF.
var ErrInvalidDocument = errors.New("invalid document")

// ContentTypePDF is the only media type Text accepts.
const ContentTypePDF = "application/pdf"

// IsPDF reports whether a declared content type names a PDF.
func IsPDF(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.EqualFold(mt, ContentTypePDF)
}

// Text returns the plain text of every page in order, each page followed by
// a newline. The pdf reader panics on some malformed inputs; those surface as
// ErrInvalidDocument.
func Text(r io.ReaderAt, size int64) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrInvalidDocument, rec)
		}
	}()
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	var b strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			b.WriteByte('\n')
			continue
		}
		s, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", ErrInvalidDocument, i, err)
		}
		b.WriteString(s)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
