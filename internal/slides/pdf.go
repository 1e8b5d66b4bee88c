package slides

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// PDFInfo is what we read back from a rendered deck.
type PDFInfo struct {
	Pages int
	// Title is the plain text of the first page, trimmed to a short prefix.
	Title string
}

const maxTitleLen = 80

// InspectPDF opens a rendered file and reports its page count.
func InspectPDF(path string) (*PDFInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat PDF: %w", err)
	}

	reader, err := pdf.NewReader(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("read PDF: %w", err)
	}

	info := &PDFInfo{Pages: reader.NumPage()}
	if info.Pages > 0 {
		info.Title = firstPageText(reader)
	}
	return info, nil
}

// firstPageText never fails; decks with only images yield "".
func firstPageText(r *pdf.Reader) (title string) {
	defer func() {
		// The text extractor panics on some malformed content streams.
		if recover() != nil {
			title = ""
		}
	}()

	page := r.Page(1)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	if len(text) > maxTitleLen {
		text = text[:maxTitleLen]
	}
	return text
}
