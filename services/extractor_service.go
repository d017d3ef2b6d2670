package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	officelicense "github.com/unidoc/unioffice/common/license"
	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// Both UniDoc libraries share one metered key. Without it, PDF and Word
// extraction return license errors at call time; plain-text types are
// unaffected.
func init() {
	if key := os.Getenv("UNIDOC_LICENSE_KEY"); key != "" {
		if err := license.SetMeteredKey(key); err != nil {
			fmt.Printf("ERROR: Failed to set UniPDF license key: %v. PDF processing will fail.\n", err)
		}
		if err := officelicense.SetMeteredKey(key); err != nil {
			fmt.Printf("ERROR: Failed to set UniOffice license key: %v. Word processing will fail.\n", err)
		}
	}
}

// ExtractTextFromFile returns the plain text of a document, dispatching on
// the file extension. Unknown extensions fail with ErrUnsupportedInput.
func ExtractTextFromFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(content), nil
	case ".pdf":
		return extractTextFromPDF(path)
	case ".docx":
		return extractTextFromDocx(path)
	default:
		return "", fmt.Errorf("%w: file type %s", ErrUnsupportedInput, ext)
	}
}

// extractTextFromPDF concatenates the text of every page, blank-line
// separated so the splitter sees page boundaries as paragraph breaks.
func extractTextFromPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return "", err
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return "", err
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", err
		}

		text, err := ex.ExtractText()
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	return sb.String(), nil
}

// extractTextFromDocx walks the document body, joining the text runs of
// each paragraph and ending every paragraph with a newline.
func extractTextFromDocx(path string) (string, error) {
	doc, err := document.Open(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var sb strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			sb.WriteString(run.Text())
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
