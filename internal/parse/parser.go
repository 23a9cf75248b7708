// Package parse turns uploaded RFP documents into plain text for the
// extraction pipeline. Images are not parsed here; they are flagged so the
// caller can route them to vision extraction instead.
package parse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	rpdf "rsc.io/pdf"
)

var ErrUnsupportedType = errors.New("unsupported document type")

// Result is the outcome of parsing one uploaded document.
type Result struct {
	// Text is the extracted plain text. Empty when IsImage is true.
	Text string
	// IsImage marks documents that must go through vision extraction.
	IsImage bool
}

var imageMIMETypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/tiff": true,
}

const (
	mimePDF  = "application/pdf"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExtractText parses a document of the given MIME type.
func ExtractText(data []byte, mimeType string) (Result, error) {
	if imageMIMETypes[mimeType] {
		return Result{IsImage: true}, nil
	}

	switch mimeType {
	case "text/plain":
		return Result{Text: string(data)}, nil
	case "text/html":
		text, err := extractHTMLText(data)
		if err != nil {
			return Result{}, fmt.Errorf("html text extraction failed: %w", err)
		}
		return Result{Text: text}, nil
	case mimePDF:
		text, err := extractPDFText(data)
		if err != nil {
			return Result{}, fmt.Errorf("pdf text extraction failed: %w", err)
		}
		return Result{Text: text}, nil
	case mimeDocx:
		text, err := extractDocxText(data)
		if err != nil {
			return Result{}, fmt.Errorf("docx text extraction failed: %w", err)
		}
		return Result{Text: text}, nil
	case mimeXlsx:
		text, err := extractXlsxText(data)
		if err != nil {
			return Result{}, fmt.Errorf("xlsx text extraction failed: %w", err)
		}
		return Result{Text: text}, nil
	}

	return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
}

func extractHTMLText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	var builder strings.Builder
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		builder.WriteString(sel.Text())
	})
	if builder.Len() == 0 {
		builder.WriteString(doc.Text())
	}

	return normalizeWhitespace(builder.String()), nil
}

// extractPDFText pulls text fragments page by page. rsc.io/pdf panics on
// some malformed files, so the panic is converted into an error.
func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	document, err := readZipFile(archive, "word/document.xml")
	if err != nil {
		return "", err
	}

	return extractWordXMLText(document)
}

// extractWordXMLText walks WordprocessingML and collects the text runs
// (w:t), inserting a newline at the end of each paragraph (w:p).
func extractWordXMLText(document []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(document))
	var builder strings.Builder
	inText := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch tok := token.(type) {
		case xml.StartElement:
			if tok.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if tok.Name.Local == "t" {
				inText = false
			}
			if tok.Name.Local == "p" {
				builder.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				builder.Write(tok)
			}
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func extractXlsxText(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var parts []string

	// Most cell text lives in the shared-strings table.
	if shared, err := readZipFile(archive, "xl/sharedStrings.xml"); err == nil {
		strs, err := extractXMLTextNodes(shared)
		if err != nil {
			return "", err
		}
		parts = append(parts, strs...)
	}

	// Inline strings live directly in the sheet XML.
	sheetNames := make([]string, 0)
	for _, file := range archive.File {
		if strings.HasPrefix(file.Name, "xl/worksheets/") && strings.HasSuffix(file.Name, ".xml") {
			sheetNames = append(sheetNames, file.Name)
		}
	}
	sort.Strings(sheetNames)
	for _, name := range sheetNames {
		sheet, err := readZipFile(archive, name)
		if err != nil {
			return "", err
		}
		strs, err := extractXMLTextNodes(sheet)
		if err != nil {
			return "", err
		}
		parts = append(parts, strs...)
	}

	return strings.Join(parts, "\n"), nil
}

// extractXMLTextNodes collects the contents of every <t> element.
func extractXMLTextNodes(document []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(document))
	var out []string
	var current strings.Builder
	depth := 0

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch tok := token.(type) {
		case xml.StartElement:
			if tok.Name.Local == "t" {
				depth++
			}
		case xml.EndElement:
			if tok.Name.Local == "t" && depth > 0 {
				depth--
				if depth == 0 {
					if text := current.String(); text != "" {
						out = append(out, text)
					}
					current.Reset()
				}
			}
		case xml.CharData:
			if depth > 0 {
				current.Write(tok)
			}
		}
	}

	return out, nil
}

func readZipFile(archive *zip.Reader, name string) ([]byte, error) {
	for _, file := range archive.File {
		if file.Name == name {
			rc, err := file.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("archive entry missing: %s", name)
}

func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
