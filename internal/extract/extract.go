package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"skillgap-backend/internal/ocr"
	"skillgap-backend/internal/shared/util"
)

// FileType is the extraction category of an upload.
type FileType string

const (
	TypePDF   FileType = "pdf"
	TypeDOCX  FileType = "docx"
	TypeImage FileType = "image"
)

// Up to this many PDF pages are read; résumés and postings rarely exceed it.
const maxPDFPages = 20

var allowedExtensions = map[string]FileType{
	".pdf":  TypePDF,
	".docx": TypeDOCX,
	".doc":  TypeDOCX,
	".png":  TypeImage,
	".jpg":  TypeImage,
	".jpeg": TypeImage,
}

// Detect maps a filename extension to a FileType. It never touches the
// file content, so unsupported uploads fail before any parser runs.
func Detect(filename string) (FileType, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ft, ok := allowedExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q (allowed: .pdf, .docx, .doc, .png, .jpg, .jpeg)", ErrUnsupportedType, ext)
	}
	return ft, nil
}

// Extractor converts uploaded documents into sanitized plain text.
type Extractor struct {
	// OCR handles image input. A nil engine makes image uploads fail
	// with ErrOCRUnavailable.
	OCR ocr.Engine
}

// Text extracts and sanitizes text from an in-memory upload, dispatching
// on the filename extension.
func (e *Extractor) Text(ctx context.Context, data []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fileType, err := Detect(filename)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	var raw string
	switch fileType {
	case TypePDF:
		raw, err = extractPDF(data)
	case TypeDOCX:
		raw, err = extractDOCX(data)
	case TypeImage:
		raw, err = e.extractImage(ctx, data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s %q: %w", fileType, filename, err)
	}

	return util.SanitizeText(raw), nil
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	numPages := pdfReader.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("%w: pdf contains no pages", ErrCorruptFile)
	}
	if numPages > maxPDFPages {
		numPages = maxPDFPages
	}

	var parts []string
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no readable text; the pdf may be image-based or scanned, try uploading an image screenshot instead", ErrCorruptFile)
	}
	return strings.Join(parts, "\n\n"), nil
}

func extractDOCX(data []byte) (string, error) {
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("%w: document.xml not found", ErrCorruptFile)
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	text := stripDocxXML(string(raw))
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: document contains no readable text", ErrCorruptFile)
	}
	return text, nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func (e *Extractor) extractImage(ctx context.Context, data []byte) (string, error) {
	if e.OCR == nil {
		return "", fmt.Errorf("%w: paste the text manually or upload a PDF/DOCX file", ErrOCRUnavailable)
	}
	text, err := e.OCR.ExtractText(ctx, data)
	if err != nil {
		if errors.Is(err, ocr.ErrUnavailable) {
			return "", fmt.Errorf("%w: paste the text manually or upload a PDF/DOCX file", ErrOCRUnavailable)
		}
		return "", err
	}
	return text, nil
}

// RequireMinLength enforces the minimum extracted-text floor.
func RequireMinLength(text string, min int) error {
	if len(text) < min {
		return fmt.Errorf("%w: got %d characters, need at least %d; upload a more complete document or paste the text manually", ErrTooShort, len(text), min)
	}
	return nil
}
