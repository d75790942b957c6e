package extract

import "errors"

var (
	// ErrUnsupportedType means the file extension is not handled.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrCorruptFile means the file could not be parsed by its declared format.
	ErrCorruptFile = errors.New("file is corrupted or unreadable")
	// ErrEmptyFile means the upload had no content.
	ErrEmptyFile = errors.New("uploaded file is empty")
	// ErrTooShort means the extracted text is below the minimum threshold.
	ErrTooShort = errors.New("extracted text is too short")
	// ErrOCRUnavailable means no OCR engine is configured for image input.
	ErrOCRUnavailable = errors.New("image text extraction is not available")
)
