package documents

import "ats-checker/internal/shared/util"

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"

	MaxPDFBytes  int64 = 20 << 20
	MaxWordBytes int64 = 10 << 20
)

// Descriptor is what the validator sees of a candidate file. It never
// carries the bytes.
type Descriptor struct {
	FileName  string
	MimeType  string
	SizeBytes int64
}

// Document is an uploaded file read fully into memory. It is owned by the
// extraction call that consumes it and must not be retained afterwards.
type Document struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	Data      []byte
}

// NewDocument builds a Document from raw bytes, normalising the declared type.
func NewDocument(fileName, declaredMime string, data []byte) Document {
	name := util.SanitizeFileName(fileName)
	return Document{
		FileName:  name,
		MimeType:  NormalizeMimeType(declaredMime, name),
		SizeBytes: int64(len(data)),
		Data:      data,
	}
}

// Descriptor returns the validator view of the document.
func (d Document) Descriptor() Descriptor {
	return Descriptor{FileName: d.FileName, MimeType: d.MimeType, SizeBytes: d.SizeBytes}
}

// IsWordType reports whether mimeType is one of the word-processor formats.
func IsWordType(mimeType string) bool {
	return mimeType == MimeDOCX || mimeType == MimeDOC
}
