package documents

import (
	"path/filepath"
	"strings"
)

// NormalizeMimeType strips parameters and, when the declared type is too
// generic to trust, falls back to the file extension.
func NormalizeMimeType(mimeType string, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case "", "application/octet-stream", "application/zip", "binary/octet-stream":
	default:
		return clean
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".doc":
		return MimeDOC
	default:
		return clean
	}
}
