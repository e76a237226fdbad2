package documents

// Validate checks the declared type first, then the per-type size ceiling.
// It never looks at file contents.
func Validate(d Descriptor) error {
	limit, ok := SizeLimit(d.MimeType)
	if !ok {
		return ErrUnsupportedType
	}
	if d.SizeBytes > limit {
		return &TooLargeError{Limit: limit, Size: d.SizeBytes}
	}
	return nil
}

// SizeLimit returns the ceiling for an accepted type.
func SizeLimit(mimeType string) (int64, bool) {
	switch mimeType {
	case MimePDF:
		return MaxPDFBytes, true
	case MimeDOCX, MimeDOC:
		return MaxWordBytes, true
	default:
		return 0, false
	}
}
