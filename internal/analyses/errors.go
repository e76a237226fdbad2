package analyses

import "errors"

var (
	ErrJobTitleRequired = errors.New("job title is required")
	ErrCVTextRequired   = errors.New("cv text is required")
)
