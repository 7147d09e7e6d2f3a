package report

import (
	"io"
	"strings"
	"time"

	"github.com/frahmantamala/report-management/internal"
)

// SubmitReportDTO carries a report submission. Content is streamed to the
// file store before the report row is created.
type SubmitReportDTO struct {
	WeekEnding  time.Time
	FileName    string
	ContentType string
	Content     io.Reader
}

func (dto SubmitReportDTO) Validate() error {
	if dto.WeekEnding.IsZero() {
		return internal.NewFieldValidationError("weekEnding", "week ending date is required", internal.ErrCodeInvalidWeek)
	}
	if strings.TrimSpace(dto.FileName) == "" {
		return internal.NewFieldValidationError("file", "report file is required", internal.ErrCodeFileMissing)
	}
	if dto.Content == nil {
		return internal.NewFieldValidationError("file", "report file is required", internal.ErrCodeFileMissing)
	}
	return nil
}

type AddCommentDTO struct {
	Content string `json:"content"`
}

func (dto AddCommentDTO) Validate() error {
	if strings.TrimSpace(dto.Content) == "" {
		return internal.NewFieldValidationError("content", "comment content is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.Content) > 2000 {
		return internal.NewFieldValidationError("content", "comment must be at most 2000 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}
