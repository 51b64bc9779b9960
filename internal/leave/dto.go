package leave

import (
	"errors"
	"strings"
	"time"
)

// ApplyDTO is the request payload for submitting a leave request.
type ApplyDTO struct {
	Reason       string   `json:"reason"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	DocumentURLs []string `json:"document_urls,omitempty"`
}

func (dto ApplyDTO) Validate() error {
	if strings.TrimSpace(dto.Reason) == "" {
		return errors.New("reason is required")
	}
	if len(dto.Reason) > 1000 {
		return errors.New("reason must be less than 1000 characters")
	}

	start, err := time.Parse(dateLayout, dto.StartDate)
	if err != nil {
		return errors.New("start_date must be a valid YYYY-MM-DD date")
	}
	end, err := time.Parse(dateLayout, dto.EndDate)
	if err != nil {
		return errors.New("end_date must be a valid YYYY-MM-DD date")
	}
	if end.Before(start) {
		return errors.New("end_date cannot be before start_date")
	}

	for _, u := range dto.DocumentURLs {
		if strings.TrimSpace(u) == "" {
			return errors.New("document URLs cannot be blank")
		}
	}
	return nil
}

// RejectDTO is the request payload for rejecting a leave request. The
// reason is mandatory and a whitespace-only reason is refused here, before
// the transition is ever attempted.
type RejectDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectDTO) Validate() error {
	if strings.TrimSpace(dto.Reason) == "" {
		return ErrReasonRequired
	}
	return nil
}
