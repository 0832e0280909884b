package billing

import (
	"fmt"
	"strings"

	"github.com/learnhubhq/learnhub/app/models"
)

// ParseStatus maps a provider status string onto the local status enum.
// Unrecognized input is an error so a new provider status cannot be
// mistaken for a known one.
func ParseStatus(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case models.StatusActive:
		return models.StatusActive, nil
	case models.StatusPastDue:
		return models.StatusPastDue, nil
	case models.StatusUnpaid:
		return models.StatusUnpaid, nil
	case models.StatusCanceled:
		return models.StatusCanceled, nil
	case models.StatusIncomplete:
		return models.StatusIncomplete, nil
	case models.StatusIncompleteExpired:
		return models.StatusIncompleteExpired, nil
	case models.StatusTrialing:
		return models.StatusTrialing, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
}
