package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrDataUnavailable      = errors.New("data unavailable")
)

type InvalidConfigurationError struct {
	Reason string
}

func (e InvalidConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfiguration.Error(), e.Reason)
}

func (e InvalidConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func NewInvalidConfigurationError(format string, args ...any) error {
	return InvalidConfigurationError{
		Reason: fmt.Sprintf(format, args...),
	}
}

// DataUnavailableError means the price series cannot cover the requested
// window for one asset. FirstAvailable is the earliest sample that was
// loaded, not necessarily the earliest one stored: the price service only
// loads a week before the start date, so a longer gap before start also
// lands here. FirstAvailable is nil when nothing was loaded.
type DataUnavailableError struct {
	Symbol         string
	Requested      time.Time
	FirstAvailable *time.Time
}

func (e DataUnavailableError) Error() string {
	if e.FirstAvailable == nil {
		return fmt.Sprintf("%s: no prices loaded for %s", ErrDataUnavailable.Error(), e.Symbol)
	}
	return fmt.Sprintf(
		"%s: %s requested from %s but the earliest loaded price is on %s",
		ErrDataUnavailable.Error(),
		e.Symbol,
		e.Requested.Format(time.DateOnly),
		e.FirstAvailable.Format(time.DateOnly),
	)
}

func (e DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}
