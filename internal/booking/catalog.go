package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/roomescape/internal/model"
	"github.com/iliyamo/roomescape/internal/repository"
)

// CreateTimeSlot adds a start time to the catalog.  startAt must be HH:MM.
func (s *Service) CreateTimeSlot(ctx context.Context, startAt string) (model.TimeSlot, error) {
	norm, err := model.ParseStartAt(startAt)
	if err != nil {
		return model.TimeSlot{}, err
	}
	ts, err := s.times.Create(ctx, norm)
	if err != nil {
		return model.TimeSlot{}, fmt.Errorf("booking: create time slot: %w", err)
	}
	return ts, nil
}

func (s *Service) ListTimeSlots(ctx context.Context) ([]model.TimeSlot, error) {
	return s.times.FindAll(ctx)
}

// DeleteTimeSlot removes a time slot nobody has booked.  A referenced slot
// yields KindInUse; an unknown id is not an error.
func (s *Service) DeleteTimeSlot(ctx context.Context, id uint64) error {
	used, err := s.reservations.ExistsByTimeSlot(ctx, id)
	if err != nil {
		return fmt.Errorf("booking: check time slot usage: %w", err)
	}
	if used {
		return errTimeInUse
	}
	if err := s.times.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return errTimeInUse
		}
		return fmt.Errorf("booking: delete time slot: %w", err)
	}
	return nil
}

// CreateTheme adds a theme to the catalog.
func (s *Service) CreateTheme(ctx context.Context, th model.Theme) (model.Theme, error) {
	created, err := s.themes.Create(ctx, th)
	if err != nil {
		return model.Theme{}, fmt.Errorf("booking: create theme: %w", err)
	}
	return created, nil
}

func (s *Service) ListThemes(ctx context.Context) ([]model.Theme, error) {
	return s.themes.FindAll(ctx)
}

// DeleteTheme removes a theme nobody has booked.
func (s *Service) DeleteTheme(ctx context.Context, id uint64) error {
	used, err := s.reservations.ExistsByTheme(ctx, id)
	if err != nil {
		return fmt.Errorf("booking: check theme usage: %w", err)
	}
	if used {
		return errThemeInUse
	}
	if err := s.themes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return errThemeInUse
		}
		return fmt.Errorf("booking: delete theme: %w", err)
	}
	return nil
}
