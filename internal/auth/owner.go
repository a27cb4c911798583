package auth

import (
	"context"
	"database/sql"

	masterdatarepo "solarpark-cloud/internal/masterdata/infrastructure/postgres"
)

// LocationOwnerChecker validates location ownership.
type LocationOwnerChecker interface {
	EnsureLocationOwner(ctx context.Context, userID, locationID string) error
}

// OwnerChecker checks location ownership using masterdata.
type OwnerChecker struct {
	repo *masterdatarepo.LocationRepository
}

// NewOwnerChecker constructs an OwnerChecker.
func NewOwnerChecker(db *sql.DB) *OwnerChecker {
	if db == nil {
		return nil
	}
	return &OwnerChecker{repo: masterdatarepo.NewLocationRepository(db)}
}

// EnsureLocationOwner verifies the user is in the location's owner set.
// Admins are expected to bypass this check at the call site.
func (c *OwnerChecker) EnsureLocationOwner(ctx context.Context, userID, locationID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if userID == "" || locationID == "" {
		return nil
	}
	location, err := c.repo.Get(ctx, locationID)
	if err != nil {
		return err
	}
	if location == nil {
		return ErrNotFound
	}
	if !location.OwnedBy(userID) {
		return ErrNotOwner
	}
	return nil
}
