package masterdata

import "context"

// LocationRepository manages plant location persistence. Get returns nil
// without error when no row matches.
type LocationRepository interface {
	Get(ctx context.Context, id string) (*Location, error)
	List(ctx context.Context) ([]Location, error)
	ListByUser(ctx context.Context, userID string) ([]Location, error)
	Save(ctx context.Context, location *Location) error
	Delete(ctx context.Context, id string) error
}

// DeviceRepository manages device persistence. Get and FindActiveByIMEI
// return nil without error when no row matches.
type DeviceRepository interface {
	Get(ctx context.Context, id string) (*Device, error)
	List(ctx context.Context) ([]Device, error)
	ListByLocation(ctx context.Context, locationID string) ([]Device, error)
	FindActiveByIMEI(ctx context.Context, imei string) (*Device, error)
	CountByLocation(ctx context.Context, locationID string) (int, error)
	Save(ctx context.Context, device *Device) error
	Delete(ctx context.Context, id string) error
}
