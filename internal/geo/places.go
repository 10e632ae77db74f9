package geo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/foodcartapp/backend/internal/models"
)

// Locator keeps the Place cache fresh: every Locate call re-runs the lookup
// and rewrites the row, so UpdatedAt advances even when nothing changed.
type Locator struct {
	DB       *gorm.DB
	Geocoder *Client
}

func (l *Locator) Locate(ctx context.Context, address string) (*models.Place, error) {
	place := models.Place{Address: address}
	if err := l.DB.WithContext(ctx).
		Where(models.Place{Address: address}).
		FirstOrCreate(&place).Error; err != nil {
		return nil, err
	}

	lng, lat, err := l.Geocoder.Geocode(ctx, address)
	switch {
	case errors.Is(err, ErrNoResults):
		place.Lng, place.Lat = nil, nil
	case err != nil:
		return nil, err
	default:
		place.Lng, place.Lat = &lng, &lat
	}

	if err := l.DB.WithContext(ctx).Save(&place).Error; err != nil {
		return nil, err
	}
	return &place, nil
}
