package remote

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/crop-yield-dashboard/internal/crop"
)

// GeocodeLocator resolves places through the Google geocoding API.
type GeocodeLocator struct {
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewGeocodeLocator configures the geocoder with apiKey.
func NewGeocodeLocator(apiKey string) *GeocodeLocator {
	geocoder.ApiKey = apiKey
	return &GeocodeLocator{lookup: geocoder.Geocoding}
}

// Locate returns the coordinates of place. The geocoder has no context support,
// so the lookup runs in its own goroutine and is abandoned when ctx ends.
func (g *GeocodeLocator) Locate(ctx context.Context, place crop.Place) (crop.Coordinates, error) {
	type result struct {
		loc geocoder.Location
		err error
	}
	ch := make(chan result, 1)

	go func() {
		loc, err := g.lookup(geocoder.Address{
			City:    place.City,
			Country: place.Country,
		})
		ch <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return crop.Coordinates{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return crop.Coordinates{}, fmt.Errorf("geocode %s,%s: %w", place.City, place.Country, r.err)
		}
		return crop.Coordinates{Latitude: r.loc.Latitude, Longitude: r.loc.Longitude}, nil
	}
}
