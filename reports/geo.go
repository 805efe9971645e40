package reports

import (
	"context"
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// MapFeatures returns every report as a GeoJSON point for the map view.
// Images are left out to keep the collection small.
func (s *Service) MapFeatures(ctx context.Context) (*geojson.FeatureCollection, error) {
	reports, err := s.store.GetReportLocations(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load report locations", Err: err}
	}

	fc := geojson.NewFeatureCollection()
	for _, r := range reports {
		// GeoJSON positions are [lng, lat].
		f := geojson.NewPointFeature([]float64{r.Lng, r.Lat})
		f.ID = r.ID
		f.SetProperty("title", r.Title)
		f.SetProperty("severity", r.Severity)
		f.SetProperty("status", r.Status)
		f.SetProperty("createdAt", r.CreatedAt.UTC().Format(time.RFC3339))
		fc.AddFeature(f)
	}
	return fc, nil
}
