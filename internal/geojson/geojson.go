// Package geojson holds the Feature/FeatureCollection shapes exchanged with
// the tasking platform API. Coordinates are kept as raw JSON so polygons,
// multipolygons and points round-trip without a geometry library.
package geojson

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"
)

// Geometry is a GeoJSON geometry object
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature is a GeoJSON feature with free-form properties
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// FeatureCollection is a set of features
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection wraps features in a collection
func NewFeatureCollection(features ...Feature) *FeatureCollection {
	return &FeatureCollection{
		Type:     TypeFeatureCollection,
		Features: features,
	}
}

// Collection wraps a single feature as a FeatureCollection
func (f *Feature) Collection() *FeatureCollection {
	return NewFeatureCollection(*f)
}

// Len returns the number of features
func (fc *FeatureCollection) Len() int {
	if fc == nil {
		return 0
	}
	return len(fc.Features)
}

// Validate checks the feature is a usable area polygon
func (f *Feature) Validate() error {
	if f.Type != TypeFeature {
		return fmt.Errorf("expected type %q, got %q", TypeFeature, f.Type)
	}
	switch f.Geometry.Type {
	case "Polygon", "MultiPolygon":
	default:
		return fmt.Errorf("geometry must be Polygon or MultiPolygon, got %q", f.Geometry.Type)
	}
	if len(f.Geometry.Coordinates) == 0 {
		return fmt.Errorf("geometry has no coordinates")
	}
	return nil
}

// Validate checks the collection shape
func (fc *FeatureCollection) Validate() error {
	if fc.Type != TypeFeatureCollection {
		return fmt.Errorf("expected type %q, got %q", TypeFeatureCollection, fc.Type)
	}
	if len(fc.Features) == 0 {
		return fmt.Errorf("collection has no features")
	}
	return nil
}

// ReadFeature loads a boundary polygon from a GeoJSON file. Accepts a bare
// Feature, or a FeatureCollection whose first feature is used (map export
// tools commonly wrap a single drawn polygon in a collection).
func ReadFeature(path string) (*Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	switch probe.Type {
	case TypeFeature:
		f := &Feature{}
		if err := json.Unmarshal(data, f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return f, nil

	case TypeFeatureCollection:
		fc := &FeatureCollection{}
		if err := json.Unmarshal(data, fc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := fc.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		f := fc.Features[0]
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &f, nil

	default:
		return nil, fmt.Errorf("%s: unsupported GeoJSON type %q", path, probe.Type)
	}
}

// ReadFeatureCollection loads a data extract from a GeoJSON file
func ReadFeatureCollection(path string) (*FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc := &FeatureCollection{}
	if err := json.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fc, nil
}
