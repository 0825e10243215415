package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jclemens/fieldtm/internal/errors"
	"github.com/jclemens/fieldtm/internal/geojson"
)

func testBoundary() *geojson.Feature {
	return &geojson.Feature{
		Type: geojson.TypeFeature,
		Geometry: geojson.Geometry{
			Type:        "Polygon",
			Coordinates: json.RawMessage(`[[[0,0],[1,0],[1,1],[0,1],[0,0]]]`),
		},
	}
}

func testPreview(n int) *geojson.FeatureCollection {
	features := make([]geojson.Feature, n)
	for i := range features {
		features[i] = *testBoundary()
	}
	return geojson.NewFeatureCollection(features...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, nil)
}

func TestPreviewSplitBySquare(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/projects/preview-split-by-square", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "50", r.FormValue("dimension"))

		file, header, err := r.FormFile("geojson")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "aoi.geojson", header.Filename)

		boundary := &geojson.Feature{}
		require.NoError(t, json.NewDecoder(file).Decode(boundary))
		assert.Equal(t, "Polygon", boundary.Geometry.Type)

		// No custom extract supplied, so none must be attached
		_, _, err = r.FormFile("extract_geojson")
		assert.Error(t, err)

		json.NewEncoder(w).Encode(testPreview(9))
	})

	fc, err := client.PreviewSplitBySquare(context.Background(), testBoundary(), nil, 50)
	require.NoError(t, err)
	assert.Equal(t, 9, fc.Len())
}

func TestPreviewSplitBySquareAttachesCustomExtract(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))

		file, header, err := r.FormFile("extract_geojson")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "extract.geojson", header.Filename)

		extract := &geojson.FeatureCollection{}
		require.NoError(t, json.NewDecoder(file).Decode(extract))
		assert.Equal(t, 3, extract.Len())

		json.NewEncoder(w).Encode(testPreview(4))
	})

	fc, err := client.PreviewSplitBySquare(context.Background(), testBoundary(), testPreview(3), 100)
	require.NoError(t, err)
	assert.Equal(t, 4, fc.Len())
}

func TestTaskSplit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/task-split", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "25", r.FormValue("average_buildings_per_task"))

		_, header, err := r.FormFile("project_geojson")
		require.NoError(t, err)
		assert.Equal(t, "aoi.geojson", header.Filename)

		json.NewEncoder(w).Encode(testPreview(6))
	})

	fc, err := client.TaskSplit(context.Background(), testBoundary(), nil, 25)
	require.NoError(t, err)
	assert.Equal(t, 6, fc.Len())
}

func TestServerErrorDetailSurfaced(t *testing.T) {
	detail := "Traceback (most recent call last):\n  splitter failed\nValueError: bad geometry"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": detail})
	})

	fc, err := client.PreviewSplitBySquare(context.Background(), testBoundary(), nil, 50)
	assert.Nil(t, fc)
	require.Error(t, err)
	require.True(t, apperrors.IsAPI(err))
	assert.Equal(t, detail, err.Error())
}

func TestServerErrorPlainBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	})

	_, err := client.TaskSplit(context.Background(), testBoundary(), nil, 25)
	require.Error(t, err)
	require.True(t, apperrors.IsAPI(err))
	assert.Equal(t, "internal server error", err.Error())
}

func TestListOrganisations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/organization/", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": 1, "name": "HOT", "description": "Humanitarian mapping"},
			{"id": 2, "name": "Local Chapter"},
		})
	})

	orgs, err := client.ListOrganisations(context.Background())
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, 1, orgs[0].ID)
	assert.Equal(t, "HOT", orgs[0].Name)
}
