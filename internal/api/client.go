// Package api is the HTTP client for the tasking platform: preview
// generation, organisation listing and project creation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/jclemens/fieldtm/internal/errors"
	"github.com/jclemens/fieldtm/internal/geojson"
	"github.com/jclemens/fieldtm/internal/models"
)

// Client talks to the tasking platform API. It performs no retries; failed
// calls are surfaced to the user who re-triggers the action explicitly.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New creates a client for the given API base URL
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// PreviewSplitBySquare requests a preview of the boundary divided into
// squares of the given dimension in metres. The extract is attached only
// when supplied; an OSM-sourced extract is omitted since the remote
// splitter fetches it itself.
func (c *Client) PreviewSplitBySquare(ctx context.Context, boundary *geojson.Feature, extract *geojson.FeatureCollection, dimension int) (*geojson.FeatureCollection, error) {
	c.log.Info("requesting square split preview",
		zap.Int("dimension", dimension),
		zap.Bool("extract", extract != nil))

	out := &geojson.FeatureCollection{}
	err := c.postMultipart(ctx, "/projects/preview-split-by-square", nil, func(mw *multipart.Writer) error {
		if err := writeGeoJSONFile(mw, "geojson", "aoi.geojson", boundary); err != nil {
			return err
		}
		if extract != nil {
			if err := writeGeoJSONFile(mw, "extract_geojson", "extract.geojson", extract); err != nil {
				return err
			}
		}
		return mw.WriteField("dimension", strconv.Itoa(dimension))
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TaskSplit requests a preview balanced by estimated building count per task
func (c *Client) TaskSplit(ctx context.Context, boundary *geojson.Feature, extract *geojson.FeatureCollection, averageBuildingsPerTask int) (*geojson.FeatureCollection, error) {
	c.log.Info("requesting algorithmic task split preview",
		zap.Int("average_buildings_per_task", averageBuildingsPerTask),
		zap.Bool("extract", extract != nil))

	out := &geojson.FeatureCollection{}
	err := c.postMultipart(ctx, "/projects/task-split", nil, func(mw *multipart.Writer) error {
		if err := writeGeoJSONFile(mw, "project_geojson", "aoi.geojson", boundary); err != nil {
			return err
		}
		if err := mw.WriteField("average_buildings_per_task", strconv.Itoa(averageBuildingsPerTask)); err != nil {
			return err
		}
		if extract != nil {
			return writeGeoJSONFile(mw, "extract_geojson", "extract.geojson", extract)
		}
		return nil
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListOrganisations fetches the organisations the project can be created under
func (c *Client) ListOrganisations(ctx context.Context) ([]models.Organisation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/organization/", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}

	var orgs []models.Organisation
	if err := json.NewDecoder(resp.Body).Decode(&orgs); err != nil {
		return nil, fmt.Errorf("decoding organisations: %w", err)
	}
	return orgs, nil
}

// CreateProject submits the assembled project as a single multipart creation
// request, parameterized by organisation id
func (c *Client) CreateProject(ctx context.Context, sub *Submission) (*models.Project, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	c.log.Info("creating project",
		zap.String("name", sub.Draft.Name),
		zap.Int("org_id", sub.Draft.OrganisationID),
		zap.String("task_split_type", string(sub.Method.Type())),
		zap.Int("task_areas", sub.TaskAreas().Len()))

	query := url.Values{"org_id": []string{strconv.Itoa(sub.Draft.OrganisationID)}}
	project := &models.Project{}
	if err := c.postMultipart(ctx, "/projects", query, sub.writeTo, project); err != nil {
		return nil, err
	}
	return project, nil
}

// postMultipart builds a multipart body via build, POSTs it and decodes the
// JSON response into out
func (c *Client) postMultipart(ctx context.Context, path string, query url.Values, build func(*multipart.Writer) error, out interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := build(mw); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp)
		c.log.Warn("request rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Error(apiErr))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

// decodeError extracts the server-provided detail message, which may span
// multiple lines
func decodeError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return apperrors.NewAPI(resp.StatusCode, "")
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return apperrors.NewAPI(resp.StatusCode, payload.Detail)
	}
	return apperrors.NewAPI(resp.StatusCode, strings.TrimSpace(string(body)))
}

func writeGeoJSONFile(mw *multipart.Writer, field, filename string, doc interface{}) error {
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	return json.NewEncoder(fw).Encode(doc)
}
