package api

import (
	"encoding/json"
	"mime/multipart"
	"sort"
	"strings"

	apperrors "github.com/jclemens/fieldtm/internal/errors"
	"github.com/jclemens/fieldtm/internal/geojson"
	"github.com/jclemens/fieldtm/internal/models"
)

// The creation request always tags the outline geometry type; the drawn
// area is a polygon by construction.
const geometryType = "Polygon"

// Attachment is a file-like part of the creation request
type Attachment struct {
	Filename string
	Content  []byte
}

// Submission assembles the final multipart creation payload from the
// finalized draft, the active split method and the generated preview (or
// the drawn area when the method needs no generation).
type Submission struct {
	Draft    models.ProjectDraft
	Method   models.SplitMethod
	Boundary *geojson.Feature
	Preview  *geojson.FeatureCollection

	// Optional attachments, each included only if supplied
	CustomForm        *Attachment
	CustomExtract     *Attachment
	AdditionalFeature *Attachment
}

// Validate checks the submission is complete enough to send. Submission
// failures leave the draft intact so the user can retry without re-entering
// anything.
func (s *Submission) Validate() error {
	if s.Draft.Name == "" {
		return apperrors.NewValidation("name", "project name is required")
	}
	if s.Draft.OrganisationID <= 0 {
		return apperrors.NewValidation("organisation_id", "an organisation must be selected")
	}
	if s.Method == nil {
		return apperrors.NewValidation("split_method", "a task split method must be selected")
	}
	if s.Boundary == nil {
		return apperrors.NewValidation("boundary", "a project boundary is required")
	}
	return s.Boundary.Validate()
}

// TaskAreas is the task-area collection attached as data.json: the preview
// when non-nil, else the drawn boundary; always the boundary for methods
// that need no generation.
func (s *Submission) TaskAreas() *geojson.FeatureCollection {
	if s.Method != nil && !s.Method.NeedsGeneration() {
		return s.Boundary.Collection()
	}
	if s.Preview != nil {
		return s.Preview
	}
	return s.Boundary.Collection()
}

// writeTo serializes the submission into the multipart writer: metadata
// fields, the method's own parameter fields, the task-area file and any
// optional attachments.
func (s *Submission) writeTo(mw *multipart.Writer) error {
	fields := map[string]string{
		"name":                  s.Draft.Name,
		"short_description":     s.Draft.ShortDescription,
		"description":           s.Draft.Description,
		"per_task_instructions": s.Draft.Instructions,
		"odk_central_url":       s.Draft.ODK.CentralURL,
		"odk_central_user":      s.Draft.ODK.CentralUser,
		"odk_central_password":  s.Draft.ODK.CentralPassword,
		"xform_category":        s.Draft.Category,
		"hashtags":              strings.Join(s.Draft.Hashtags, ","),
		"custom_tms_url":        s.Draft.CustomTMSURL,
		"project_admins":        strings.Join(s.Draft.AdminUsers, ","),
		"data_extract_url":      s.Draft.Extract.URL,
		"new_geom_type":         geometryType,
	}
	for k, v := range s.Method.ProjectFields() {
		fields[k] = v
	}

	// Deterministic field order keeps request logs and tests stable
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fields[k] == "" {
			continue
		}
		if err := mw.WriteField(k, fields[k]); err != nil {
			return err
		}
	}

	fw, err := mw.CreateFormFile("task_areas", "data.json")
	if err != nil {
		return err
	}
	if err := json.NewEncoder(fw).Encode(s.TaskAreas()); err != nil {
		return err
	}

	attachments := []struct {
		field string
		att   *Attachment
	}{
		{"xls_form", s.CustomForm},
		{"data_extract", s.CustomExtract},
		{"additional_feature", s.AdditionalFeature},
	}
	for _, a := range attachments {
		if a.att == nil {
			continue
		}
		fw, err := mw.CreateFormFile(a.field, a.att.Filename)
		if err != nil {
			return err
		}
		if _, err := fw.Write(a.att.Content); err != nil {
			return err
		}
	}
	return nil
}
