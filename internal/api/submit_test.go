package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jclemens/fieldtm/internal/errors"
	"github.com/jclemens/fieldtm/internal/geojson"
	"github.com/jclemens/fieldtm/internal/models"
)

func testDraft() models.ProjectDraft {
	return models.ProjectDraft{
		ID:               "draft-1",
		Name:             "Kathmandu buildings",
		ShortDescription: "Building survey",
		Description:      "Survey of building conditions",
		Instructions:     "Map every building in your task area",
		ODK: models.ODKCredentials{
			CentralURL:      "https://central.example.org",
			CentralUser:     "surveyor",
			CentralPassword: "secret",
		},
		Category:       "buildings",
		Hashtags:       []string{"#hot", "#survey"},
		CustomTMSURL:   "https://tiles.example.org/{z}/{x}/{y}.png",
		OrganisationID: 7,
		AdminUsers:     []string{"alice", "bob"},
		Extract:        models.ExtractSource{Kind: models.ExtractOSM, URL: "https://extracts.example.org/kathmandu"},
	}
}

func TestTaskAreasSelection(t *testing.T) {
	boundary := testBoundary()
	preview := testPreview(9)

	tests := []struct {
		name    string
		method  models.SplitMethod
		preview *geojson.FeatureCollection
		want    int
	}{
		{"square with preview", models.DivideOnSquare{Dimension: 50}, preview, 9},
		{"square without preview falls back", models.DivideOnSquare{Dimension: 50}, nil, 1},
		{"algorithm with preview", models.TaskSplittingAlgorithm{AverageBuildingsPerTask: 25}, preview, 9},
		{"choose area ignores preview", models.ChooseAreaAsTask{}, preview, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &Submission{
				Draft:    testDraft(),
				Method:   tt.method,
				Boundary: boundary,
				Preview:  tt.preview,
			}
			assert.Equal(t, tt.want, sub.TaskAreas().Len())
		})
	}
}

func parseSubmission(t *testing.T, sub *Submission) (map[string][]string, map[string][]byte) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, sub.writeTo(mw))
	require.NoError(t, mw.Close())

	reader := multipart.NewReader(&buf, mw.Boundary())
	fields := map[string][]string{}
	files := map[string][]byte{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(part)
		require.NoError(t, err)
		if part.FileName() != "" {
			files[part.FormName()] = content
		} else {
			fields[part.FormName()] = append(fields[part.FormName()], string(content))
		}
	}
	return fields, files
}

func TestSubmissionSquareSplit(t *testing.T) {
	sub := &Submission{
		Draft:    testDraft(),
		Method:   models.DivideOnSquare{Dimension: 50},
		Boundary: testBoundary(),
		Preview:  testPreview(9),
	}

	fields, files := parseSubmission(t, sub)

	assert.Equal(t, []string{"Kathmandu buildings"}, fields["name"])
	assert.Equal(t, []string{"DIVIDE_ON_SQUARE"}, fields["task_split_type"])
	assert.Equal(t, []string{"50"}, fields["task_split_dimension"])
	assert.NotContains(t, fields, "task_num_buildings")
	assert.Equal(t, []string{"#hot,#survey"}, fields["hashtags"])
	assert.Equal(t, []string{"alice,bob"}, fields["project_admins"])
	assert.Equal(t, []string{"https://extracts.example.org/kathmandu"}, fields["data_extract_url"])
	assert.Equal(t, []string{"Polygon"}, fields["new_geom_type"])

	taskAreas := &geojson.FeatureCollection{}
	require.NoError(t, json.Unmarshal(files["task_areas"], taskAreas))
	assert.Equal(t, 9, taskAreas.Len())
}

func TestSubmissionChooseAreaOmitsParameters(t *testing.T) {
	sub := &Submission{
		Draft:    testDraft(),
		Method:   models.ChooseAreaAsTask{},
		Boundary: testBoundary(),
	}

	fields, files := parseSubmission(t, sub)

	assert.Equal(t, []string{"CHOOSE_AREA_AS_TASK"}, fields["task_split_type"])
	assert.NotContains(t, fields, "task_split_dimension")
	assert.NotContains(t, fields, "task_num_buildings")

	taskAreas := &geojson.FeatureCollection{}
	require.NoError(t, json.Unmarshal(files["task_areas"], taskAreas))
	assert.Equal(t, 1, taskAreas.Len())
}

func TestSubmissionAlgorithmParameter(t *testing.T) {
	sub := &Submission{
		Draft:    testDraft(),
		Method:   models.TaskSplittingAlgorithm{AverageBuildingsPerTask: 25},
		Boundary: testBoundary(),
		Preview:  testPreview(6),
	}

	fields, _ := parseSubmission(t, sub)

	assert.Equal(t, []string{"TASK_SPLITTING_ALGORITHM"}, fields["task_split_type"])
	assert.Equal(t, []string{"25"}, fields["task_num_buildings"])
	assert.NotContains(t, fields, "task_split_dimension")
}

func TestSubmissionOptionalAttachments(t *testing.T) {
	sub := &Submission{
		Draft:    testDraft(),
		Method:   models.ChooseAreaAsTask{},
		Boundary: testBoundary(),
		CustomForm: &Attachment{
			Filename: "survey.xlsx",
			Content:  []byte("xlsform-bytes"),
		},
	}

	_, files := parseSubmission(t, sub)

	assert.Equal(t, []byte("xlsform-bytes"), files["xls_form"])
	assert.NotContains(t, files, "data_extract")
	assert.NotContains(t, files, "additional_feature")
}

func TestSubmissionValidate(t *testing.T) {
	valid := func() *Submission {
		return &Submission{
			Draft:    testDraft(),
			Method:   models.ChooseAreaAsTask{},
			Boundary: testBoundary(),
		}
	}

	tests := []struct {
		name   string
		mutate func(*Submission)
	}{
		{"missing name", func(s *Submission) { s.Draft.Name = "" }},
		{"missing organisation", func(s *Submission) { s.Draft.OrganisationID = 0 }},
		{"missing method", func(s *Submission) { s.Method = nil }},
		{"missing boundary", func(s *Submission) { s.Boundary = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid()
			tt.mutate(sub)
			err := sub.Validate()
			require.Error(t, err)
		})
	}

	assert.NoError(t, valid().Validate())
}

// End-to-end: draw boundary, square split at dimension 50, 9-polygon
// preview, submit. The creation request must carry the parameter and the
// preview as data.json.
func TestCreateProjectEndToEnd(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("org_id"))

		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "50", r.FormValue("task_split_dimension"))
		assert.Equal(t, "DIVIDE_ON_SQUARE", r.FormValue("task_split_type"))

		file, header, err := r.FormFile("task_areas")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "data.json", header.Filename)

		taskAreas := &geojson.FeatureCollection{}
		require.NoError(t, json.NewDecoder(file).Decode(taskAreas))
		assert.Equal(t, 9, taskAreas.Len())

		json.NewEncoder(w).Encode(map[string]interface{}{"id": 42, "name": "Kathmandu buildings"})
	})

	sub := &Submission{
		Draft:    testDraft(),
		Method:   models.DivideOnSquare{Dimension: 50},
		Boundary: testBoundary(),
		Preview:  testPreview(9),
	}

	project, err := client.CreateProject(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, 42, project.ID)
	assert.Equal(t, "Kathmandu buildings", project.Name)
}

func TestCreateProjectValidationFailsBeforeRequest(t *testing.T) {
	requested := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requested = true
	})

	sub := &Submission{Draft: models.ProjectDraft{}, Method: models.ChooseAreaAsTask{}}
	_, err := client.CreateProject(context.Background(), sub)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.False(t, requested, "validation failures must not reach the network")
}
