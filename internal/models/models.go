package models

import (
	"strconv"
	"time"
)

// Organisation is a platform organisation projects are created under
type Organisation struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Project is the created project returned by the platform
type Project struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ODKCredentials is the connection info for the data-collection backend
type ODKCredentials struct {
	CentralURL      string `json:"odk_central_url"`
	CentralUser     string `json:"odk_central_user"`
	CentralPassword string `json:"odk_central_password"`
}

// ExtractSourceKind distinguishes where the data extract comes from
type ExtractSourceKind string

const (
	// ExtractOSM means the remote splitter fetches the extract itself
	ExtractOSM ExtractSourceKind = "osm"
	// ExtractCustom means the user supplied a GeoJSON extract file
	ExtractCustom ExtractSourceKind = "custom"
)

// ExtractSource describes the data extract used as splitting input
type ExtractSource struct {
	Kind ExtractSourceKind `json:"kind"`
	Path string            `json:"path,omitempty"` // custom upload only
	URL  string            `json:"url,omitempty"`  // recorded in project metadata
}

// ProjectDraft holds in-progress project fields entered across wizard steps.
// Created empty at wizard start, mutated incrementally, cleared on successful
// submission or abandonment.
type ProjectDraft struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	ShortDescription string         `json:"short_description"`
	Description      string         `json:"description"`
	Instructions     string         `json:"instructions"`
	ODK              ODKCredentials `json:"odk"`
	Category         string         `json:"category"`
	Hashtags         []string       `json:"hashtags"`
	CustomTMSURL     string         `json:"custom_tms_url"`
	OrganisationID   int            `json:"organisation_id"`
	AdminUsers       []string       `json:"admin_users"`
	Extract          ExtractSource  `json:"extract"`

	// File paths supplied by the user; contents are read at preview or
	// submission time
	BoundaryPath          string `json:"boundary_path"`
	CustomFormPath        string `json:"custom_form_path"`
	AdditionalFeaturePath string `json:"additional_feature_path"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SplitType tags the three mutually exclusive task-split methods
type SplitType string

const (
	SplitDivideOnSquare         SplitType = "DIVIDE_ON_SQUARE"
	SplitChooseAreaAsTask       SplitType = "CHOOSE_AREA_AS_TASK"
	SplitTaskSplittingAlgorithm SplitType = "TASK_SPLITTING_ALGORITHM"
)

// SplitMethod is the tagged union over the split variants. Each variant
// serializes exactly its own parameter field into the creation request, so
// the payload shape never carries dangling optional fields.
type SplitMethod interface {
	Type() SplitType
	// NeedsGeneration reports whether a preview must be generated before
	// submission is allowed
	NeedsGeneration() bool
	// Param is the method's numeric parameter, 0 when it has none
	Param() int
	// ProjectFields are the creation-request form fields contributed by
	// this variant
	ProjectFields() map[string]string
}

// DivideOnSquare splits the area into squares of the given dimension (metres)
type DivideOnSquare struct {
	Dimension int
}

func (m DivideOnSquare) Type() SplitType       { return SplitDivideOnSquare }
func (m DivideOnSquare) NeedsGeneration() bool { return true }
func (m DivideOnSquare) Param() int            { return m.Dimension }

func (m DivideOnSquare) ProjectFields() map[string]string {
	return map[string]string{
		"task_split_type":      string(SplitDivideOnSquare),
		"task_split_dimension": strconv.Itoa(m.Dimension),
	}
}

// ChooseAreaAsTask uses the drawn area itself as the single task
type ChooseAreaAsTask struct{}

func (m ChooseAreaAsTask) Type() SplitType       { return SplitChooseAreaAsTask }
func (m ChooseAreaAsTask) NeedsGeneration() bool { return false }
func (m ChooseAreaAsTask) Param() int            { return 0 }

func (m ChooseAreaAsTask) ProjectFields() map[string]string {
	return map[string]string{
		"task_split_type": string(SplitChooseAreaAsTask),
	}
}

// TaskSplittingAlgorithm balances tasks by estimated building count
type TaskSplittingAlgorithm struct {
	AverageBuildingsPerTask int
}

func (m TaskSplittingAlgorithm) Type() SplitType       { return SplitTaskSplittingAlgorithm }
func (m TaskSplittingAlgorithm) NeedsGeneration() bool { return true }
func (m TaskSplittingAlgorithm) Param() int            { return m.AverageBuildingsPerTask }

func (m TaskSplittingAlgorithm) ProjectFields() map[string]string {
	return map[string]string{
		"task_split_type":    string(SplitTaskSplittingAlgorithm),
		"task_num_buildings": strconv.Itoa(m.AverageBuildingsPerTask),
	}
}
