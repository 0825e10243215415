// Package draft holds the task-split selection workflow: which split method
// is active, whether a preview has been generated for it, and whether
// submission is allowed.
package draft

import (
	"github.com/google/uuid"

	apperrors "github.com/jclemens/fieldtm/internal/errors"
	"github.com/jclemens/fieldtm/internal/geojson"
	"github.com/jclemens/fieldtm/internal/models"
)

// GenerationFlags records, per generating method, whether a preview has been
// generated since the last method or parameter change. ChooseAreaAsTask has
// no flag since the drawn area itself is the task set.
type GenerationFlags struct {
	DivideOnSquare         bool
	TaskSplittingAlgorithm bool
}

// Snapshot captures the method and parameter at the moment a preview request
// is dispatched. A response is applied only if its snapshot still matches
// current state, so a response that arrives after the user switched method
// or edited the parameter is discarded rather than overwriting fresh state.
type Snapshot struct {
	Token uuid.UUID
	Type  models.SplitType
	Param int
}

// Workflow is the state machine governing preview generation and submission.
// It is mutated only through the methods below and is not safe for
// concurrent use; the UI event loop owns it.
type Workflow struct {
	method     models.SplitMethod
	flags      GenerationFlags
	preview    *geojson.FeatureCollection
	generating bool
	pending    *Snapshot
}

// NewWorkflow returns a workflow with no method selected
func NewWorkflow() *Workflow {
	return &Workflow{}
}

// Method returns the active split method, nil when none is selected
func (w *Workflow) Method() models.SplitMethod { return w.method }

// Preview returns the generated task areas, nil until generation succeeds
func (w *Workflow) Preview() *geojson.FeatureCollection { return w.preview }

// Flags returns the per-method generation flags
func (w *Workflow) Flags() GenerationFlags { return w.flags }

// Generating reports whether a preview request is in flight
func (w *Workflow) Generating() bool { return w.generating }

// SelectMethod activates a split method. Changing the method type or its
// parameter invalidates any previously generated preview and both
// generation flags; a pending preview request is orphaned so its response
// will be discarded on arrival.
func (w *Workflow) SelectMethod(m models.SplitMethod) {
	if m == nil {
		w.method = nil
		w.invalidate()
		return
	}
	if w.method != nil && w.method.Type() == m.Type() && w.method.Param() == m.Param() {
		return
	}
	w.method = m
	w.invalidate()
}

func (w *Workflow) invalidate() {
	w.preview = nil
	w.flags = GenerationFlags{}
	w.pending = nil
	w.generating = false
}

// BeginGenerate validates that a preview may be requested for the active
// method and returns the snapshot to tag the request with. The caller
// dispatches the remote call and feeds the result to ApplyPreview.
func (w *Workflow) BeginGenerate() (Snapshot, error) {
	if w.method == nil {
		return Snapshot{}, apperrors.NewValidation("split_method", "select a task split method first")
	}
	if !w.method.NeedsGeneration() {
		return Snapshot{}, apperrors.NewValidation("split_method", "this method does not require preview generation")
	}
	if w.method.Param() <= 0 {
		switch w.method.Type() {
		case models.SplitDivideOnSquare:
			return Snapshot{}, apperrors.NewValidation("dimension", "dimension must be greater than zero")
		default:
			return Snapshot{}, apperrors.NewValidation("average_buildings_per_task", "average buildings per task must be greater than zero")
		}
	}
	if w.generating {
		return Snapshot{}, apperrors.NewValidation("split_method", "a preview request is already in flight")
	}

	snap := Snapshot{
		Token: uuid.New(),
		Type:  w.method.Type(),
		Param: w.method.Param(),
	}
	w.pending = &snap
	w.generating = true
	return snap, nil
}

// ApplyPreview resolves a preview request. The result is applied only when
// the snapshot matches the pending request and the active method still has
// the snapshot's type and parameter; otherwise it is discarded. On failure
// neither the preview nor the generation flag is touched. Returns true when
// the preview was applied.
func (w *Workflow) ApplyPreview(snap Snapshot, fc *geojson.FeatureCollection, genErr error) bool {
	if w.pending == nil || w.pending.Token != snap.Token {
		return false // stale response from a superseded request
	}
	w.pending = nil
	w.generating = false

	if genErr != nil {
		return false
	}
	if w.method == nil || w.method.Type() != snap.Type || w.method.Param() != snap.Param {
		return false
	}
	if fc == nil || fc.Len() == 0 {
		return false
	}

	w.preview = fc
	switch snap.Type {
	case models.SplitDivideOnSquare:
		w.flags.DivideOnSquare = true
	case models.SplitTaskSplittingAlgorithm:
		w.flags.TaskSplittingAlgorithm = true
	}
	return true
}

// CanSubmit reports whether submission is permitted: the active method
// either needs no generation, or its generation flag is set.
func (w *Workflow) CanSubmit() bool {
	if w.method == nil {
		return false
	}
	if !w.method.NeedsGeneration() {
		return true
	}
	switch w.method.Type() {
	case models.SplitDivideOnSquare:
		return w.flags.DivideOnSquare
	case models.SplitTaskSplittingAlgorithm:
		return w.flags.TaskSplittingAlgorithm
	}
	return false
}

// TaskAreas returns the task-area collection for submission: the generated
// preview when present, else the drawn boundary. ChooseAreaAsTask always
// uses the boundary.
func (w *Workflow) TaskAreas(boundary *geojson.Feature) *geojson.FeatureCollection {
	if w.method != nil && !w.method.NeedsGeneration() {
		return boundary.Collection()
	}
	if w.preview != nil {
		return w.preview
	}
	return boundary.Collection()
}
