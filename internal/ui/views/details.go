package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jclemens/fieldtm/internal/geojson"
	"github.com/jclemens/fieldtm/internal/models"
	"github.com/jclemens/fieldtm/internal/ui/keys"
	"github.com/jclemens/fieldtm/internal/ui/styles"
)

// Field indexes into the details form
const (
	fieldName = iota
	fieldShortDesc
	fieldDescription
	fieldInstructions
	fieldCategory
	fieldHashtags
	fieldTMSURL
	fieldAdmins
	fieldODKURL
	fieldODKUser
	fieldODKPassword
	fieldBoundaryPath
	fieldExtractPath
	fieldCustomFormPath
	fieldFeaturePath
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Project name",
	"Short description",
	"Description",
	"Per-task instructions",
	"Form category",
	"Hashtags (comma separated)",
	"Custom TMS URL",
	"Admin users (comma separated)",
	"ODK Central URL",
	"ODK Central user",
	"ODK Central password",
	"Boundary GeoJSON file",
	"Data extract GeoJSON file (blank = OSM)",
	"Custom XLSForm file",
	"Additional feature file",
}

// DetailsView is the wizard step collecting project metadata, the drawn
// boundary file and the extract source
type DetailsView struct {
	draft  *models.ProjectDraft
	inputs [fieldCount]textinput.Model
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int
	focus  int
	errMsg string
}

// DetailsCompleted is emitted when the form validates; it carries the loaded
// boundary and, for a custom source, the loaded extract
type DetailsCompleted struct {
	Boundary *geojson.Feature
	Extract  *geojson.FeatureCollection
}

// BackToOrganisations returns to the organisation picker
type BackToOrganisations struct{}

// NewDetailsView creates the details form prefilled from the draft
func NewDetailsView(draft *models.ProjectDraft) *DetailsView {
	v := &DetailsView{
		draft:  draft,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
	}

	for i := range v.inputs {
		in := textinput.New()
		in.Placeholder = fieldLabels[i]
		in.CharLimit = 200
		v.inputs[i] = in
	}
	v.inputs[fieldODKPassword].EchoMode = textinput.EchoPassword

	v.inputs[fieldName].SetValue(draft.Name)
	v.inputs[fieldShortDesc].SetValue(draft.ShortDescription)
	v.inputs[fieldDescription].SetValue(draft.Description)
	v.inputs[fieldInstructions].SetValue(draft.Instructions)
	v.inputs[fieldCategory].SetValue(draft.Category)
	v.inputs[fieldHashtags].SetValue(strings.Join(draft.Hashtags, ","))
	v.inputs[fieldTMSURL].SetValue(draft.CustomTMSURL)
	v.inputs[fieldAdmins].SetValue(strings.Join(draft.AdminUsers, ","))
	v.inputs[fieldODKURL].SetValue(draft.ODK.CentralURL)
	v.inputs[fieldODKUser].SetValue(draft.ODK.CentralUser)
	v.inputs[fieldODKPassword].SetValue(draft.ODK.CentralPassword)
	v.inputs[fieldBoundaryPath].SetValue(draft.BoundaryPath)
	v.inputs[fieldExtractPath].SetValue(draft.Extract.Path)
	v.inputs[fieldCustomFormPath].SetValue(draft.CustomFormPath)
	v.inputs[fieldFeaturePath].SetValue(draft.AdditionalFeaturePath)

	v.inputs[fieldName].Focus()
	return v
}

func (v *DetailsView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *DetailsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit

		case key.Matches(msg, v.keys.Back):
			v.syncDraft()
			return v, func() tea.Msg { return BackToOrganisations{} }

		case msg.String() == "shift+tab":
			v.focus = (v.focus + fieldCount - 1) % fieldCount
			v.updateFocus()
			return v, nil

		case key.Matches(msg, v.keys.Tab):
			v.focus = (v.focus + 1) % fieldCount
			v.updateFocus()
			return v, nil

		case key.Matches(msg, v.keys.Enter):
			if v.focus < fieldCount-1 {
				v.focus++
				v.updateFocus()
				return v, nil
			}
			return v.complete()

		case key.Matches(msg, v.keys.Submit):
			return v.complete()
		}
	}

	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return v, cmd
}

func (v *DetailsView) updateFocus() {
	for i := range v.inputs {
		v.inputs[i].Blur()
	}
	v.inputs[v.focus].Focus()
}

// syncDraft writes the form values back into the draft
func (v *DetailsView) syncDraft() {
	d := v.draft
	d.Name = strings.TrimSpace(v.inputs[fieldName].Value())
	d.ShortDescription = strings.TrimSpace(v.inputs[fieldShortDesc].Value())
	d.Description = strings.TrimSpace(v.inputs[fieldDescription].Value())
	d.Instructions = strings.TrimSpace(v.inputs[fieldInstructions].Value())
	d.Category = strings.TrimSpace(v.inputs[fieldCategory].Value())
	d.Hashtags = splitList(v.inputs[fieldHashtags].Value())
	d.CustomTMSURL = strings.TrimSpace(v.inputs[fieldTMSURL].Value())
	d.AdminUsers = splitList(v.inputs[fieldAdmins].Value())
	d.ODK.CentralURL = strings.TrimSpace(v.inputs[fieldODKURL].Value())
	d.ODK.CentralUser = strings.TrimSpace(v.inputs[fieldODKUser].Value())
	d.ODK.CentralPassword = v.inputs[fieldODKPassword].Value()
	d.BoundaryPath = strings.TrimSpace(v.inputs[fieldBoundaryPath].Value())
	d.CustomFormPath = strings.TrimSpace(v.inputs[fieldCustomFormPath].Value())
	d.AdditionalFeaturePath = strings.TrimSpace(v.inputs[fieldFeaturePath].Value())

	extractPath := strings.TrimSpace(v.inputs[fieldExtractPath].Value())
	if extractPath == "" {
		d.Extract = models.ExtractSource{Kind: models.ExtractOSM}
	} else {
		d.Extract = models.ExtractSource{Kind: models.ExtractCustom, Path: extractPath}
	}
}

// complete validates the form, loads the boundary and extract files and
// moves the wizard to the split step
func (v *DetailsView) complete() (tea.Model, tea.Cmd) {
	v.syncDraft()

	if v.draft.Name == "" {
		v.errMsg = "project name is required"
		return v, nil
	}
	if v.draft.BoundaryPath == "" {
		v.errMsg = "a boundary GeoJSON file is required"
		return v, nil
	}

	boundary, err := geojson.ReadFeature(v.draft.BoundaryPath)
	if err != nil {
		v.errMsg = err.Error()
		return v, nil
	}

	var extract *geojson.FeatureCollection
	if v.draft.Extract.Kind == models.ExtractCustom {
		extract, err = geojson.ReadFeatureCollection(v.draft.Extract.Path)
		if err != nil {
			v.errMsg = err.Error()
			return v, nil
		}
	}

	v.errMsg = ""
	return v, func() tea.Msg {
		return DetailsCompleted{Boundary: boundary, Extract: extract}
	}
}

// View renders the view
func (v *DetailsView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := min(max(contentWidth-6, 20), 60)

	rows := make([]string, 0, fieldCount*2+6)
	rows = append(rows, s.Title.Render("Project Details"), "")

	for i := range v.inputs {
		style := s.Input
		if i == v.focus {
			style = s.InputFocused
		}
		rows = append(rows,
			s.Label.Render(fieldLabels[i]+":"),
			style.Width(inputWidth).Render(v.inputs[i].View()),
		)
	}

	if v.errMsg != "" {
		rows = append(rows, "", RenderTraceback(s, v.errMsg))
	}

	rows = append(rows, "",
		s.TitleMuted.Render("Tab: next field • Ctrl+S: continue • Esc: back"),
	)

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return styles.CenterView(form, v.width, v.height)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
