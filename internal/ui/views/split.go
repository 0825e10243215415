package views

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jclemens/fieldtm/internal/api"
	"github.com/jclemens/fieldtm/internal/draft"
	"github.com/jclemens/fieldtm/internal/geojson"
	"github.com/jclemens/fieldtm/internal/models"
	"github.com/jclemens/fieldtm/internal/ui/keys"
	"github.com/jclemens/fieldtm/internal/ui/styles"
)

type methodOption struct {
	method     func(param int) models.SplitMethod
	name       string
	desc       string
	paramLabel string
}

var methodOptions = []methodOption{
	{
		method:     func(p int) models.SplitMethod { return models.DivideOnSquare{Dimension: p} },
		name:       "Divide on square",
		desc:       "Split the area into squares of a fixed dimension",
		paramLabel: "Dimension (metres)",
	},
	{
		method:     func(int) models.SplitMethod { return models.ChooseAreaAsTask{} },
		name:       "Choose area as task",
		desc:       "Use the drawn area itself as a single task",
		paramLabel: "",
	},
	{
		method:     func(p int) models.SplitMethod { return models.TaskSplittingAlgorithm{AverageBuildingsPerTask: p} },
		name:       "Task splitting algorithm",
		desc:       "Balance tasks by estimated building count",
		paramLabel: "Average buildings per task",
	},
}

// SplitView is the wizard step where the user picks a split method,
// generates a preview and submits the project
type SplitView struct {
	client   *api.Client
	log      *zap.Logger
	workflow *draft.Workflow
	draft    *models.ProjectDraft
	boundary *geojson.Feature
	extract  *geojson.FeatureCollection

	styles    *styles.Styles
	keys      keys.KeyMap
	spinner   spinner.Model
	param     textinput.Model
	methodIdx int
	width     int
	height    int

	submitting bool
	errMsg     string
}

// BackToDetails returns to the details form
type BackToDetails struct{}

// ProjectCreated is emitted when the creation request succeeds
type ProjectCreated struct {
	Project models.Project
}

type previewResultMsg struct {
	snap draft.Snapshot
	fc   *geojson.FeatureCollection
	err  error
}

type createResultMsg struct {
	project *models.Project
	err     error
}

// NewSplitView creates the split step
func NewSplitView(client *api.Client, log *zap.Logger, d *models.ProjectDraft, boundary *geojson.Feature, extract *geojson.FeatureCollection) *SplitView {
	s := styles.NewStyles()

	param := textinput.New()
	param.Placeholder = "50"
	param.CharLimit = 6

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Current.Primary)

	v := &SplitView{
		client:    client,
		log:       log,
		workflow:  draft.NewWorkflow(),
		draft:     d,
		boundary:  boundary,
		extract:   extract,
		styles:    s,
		keys:      keys.DefaultKeyMap(),
		spinner:   sp,
		param:     param,
		methodIdx: 0,
	}
	v.applyMethod()
	return v
}

func (v *SplitView) Init() tea.Cmd {
	return v.spinner.Tick
}

// applyMethod routes the current selection and parameter through the
// workflow; any change invalidates stale previews there
func (v *SplitView) applyMethod() {
	opt := methodOptions[v.methodIdx]
	v.workflow.SelectMethod(opt.method(v.paramValue()))
}

func (v *SplitView) paramValue() int {
	n, err := strconv.Atoi(strings.TrimSpace(v.param.Value()))
	if err != nil {
		return 0
	}
	return n
}

func (v *SplitView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case previewResultMsg:
		applied := v.workflow.ApplyPreview(msg.snap, msg.fc, msg.err)
		switch {
		case msg.err != nil:
			v.errMsg = msg.err.Error()
		case !applied:
			v.log.Info("discarded stale preview response",
				zap.String("method", string(msg.snap.Type)),
				zap.Int("param", msg.snap.Param))
		default:
			v.errMsg = ""
		}
		return v, nil

	case createResultMsg:
		v.submitting = false
		if msg.err != nil {
			v.errMsg = msg.err.Error()
			return v, nil
		}
		v.errMsg = ""
		return v, func() tea.Msg {
			return ProjectCreated{Project: *msg.project}
		}

	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit

		case key.Matches(msg, v.keys.Quit) && !v.param.Focused():
			return v, tea.Quit

		case key.Matches(msg, v.keys.Back):
			if v.param.Focused() {
				v.param.Blur()
				return v, nil
			}
			return v, func() tea.Msg { return BackToDetails{} }

		case key.Matches(msg, v.keys.Up) && !v.param.Focused():
			v.methodIdx = (v.methodIdx + len(methodOptions) - 1) % len(methodOptions)
			v.applyMethod()
			return v, nil

		case key.Matches(msg, v.keys.Down) && !v.param.Focused():
			v.methodIdx = (v.methodIdx + 1) % len(methodOptions)
			v.applyMethod()
			return v, nil

		case key.Matches(msg, v.keys.Tab):
			if v.param.Focused() {
				v.param.Blur()
			} else if methodOptions[v.methodIdx].paramLabel != "" {
				v.param.Focus()
				return v, textinput.Blink
			}
			return v, nil

		case key.Matches(msg, v.keys.Generate):
			return v.generate()

		case key.Matches(msg, v.keys.Submit):
			return v.submit()
		}

		if v.param.Focused() {
			var cmd tea.Cmd
			v.param, cmd = v.param.Update(msg)
			// A parameter edit invalidates the generated preview; the flag
			// is a coarse boolean, not content-hashed
			v.applyMethod()
			return v, cmd
		}
	}

	return v, nil
}

// generate dispatches a preview request tagged with the workflow snapshot
func (v *SplitView) generate() (tea.Model, tea.Cmd) {
	snap, err := v.workflow.BeginGenerate()
	if err != nil {
		v.errMsg = err.Error()
		return v, nil
	}
	v.errMsg = ""

	// An OSM-sourced extract is omitted; the remote splitter fetches it
	var extract *geojson.FeatureCollection
	if v.draft.Extract.Kind == models.ExtractCustom {
		extract = v.extract
	}
	boundary := v.boundary
	client := v.client

	return v, func() tea.Msg {
		var fc *geojson.FeatureCollection
		var genErr error
		switch snap.Type {
		case models.SplitDivideOnSquare:
			fc, genErr = client.PreviewSplitBySquare(context.Background(), boundary, extract, snap.Param)
		case models.SplitTaskSplittingAlgorithm:
			fc, genErr = client.TaskSplit(context.Background(), boundary, extract, snap.Param)
		}
		return previewResultMsg{snap: snap, fc: fc, err: genErr}
	}
}

// submit assembles the creation payload and posts it
func (v *SplitView) submit() (tea.Model, tea.Cmd) {
	if v.submitting {
		return v, nil
	}
	if !v.workflow.CanSubmit() {
		v.errMsg = "generate a preview before submitting"
		return v, nil
	}

	sub := &api.Submission{
		Draft:    *v.draft,
		Method:   v.workflow.Method(),
		Boundary: v.boundary,
		Preview:  v.workflow.Preview(),
	}

	var err error
	if sub.CustomForm, err = loadAttachment(v.draft.CustomFormPath); err != nil {
		v.errMsg = err.Error()
		return v, nil
	}
	if v.draft.Extract.Kind == models.ExtractCustom {
		if sub.CustomExtract, err = loadAttachment(v.draft.Extract.Path); err != nil {
			v.errMsg = err.Error()
			return v, nil
		}
	}
	if sub.AdditionalFeature, err = loadAttachment(v.draft.AdditionalFeaturePath); err != nil {
		v.errMsg = err.Error()
		return v, nil
	}

	v.submitting = true
	v.errMsg = ""
	client := v.client

	return v, func() tea.Msg {
		project, err := client.CreateProject(context.Background(), sub)
		return createResultMsg{project: project, err: err}
	}
}

func loadAttachment(path string) (*api.Attachment, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &api.Attachment{Filename: filepath.Base(path), Content: content}, nil
}

// View renders the view
func (v *SplitView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	rows := []string{s.Title.Render("Task Splitting"), ""}

	flags := v.workflow.Flags()
	for i, opt := range methodOptions {
		marker := "  "
		style := s.ListItem
		if i == v.methodIdx {
			marker = "> "
			style = s.ListSelected
		}
		line := marker + opt.name
		switch {
		case i == 0 && flags.DivideOnSquare,
			i == 2 && flags.TaskSplittingAlgorithm:
			line += s.MethodFlag.Render(" ✓ generated")
		case i == 1 && v.methodIdx == 1:
			line += s.MethodFlag.Render(" (no preview needed)")
		}
		rows = append(rows,
			style.Render(line),
			s.TitleMuted.Render("    "+opt.desc),
		)
	}

	if label := methodOptions[v.methodIdx].paramLabel; label != "" {
		inputStyle := s.Input
		if v.param.Focused() {
			inputStyle = s.InputFocused
		}
		rows = append(rows, "",
			s.Label.Render(label+":"),
			inputStyle.Width(min(max(contentWidth-6, 20), 30)).Render(v.param.View()),
		)
	}

	rows = append(rows, "", v.renderStatus())

	if v.errMsg != "" {
		rows = append(rows, "", RenderTraceback(s, v.errMsg))
	}

	rows = append(rows, "", v.renderHelp())

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return styles.CenterView(content, v.width, v.height)
}

func (v *SplitView) renderStatus() string {
	s := v.styles
	switch {
	case v.workflow.Generating():
		return v.spinner.View() + " Generating preview..."
	case v.submitting:
		return v.spinner.View() + " Submitting project..."
	case v.workflow.Preview() != nil:
		return s.PreviewOK.Render(fmt.Sprintf("Preview ready: %d task areas", v.workflow.Preview().Len()))
	case v.workflow.CanSubmit():
		return s.PreviewOK.Render("Ready to submit: the drawn area becomes the task")
	default:
		return s.TitleMuted.Render("Generate a preview to enable submission")
	}
}

func (v *SplitView) renderHelp() string {
	s := v.styles
	submit := s.ButtonDisabled.Render(" Submit ")
	if v.workflow.CanSubmit() && !v.submitting {
		submit = s.ButtonPrimary.Render(" Submit ")
	}
	generate := s.ButtonDisabled.Render(" Generate ")
	if m := v.workflow.Method(); m != nil && m.NeedsGeneration() && !v.workflow.Generating() {
		generate = s.Button.Render(" Generate ")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, generate, "  ", submit)
	help := s.Help.Render(
		fmt.Sprintf("%s method • %s param • %s generate • %s submit • %s back",
			s.HelpKey.Render("↑/↓"),
			s.HelpKey.Render("tab"),
			s.HelpKey.Render("ctrl+g"),
			s.HelpKey.Render("ctrl+s"),
			s.HelpKey.Render("esc"),
		),
	)
	return lipgloss.JoinVertical(lipgloss.Left, buttons, help)
}
