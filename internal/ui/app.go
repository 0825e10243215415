package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jclemens/fieldtm/internal/api"
	"github.com/jclemens/fieldtm/internal/db"
	"github.com/jclemens/fieldtm/internal/geojson"
	"github.com/jclemens/fieldtm/internal/models"
	"github.com/jclemens/fieldtm/internal/ui/styles"
	"github.com/jclemens/fieldtm/internal/ui/views"
)

// entityGenerationDelay is how long to wait after creation before opening
// the project: the backend generates project entities asynchronously and
// exposes no completion signal, so this is a heuristic, not a guarantee.
const entityGenerationDelay = 5 * time.Second

// Currently active wizard step
type View int

const (
	ViewOrganisations View = iota
	ViewDetails
	ViewSplit
	ViewCreated
)

type App struct {
	db          *db.DB
	client      *api.Client
	log         *zap.Logger
	currentView View

	orgList *views.OrgListView
	details *views.DetailsView
	split   *views.SplitView

	draft    *models.ProjectDraft
	boundary *geojson.Feature
	extract  *geojson.FeatureCollection

	created *models.Project
	waiting bool

	width  int
	height int
}

type projectReadyMsg struct{}

// NewApp creates a new application
func NewApp(database *db.DB, client *api.Client, log *zap.Logger) *App {
	return &App{
		db:          database,
		client:      client,
		log:         log,
		currentView: ViewOrganisations,
		orgList:     views.NewOrgListView(client),
		draft:       &models.ProjectDraft{},
	}
}

func (a *App) Init() tea.Cmd {
	// Resume the last draft if one was left behind
	lastDraftID, err := a.db.GetSetting("last_draft_id")
	if err == nil && lastDraftID != "" {
		if d, err := a.db.GetDraft(lastDraftID); err == nil && d != nil {
			a.draft = d
			a.log.Info("resumed draft", zap.String("draft_id", d.ID))
		}
	}

	return a.orgList.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Org list persists across the wizard, keep its size current
		a.orgList.Update(msg)

	case views.SelectedOrganisation:
		a.draft.OrganisationID = msg.Org.ID
		a.currentView = ViewDetails
		a.details = views.NewDetailsView(a.draft)
		return a, tea.Batch(
			a.details.Init(),
			a.resize(),
		)

	case views.BackToOrganisations:
		a.saveDraft()
		a.currentView = ViewOrganisations
		return a, a.resize()

	case views.DetailsCompleted:
		a.saveDraft()
		a.boundary = msg.Boundary
		a.extract = msg.Extract
		a.currentView = ViewSplit
		a.split = views.NewSplitView(a.client, a.log, a.draft, a.boundary, a.extract)
		return a, tea.Batch(
			a.split.Init(),
			a.resize(),
		)

	case views.BackToDetails:
		a.currentView = ViewDetails
		a.details = views.NewDetailsView(a.draft)
		return a, tea.Batch(
			a.details.Init(),
			a.resize(),
		)

	case views.ProjectCreated:
		a.created = &msg.Project
		a.currentView = ViewCreated
		a.waiting = true
		a.log.Info("project created, waiting for backend entity generation",
			zap.Int("project_id", msg.Project.ID))
		return a, tea.Tick(entityGenerationDelay, func(time.Time) tea.Msg {
			return projectReadyMsg{}
		})

	case projectReadyMsg:
		a.waiting = false
		a.clearDraft()
		return a, nil

	case tea.KeyMsg:
		if a.currentView == ViewCreated && !a.waiting {
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewOrganisations:
		_, cmd = a.orgList.Update(msg)
	case ViewDetails:
		_, cmd = a.details.Update(msg)
	case ViewSplit:
		_, cmd = a.split.Update(msg)
	}

	return a, cmd
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) saveDraft() {
	if err := a.db.SaveDraft(a.draft); err != nil {
		a.log.Warn("saving draft", zap.Error(err))
		return
	}
	if err := a.db.SetSetting("last_draft_id", a.draft.ID); err != nil {
		a.log.Warn("saving last draft id", zap.Error(err))
	}
}

// clearDraft removes the submitted draft; a fresh one starts next run
func (a *App) clearDraft() {
	if a.draft.ID != "" {
		if err := a.db.DeleteDraft(a.draft.ID); err != nil {
			a.log.Warn("deleting draft", zap.Error(err))
		}
	}
	if err := a.db.SetSetting("last_draft_id", ""); err != nil {
		a.log.Warn("clearing last draft id", zap.Error(err))
	}
	a.draft = &models.ProjectDraft{}
}

func (a *App) View() string {
	switch a.currentView {
	case ViewDetails:
		if a.details != nil {
			return a.details.View()
		}
	case ViewSplit:
		if a.split != nil {
			return a.split.View()
		}
	case ViewCreated:
		return a.renderCreated()
	}
	return a.orgList.View()
}

func (a *App) renderCreated() string {
	s := styles.NewStyles()

	var body string
	if a.waiting {
		body = s.TitleMuted.Render("Waiting for the platform to finish generating project entities...")
	} else {
		body = s.TitleMuted.Render("Press any key to exit")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render(fmt.Sprintf("Project #%d created", a.created.ID)),
		"",
		body,
	)

	centered := lipgloss.Place(styles.ContentWidth(a.width), a.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, a.width, a.height)
}
