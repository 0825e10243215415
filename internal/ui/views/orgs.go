package views

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jclemens/fieldtm/internal/api"
	"github.com/jclemens/fieldtm/internal/models"
	"github.com/jclemens/fieldtm/internal/ui/keys"
	"github.com/jclemens/fieldtm/internal/ui/styles"
)

type orgItem struct {
	org models.Organisation
}

func (i orgItem) Title() string       { return i.org.Name }
func (i orgItem) Description() string { return i.org.Description }
func (i orgItem) FilterValue() string { return i.org.Name }

type orgDelegate struct {
	styles *styles.Styles
	width  int
}

func (d orgDelegate) Height() int                               { return 2 }
func (d orgDelegate) Spacing() int                              { return 1 }
func (d orgDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d orgDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	o, ok := item.(orgItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	title := titleStyle.Render(o.Title())
	desc := descStyle.Render(o.Description())

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// OrgListView lets the user pick the organisation the project is created
// under
type OrgListView struct {
	client   *api.Client
	list     list.Model
	delegate *orgDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
	loadErr  string
}

// SelectedOrganisation is emitted when the user picks an organisation
type SelectedOrganisation struct {
	Org models.Organisation
}

type orgsLoadedMsg struct {
	orgs []models.Organisation
}

type orgsLoadFailedMsg struct {
	err error
}

// NewOrgListView creates the organisation picker
func NewOrgListView(client *api.Client) *OrgListView {
	s := styles.NewStyles()

	delegate := &orgDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Organisations"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &OrgListView{
		client:   client,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
	}
}

func (v *OrgListView) Init() tea.Cmd {
	return v.loadOrgs
}

func (v *OrgListView) loadOrgs() tea.Msg {
	orgs, err := v.client.ListOrganisations(context.Background())
	if err != nil {
		return orgsLoadFailedMsg{err: err}
	}
	return orgsLoadedMsg{orgs: orgs}
}

func (v *OrgListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case orgsLoadedMsg:
		items := make([]list.Item, len(msg.orgs))
		for i, o := range msg.orgs {
			items[i] = orgItem{org: o}
		}
		v.list.SetItems(items)
		v.loaded = true
		v.loadErr = ""
		return v, nil

	case orgsLoadFailedMsg:
		v.loaded = true
		v.loadErr = msg.err.Error()
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Reload):
			v.loaded = false
			v.loadErr = ""
			return v, v.loadOrgs
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(orgItem); ok {
				return v, func() tea.Msg {
					return SelectedOrganisation{Org: item.org}
				}
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// View renders the view
func (v *OrgListView) View() string {
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading organisations...")
	}

	if v.loadErr != "" {
		content := lipgloss.JoinVertical(lipgloss.Left,
			v.styles.Title.Render("Organisations"),
			"",
			RenderTraceback(v.styles, v.loadErr),
			"",
			v.styles.TitleMuted.Render("Press 'r' to retry"),
		)
		return styles.CenterView(content, v.width, v.height)
	}

	if len(v.list.Items()) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Center,
			v.styles.Title.Render("No Organisations"),
			"",
			v.styles.TitleMuted.Render("No organisations are available on this server"),
		)
		centered := lipgloss.Place(styles.ContentWidth(v.width), v.height,
			lipgloss.Center, lipgloss.Center,
			content,
		)
		return styles.CenterView(centered, v.width, v.height)
	}

	content := v.list.View() + "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *OrgListView) renderHelp() string {
	return v.styles.Help.Render(
		fmt.Sprintf("%s select • %s reload • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("q"),
		),
	)
}
