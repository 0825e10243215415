package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jclemens/fieldtm/internal/ui/styles"
)

// RenderTraceback renders a server error message as a line-numbered block,
// so multi-line tracebacks from the splitting backend stay readable.
func RenderTraceback(s *styles.Styles, msg string) string {
	lines := strings.Split(strings.TrimRight(msg, "\n"), "\n")
	rendered := make([]string, len(lines))
	for i, line := range lines {
		rendered[i] = lipgloss.JoinHorizontal(lipgloss.Top,
			s.TracebackNum.Render(fmt.Sprintf("%3d │ ", i+1)),
			s.TracebackLine.Render(line),
		)
	}
	return s.Notification.Render(strings.Join(rendered, "\n"))
}
