package app

import "charm.land/lipgloss/v2"

const (
	bubblePaddingVertical   = 0
	bubblePaddingHorizontal = 1
)

var (
	headerStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activityStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	dividerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	sectionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)
	chatMetaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
	sourceStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	logStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	logErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	userBubbleStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Background(lipgloss.Color("236")).Padding(bubblePaddingVertical, bubblePaddingHorizontal)
	agentBubbleStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(bubblePaddingVertical, bubblePaddingHorizontal)
	systemBubbleStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("237")).Foreground(lipgloss.Color("245")).Padding(bubblePaddingVertical, bubblePaddingHorizontal)
	workflowStyles    = map[string]lipgloss.Style{
		"pending":   lipgloss.NewStyle().Foreground(lipgloss.Color("179")),
		"running":   lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true),
		"completed": lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true),
		"error":     lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
	}
	toastInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Bold(true)
	toastWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("136")).Bold(true)
	toastErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Bold(true)
)

func workflowStyle(status string) lipgloss.Style {
	if style, ok := workflowStyles[status]; ok {
		return style
	}
	return statusStyle
}
