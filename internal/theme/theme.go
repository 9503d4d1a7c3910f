// Package theme resolves a theme name into the style tokens a client renders with.
package theme

import (
	"errors"
	"fmt"
	"maps"

	"github.com/benvon/smart-gantt/internal/models"
)

// Name identifies a theme
type Name string

const (
	Default   Name = "default"
	Modern    Name = "modern"
	Minimal   Name = "minimal"
	Corporate Name = "corporate"
	Dark      Name = "dark"
)

// ErrUnknownTheme is returned for a name outside Names()
var ErrUnknownTheme = errors.New("unknown theme")

// StyleTokens are the class tokens for one theme
type StyleTokens struct {
	Name        Name                           `json:"name"`
	Label       string                         `json:"label"`
	Description string                         `json:"description"`
	Container   string                         `json:"container"`
	Card        string                         `json:"card"`
	Header      string                         `json:"header"`
	Accent      string                         `json:"accent"`
	Status      map[models.TaskStatus]string   `json:"status"`
	Priority    map[models.TaskPriority]string `json:"priority"`
}

// StatusToken returns the token for a status, falling back to the default theme
func (s StyleTokens) StatusToken(status models.TaskStatus) string {
	if v, ok := s.Status[status]; ok {
		return v
	}
	if v, ok := catalog[Default].Status[status]; ok {
		return v
	}
	return "bg-gray-100 text-gray-800"
}

// PriorityToken returns the token for a priority, falling back to the default theme
func (s StyleTokens) PriorityToken(priority models.TaskPriority) string {
	if v, ok := s.Priority[priority]; ok {
		return v
	}
	if v, ok := catalog[Default].Priority[priority]; ok {
		return v
	}
	return "bg-gray-500"
}

// Names lists the themes in menu order
func Names() []Name {
	return []Name{Default, Modern, Minimal, Corporate, Dark}
}

// Tokens resolves a theme. An empty name means Default.
// The returned maps are fresh copies.
func Tokens(name string) (StyleTokens, error) {
	if name == "" {
		name = string(Default)
	}
	t, ok := catalog[Name(name)]
	if !ok {
		return StyleTokens{}, fmt.Errorf("%w: %s", ErrUnknownTheme, name)
	}
	t.Status = maps.Clone(t.Status)
	t.Priority = maps.Clone(t.Priority)
	return t, nil
}

var catalog = map[Name]StyleTokens{
	Default: {
		Name:        Default,
		Label:       "Default",
		Description: "Clean and professional",
		Container:   "bg-background min-h-screen",
		Card:        "bg-card",
		Header:      "bg-background",
		Accent:      "text-primary",
		Status: map[models.TaskStatus]string{
			models.TaskStatusCompleted:  "bg-green-100 text-green-800",
			models.TaskStatusInProgress: "bg-blue-100 text-blue-800",
			models.TaskStatusNotStarted: "bg-gray-100 text-gray-800",
			models.TaskStatusDelayed:    "bg-orange-100 text-orange-800",
			models.TaskStatusBlocked:    "bg-red-100 text-red-800",
		},
		Priority: map[models.TaskPriority]string{
			models.TaskPriorityHigh:   "bg-red-500",
			models.TaskPriorityMedium: "bg-yellow-500",
			models.TaskPriorityLow:    "bg-green-500",
		},
	},
	Modern: {
		Name:        Modern,
		Label:       "Modern",
		Description: "Gradients and glass effects",
		Container:   "bg-gradient-to-br from-slate-50 to-blue-50 min-h-screen",
		Card:        "bg-white/80 backdrop-blur-sm border-0 shadow-xl",
		Header:      "bg-gradient-to-r from-blue-600 to-purple-600 text-white",
		Accent:      "text-blue-600",
		Status: map[models.TaskStatus]string{
			models.TaskStatusCompleted:  "bg-gradient-to-r from-green-100 to-emerald-100 text-green-800",
			models.TaskStatusInProgress: "bg-gradient-to-r from-blue-100 to-cyan-100 text-blue-800",
			models.TaskStatusNotStarted: "bg-gradient-to-r from-gray-100 to-slate-100 text-gray-800",
			models.TaskStatusDelayed:    "bg-gradient-to-r from-orange-100 to-amber-100 text-orange-800",
			models.TaskStatusBlocked:    "bg-gradient-to-r from-red-100 to-rose-100 text-red-800",
		},
		Priority: map[models.TaskPriority]string{
			models.TaskPriorityHigh:   "bg-gradient-to-r from-red-500 to-pink-500",
			models.TaskPriorityMedium: "bg-gradient-to-r from-yellow-500 to-orange-500",
			models.TaskPriorityLow:    "bg-gradient-to-r from-green-500 to-emerald-500",
		},
	},
	Minimal: {
		Name:        Minimal,
		Label:       "Minimal",
		Description: "Simple and focused",
		Container:   "bg-gray-50 min-h-screen",
		Card:        "bg-white border border-gray-200 shadow-sm",
		Header:      "bg-white border-b border-gray-200",
		Accent:      "text-gray-900",
		Status: map[models.TaskStatus]string{
			models.TaskStatusCompleted:  "bg-gray-100 text-gray-800 border border-gray-300",
			models.TaskStatusInProgress: "bg-gray-50 text-gray-700 border border-gray-300",
			models.TaskStatusNotStarted: "bg-white text-gray-600 border border-gray-300",
			models.TaskStatusDelayed:    "bg-gray-100 text-gray-800 border border-gray-400",
			models.TaskStatusBlocked:    "bg-gray-200 text-gray-900 border border-gray-400",
		},
		Priority: map[models.TaskPriority]string{
			models.TaskPriorityHigh:   "bg-gray-800",
			models.TaskPriorityMedium: "bg-gray-600",
			models.TaskPriorityLow:    "bg-gray-400",
		},
	},
	Corporate: {
		Name:        Corporate,
		Label:       "Corporate",
		Description: "Business-oriented design",
		Container:   "bg-slate-100 min-h-screen",
		Card:        "bg-white border border-slate-300 shadow-md",
		Header:      "bg-slate-800 text-white",
		Accent:      "text-slate-700",
		Status: map[models.TaskStatus]string{
			models.TaskStatusCompleted:  "bg-green-50 text-green-700 border border-green-200",
			models.TaskStatusInProgress: "bg-blue-50 text-blue-700 border border-blue-200",
			models.TaskStatusNotStarted: "bg-slate-50 text-slate-700 border border-slate-200",
			models.TaskStatusDelayed:    "bg-amber-50 text-amber-700 border border-amber-200",
			models.TaskStatusBlocked:    "bg-red-50 text-red-700 border border-red-200",
		},
		Priority: map[models.TaskPriority]string{
			models.TaskPriorityHigh:   "bg-red-600",
			models.TaskPriorityMedium: "bg-amber-600",
			models.TaskPriorityLow:    "bg-green-600",
		},
	},
	Dark: {
		Name:        Dark,
		Label:       "Dark",
		Description: "Dark mode interface",
		Container:   "bg-gray-900 min-h-screen text-white",
		Card:        "bg-gray-800 border border-gray-700 shadow-xl",
		Header:      "bg-gray-800 border-b border-gray-700 text-white",
		Accent:      "text-blue-400",
		Status: map[models.TaskStatus]string{
			models.TaskStatusCompleted:  "bg-green-900/50 text-green-300 border border-green-700",
			models.TaskStatusInProgress: "bg-blue-900/50 text-blue-300 border border-blue-700",
			models.TaskStatusNotStarted: "bg-gray-800 text-gray-300 border border-gray-600",
			models.TaskStatusDelayed:    "bg-orange-900/50 text-orange-300 border border-orange-700",
			models.TaskStatusBlocked:    "bg-red-900/50 text-red-300 border border-red-700",
		},
		Priority: map[models.TaskPriority]string{
			models.TaskPriorityHigh:   "bg-red-400",
			models.TaskPriorityMedium: "bg-yellow-400",
			models.TaskPriorityLow:    "bg-green-400",
		},
	},
}
