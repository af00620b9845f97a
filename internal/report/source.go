package report

import (
	"context"
	"time"
)

type Issue struct {
	Key            string     `json:"key"`
	Summary        string     `json:"summary"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	StatusCategory string     `json:"status_category,omitempty"`
	Assignee       string     `json:"assignee,omitempty"`
	AssigneeID     string     `json:"assignee_id,omitempty"`
	Board          string     `json:"board"`
	BoardID        int        `json:"board_id"`
	Sprint         string     `json:"sprint,omitempty"`
	URL            string     `json:"url"`
	Created        time.Time  `json:"created"`
	Updated        time.Time  `json:"updated"`
	Resolved       *time.Time `json:"resolved,omitempty"`
}

type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Sprint struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	State   string `json:"state"`
	BoardID int    `json:"board_id"`
}

const (
	ModeBoard  = "board"
	ModeSprint = "sprint"
)

// Query selects which issues a Generator collects.
type Query struct {
	JQL       string
	Mode      string
	BoardIDs  []int
	BoardType string
}

type IssueSource interface {
	Name() string
	HealthCheck(ctx context.Context) error
	Boards(ctx context.Context, boardType string) ([]Board, error)
	ActiveSprints(ctx context.Context, board Board) ([]Sprint, error)
	BoardIssues(ctx context.Context, board Board, jql string) ([]Issue, error)
	SprintIssues(ctx context.Context, sprint Sprint, board Board, jql string) ([]Issue, error)
}

// Notifier delivers a rendered digest to one destination.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, text string) error
}
