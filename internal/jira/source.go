package jira

import (
	"context"

	"github.com/Afrawles/sprintdigest/internal/report"
)

type JiraSource struct {
	Client *Client
}

func NewJiraSource(client *Client) *JiraSource {
	return &JiraSource{Client: client}
}

var _ report.IssueSource = (*JiraSource)(nil)

func (s *JiraSource) Name() string {
	return "Jira"
}

func (s *JiraSource) HealthCheck(ctx context.Context) error {
	_, err := s.Client.Myself(ctx)
	return err
}

func (s *JiraSource) Boards(ctx context.Context, boardType string) ([]report.Board, error) {
	boards, err := s.Client.Boards(ctx, boardType)
	if err != nil {
		return nil, err
	}

	out := make([]report.Board, 0, len(boards))
	for _, b := range boards {
		out = append(out, report.Board{ID: b.ID, Name: b.Name, Type: b.Type})
	}
	return out, nil
}

func (s *JiraSource) ActiveSprints(ctx context.Context, board report.Board) ([]report.Sprint, error) {
	sprints, err := s.Client.ActiveSprints(ctx, board.ID)
	if err != nil {
		return nil, err
	}

	out := make([]report.Sprint, 0, len(sprints))
	for _, sp := range sprints {
		out = append(out, report.Sprint{ID: sp.ID, Name: sp.Name, State: sp.State, BoardID: board.ID})
	}
	return out, nil
}

func (s *JiraSource) BoardIssues(ctx context.Context, board report.Board, jql string) ([]report.Issue, error) {
	issues, err := s.Client.BoardIssues(ctx, board.ID, jql)
	if err != nil {
		return nil, err
	}
	return s.convert(issues, board, ""), nil
}

func (s *JiraSource) SprintIssues(ctx context.Context, sprint report.Sprint, board report.Board, jql string) ([]report.Issue, error) {
	issues, err := s.Client.SprintIssues(ctx, sprint.ID, jql)
	if err != nil {
		return nil, err
	}
	return s.convert(issues, board, sprint.Name), nil
}

func (s *JiraSource) convert(issues []Issue, board report.Board, sprintName string) []report.Issue {
	out := make([]report.Issue, 0, len(issues))
	for _, i := range issues {
		issue := report.Issue{
			Key:     i.Key,
			Summary: i.Fields.Summary,
			Board:   board.Name,
			BoardID: board.ID,
			Sprint:  sprintName,
			URL:     s.Client.BrowseURL(i.Key),
			Created: i.Fields.Created.Time,
			Updated: i.Fields.Updated.Time,
		}

		if t := i.Fields.IssueType; t != nil {
			issue.Type = t.Name
		}
		if st := i.Fields.Status; st != nil {
			issue.Status = st.Name
			issue.StatusCategory = st.StatusCategory.Name
		}
		if a := i.Fields.Assignee; a != nil {
			issue.Assignee = a.DisplayName
			issue.AssigneeID = a.AccountID
		}
		if issue.Sprint == "" && i.Fields.Sprint != nil {
			issue.Sprint = i.Fields.Sprint.Name
		}
		if !i.Fields.ResolutionDate.IsZero() {
			resolved := i.Fields.ResolutionDate.Time
			issue.Resolved = &resolved
		}

		out = append(out, issue)
	}
	return out
}
