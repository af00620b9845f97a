package jira

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const timeLayout = "2006-01-02T15:04:05.000-0700"

// Time decodes Jira's timestamp format. Empty and null values decode to the
// zero time.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var raw string
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		return nil
	}

	for _, layout := range []string{timeLayout, time.RFC3339Nano} {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("jira: unrecognised timestamp %q", raw)
}

// valuesPage is the envelope of the agile list endpoints (boards, sprints).
type valuesPage[T any] struct {
	StartAt    int  `json:"startAt"`
	MaxResults int  `json:"maxResults"`
	Total      int  `json:"total"`
	IsLast     bool `json:"isLast"`
	Values     []T  `json:"values"`
}

type issuesPage struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

type Board struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location struct {
		ProjectKey string `json:"projectKey"`
	} `json:"location"`
}

type Sprint struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	State         string `json:"state"`
	OriginBoardID int    `json:"originBoardId"`
	StartDate     Time   `json:"startDate"`
	EndDate       Time   `json:"endDate"`
}

type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

type IssueFields struct {
	Summary        string     `json:"summary"`
	IssueType      *IssueType `json:"issuetype"`
	Status         *Status    `json:"status"`
	Assignee       *User      `json:"assignee"`
	Sprint         *Sprint    `json:"sprint"`
	Created        Time       `json:"created"`
	Updated        Time       `json:"updated"`
	ResolutionDate Time       `json:"resolutiondate"`
}

type IssueType struct {
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

type Status struct {
	Name           string `json:"name"`
	StatusCategory struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"statusCategory"`
}

type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active"`
}

// issueFields is requested from the issue endpoints to keep pages small.
var issueFields = strings.Join([]string{
	"summary",
	"issuetype",
	"status",
	"assignee",
	"sprint",
	"created",
	"updated",
	"resolutiondate",
}, ",")

// APIError is a non-2xx answer from Jira.
type APIError struct {
	StatusCode int
	Body       string
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

type errorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}
