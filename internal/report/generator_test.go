package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	mu         sync.Mutex
	healthErr  error
	boards     []Board
	boardsErr  error
	sprints    map[int][]Sprint
	issues     map[int][]Issue // by board ID, or sprint ID in sprint mode
	failBoards map[int]error
	gotType    string
	gotJQL     []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) HealthCheck(context.Context) error { return f.healthErr }

func (f *fakeSource) Boards(_ context.Context, boardType string) ([]Board, error) {
	f.gotType = boardType
	return f.boards, f.boardsErr
}

func (f *fakeSource) ActiveSprints(_ context.Context, board Board) ([]Sprint, error) {
	if err := f.failBoards[board.ID]; err != nil {
		return nil, err
	}
	return f.sprints[board.ID], nil
}

func (f *fakeSource) BoardIssues(_ context.Context, board Board, jql string) ([]Issue, error) {
	f.mu.Lock()
	f.gotJQL = append(f.gotJQL, jql)
	f.mu.Unlock()
	if err := f.failBoards[board.ID]; err != nil {
		return nil, err
	}
	return f.issues[board.ID], nil
}

func (f *fakeSource) SprintIssues(_ context.Context, sprint Sprint, _ Board, _ string) ([]Issue, error) {
	return f.issues[sprint.ID], nil
}

func TestGenerateMergesBoardsInOrder(t *testing.T) {
	src := &fakeSource{
		boards: []Board{{ID: 1, Name: "One"}, {ID: 2, Name: "Two"}, {ID: 3, Name: "Three"}},
		issues: map[int][]Issue{
			1: {{Key: "A-1"}},
			2: {{Key: "B-1"}, {Key: "B-2"}},
			3: {{Key: "C-1"}},
		},
	}

	gen := NewGenerator(src, nil, 3)
	res, err := gen.Generate(context.Background(), Query{JQL: "status=Done", Mode: ModeBoard})
	require.NoError(t, err)

	var keys []string
	for _, i := range res.Issues {
		keys = append(keys, i.Key)
	}
	assert.Equal(t, []string{"A-1", "B-1", "B-2", "C-1"}, keys)
	assert.Empty(t, res.Failures)
	assert.Equal(t, []string{"status=Done", "status=Done", "status=Done"}, src.gotJQL)
}

func TestGenerateSkipsFailingBoard(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	src := &fakeSource{
		boards:     []Board{{ID: 1, Name: "One"}, {ID: 2, Name: "Kanban"}},
		issues:     map[int][]Issue{1: {{Key: "A-1"}}},
		failBoards: map[int]error{2: errors.New("boom")},
	}

	gen := NewGenerator(src, zap.New(core), 2)
	res, err := gen.Generate(context.Background(), Query{Mode: ModeBoard})
	require.NoError(t, err)

	require.Len(t, res.Issues, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].Board.ID)
	assert.EqualError(t, res.Failures[0], "board 2 (Kanban): boom")
	assert.Equal(t, 1, logs.FilterMessage("failed to fetch board").Len())
}

func TestGenerateAllBoardsFailed(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{
		boards:     []Board{{ID: 1}, {ID: 2}},
		failBoards: map[int]error{1: boom, 2: boom},
	}

	_, err := NewGenerator(src, nil, 1).Generate(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrAllBoardsFailed)
	assert.ErrorIs(t, err, boom)
}

func TestGenerateBoardListFailureIsFatal(t *testing.T) {
	src := &fakeSource{boardsErr: errors.New("401")}
	_, err := NewGenerator(src, nil, 1).Generate(context.Background(), Query{})
	assert.ErrorContains(t, err, "failed to list boards")

	src = &fakeSource{healthErr: errors.New("unauthorized")}
	_, err = NewGenerator(src, nil, 1).Generate(context.Background(), Query{})
	assert.ErrorContains(t, err, "health check failed")
}

func TestGenerateNoBoards(t *testing.T) {
	res, err := NewGenerator(&fakeSource{}, nil, 1).Generate(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
}

func TestGenerateFiltersBoards(t *testing.T) {
	src := &fakeSource{
		boards: []Board{{ID: 1}, {ID: 2}, {ID: 3}},
		issues: map[int][]Issue{1: {{Key: "A-1"}}, 2: {{Key: "B-1"}}, 3: {{Key: "C-1"}}},
	}

	res, err := NewGenerator(src, nil, 2).Generate(context.Background(), Query{BoardIDs: []int{3, 1}})
	require.NoError(t, err)
	require.Len(t, res.Boards, 2)
	assert.Equal(t, "A-1", res.Issues[0].Key)
	assert.Equal(t, "C-1", res.Issues[1].Key)
}

func TestGenerateSprintMode(t *testing.T) {
	src := &fakeSource{
		boards: []Board{{ID: 1, Name: "One"}},
		sprints: map[int][]Sprint{
			1: {{ID: 10, Name: "S10"}, {ID: 11, Name: "S11"}},
		},
		issues: map[int][]Issue{
			10: {{Key: "A-1", Sprint: "S10"}},
			11: {{Key: "A-2", Sprint: "S11"}},
		},
	}

	res, err := NewGenerator(src, nil, 1).Generate(context.Background(), Query{Mode: ModeSprint, BoardType: "scrum"})
	require.NoError(t, err)
	assert.Equal(t, "scrum", src.gotType)
	require.Len(t, res.Issues, 2)
	assert.Equal(t, "A-2", res.Issues[1].Key)
}

func TestGenerateCanceled(t *testing.T) {
	src := &fakeSource{
		boards:     []Board{{ID: 1}},
		failBoards: map[int]error{1: context.Canceled},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(src, nil, 1).Generate(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatistics(t *testing.T) {
	resolved := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)
	issues := []Issue{
		{Key: "A-1", Status: "Done", Type: "Story", Board: "One", Assignee: "Ada", Resolved: &resolved},
		{Key: "A-2", Status: "To Do", Type: "Bug", Board: "One"},
	}
	stats := NewGenerator(&fakeSource{}, nil, 1).Statistics(issues)

	assert.Equal(t, 2, stats["total"])
	assert.Equal(t, 1, stats["resolved"])
	assert.Equal(t, map[string]int{"Ada": 1, Unassigned: 1}, stats["by_assignee"])
	assert.Equal(t, map[string]int{"One": 2}, stats["by_board"])
}
