package report

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrAllBoardsFailed = errors.New("failed to fetch from every board")

type BoardError struct {
	Board Board
	Err   error
}

func (e BoardError) Error() string {
	return fmt.Sprintf("board %d (%s): %v", e.Board.ID, e.Board.Name, e.Err)
}

func (e BoardError) Unwrap() error {
	return e.Err
}

type FetchResult struct {
	Boards   []Board
	Issues   []Issue
	Failures []BoardError
}

type Generator struct {
	Source      IssueSource
	Logger      *zap.Logger
	Concurrency int
}

func NewGenerator(source IssueSource, logger *zap.Logger, concurrency int) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Generator{Source: source, Logger: logger, Concurrency: concurrency}
}

// Generate lists the boards and collects the issues matching q from each of
// them. A board that fails is logged and skipped; only a failing board list
// or every board failing is an error.
func (g *Generator) Generate(ctx context.Context, q Query) (*FetchResult, error) {
	log := g.Logger.With(zap.String("source", g.Source.Name()))

	if err := g.Source.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("%s health check failed: %w", g.Source.Name(), err)
	}

	boards, err := g.Source.Boards(ctx, q.BoardType)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	boards = filterBoards(boards, q.BoardIDs)
	log.Info("boards listed", zap.Int("count", len(boards)), zap.String("mode", q.Mode))

	perBoard := make([][]Issue, len(boards))
	boardErrs := make([]error, len(boards))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.Concurrency)
	for i, board := range boards {
		i, board := i, board // per-iteration copy (go < 1.22 loop semantics)
		eg.Go(func() error {
			issues, err := g.fetchBoard(egCtx, board, q)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				boardErrs[i] = err
				return nil
			}
			perBoard[i] = issues
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := &FetchResult{Boards: boards}
	for i, board := range boards {
		if boardErrs[i] != nil {
			log.Warn("failed to fetch board",
				zap.Int("board_id", board.ID),
				zap.String("board", board.Name),
				zap.Error(boardErrs[i]),
			)
			result.Failures = append(result.Failures, BoardError{Board: board, Err: boardErrs[i]})
			continue
		}
		log.Debug("board fetched",
			zap.Int("board_id", board.ID),
			zap.Int("issues", len(perBoard[i])),
		)
		result.Issues = append(result.Issues, perBoard[i]...)
	}

	if len(boards) > 0 && len(result.Failures) == len(boards) {
		return result, fmt.Errorf("%w: %w", ErrAllBoardsFailed, result.Failures[0])
	}

	log.Info("issues fetched",
		zap.Int("issues", len(result.Issues)),
		zap.Int("failed_boards", len(result.Failures)),
	)
	return result, nil
}

func (g *Generator) fetchBoard(ctx context.Context, board Board, q Query) ([]Issue, error) {
	if q.Mode != ModeSprint {
		return g.Source.BoardIssues(ctx, board, q.JQL)
	}

	sprints, err := g.Source.ActiveSprints(ctx, board)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sprints: %w", err)
	}

	var issues []Issue
	for _, sprint := range sprints {
		found, err := g.Source.SprintIssues(ctx, sprint, board, q.JQL)
		if err != nil {
			return nil, fmt.Errorf("sprint %d (%s): %w", sprint.ID, sprint.Name, err)
		}
		issues = append(issues, found...)
	}
	return issues, nil
}

func filterBoards(boards []Board, ids []int) []Board {
	if len(ids) == 0 {
		return boards
	}
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var kept []Board
	for _, b := range boards {
		if want[b.ID] {
			kept = append(kept, b)
		}
	}
	return kept
}

// Statistics generates summary stats
func (g *Generator) Statistics(issues []Issue) map[string]any {
	stats := make(map[string]any)

	byBoard := make(map[string]int)
	byStatus := make(map[string]int)
	byType := make(map[string]int)
	byAssignee := make(map[string]int)

	resolved := 0
	for _, issue := range issues {
		byBoard[issue.Board]++
		byStatus[issue.Status]++
		byType[issue.Type]++
		assignee := issue.Assignee
		if assignee == "" {
			assignee = Unassigned
		}
		byAssignee[assignee]++
		if issue.Resolved != nil {
			resolved++
		}
	}

	stats["total"] = len(issues)
	stats["resolved"] = resolved
	stats["by_board"] = byBoard
	stats["by_status"] = byStatus
	stats["by_type"] = byType
	stats["by_assignee"] = byAssignee
	return stats
}
