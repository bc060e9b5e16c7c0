package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/evaluation"
)

type evaluationRepository struct {
	db *DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil)

func NewEvaluationRepository(db *DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

func (repo *evaluationRepository) CreateEvaluation(ctx context.Context, ev evaluation.Evaluation, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.evaluations[ev.ID] = &ev
	return ev, nil
}

func (repo *evaluationRepository) QueryEvaluations(ctx context.Context, applicationID string, exec ...core.DBExecutor) ([]evaluation.Evaluation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	evals := make([]evaluation.Evaluation, 0)
	for _, ev := range repo.db.evaluations {
		if ev.ApplicationID == applicationID {
			evals = append(evals, *ev)
		}
	}
	sort.Slice(evals, func(i, j int) bool { return evals[i].CreatedAt.Before(evals[j].CreatedAt) })
	return evals, nil
}

func (repo *evaluationRepository) GetEvaluation(ctx context.Context, id string, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if ev, ok := repo.db.evaluations[id]; ok {
		return *ev, nil
	}
	return evaluation.Evaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) GetEvaluationByType(ctx context.Context, applicationID, evalType string, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, ev := range repo.db.evaluations {
		if ev.ApplicationID == applicationID && ev.Type == evalType {
			return *ev, nil
		}
	}
	return evaluation.Evaluation{}, evaluation.ErrNotFound
}
