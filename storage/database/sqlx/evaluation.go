package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tarajali/core"
	"github.com/trezcool/tarajali/core/evaluation"
)

type evaluationRow struct {
	ID                 string      `db:"id"`
	ApplicationID      string      `db:"application_id"`
	EvaluatorID        null.String `db:"evaluator_id"`
	Type               string      `db:"type"`
	Punctuality        int         `db:"punctuality"`
	Professionalism    int         `db:"professionalism"`
	Communication      int         `db:"communication"`
	Teamwork           int         `db:"teamwork"`
	Initiative         int         `db:"initiative"`
	TechnicalKnowledge int         `db:"technical_knowledge"`
	ProblemSolving     int         `db:"problem_solving"`
	QualityOfWork      int         `db:"quality_of_work"`
	Productivity       int         `db:"productivity"`
	Comments           null.String `db:"comments"`
	TotalMarks         int         `db:"total_marks"`
	Grade              string      `db:"grade"`
	CreatedAt          null.Time   `db:"created_at"`
	UpdatedAt          null.Time   `db:"updated_at"`
}

func (r evaluationRow) evaluation() evaluation.Evaluation {
	return evaluation.Evaluation{
		ID:            r.ID,
		ApplicationID: r.ApplicationID,
		EvaluatorID:   r.EvaluatorID.String,
		Type:          r.Type,
		Scores: evaluation.Scores{
			Punctuality:        r.Punctuality,
			Professionalism:    r.Professionalism,
			Communication:      r.Communication,
			Teamwork:           r.Teamwork,
			Initiative:         r.Initiative,
			TechnicalKnowledge: r.TechnicalKnowledge,
			ProblemSolving:     r.ProblemSolving,
			QualityOfWork:      r.QualityOfWork,
			Productivity:       r.Productivity,
		},
		Comments:   r.Comments.String,
		TotalMarks: r.TotalMarks,
		Grade:      r.Grade,
		CreatedAt:  r.CreatedAt.Time,
		UpdatedAt:  r.UpdatedAt.Time,
	}
}

type evaluationRepository struct {
	db *sqlx.DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *sqlx.DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

func (repo evaluationRepository) CreateEvaluation(ctx context.Context, ev evaluation.Evaluation, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	query := `
		INSERT INTO evaluation (id, application_id, evaluator_id, type, punctuality, professionalism, communication,
		                        teamwork, initiative, technical_knowledge, problem_solving, quality_of_work,
		                        productivity, comments, total_marks, grade, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	if _, err := ext(repo.db, exec).ExecContext(ctx, query,
		ev.ID, ev.ApplicationID, null.NewString(ev.EvaluatorID, ev.EvaluatorID != ""), ev.Type,
		ev.Scores.Punctuality, ev.Scores.Professionalism, ev.Scores.Communication, ev.Scores.Teamwork,
		ev.Scores.Initiative, ev.Scores.TechnicalKnowledge, ev.Scores.ProblemSolving, ev.Scores.QualityOfWork,
		ev.Scores.Productivity, null.NewString(ev.Comments, ev.Comments != ""), ev.TotalMarks, ev.Grade,
		ev.CreatedAt.UTC(), ev.UpdatedAt.UTC()); err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "inserting evaluation")
	}
	return ev, nil
}

func (repo evaluationRepository) QueryEvaluations(ctx context.Context, applicationID string, exec ...core.DBExecutor) ([]evaluation.Evaluation, error) {
	var rows []evaluationRow
	query := `SELECT * FROM evaluation WHERE application_id = $1 ORDER BY created_at ASC`
	if err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows, query, applicationID); err != nil {
		return nil, errors.Wrap(err, "querying evaluations")
	}
	evals := make([]evaluation.Evaluation, 0, len(rows))
	for _, row := range rows {
		evals = append(evals, row.evaluation())
	}
	return evals, nil
}

func (repo evaluationRepository) GetEvaluation(ctx context.Context, id string, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	var row evaluationRow
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, `SELECT * FROM evaluation WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return evaluation.Evaluation{}, evaluation.ErrNotFound
		}
		return evaluation.Evaluation{}, errors.Wrap(err, "getting evaluation")
	}
	return row.evaluation(), nil
}

func (repo evaluationRepository) GetEvaluationByType(ctx context.Context, applicationID, evalType string, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	var row evaluationRow
	query := `SELECT * FROM evaluation WHERE application_id = $1 AND type = $2`
	if err := sqlx.GetContext(ctx, ext(repo.db, exec), &row, query, applicationID, evalType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return evaluation.Evaluation{}, evaluation.ErrNotFound
		}
		return evaluation.Evaluation{}, errors.Wrap(err, "getting evaluation")
	}
	return row.evaluation(), nil
}
