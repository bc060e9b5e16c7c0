package evaluation

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/tarajali/core"
)

// Evaluation types
const (
	TypeMidterm = "midterm"
	TypeFinal   = "final"
)

// criteria are scored 1 to 10 each
const (
	criteriaCount = 9
	MaxMarks      = criteriaCount * 10
)

// The final grade weighs the two evaluations 40/60 in the final's favour.
const (
	midtermWeight = 0.4
	finalWeight   = 0.6
)

type (
	// Scores holds the nine criteria marks of an evaluation.
	Scores struct {
		Punctuality        int `json:"punctuality" validate:"score"`
		Professionalism    int `json:"professionalism" validate:"score"`
		Communication      int `json:"communication" validate:"score"`
		Teamwork           int `json:"teamwork" validate:"score"`
		Initiative         int `json:"initiative" validate:"score"`
		TechnicalKnowledge int `json:"technical_knowledge" validate:"score"`
		ProblemSolving     int `json:"problem_solving" validate:"score"`
		QualityOfWork      int `json:"quality_of_work" validate:"score"`
		Productivity       int `json:"productivity" validate:"score"`
	}

	// Evaluation is a supervisor's scoring of a student's attachment. One
	// evaluation per type per application.
	Evaluation struct {
		ID            string    `json:"id"`
		ApplicationID string    `json:"application_id"`
		EvaluatorID   string    `json:"evaluator_id"`
		Type          string    `json:"type"`
		Scores        Scores    `json:"scores"`
		Comments      string    `json:"comments,omitempty"`
		TotalMarks    int       `json:"total_marks"`
		Grade         string    `json:"grade"`
		CreatedAt     time.Time `json:"created_at"`
		UpdatedAt     time.Time `json:"updated_at"`
	}

	NewEvaluation struct {
		ApplicationID string `json:"application_id" validate:"required"`
		Type          string `json:"type" validate:"required,oneof=midterm final"`
		Scores        Scores `json:"scores"`
		Comments      string `json:"comments"`
	}

	// Result is the derived outcome of an application's evaluations.
	Result struct {
		ApplicationID string      `json:"application_id"`
		Midterm       *Evaluation `json:"midterm,omitempty"`
		Final         *Evaluation `json:"final,omitempty"`
		FinalMarks    float64     `json:"final_marks"`
		FinalGrade    string      `json:"final_grade"`
		Complete      bool        `json:"complete"`
	}
)

func (s Scores) Total() int {
	return s.Punctuality + s.Professionalism + s.Communication + s.Teamwork + s.Initiative +
		s.TechnicalKnowledge + s.ProblemSolving + s.QualityOfWork + s.Productivity
}

// GradeFor bands a percentage mark into a letter grade.
func GradeFor(percent float64) string {
	switch {
	case percent >= 70:
		return "A"
	case percent >= 60:
		return "B"
	case percent >= 50:
		return "C"
	case percent >= 40:
		return "D"
	default:
		return "E"
	}
}

func (ne *NewEvaluation) Validate(ctx context.Context, validate *validator.Validate) error {
	ne.Comments = core.CleanString(ne.Comments)
	ne.Type = core.CleanString(ne.Type, true)
	return validate.StructCtx(ctx, ne)
}

func (ne NewEvaluation) Evaluation(evaluatorID string) Evaluation {
	now := time.Now().UTC()
	total := ne.Scores.Total()
	return Evaluation{
		ID:            uuid.New().String(),
		ApplicationID: ne.ApplicationID,
		EvaluatorID:   evaluatorID,
		Type:          ne.Type,
		Scores:        ne.Scores,
		Comments:      ne.Comments,
		TotalMarks:    total,
		Grade:         GradeFor(float64(total) / MaxMarks * 100),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (ev *Evaluation) Percent() float64 {
	return float64(ev.TotalMarks) / MaxMarks * 100
}

// NewResult combines an application's evaluations into a weighted outcome.
// The final grade is only derived once both evaluations are in.
func NewResult(applicationID string, midterm, final *Evaluation) Result {
	res := Result{ApplicationID: applicationID, Midterm: midterm, Final: final}
	if midterm == nil || final == nil {
		return res
	}
	res.FinalMarks = midtermWeight*midterm.Percent() + finalWeight*final.Percent()
	res.FinalGrade = GradeFor(res.FinalMarks)
	res.Complete = true
	return res
}
