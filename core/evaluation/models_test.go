package evaluation

import (
	"math"
	"testing"
)

func TestGradeFor(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{95, "A"},
		{70, "A"},
		{69.9, "B"},
		{60, "B"},
		{59.9, "C"},
		{50, "C"},
		{49.9, "D"},
		{40, "D"},
		{39.9, "E"},
		{0, "E"},
	}
	for _, tt := range tests {
		if got := GradeFor(tt.percent); got != tt.want {
			t.Errorf("GradeFor(%v) = %s; expected %s", tt.percent, got, tt.want)
		}
	}
}

func TestScoresTotal(t *testing.T) {
	s := Scores{
		Punctuality:        10,
		Professionalism:    9,
		Communication:      8,
		Teamwork:           7,
		Initiative:         6,
		TechnicalKnowledge: 5,
		ProblemSolving:     4,
		QualityOfWork:      3,
		Productivity:       2,
	}
	if got := s.Total(); got != 54 {
		t.Errorf("Total() = %d; expected 54", got)
	}

	perfect := Scores{10, 10, 10, 10, 10, 10, 10, 10, 10}
	if got := perfect.Total(); got != MaxMarks {
		t.Errorf("Total() = %d; expected %d", got, MaxMarks)
	}
}

func TestNewResult(t *testing.T) {
	midterm := &Evaluation{Type: TypeMidterm, TotalMarks: 63} // 70%
	final := &Evaluation{Type: TypeFinal, TotalMarks: 72}     // 80%

	t.Run("complete", func(t *testing.T) {
		res := NewResult("app1", midterm, final)
		if !res.Complete {
			t.Fatal("expected a complete result")
		}
		// 0.4*70 + 0.6*80
		if want := 76.0; math.Abs(res.FinalMarks-want) > 1e-9 {
			t.Errorf("FinalMarks = %v; expected %v", res.FinalMarks, want)
		}
		if res.FinalGrade != "A" {
			t.Errorf("FinalGrade = %s; expected A", res.FinalGrade)
		}
	})

	t.Run("missing final", func(t *testing.T) {
		res := NewResult("app1", midterm, nil)
		if res.Complete {
			t.Error("result should not be complete")
		}
		if res.FinalGrade != "" {
			t.Errorf("FinalGrade = %s; expected empty", res.FinalGrade)
		}
	})

	t.Run("missing both", func(t *testing.T) {
		res := NewResult("app1", nil, nil)
		if res.Complete || res.FinalMarks != 0 {
			t.Error("empty result expected")
		}
	})
}
