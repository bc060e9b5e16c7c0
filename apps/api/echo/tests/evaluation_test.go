package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/tarajali/core/evaluation"
	"github.com/trezcool/tarajali/core/notification"
	"github.com/trezcool/tarajali/core/user"
)

func scoresOf(n int) evaluation.Scores {
	return evaluation.Scores{
		Punctuality:        n,
		Professionalism:    n,
		Communication:      n,
		Teamwork:           n,
		Initiative:         n,
		TechnicalKnowledge: n,
		ProblemSolving:     n,
		QualityOfWork:      n,
		Productivity:       n,
	}
}

func Test_evaluationApi_create(t *testing.T) {
	e := setup(t)

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, std := createStudent(t, e, "hero", dept)
	supUsr, sup := createSupervisor(t, e, "prof", dept)
	org := createOrganization(t, e, "Safaricom", coordinator)
	createActivePeriod(t, e)
	app := placeOngoing(t, e, stdUsr, supUsr, coordinator, std, sup, org)

	supToken := getToken(t, supUsr)
	newEval := evaluation.NewEvaluation{
		ApplicationID: app.ID,
		Type:          evaluation.TypeMidterm,
		Scores:        scoresOf(7),
		Comments:      "Solid first half.",
	}

	// students cannot evaluate
	req, rec := newAuthRequest(http.MethodPost, "/v1/evaluations", getToken(t, stdUsr), marchallObj(t, newEval))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student create: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// neither can a supervisor who is not assigned to the attachment
	rivalUsr, _ := createSupervisor(t, e, "rival", dept)
	req, rec = newAuthRequest(http.MethodPost, "/v1/evaluations", getToken(t, rivalUsr), marchallObj(t, newEval))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unassigned supervisor create: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// scores must stay in band
	bad := newEval
	bad.Scores.Punctuality = 11
	req, rec = newAuthRequest(http.MethodPost, "/v1/evaluations", supToken, marchallObj(t, bad))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("out of band score: code = %v; body %v", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/evaluations", supToken, marchallObj(t, newEval))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var ev evaluation.Evaluation
	if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if ev.TotalMarks != 63 {
		t.Errorf("TotalMarks = %d; expected 63", ev.TotalMarks)
	}
	if ev.Grade != "A" {
		t.Errorf("Grade = %q; expected A", ev.Grade)
	}
	if ev.EvaluatorID != supUsr.ID {
		t.Errorf("EvaluatorID = %q; expected %q", ev.EvaluatorID, supUsr.ID)
	}

	// one evaluation per type
	req, rec = newAuthRequest(http.MethodPost, "/v1/evaluations", supToken, marchallObj(t, newEval))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate type: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// the coordinator hears about the evaluation
	req, rec = newAuthRequest(http.MethodGet, "/v1/notifications", getToken(t, coordinator))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("coordinator notifications: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var notifs []notification.Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &notifs); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	var recorded bool
	for _, notif := range notifs {
		if notif.Title == "Evaluation Recorded" {
			recorded = true
		}
	}
	if !recorded {
		t.Error("coordinator got no evaluation notification")
	}

	// coordinators may record the final evaluation themselves
	finalEval := newEval
	finalEval.Type = evaluation.TypeFinal
	finalEval.Scores = scoresOf(8)
	req, rec = newAuthRequest(http.MethodPost, "/v1/evaluations", getToken(t, coordinator), marchallObj(t, finalEval))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("coordinator create: code = %v; body %v", rec.Code, rec.Body.String())
	}
}

func Test_evaluationApi_result(t *testing.T) {
	e := setup(t)

	coordinator := createUser(t, e, "Coordinator", "coord", user.CoordinatorRoles)
	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, std := createStudent(t, e, "hero", dept)
	supUsr, sup := createSupervisor(t, e, "prof", dept)
	org := createOrganization(t, e, "Safaricom", coordinator)
	createActivePeriod(t, e)
	app := placeOngoing(t, e, stdUsr, supUsr, coordinator, std, sup, org)

	supToken := getToken(t, supUsr)
	studentToken := getToken(t, stdUsr)

	result := func(wantComplete bool) evaluation.Result {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/applications/"+app.ID+"/result", studentToken)
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("result: code = %v; body %v", rec.Code, rec.Body.String())
		}
		var res evaluation.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if res.Complete != wantComplete {
			t.Fatalf("Complete = %v; expected %v", res.Complete, wantComplete)
		}
		return res
	}

	result(false)

	req, rec := newAuthRequest(http.MethodPost, "/v1/evaluations", supToken, marchallObj(t, evaluation.NewEvaluation{
		ApplicationID: app.ID,
		Type:          evaluation.TypeMidterm,
		Scores:        scoresOf(7), // 63/90 = 70%
	}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("midterm: code = %v; body %v", rec.Code, rec.Body.String())
	}

	result(false)

	req, rec = newAuthRequest(http.MethodPost, "/v1/evaluations", supToken, marchallObj(t, evaluation.NewEvaluation{
		ApplicationID: app.ID,
		Type:          evaluation.TypeFinal,
		Scores:        scoresOf(8), // 72/90 = 80%
	}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("final: code = %v; body %v", rec.Code, rec.Body.String())
	}

	// 0.4*70 + 0.6*80
	res := result(true)
	if res.FinalMarks != 76.0 {
		t.Errorf("FinalMarks = %v; expected 76.0", res.FinalMarks)
	}
	if res.FinalGrade != "A" {
		t.Errorf("FinalGrade = %q; expected A", res.FinalGrade)
	}

	// listing
	req, rec = newAuthRequest(http.MethodGet, "/v1/applications/"+app.ID+"/evaluations", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var evals []evaluation.Evaluation
	if err := json.Unmarshal(rec.Body.Bytes(), &evals); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(evals) != 2 {
		t.Errorf("evals = %d; expected 2", len(evals))
	}
}
