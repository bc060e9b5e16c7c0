package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/tarajali/core/messaging"
)

func Test_messageApi_send(t *testing.T) {
	e := setup(t)

	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, _ := createStudent(t, e, "hero", dept)
	std2Usr, _ := createStudent(t, e, "sidekick", dept)
	supUsr, _ := createSupervisor(t, e, "prof", dept)

	studentToken := getToken(t, stdUsr)

	// student to supervisor is allowed
	req, rec := newAuthRequest(http.MethodPost, "/v1/messages", studentToken, marchallObj(t, messaging.NewMessage{
		RecipientID: supUsr.ID,
		Subject:     "Hello",
		Body:        "Quick question about week two.",
	}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var msg messaging.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if msg.SenderID != stdUsr.ID || msg.RecipientID != supUsr.ID {
		t.Errorf("participants = (%q, %q); expected (%q, %q)", msg.SenderID, msg.RecipientID, stdUsr.ID, supUsr.ID)
	}
	if msg.IsRead {
		t.Error("IsRead = true; expected false")
	}

	// student to student is not
	req, rec = newAuthRequest(http.MethodPost, "/v1/messages", studentToken, marchallObj(t, messaging.NewMessage{
		RecipientID: std2Usr.ID,
		Subject:     "Psst",
		Body:        "Answers?",
	}))
	e.app.ServeHTTP(rec, req)
	tt := httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "you cannot message this user"}),
	}
	checkCodeAndData(t, tt, rec)

	// no messaging yourself
	req, rec = newAuthRequest(http.MethodPost, "/v1/messages", studentToken, marchallObj(t, messaging.NewMessage{
		RecipientID: stdUsr.ID,
		Subject:     "Dear me",
		Body:        "Note to self.",
	}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self message: code = %v; body %v", rec.Code, rec.Body.String())
	}
}

func Test_messageApi_inboxAndThread(t *testing.T) {
	e := setup(t)

	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, _ := createStudent(t, e, "hero", dept)
	supUsr, _ := createSupervisor(t, e, "prof", dept)
	outsiderUsr, _ := createSupervisor(t, e, "lurker", dept)

	studentToken := getToken(t, stdUsr)
	supToken := getToken(t, supUsr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/messages", studentToken, marchallObj(t, messaging.NewMessage{
		Subject:     "Logbook",
		Body:        "Could you review week three?",
		RecipientID: supUsr.ID,
	}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var msg messaging.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}

	// reply threads under the original
	req, rec = newAuthRequest(http.MethodPost, "/v1/messages", supToken, marchallObj(t, messaging.NewMessage{
		Subject:     "Re: Logbook",
		Body:        "Done, see my comment.",
		RecipientID: stdUsr.ID,
		ParentID:    msg.ID,
	}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("reply: code = %v; body %v", rec.Code, rec.Body.String())
	}

	list := func(token, path string) []messaging.Message {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, path, token)
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: code = %v; body %v", path, rec.Code, rec.Body.String())
		}
		var msgs []messaging.Message
		if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		return msgs
	}

	if msgs := list(supToken, "/v1/messages/inbox"); len(msgs) != 1 {
		t.Errorf("supervisor inbox = %d; expected 1", len(msgs))
	}
	if msgs := list(studentToken, "/v1/messages/sent"); len(msgs) != 1 {
		t.Errorf("student sent = %d; expected 1", len(msgs))
	}
	if msgs := list(studentToken, "/v1/messages/"+msg.ID+"/thread"); len(msgs) != 2 {
		t.Errorf("thread = %d; expected 2", len(msgs))
	}

	// non-participants cannot see the thread
	req, rec = newAuthRequest(http.MethodGet, "/v1/messages/"+msg.ID+"/thread", getToken(t, outsiderUsr))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("outsider thread: code = %v; body %v", rec.Code, rec.Body.String())
	}
}

func Test_messageApi_markRead(t *testing.T) {
	e := setup(t)

	dept := createDepartment(t, e, "Computer Science", "cs")
	stdUsr, _ := createStudent(t, e, "hero", dept)
	supUsr, _ := createSupervisor(t, e, "prof", dept)

	studentToken := getToken(t, stdUsr)
	supToken := getToken(t, supUsr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/messages", studentToken, marchallObj(t, messaging.NewMessage{
		Subject:     "Hello",
		Body:        "Are you around this week?",
		RecipientID: supUsr.ID,
	}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var msg messaging.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}

	unread := func(token string) int {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/messages/unread-count", token)
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("unread-count: code = %v; body %v", rec.Code, rec.Body.String())
		}
		var res struct {
			Unread int `json:"unread"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		return res.Unread
	}

	if n := unread(supToken); n != 1 {
		t.Errorf("unread = %d; expected 1", n)
	}

	// the sender cannot mark it read
	req, rec = newAuthRequest(http.MethodPost, "/v1/messages/"+msg.ID+"/read", studentToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("sender mark read: code = %v; body %v", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/messages/"+msg.ID+"/read", supToken)
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: code = %v; body %v", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if !msg.IsRead {
		t.Error("IsRead = false; expected true")
	}
	if msg.ReadAt.IsZero() {
		t.Error("ReadAt is zero; expected a timestamp")
	}

	if n := unread(supToken); n != 0 {
		t.Errorf("unread = %d; expected 0", n)
	}
}
