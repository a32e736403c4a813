package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/coursework"
)

func Test_examApi_teacher(t *testing.T) {
	setup(t)

	g7 := createGrade(t, "Grade 7")
	c7a := createClass(t, "7A", g7.ID)
	math := createSubject(t, "Math")
	sci := createSubject(t, "Science")

	prof := createTeacher(t, "Prof", "prof@shule.cd", math.ID, c7a.ID)
	rival := createTeacher(t, "Rival", "rival@shule.cd", sci.ID, c7a.ID)
	profToken := getToken(t, *prof.User)

	t.Run("create defaults duration", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/teacher/exams", profToken,
			marchallObj(t, coursework.NewExam{Title: "Midterm", SubjectID: math.ID}))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var e coursework.Exam
		if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if e.DurationMinutes != coursework.DefaultExamDuration {
			t.Errorf("durationMinutes = %d; want %d", e.DurationMinutes, coursework.DefaultExamDuration)
		}
		if e.DueDate.IsZero() {
			t.Error("dueDate not defaulted")
		}
	})

	exam := createExam(t, prof.ID, coursework.NewExam{Title: "Final", SubjectID: math.ID, DurationMinutes: 90})
	hero := createStudent(t, "Hero", "hero@shule.cd", g7.ID, c7a.ID)
	att, err := cwSvc.SubmitExamAttempt(hero.ID, coursework.NewAttempt{ExamID: exam.ID, Answers: `{"1":"a"}`})
	if err != nil {
		t.Fatalf("SubmitExamAttempt(): %v", err)
	}

	t.Run("detail includes attempts with student identity", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/exams/"+exam.ID, profToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var detail echoapi.ExamDetail
		if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if detail.ID != exam.ID || len(detail.Attempts) != 1 {
			t.Fatalf("detail = %+v", detail)
		}
		got := detail.Attempts[0]
		if got.ID != att.ID || got.Student == nil || got.Student.User == nil || got.Student.User.Email != "hero@shule.cd" {
			t.Errorf("attempt missing student identity: %+v", got)
		}
	})

	notFound := marchallObj(t, httpErr{Error: "Exam not found"})
	tests := []httpTest{
		{
			name: "cross-teacher detail", method: http.MethodGet, path: "/v1/teacher/exams/" + exam.ID,
			token: getToken(t, *rival.User), wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "cross-teacher patch", method: http.MethodPatch, path: "/v1/teacher/exams/" + exam.ID,
			token: getToken(t, *rival.User), body: marchallObj(t, coursework.UpdateExam{Title: "Hijack"}),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("delete removes attempts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/teacher/exams/"+exam.ID, profToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
		attempts, err := cwSvc.QueryStudentAttempts(hero.ID)
		if err != nil {
			t.Fatalf("QueryStudentAttempts(): %v", err)
		}
		if len(attempts) != 0 {
			t.Errorf("attempts survived the delete: %+v", attempts)
		}
	})
}

func Test_examApi_student(t *testing.T) {
	setup(t)

	g7 := createGrade(t, "Grade 7")
	c7a := createClass(t, "7A", g7.ID)
	c7b := createClass(t, "7B", g7.ID)
	math := createSubject(t, "Math")

	prof := createTeacher(t, "Prof", "prof@shule.cd", math.ID, c7a.ID)
	exam := createExam(t, prof.ID, coursework.NewExam{Title: "Final", SubjectID: math.ID})

	hero := createStudent(t, "Hero", "hero@shule.cd", g7.ID, c7a.ID)
	outsider := createStudent(t, "Outsider", "outsider@shule.cd", g7.ID, c7b.ID)
	heroToken := getToken(t, *hero.User)

	notFound := marchallObj(t, httpErr{Error: "Exam not found"})

	t.Run("own class lists the exam", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/exams", heroToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, exam)}, rec)
	})

	t.Run("detail before attempting has a null attempt", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/exams/"+exam.ID, heroToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var detail echoapi.StudentExam
		if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if detail.ID != exam.ID || detail.Attempt != nil {
			t.Errorf("detail = %+v", detail)
		}
	})

	t.Run("cross-class detail is not-found", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/exams/"+exam.ID, getToken(t, *outsider.User))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: notFound}, rec)
	})

	t.Run("attempt upserts", func(t *testing.T) {
		body := func(answers string) []byte {
			return marchallObj(t, coursework.NewAttempt{ExamID: exam.ID, Answers: answers})
		}

		req, rec := newAuthRequest(http.MethodPost, "/v1/student/exam-attempts", heroToken, body(`{"1":"a"}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var first coursework.ExamAttempt
		if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}

		// re-submitting overwrites the answers instead of adding a row
		req, rec = newAuthRequest(http.MethodPost, "/v1/student/exam-attempts", heroToken, body(`{"1":"b"}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var second coursework.ExamAttempt
		if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("upsert created a new row: %s != %s", second.ID, first.ID)
		}
		if second.Answers.String != `{"1":"b"}` {
			t.Errorf("answers = %q; want overwritten", second.Answers.String)
		}

		attempts, err := cwSvc.QueryStudentAttempts(hero.ID)
		if err != nil {
			t.Fatalf("QueryStudentAttempts(): %v", err)
		}
		if len(attempts) != 1 {
			t.Errorf("attempts = %d; want 1", len(attempts))
		}

		// the exam detail now carries the attempt
		req, rec = newAuthRequest(http.MethodGet, "/v1/student/exams/"+exam.ID, heroToken)
		app.ServeHTTP(rec, req)
		var detail echoapi.StudentExam
		if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if detail.Attempt == nil || detail.Attempt.ID != first.ID {
			t.Errorf("detail attempt = %+v", detail.Attempt)
		}
	})

	t.Run("unknown exam attempt", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/student/exam-attempts", heroToken,
			marchallObj(t, coursework.NewAttempt{ExamID: "lol"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: notFound}, rec)
	})
}
