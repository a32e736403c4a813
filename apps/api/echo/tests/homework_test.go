package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/coursework"
)

func Test_homeworkApi_teacher(t *testing.T) {
	setup(t)

	g7 := createGrade(t, "Grade 7")
	c7a := createClass(t, "7A", g7.ID)
	math := createSubject(t, "Math")
	sci := createSubject(t, "Science")

	prof := createTeacher(t, "Prof", "prof@shule.cd", math.ID, c7a.ID)
	rival := createTeacher(t, "Rival", "rival@shule.cd", sci.ID, c7a.ID)
	profToken := getToken(t, *prof.User)

	hw := createHomework(t, prof.ID, coursework.NewHomework{Title: "Exercises p.12", SubjectID: math.ID})
	hero := createStudent(t, "Hero", "hero@shule.cd", g7.ID, c7a.ID)
	sub, err := cwSvc.SubmitHomework(hero.ID, coursework.NewSubmission{HomeworkID: hw.ID, Content: "done"})
	if err != nil {
		t.Fatalf("SubmitHomework(): %v", err)
	}

	t.Run("detail includes submissions with student identity", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/homework/"+hw.ID, profToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var detail echoapi.HomeworkDetail
		if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if detail.ID != hw.ID || len(detail.Submissions) != 1 {
			t.Fatalf("detail = %+v", detail)
		}
		got := detail.Submissions[0]
		if got.ID != sub.ID || got.Student == nil || got.Student.User == nil || got.Student.User.Email != "hero@shule.cd" {
			t.Errorf("submission missing student identity: %+v", got)
		}
	})

	t.Run("dueDate defaults to now", func(t *testing.T) {
		if hw.DueDate.IsZero() {
			t.Errorf("dueDate not defaulted: %+v", hw)
		}
	})

	notFound := marchallObj(t, httpErr{Error: "Homework not found"})
	tests := []httpTest{
		{
			name: "cross-teacher detail", method: http.MethodGet, path: "/v1/teacher/homework/" + hw.ID,
			token: getToken(t, *rival.User), wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "cross-teacher delete", method: http.MethodDelete, path: "/v1/teacher/homework/" + hw.ID,
			token: getToken(t, *rival.User), wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "owner lists own", method: http.MethodGet, path: "/v1/teacher/homework", token: profToken,
			wantCode: http.StatusOK, wantData: marchallList(t, hw),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("delete removes submissions", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/teacher/homework/"+hw.ID, profToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
		subs, err := cwSvc.QueryStudentSubmissions(hero.ID, "")
		if err != nil {
			t.Fatalf("QueryStudentSubmissions(): %v", err)
		}
		if len(subs) != 0 {
			t.Errorf("submissions survived the delete: %+v", subs)
		}
	})
}

func Test_homeworkApi_studentSubmit(t *testing.T) {
	setup(t)

	g7 := createGrade(t, "Grade 7")
	c7a := createClass(t, "7A", g7.ID)
	c7b := createClass(t, "7B", g7.ID)
	math := createSubject(t, "Math")

	prof := createTeacher(t, "Prof", "prof@shule.cd", math.ID, c7a.ID)
	hw := createHomework(t, prof.ID, coursework.NewHomework{Title: "Exercises p.12", SubjectID: math.ID})

	hero := createStudent(t, "Hero", "hero@shule.cd", g7.ID, c7a.ID)
	outsider := createStudent(t, "Outsider", "outsider@shule.cd", g7.ID, c7b.ID)
	heroToken := getToken(t, *hero.User)

	body := func(homeworkID, content string) []byte {
		return marchallObj(t, coursework.NewSubmission{HomeworkID: homeworkID, Content: content})
	}

	tests := []httpTest{
		{
			name: "own class sees homework", method: http.MethodGet, path: "/v1/student/homework", token: heroToken,
			wantCode: http.StatusOK, wantData: marchallList(t, hw),
		},
		{
			name: "other class sees nothing", method: http.MethodGet, path: "/v1/student/homework",
			token: getToken(t, *outsider.User), wantCode: http.StatusOK, wantData: marchallObj(t, []interface{}{}),
		},
		{
			name: "required fields", method: http.MethodPost, path: "/v1/student/submissions", token: heroToken,
			body: marchallObj(t, coursework.NewSubmission{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"homeworkId": "this field is required", "content": "this field is required"}),
		},
		{
			name: "unknown homework", method: http.MethodPost, path: "/v1/student/submissions", token: heroToken,
			body: body("lol", "done"), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Homework not found"}),
		},
		{name: "first submit", method: http.MethodPost, path: "/v1/student/submissions", token: heroToken, body: body(hw.ID, "done"), wantCode: http.StatusCreated},
		{
			// a second submit is a conflict, not an update
			name: "second submit conflicts", method: http.MethodPost, path: "/v1/student/submissions", token: heroToken,
			body: body(hw.ID, "done again"), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "You already submitted this homework"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData == nil {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("exactly one submission per pair", func(t *testing.T) {
		subs, err := cwSvc.QueryStudentSubmissions(hero.ID, hw.ID)
		if err != nil {
			t.Fatalf("QueryStudentSubmissions(): %v", err)
		}
		if len(subs) != 1 {
			t.Fatalf("submissions = %d; want 1", len(subs))
		}
		if subs[0].Content != "done" {
			t.Errorf("conflicting submit overwrote content: %q", subs[0].Content)
		}
	})

	t.Run("list own submissions", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/submissions?homeworkId="+hw.ID, heroToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var subs []coursework.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &subs); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if len(subs) != 1 || subs[0].StudentID != hero.ID {
			t.Errorf("submissions = %+v", subs)
		}
	})
}
