package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/coursework"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

func Test_lessonApi_create_resolvesAssignment(t *testing.T) {
	setup(t)

	g7 := createGrade(t, "Grade 7")
	c7a := createClass(t, "7A", g7.ID)
	c7b := createClass(t, "7B", g7.ID)
	math := createSubject(t, "Math")
	sci := createSubject(t, "Science")

	// prof teaches Math in 7A only, Science in both classes
	prof := createTeacher(t, "Prof", "prof@shule.cd", math.ID, c7a.ID)
	if _, err := schoolSvc.UpdateTeacher(prof.ID, school.UpdateTeacher{
		Assignments: &[]school.AssignmentInput{
			{SubjectID: math.ID, ClassID: c7a.ID},
			{SubjectID: sci.ID, ClassID: c7a.ID},
			{SubjectID: sci.ID, ClassID: c7b.ID},
		},
	}); err != nil {
		t.Fatalf("UpdateTeacher(): %v", err)
	}
	profToken := getToken(t, *prof.User)

	body := func(title, subjectID, classID string) []byte {
		return marchallObj(t, coursework.NewLesson{Title: title, SubjectID: subjectID, ClassID: classID})
	}

	tests := []httpTest{
		{
			// single assignment covers the subject: classId may be omitted
			name: "single match resolves", body: body("Fractions", math.ID, ""), wantCode: http.StatusCreated,
		},
		{
			// two classes cover Science: the teacher must say which one
			name: "ambiguous without classId", body: body("Cells", sci.ID, ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "classId is required: you teach this subject in more than one class"}),
		},
		{
			name: "classId disambiguates", body: body("Cells", sci.ID, c7b.ID), wantCode: http.StatusCreated,
		},
		{
			// Math in 7B is not covered: denied as not-found, not as forbidden
			name: "uncovered pair", body: body("Algebra", math.ID, c7b.ID), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Subject not found or not yours"}),
		},
		{
			name: "unknown subject", body: body("Mystery", "lol", ""), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Subject not found or not yours"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/teacher/lessons"
		tt.token = profToken

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var l coursework.Lesson
				if err := json.Unmarshal(rec.Body.Bytes(), &l); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if l.ClassID == "" || l.TeacherID != prof.ID {
					t.Errorf("lesson not filed under the resolved assignment: %+v", l)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_lessonApi_teacherScope(t *testing.T) {
	setup(t)

	g7 := createGrade(t, "Grade 7")
	c7a := createClass(t, "7A", g7.ID)
	math := createSubject(t, "Math")
	sci := createSubject(t, "Science")

	prof := createTeacher(t, "Prof", "prof@shule.cd", math.ID, c7a.ID)
	rival := createTeacher(t, "Rival", "rival@shule.cd", sci.ID, c7a.ID)

	lesson := createLesson(t, prof.ID, coursework.NewLesson{Title: "Fractions", SubjectID: math.ID})

	notFound := marchallObj(t, httpErr{Error: "Lesson not found"})
	rivalToken := getToken(t, *rival.User)

	tests := []httpTest{
		{
			// another teacher's lesson reads as not-found, never as forbidden
			name: "get cross-teacher", method: http.MethodGet, path: "/v1/teacher/lessons/" + lesson.ID, token: rivalToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "patch cross-teacher", method: http.MethodPatch, path: "/v1/teacher/lessons/" + lesson.ID, token: rivalToken,
			body: marchallObj(t, coursework.UpdateLesson{Title: "Hijack"}), wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "delete cross-teacher", method: http.MethodDelete, path: "/v1/teacher/lessons/" + lesson.ID, token: rivalToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "owner lists own", method: http.MethodGet, path: "/v1/teacher/lessons", token: getToken(t, *prof.User),
			wantCode: http.StatusOK, wantData: marchallList(t, lesson),
		},
		{
			name: "owner filters by subject", method: http.MethodGet, path: "/v1/teacher/lessons?subjectId=" + sci.ID,
			token: getToken(t, *prof.User), wantCode: http.StatusOK, wantData: marchallObj(t, []interface{}{}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_lessonApi_studentScope(t *testing.T) {
	setup(t)

	g7 := createGrade(t, "Grade 7")
	c7a := createClass(t, "7A", g7.ID)
	c7b := createClass(t, "7B", g7.ID)
	math := createSubject(t, "Math")

	prof := createTeacher(t, "Prof", "prof@shule.cd", math.ID, c7a.ID)
	lesson := createLesson(t, prof.ID, coursework.NewLesson{Title: "Fractions", SubjectID: math.ID})

	hero := createStudent(t, "Hero", "hero@shule.cd", g7.ID, c7a.ID)
	outsider := createStudent(t, "Outsider", "outsider@shule.cd", g7.ID, c7b.ID)

	// a self-signed-up student has no class yet
	bare := createUser(t, "Bare", "bare@shule.cd", user.RoleStudent)

	notFound := marchallObj(t, httpErr{Error: "Lesson not found"})
	empty := marchallObj(t, []interface{}{})

	tests := []httpTest{
		{
			name: "own class sees the lesson", method: http.MethodGet, path: "/v1/student/lessons",
			token: getToken(t, *hero.User), wantCode: http.StatusOK, wantData: marchallList(t, lesson),
		},
		{
			name: "other class sees nothing", method: http.MethodGet, path: "/v1/student/lessons",
			token: getToken(t, *outsider.User), wantCode: http.StatusOK, wantData: empty,
		},
		{
			name: "classless student sees nothing", method: http.MethodGet, path: "/v1/student/lessons",
			token: getToken(t, bare), wantCode: http.StatusOK, wantData: empty,
		},
		{
			name: "own class gets detail", method: http.MethodGet, path: "/v1/student/lessons/" + lesson.ID,
			token: getToken(t, *hero.User), wantCode: http.StatusOK, wantData: marchallObj(t, lesson),
		},
		{
			// cross-class detail is a 404, indistinguishable from a missing row
			name: "other class gets not-found", method: http.MethodGet, path: "/v1/student/lessons/" + lesson.ID,
			token: getToken(t, *outsider.User), wantCode: http.StatusNotFound, wantData: notFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
