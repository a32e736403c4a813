package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

func Test_teacherApi(t *testing.T) {
	setup(t)

	admin := createUser(t, "Admin", "admin@shule.cd", user.RoleAdmin)
	adminToken := getToken(t, admin)

	g7 := createGrade(t, "Grade 7")
	c7a := createClass(t, "7A", g7.ID)
	c7b := createClass(t, "7B", g7.ID)
	math := createSubject(t, "Math")
	sci := createSubject(t, "Science")

	body := func(name, email, subjectID, classID string) []byte {
		return marchallObj(t, school.NewTeacher{
			Credentials: user.Credentials{Name: name, Email: email, Password: testPassword},
			SubjectID:   subjectID,
			ClassID:     classID,
		})
	}

	t.Run("Create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/teachers", adminToken, body("Prof", "prof@shule.cd", math.ID, c7a.ID))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var tch school.Teacher
		if err := json.Unmarshal(rec.Body.Bytes(), &tch); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if tch.User == nil || tch.User.Email != "prof@shule.cd" {
			t.Errorf("create did not attach the user: %+v", tch)
		}
		if len(tch.Assignments) != 1 || tch.Assignments[0].Subject.ID != math.ID || tch.Assignments[0].Class.ID != c7a.ID {
			t.Errorf("create did not record the initial assignment: %+v", tch.Assignments)
		}
	})

	tests := []httpTest{
		{
			name: "Create: duplicate email", method: http.MethodPost, path: "/v1/admin/teachers", token: adminToken,
			body: body("Prof2", "prof@shule.cd", math.ID, c7a.ID), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "Email already exists"}),
		},
		{
			name: "Create: unknown subject", method: http.MethodPost, path: "/v1/admin/teachers", token: adminToken,
			body: body("Prof2", "prof2@shule.cd", "lol", c7a.ID), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Subject not found"}),
		},
		{
			name: "Create: unknown class", method: http.MethodPost, path: "/v1/admin/teachers", token: adminToken,
			body: body("Prof2", "prof2@shule.cd", math.ID, "lol"), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Class not found"}),
		},
		{
			name: "Create: required fields", method: http.MethodPost, path: "/v1/admin/teachers", token: adminToken,
			body: marchallObj(t, school.NewTeacher{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email":     "this field is required",
				"password":  "this field is required",
				"subjectId": "this field is required",
				"classId":   "this field is required",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Update: assignments replace-all", func(t *testing.T) {
		tch := createTeacher(t, "King", "king@shule.cd", math.ID, c7a.ID)

		patch := marchallObj(t, school.UpdateTeacher{
			Assignments: &[]school.AssignmentInput{
				{SubjectID: sci.ID, ClassID: c7a.ID},
				{SubjectID: sci.ID, ClassID: c7b.ID},
			},
		})
		req, rec := newAuthRequest(http.MethodPatch, "/v1/admin/teachers/"+tch.ID, adminToken, patch)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated school.Teacher
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if len(updated.Assignments) != 2 {
			t.Fatalf("assignments = %d; want 2", len(updated.Assignments))
		}
		for _, a := range updated.Assignments {
			if a.Subject.ID != sci.ID {
				t.Errorf("old assignment survived the replace: %+v", a)
			}
		}
	})

	t.Run("Update: duplicate assignment pair", func(t *testing.T) {
		tch := createTeacher(t, "Dup", "dup@shule.cd", math.ID, c7a.ID)

		patch := marchallObj(t, school.UpdateTeacher{
			Assignments: &[]school.AssignmentInput{
				{SubjectID: math.ID, ClassID: c7a.ID},
				{SubjectID: math.ID, ClassID: c7a.ID},
			},
		})
		req, rec := newAuthRequest(http.MethodPatch, "/v1/admin/teachers/"+tch.ID, adminToken, patch)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "Duplicate teaching assignment"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Delete cascades", func(t *testing.T) {
		tch := createTeacher(t, "Gone", "gone@shule.cd", math.ID, c7a.ID)

		req, rec := newAuthRequest(http.MethodDelete, "/v1/admin/teachers/"+tch.ID, adminToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
		if _, err := schoolSvc.GetTeacher(tch.ID); err != school.ErrTeacherNotFound {
			t.Errorf("GetTeacher() error = %v; want %v", err, school.ErrTeacherNotFound)
		}
		// the account goes with the profile
		if _, err := usrSvc.GetByID(tch.UserID); err != user.ErrNotFound {
			t.Errorf("GetByID() error = %v; want %v", err, user.ErrNotFound)
		}
	})
}
