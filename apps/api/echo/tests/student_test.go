package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

func Test_studentApi(t *testing.T) {
	setup(t)

	admin := createUser(t, "Admin", "admin@shule.cd", user.RoleAdmin)
	adminToken := getToken(t, admin)

	g7 := createGrade(t, "Grade 7")
	g8 := createGrade(t, "Grade 8")
	c7a := createClass(t, "7A", g7.ID)
	c8a := createClass(t, "8A", g8.ID)
	parent := createParent(t, "Mzazi", "mzazi@shule.cd")

	classMismatch := marchallObj(t, httpErr{Error: "Class not found or does not belong to grade"})

	body := func(name, email, gradeID, classID, parentID string) []byte {
		return marchallObj(t, school.NewStudent{
			Credentials: user.Credentials{Name: name, Email: email, Password: testPassword},
			GradeID:     gradeID,
			ClassID:     classID,
			ParentID:    parentID,
		})
	}

	t.Run("Create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/students", adminToken, body("Hero", "hero@shule.cd", g7.ID, c7a.ID, parent.ID))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var st school.Student
		if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if st.GradeID.String != g7.ID || st.ClassID.String != c7a.ID || st.ParentID.String != parent.ID {
			t.Errorf("create returned %+v", st)
		}
		if st.User == nil || st.User.Role != user.RoleStudent {
			t.Errorf("create did not attach a STUDENT account: %+v", st.User)
		}
	})

	tests := []httpTest{
		{
			name: "Create: class not in grade", method: http.MethodPost, path: "/v1/admin/students", token: adminToken,
			body: body("Hero2", "hero2@shule.cd", g7.ID, c8a.ID, ""), wantCode: http.StatusNotFound,
			wantData: classMismatch,
		},
		{
			name: "Create: unknown class", method: http.MethodPost, path: "/v1/admin/students", token: adminToken,
			body: body("Hero2", "hero2@shule.cd", g7.ID, "lol", ""), wantCode: http.StatusNotFound,
			wantData: classMismatch,
		},
		{
			name: "Create: unknown grade", method: http.MethodPost, path: "/v1/admin/students", token: adminToken,
			body: body("Hero2", "hero2@shule.cd", "lol", c7a.ID, ""), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Grade not found"}),
		},
		{
			name: "Create: unknown parent", method: http.MethodPost, path: "/v1/admin/students", token: adminToken,
			body: body("Hero2", "hero2@shule.cd", g7.ID, c7a.ID, "lol"), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Parent not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Update: class checked against stored grade", func(t *testing.T) {
		st := createStudent(t, "King", "king@shule.cd", g7.ID, c7a.ID)

		// moving to a class of another grade without moving the grade fails
		req, rec := newAuthRequest(http.MethodPatch, "/v1/admin/students/"+st.ID, adminToken,
			marchallObj(t, school.UpdateStudent{ClassID: c8a.ID}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: classMismatch}, rec)

		// moving grade and class together succeeds
		req, rec = newAuthRequest(http.MethodPatch, "/v1/admin/students/"+st.ID, adminToken,
			marchallObj(t, school.UpdateStudent{GradeID: g8.ID, ClassID: c8a.ID}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated school.Student
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if updated.GradeID.String != g8.ID || updated.ClassID.String != c8a.ID {
			t.Errorf("update returned %+v", updated)
		}
	})

	t.Run("Update: detach parent", func(t *testing.T) {
		st, err := schoolSvc.CreateStudent(school.NewStudent{
			Credentials: user.Credentials{Name: "Solo", Email: "solo@shule.cd", Password: testPassword},
			GradeID:     g7.ID,
			ClassID:     c7a.ID,
			ParentID:    parent.ID,
		})
		if err != nil {
			t.Fatalf("CreateStudent(): %v", err)
		}

		detached := ""
		req, rec := newAuthRequest(http.MethodPatch, "/v1/admin/students/"+st.ID, adminToken,
			marchallObj(t, school.UpdateStudent{ParentID: &detached}))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated school.Student
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if updated.ParentID.Valid {
			t.Errorf("parent still attached: %+v", updated.ParentID)
		}
	})

	t.Run("Delete parent detaches students", func(t *testing.T) {
		st, err := schoolSvc.CreateStudent(school.NewStudent{
			Credentials: user.Credentials{Name: "Kid", Email: "kid@shule.cd", Password: testPassword},
			GradeID:     g7.ID,
			ClassID:     c7a.ID,
			ParentID:    parent.ID,
		})
		if err != nil {
			t.Fatalf("CreateStudent(): %v", err)
		}

		req, rec := newAuthRequest(http.MethodDelete, "/v1/admin/parents/"+parent.ID, adminToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
		refreshed, err := schoolSvc.GetStudent(st.ID)
		if err != nil {
			t.Fatalf("GetStudent(): %v", err)
		}
		if refreshed.ParentID.Valid {
			t.Errorf("student still references the deleted parent: %+v", refreshed.ParentID)
		}
	})
}
