package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/coursework"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	logsvc "github.com/trezcool/shule/services/logger"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
)

const testPassword = "s3cr3tWord!"

var (
	app       Server
	usrSvc    *user.Service
	schoolSvc *school.Service
	cwSvc     *coursework.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

// setup rebuilds the app on a fresh in-memory DB.
func setup(t *testing.T) {
	t.Helper()

	core.Conf.Debug = false
	core.Conf.TestMode = true

	db := dummydb.Open()
	usrSvc = user.NewService(dummydb.NewUserRepository(db))
	schoolSvc = school.NewService(dummydb.NewSchoolRepository(db), usrSvc)
	cwSvc = coursework.NewService(dummydb.NewCourseworkRepository(db), schoolSvc)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), core.Conf)
	logger.Enable(false)

	app = NewServer(&Options{
		DisableReqLogs: true,
		Logger:         logger,
		UserSvc:        usrSvc,
		SchoolSvc:      schoolSvc,
		CourseworkSvc:  cwSvc,
		Validate:       validate,
		Translator:     translator,
	})
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// Fixtures

func createUser(t *testing.T, name, email, role string) user.User {
	t.Helper()
	usr, err := usrSvc.Register(user.NewUser{Name: name, Email: email, Password: testPassword, Role: role})
	if err != nil {
		t.Fatalf("Register(): %v", err)
	}
	return usr
}

func createGrade(t *testing.T, name string) school.Grade {
	t.Helper()
	g, err := schoolSvc.CreateGrade(school.NameInput{Name: name})
	if err != nil {
		t.Fatalf("CreateGrade(): %v", err)
	}
	return g
}

func createClass(t *testing.T, name, gradeID string) school.Class {
	t.Helper()
	cls, err := schoolSvc.CreateClass(school.NewClass{Name: name, GradeID: gradeID})
	if err != nil {
		t.Fatalf("CreateClass(): %v", err)
	}
	return cls
}

func createSubject(t *testing.T, name string) school.Subject {
	t.Helper()
	s, err := schoolSvc.CreateSubject(school.NameInput{Name: name})
	if err != nil {
		t.Fatalf("CreateSubject(): %v", err)
	}
	return s
}

func createTeacher(t *testing.T, name, email, subjectID, classID string) school.Teacher {
	t.Helper()
	tch, err := schoolSvc.CreateTeacher(school.NewTeacher{
		Credentials: user.Credentials{Name: name, Email: email, Password: testPassword},
		SubjectID:   subjectID,
		ClassID:     classID,
	})
	if err != nil {
		t.Fatalf("CreateTeacher(): %v", err)
	}
	return tch
}

func createStudent(t *testing.T, name, email, gradeID, classID string) school.Student {
	t.Helper()
	st, err := schoolSvc.CreateStudent(school.NewStudent{
		Credentials: user.Credentials{Name: name, Email: email, Password: testPassword},
		GradeID:     gradeID,
		ClassID:     classID,
	})
	if err != nil {
		t.Fatalf("CreateStudent(): %v", err)
	}
	return st
}

func createParent(t *testing.T, name, email string) school.Parent {
	t.Helper()
	p, err := schoolSvc.CreateParent(school.NewParent{
		Credentials: user.Credentials{Name: name, Email: email, Password: testPassword},
	})
	if err != nil {
		t.Fatalf("CreateParent(): %v", err)
	}
	return p
}

func createLesson(t *testing.T, teacherID string, in coursework.NewLesson) coursework.Lesson {
	t.Helper()
	l, err := cwSvc.CreateLesson(teacherID, in)
	if err != nil {
		t.Fatalf("CreateLesson(): %v", err)
	}
	return l
}

func createHomework(t *testing.T, teacherID string, in coursework.NewHomework) coursework.Homework {
	t.Helper()
	hw, err := cwSvc.CreateHomework(teacherID, in)
	if err != nil {
		t.Fatalf("CreateHomework(): %v", err)
	}
	return hw
}

func createExam(t *testing.T, teacherID string, in coursework.NewExam) coursework.Exam {
	t.Helper()
	e, err := cwSvc.CreateExam(teacherID, in)
	if err != nil {
		t.Fatalf("CreateExam(): %v", err)
	}
	return e
}

// HTTP helpers

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
