package school_test

import (
	"testing"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
)

type fixture struct {
	svc *school.Service

	g7, g8   school.Grade
	c7a, c7b school.Class
	c8a      school.Class
	math     school.Subject
	sci      school.Subject
	prof     school.Teacher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dummydb.Open()
	usrSvc := user.NewService(dummydb.NewUserRepository(db))
	svc := school.NewService(dummydb.NewSchoolRepository(db), usrSvc)

	f := &fixture{svc: svc}
	var err error
	if f.g7, err = svc.CreateGrade(school.NameInput{Name: "Grade 7"}); err != nil {
		t.Fatalf("CreateGrade(): %v", err)
	}
	if f.g8, err = svc.CreateGrade(school.NameInput{Name: "Grade 8"}); err != nil {
		t.Fatalf("CreateGrade(): %v", err)
	}
	if f.c7a, err = svc.CreateClass(school.NewClass{Name: "7A", GradeID: f.g7.ID}); err != nil {
		t.Fatalf("CreateClass(): %v", err)
	}
	if f.c7b, err = svc.CreateClass(school.NewClass{Name: "7B", GradeID: f.g7.ID}); err != nil {
		t.Fatalf("CreateClass(): %v", err)
	}
	if f.c8a, err = svc.CreateClass(school.NewClass{Name: "8A", GradeID: f.g8.ID}); err != nil {
		t.Fatalf("CreateClass(): %v", err)
	}
	if f.math, err = svc.CreateSubject(school.NameInput{Name: "Math"}); err != nil {
		t.Fatalf("CreateSubject(): %v", err)
	}
	if f.sci, err = svc.CreateSubject(school.NameInput{Name: "Science"}); err != nil {
		t.Fatalf("CreateSubject(): %v", err)
	}

	// prof teaches Math in 7A only, Science in 7A and 7B
	if f.prof, err = svc.CreateTeacher(school.NewTeacher{
		Credentials: user.Credentials{Name: "Prof", Email: "prof@shule.cd", Password: "s3cr3tWord!"},
		SubjectID:   f.math.ID,
		ClassID:     f.c7a.ID,
	}); err != nil {
		t.Fatalf("CreateTeacher(): %v", err)
	}
	if _, err = svc.UpdateTeacher(f.prof.ID, school.UpdateTeacher{
		Assignments: &[]school.AssignmentInput{
			{SubjectID: f.math.ID, ClassID: f.c7a.ID},
			{SubjectID: f.sci.ID, ClassID: f.c7a.ID},
			{SubjectID: f.sci.ID, ClassID: f.c7b.ID},
		},
	}); err != nil {
		t.Fatalf("UpdateTeacher(): %v", err)
	}
	return f
}

func TestService_ResolveAssignment(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name        string
		subjectID   string
		classID     string
		wantClassID string
		wantErr     error
	}{
		{name: "single match, no classId", subjectID: f.math.ID, wantClassID: f.c7a.ID},
		{name: "multiple matches, no classId", subjectID: f.sci.ID, wantErr: school.ErrAmbiguousClass},
		{name: "classId narrows to one", subjectID: f.sci.ID, classID: f.c7b.ID, wantClassID: f.c7b.ID},
		{name: "uncovered pair", subjectID: f.math.ID, classID: f.c7b.ID, wantErr: school.ErrSubjectNotOwned},
		{name: "unknown subject", subjectID: "lol", wantErr: school.ErrSubjectNotOwned},
		{name: "unknown class", subjectID: f.math.ID, classID: "lol", wantErr: school.ErrSubjectNotOwned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := f.svc.ResolveAssignment(f.prof.ID, tt.subjectID, tt.classID)
			if err != tt.wantErr {
				t.Fatalf("ResolveAssignment() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && a.ClassID != tt.wantClassID {
				t.Errorf("ResolveAssignment() classID = %s, want %s", a.ClassID, tt.wantClassID)
			}
		})
	}
}

func TestService_AssignmentCovers(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		subjectID string
		classID   string
		want      bool
	}{
		{name: "covered pair", subjectID: f.sci.ID, classID: f.c7b.ID, want: true},
		{name: "uncovered pair", subjectID: f.math.ID, classID: f.c7b.ID, want: false},
		{name: "unknown subject", subjectID: "lol", classID: f.c7a.ID, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.AssignmentCovers(f.prof.ID, tt.subjectID, tt.classID)
			if err != nil {
				t.Fatalf("AssignmentCovers() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("AssignmentCovers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_ValidateClassInGrade(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		classID string
		gradeID string
		wantErr error
	}{
		{name: "class in grade", classID: f.c7a.ID, gradeID: f.g7.ID},
		{name: "class of another grade", classID: f.c8a.ID, gradeID: f.g7.ID, wantErr: school.ErrClassGradeMismatch},
		{name: "unknown class", classID: "lol", gradeID: f.g7.ID, wantErr: school.ErrClassGradeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.svc.ValidateClassInGrade(tt.classID, tt.gradeID); err != tt.wantErr {
				t.Errorf("ValidateClassInGrade() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_UpdateTeacher_duplicateAssignments(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateTeacher(f.prof.ID, school.UpdateTeacher{
		Assignments: &[]school.AssignmentInput{
			{SubjectID: f.math.ID, ClassID: f.c7a.ID},
			{SubjectID: f.math.ID, ClassID: f.c7a.ID},
		},
	})
	if err != school.ErrDuplicateAssignment {
		t.Errorf("UpdateTeacher() error = %v, wantErr %v", err, school.ErrDuplicateAssignment)
	}
}

func TestService_UpdateStudent_gradeFallback(t *testing.T) {
	f := newFixture(t)

	st, err := f.svc.CreateStudent(school.NewStudent{
		Credentials: user.Credentials{Name: "Hero", Email: "hero@shule.cd", Password: "s3cr3tWord!"},
		GradeID:     f.g7.ID,
		ClassID:     f.c7a.ID,
	})
	if err != nil {
		t.Fatalf("CreateStudent(): %v", err)
	}

	// classId alone is checked against the stored grade
	if _, err = f.svc.UpdateStudent(st.ID, school.UpdateStudent{ClassID: f.c8a.ID}); err != school.ErrClassGradeMismatch {
		t.Fatalf("UpdateStudent() error = %v, wantErr %v", err, school.ErrClassGradeMismatch)
	}

	// an incoming gradeId takes precedence over the stored one
	updated, err := f.svc.UpdateStudent(st.ID, school.UpdateStudent{GradeID: f.g8.ID, ClassID: f.c8a.ID})
	if err != nil {
		t.Fatalf("UpdateStudent() error = %v", err)
	}
	if updated.GradeID.String != f.g8.ID || updated.ClassID.String != f.c8a.ID {
		t.Errorf("UpdateStudent() = %+v", updated)
	}
}
