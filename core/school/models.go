package school

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

type Grade struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Class belongs to a Grade; its GradeID must reference an existing Grade.
type Class struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GradeID string `json:"gradeId"`
}

type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeachingAssignment grants a Teacher the right to act on a Subject within a
// specific Class. The (TeacherID, SubjectID, ClassID) triple is unique.
type TeachingAssignment struct {
	ID        string `json:"id"`
	TeacherID string `json:"teacherId"`
	SubjectID string `json:"subjectId"`
	ClassID   string `json:"classId"`
}

// AssignmentDetail is an assignment expanded with its subject and class, as
// returned on teacher listings.
type AssignmentDetail struct {
	ID      string  `json:"id"`
	Subject Subject `json:"subject"`
	Class   Class   `json:"class"`
}

type Teacher struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId"`
	User        *user.User         `json:"user,omitempty"`
	Assignments []AssignmentDetail `json:"assignments,omitempty"`
}

// Student's grade and class are null until set: self-signup creates a bare
// profile, admin provisioning requires both.
type Student struct {
	ID       string      `json:"id"`
	UserID   string      `json:"userId"`
	GradeID  null.String `json:"gradeId"`
	ClassID  null.String `json:"classId"`
	ParentID null.String `json:"parentId"`
	User     *user.User  `json:"user,omitempty"`
	Grade    *Grade      `json:"grade,omitempty"`
	Class    *Class      `json:"class,omitempty"`
	Parent   *Parent     `json:"parent,omitempty"`
}

type Parent struct {
	ID     string     `json:"id"`
	UserID string     `json:"userId"`
	User   *user.User `json:"user,omitempty"`
}

// Inputs

// NameInput covers Grade and Subject create/update: a single required name.
type NameInput struct {
	Name string `json:"name" validate:"required"`
}

func (in *NameInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	return validate.Struct(in)
}

type NewClass struct {
	Name    string `json:"name" validate:"required"`
	GradeID string `json:"gradeId" validate:"required"`
}

func (in *NewClass) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.GradeID = core.CleanString(in.GradeID)
	return validate.Struct(in)
}

// UpdateClass leaves empty fields untouched.
type UpdateClass struct {
	Name    string `json:"name"`
	GradeID string `json:"gradeId"`
}

func (in *UpdateClass) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.GradeID = core.CleanString(in.GradeID)
	return validate.Struct(in)
}

type AssignmentInput struct {
	SubjectID string `json:"subjectId" validate:"required"`
	ClassID   string `json:"classId" validate:"required"`
}

type NewTeacher struct {
	user.Credentials
	SubjectID string `json:"subjectId" validate:"required"`
	ClassID   string `json:"classId" validate:"required"`
}

func (in *NewTeacher) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}

// UpdateTeacher patches account fields and, when Assignments is non-nil,
// replaces the teacher's assignment set wholesale.
type UpdateTeacher struct {
	user.UpdateCredentials
	Assignments *[]AssignmentInput `json:"assignments"`
}

func (in *UpdateTeacher) Validate(validate *validator.Validate) error {
	in.Clean()
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.Assignments != nil {
		for i := range *in.Assignments {
			if err := validate.Struct(&(*in.Assignments)[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

type NewStudent struct {
	user.Credentials
	GradeID  string `json:"gradeId" validate:"required"`
	ClassID  string `json:"classId" validate:"required"`
	ParentID string `json:"parentId"`
}

func (in *NewStudent) Validate(validate *validator.Validate) error {
	in.Clean()
	in.ParentID = core.CleanString(in.ParentID)
	return validate.Struct(in)
}

// UpdateStudent patches account and profile fields. ParentID distinguishes
// "leave as is" (nil) from "detach parent" (empty string).
type UpdateStudent struct {
	user.UpdateCredentials
	GradeID  string  `json:"gradeId"`
	ClassID  string  `json:"classId"`
	ParentID *string `json:"parentId"`
}

func (in *UpdateStudent) Validate(validate *validator.Validate) error {
	in.Clean()
	in.GradeID = core.CleanString(in.GradeID)
	in.ClassID = core.CleanString(in.ClassID)
	return validate.Struct(in)
}

type NewParent struct {
	user.Credentials
}

func (in *NewParent) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}

type UpdateParent struct {
	user.UpdateCredentials
}

func (in *UpdateParent) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}
