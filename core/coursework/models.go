package coursework

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

// Statuses.
const (
	StatusSubmitted = "SUBMITTED"

	DefaultExamDuration = 60 // minutes
)

type Lesson struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Content    null.String `json:"content"`
	OrderIndex int         `json:"orderIndex"`
	SubjectID  string      `json:"subjectId"`
	ClassID    string      `json:"classId"`
	TeacherID  string      `json:"teacherId"`
	CreatedAt  time.Time   `json:"createdAt"` // UTC

	Subject *school.Subject `json:"subject,omitempty"`
	Class   *school.Class   `json:"class,omitempty"`
}

type Homework struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	DueDate     time.Time   `json:"dueDate"`
	SubjectID   string      `json:"subjectId"`
	ClassID     string      `json:"classId"`
	TeacherID   string      `json:"teacherId"`
	CreatedAt   time.Time   `json:"createdAt"` // UTC

	Subject *school.Subject `json:"subject,omitempty"`
	Class   *school.Class   `json:"class,omitempty"`
}

// Submission is unique per (HomeworkID, StudentID); a second submit is
// rejected, never merged.
type Submission struct {
	ID          string    `json:"id"`
	HomeworkID  string    `json:"homeworkId"`
	StudentID   string    `json:"studentId"`
	Content     string    `json:"content"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"` // UTC

	Homework *Homework       `json:"homework,omitempty"`
	Student  *school.Student `json:"student,omitempty"`
}

type Exam struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     null.String `json:"description"`
	DurationMinutes int         `json:"durationMinutes"`
	DueDate         time.Time   `json:"dueDate"`
	SubjectID       string      `json:"subjectId"`
	ClassID         string      `json:"classId"`
	TeacherID       string      `json:"teacherId"`
	CreatedAt       time.Time   `json:"createdAt"` // UTC

	Subject *school.Subject `json:"subject,omitempty"`
	Class   *school.Class   `json:"class,omitempty"`
}

// ExamAttempt is unique per (ExamID, StudentID); submitting again updates the
// existing row in place.
type ExamAttempt struct {
	ID          string      `json:"id"`
	ExamID      string      `json:"examId"`
	StudentID   string      `json:"studentId"`
	Answers     null.String `json:"answers"`
	Score       null.Int    `json:"score"`
	Status      string      `json:"status"`
	SubmittedAt null.Time   `json:"submittedAt"` // UTC

	Exam    *Exam           `json:"exam,omitempty"`
	Student *school.Student `json:"student,omitempty"`
}

// Filters apply AND on non-empty fields.
type (
	LessonFilter struct {
		TeacherID string
		ClassID   string
		SubjectID string
	}

	HomeworkFilter struct {
		TeacherID string
		ClassID   string
	}

	ExamFilter struct {
		TeacherID string
		ClassID   string
	}

	SubmissionFilter struct {
		StudentID  string
		HomeworkID string
	}
)

// Inputs

type NewLesson struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
	// OrderIndex positions the lesson within its subject's sequence.
	OrderIndex int    `json:"orderIndex"`
	SubjectID  string `json:"subjectId" validate:"required"`
	// ClassID may be omitted when the teacher covers the subject in a
	// single class.
	ClassID string `json:"classId"`
}

func (in *NewLesson) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	in.SubjectID = core.CleanString(in.SubjectID)
	in.ClassID = core.CleanString(in.ClassID)
	return validate.Struct(in)
}

// UpdateLesson leaves empty fields untouched.
type UpdateLesson struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	OrderIndex *int   `json:"orderIndex"`
}

func (in *UpdateLesson) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	return validate.Struct(in)
}

type NewHomework struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	SubjectID   string    `json:"subjectId" validate:"required"`
	ClassID     string    `json:"classId"`
}

func (in *NewHomework) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	in.SubjectID = core.CleanString(in.SubjectID)
	in.ClassID = core.CleanString(in.ClassID)
	return validate.Struct(in)
}

type UpdateHomework struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
}

func (in *UpdateHomework) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	return validate.Struct(in)
}

type NewSubmission struct {
	HomeworkID string `json:"homeworkId" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

func (in *NewSubmission) Validate(validate *validator.Validate) error {
	in.HomeworkID = core.CleanString(in.HomeworkID)
	in.Content = core.CleanString(in.Content)
	return validate.Struct(in)
}

type NewExam struct {
	Title           string    `json:"title" validate:"required"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"durationMinutes"`
	DueDate         time.Time `json:"dueDate"`
	SubjectID       string    `json:"subjectId" validate:"required"`
	ClassID         string    `json:"classId"`
}

func (in *NewExam) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	in.SubjectID = core.CleanString(in.SubjectID)
	in.ClassID = core.CleanString(in.ClassID)
	return validate.Struct(in)
}

type UpdateExam struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes *int      `json:"durationMinutes"`
	DueDate         time.Time `json:"dueDate"`
}

func (in *UpdateExam) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	return validate.Struct(in)
}

// NewAttempt carries the student's answers on exam submission.
type NewAttempt struct {
	ExamID  string `json:"examId" validate:"required"`
	Answers string `json:"answers"`
}

func (in *NewAttempt) Validate(validate *validator.Validate) error {
	in.ExamID = core.CleanString(in.ExamID)
	return validate.Struct(in)
}
