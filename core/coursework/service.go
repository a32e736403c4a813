package coursework

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

var (
	// errors
	ErrLessonNotFound   = core.NewNotFoundError("Lesson not found")
	ErrHomeworkNotFound = core.NewNotFoundError("Homework not found")
	ErrExamNotFound     = core.NewNotFoundError("Exam not found")
	ErrAttemptNotFound  = core.NewNotFoundError("Attempt not found")

	ErrAlreadySubmitted = core.NewConflictError("You already submitted this homework")
)

type (
	Repository interface {
		// lessons
		CreateLesson(l Lesson) (Lesson, error)
		FilterLessons(filter LessonFilter) ([]Lesson, error)
		GetLessonByID(id string) (Lesson, error)
		UpdateLesson(l Lesson) (Lesson, error)
		DeleteLesson(id string) error

		// homework
		CreateHomework(hw Homework) (Homework, error)
		FilterHomework(filter HomeworkFilter) ([]Homework, error)
		GetHomeworkByID(id string) (Homework, error)
		UpdateHomework(hw Homework) (Homework, error)
		// DeleteHomework removes the homework's submissions in the same
		// transaction.
		DeleteHomework(id string) error

		// submissions
		// CreateSubmission fails with ErrAlreadySubmitted when the
		// (homeworkId, studentId) pair already exists.
		CreateSubmission(sub Submission) (Submission, error)
		FilterSubmissions(filter SubmissionFilter) ([]Submission, error)
		// QueryHomeworkSubmissions returns a homework's submissions with
		// each student's identity attached.
		QueryHomeworkSubmissions(homeworkID string) ([]Submission, error)

		// exams
		CreateExam(e Exam) (Exam, error)
		FilterExams(filter ExamFilter) ([]Exam, error)
		GetExamByID(id string) (Exam, error)
		UpdateExam(e Exam) (Exam, error)
		// DeleteExam removes the exam's attempts in the same transaction.
		DeleteExam(id string) error

		// exam attempts
		// UpsertExamAttempt creates the (examId, studentId) row or updates it
		// in place, keeping a single attempt per pair.
		UpsertExamAttempt(a ExamAttempt) (ExamAttempt, error)
		FilterAttemptsByStudent(studentID string) ([]ExamAttempt, error)
		GetStudentAttempt(examID, studentID string) (ExamAttempt, error)
		// QueryExamAttempts returns an exam's attempts with each student's
		// identity attached.
		QueryExamAttempts(examID string) ([]ExamAttempt, error)
	}

	Service struct {
		repo      Repository
		schoolSvc *school.Service
	}
)

func NewService(repo Repository, schoolSvc *school.Service) *Service {
	return &Service{repo: repo, schoolSvc: schoolSvc}
}

// Lessons

// CreateLesson files a lesson under the assignment resolved for
// (teacher, subject, optional class).
func (svc *Service) CreateLesson(teacherID string, in NewLesson) (Lesson, error) {
	a, err := svc.schoolSvc.ResolveAssignment(teacherID, in.SubjectID, in.ClassID)
	if err != nil {
		return Lesson{}, err
	}
	return svc.repo.CreateLesson(Lesson{
		ID:         uuid.New().String(),
		Title:      in.Title,
		Content:    null.NewString(in.Content, in.Content != ""),
		OrderIndex: in.OrderIndex,
		SubjectID:  a.SubjectID,
		ClassID:    a.ClassID,
		TeacherID:  teacherID,
		CreatedAt:  time.Now().UTC(),
	})
}

func (svc *Service) QueryTeacherLessons(teacherID, subjectID string) ([]Lesson, error) {
	return svc.repo.FilterLessons(LessonFilter{TeacherID: teacherID, SubjectID: subjectID})
}

// QueryClassLessons lists the lessons filed for a class. An empty classID
// matches nothing.
func (svc *Service) QueryClassLessons(classID, subjectID string) ([]Lesson, error) {
	if classID == "" {
		return []Lesson{}, nil
	}
	return svc.repo.FilterLessons(LessonFilter{ClassID: classID, SubjectID: subjectID})
}

// getTeacherLesson fetches a lesson iff the teacher currently holds an
// assignment covering its (subject, class) pair; anything else reads as
// not-found.
func (svc *Service) getTeacherLesson(teacherID, lessonID string) (Lesson, error) {
	l, err := svc.repo.GetLessonByID(lessonID)
	if err != nil {
		return Lesson{}, ErrLessonNotFound
	}
	covered, err := svc.schoolSvc.AssignmentCovers(teacherID, l.SubjectID, l.ClassID)
	if err != nil {
		return Lesson{}, err
	}
	if !covered {
		return Lesson{}, ErrLessonNotFound
	}
	return l, nil
}

func (svc *Service) GetTeacherLesson(teacherID, lessonID string) (Lesson, error) {
	return svc.getTeacherLesson(teacherID, lessonID)
}

// GetClassLesson fetches a lesson iff it is filed for the given class.
func (svc *Service) GetClassLesson(classID, lessonID string) (Lesson, error) {
	l, err := svc.repo.GetLessonByID(lessonID)
	if err != nil || l.ClassID != classID {
		return Lesson{}, ErrLessonNotFound
	}
	return l, nil
}

func (svc *Service) UpdateLesson(teacherID, lessonID string, in UpdateLesson) (Lesson, error) {
	l, err := svc.getTeacherLesson(teacherID, lessonID)
	if err != nil {
		return Lesson{}, err
	}
	if in.Title != "" {
		l.Title = in.Title
	}
	if in.Content != "" {
		l.Content = null.StringFrom(in.Content)
	}
	if in.OrderIndex != nil {
		l.OrderIndex = *in.OrderIndex
	}
	return svc.repo.UpdateLesson(l)
}

func (svc *Service) DeleteLesson(teacherID, lessonID string) error {
	if _, err := svc.getTeacherLesson(teacherID, lessonID); err != nil {
		return err
	}
	return svc.repo.DeleteLesson(lessonID)
}

// Homework

func (svc *Service) CreateHomework(teacherID string, in NewHomework) (Homework, error) {
	a, err := svc.schoolSvc.ResolveAssignment(teacherID, in.SubjectID, in.ClassID)
	if err != nil {
		return Homework{}, err
	}
	dueDate := in.DueDate.UTC()
	if in.DueDate.IsZero() {
		dueDate = time.Now().UTC()
	}
	return svc.repo.CreateHomework(Homework{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: null.NewString(in.Description, in.Description != ""),
		DueDate:     dueDate,
		SubjectID:   a.SubjectID,
		ClassID:     a.ClassID,
		TeacherID:   teacherID,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *Service) QueryTeacherHomework(teacherID string) ([]Homework, error) {
	return svc.repo.FilterHomework(HomeworkFilter{TeacherID: teacherID})
}

// QueryClassHomework lists the homework assigned to a class. An empty classID
// matches nothing.
func (svc *Service) QueryClassHomework(classID string) ([]Homework, error) {
	if classID == "" {
		return []Homework{}, nil
	}
	return svc.repo.FilterHomework(HomeworkFilter{ClassID: classID})
}

// getTeacherHomework fetches a homework iff it was created by the teacher;
// someone else's reads as not-found.
func (svc *Service) getTeacherHomework(teacherID, homeworkID string) (Homework, error) {
	hw, err := svc.repo.GetHomeworkByID(homeworkID)
	if err != nil || hw.TeacherID != teacherID {
		return Homework{}, ErrHomeworkNotFound
	}
	return hw, nil
}

func (svc *Service) GetTeacherHomework(teacherID, homeworkID string) (Homework, error) {
	return svc.getTeacherHomework(teacherID, homeworkID)
}

func (svc *Service) UpdateHomework(teacherID, homeworkID string, in UpdateHomework) (Homework, error) {
	hw, err := svc.getTeacherHomework(teacherID, homeworkID)
	if err != nil {
		return Homework{}, err
	}
	if in.Title != "" {
		hw.Title = in.Title
	}
	if in.Description != "" {
		hw.Description = null.StringFrom(in.Description)
	}
	if !in.DueDate.IsZero() {
		hw.DueDate = in.DueDate.UTC()
	}
	return svc.repo.UpdateHomework(hw)
}

func (svc *Service) DeleteHomework(teacherID, homeworkID string) error {
	if _, err := svc.getTeacherHomework(teacherID, homeworkID); err != nil {
		return err
	}
	return svc.repo.DeleteHomework(homeworkID)
}

func (svc *Service) QueryHomeworkSubmissions(teacherID, homeworkID string) ([]Submission, error) {
	if _, err := svc.getTeacherHomework(teacherID, homeworkID); err != nil {
		return nil, err
	}
	return svc.repo.QueryHomeworkSubmissions(homeworkID)
}

// Submissions

// SubmitHomework records a student's one-shot submission. A second submit of
// the same homework is a conflict, not an update.
func (svc *Service) SubmitHomework(studentID string, in NewSubmission) (Submission, error) {
	if _, err := svc.repo.GetHomeworkByID(in.HomeworkID); err != nil {
		return Submission{}, ErrHomeworkNotFound
	}
	return svc.repo.CreateSubmission(Submission{
		ID:          uuid.New().String(),
		HomeworkID:  in.HomeworkID,
		StudentID:   studentID,
		Content:     in.Content,
		Status:      StatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	})
}

func (svc *Service) QueryStudentSubmissions(studentID, homeworkID string) ([]Submission, error) {
	return svc.repo.FilterSubmissions(SubmissionFilter{StudentID: studentID, HomeworkID: homeworkID})
}

// Exams

func (svc *Service) CreateExam(teacherID string, in NewExam) (Exam, error) {
	a, err := svc.schoolSvc.ResolveAssignment(teacherID, in.SubjectID, in.ClassID)
	if err != nil {
		return Exam{}, err
	}
	duration := in.DurationMinutes
	if duration <= 0 {
		duration = DefaultExamDuration
	}
	dueDate := in.DueDate.UTC()
	if in.DueDate.IsZero() {
		dueDate = time.Now().UTC()
	}
	return svc.repo.CreateExam(Exam{
		ID:              uuid.New().String(),
		Title:           in.Title,
		Description:     null.NewString(in.Description, in.Description != ""),
		DurationMinutes: duration,
		DueDate:         dueDate,
		SubjectID:       a.SubjectID,
		ClassID:         a.ClassID,
		TeacherID:       teacherID,
		CreatedAt:       time.Now().UTC(),
	})
}

func (svc *Service) QueryTeacherExams(teacherID string) ([]Exam, error) {
	return svc.repo.FilterExams(ExamFilter{TeacherID: teacherID})
}

// QueryClassExams lists the exams scheduled for a class. An empty classID
// matches nothing.
func (svc *Service) QueryClassExams(classID string) ([]Exam, error) {
	if classID == "" {
		return []Exam{}, nil
	}
	return svc.repo.FilterExams(ExamFilter{ClassID: classID})
}

func (svc *Service) getTeacherExam(teacherID, examID string) (Exam, error) {
	e, err := svc.repo.GetExamByID(examID)
	if err != nil || e.TeacherID != teacherID {
		return Exam{}, ErrExamNotFound
	}
	return e, nil
}

func (svc *Service) GetTeacherExam(teacherID, examID string) (Exam, error) {
	return svc.getTeacherExam(teacherID, examID)
}

// GetStudentExam fetches an exam scheduled for the student's class together
// with their attempt when one exists. Exams of other classes read as
// not-found.
func (svc *Service) GetStudentExam(studentID, classID, examID string) (Exam, *ExamAttempt, error) {
	e, err := svc.repo.GetExamByID(examID)
	if err != nil || e.ClassID != classID {
		return Exam{}, nil, ErrExamNotFound
	}
	att, err := svc.repo.GetStudentAttempt(examID, studentID)
	if err != nil {
		if err == ErrAttemptNotFound {
			return e, nil, nil
		}
		return Exam{}, nil, err
	}
	return e, &att, nil
}

func (svc *Service) UpdateExam(teacherID, examID string, in UpdateExam) (Exam, error) {
	e, err := svc.getTeacherExam(teacherID, examID)
	if err != nil {
		return Exam{}, err
	}
	if in.Title != "" {
		e.Title = in.Title
	}
	if in.Description != "" {
		e.Description = null.StringFrom(in.Description)
	}
	if in.DurationMinutes != nil && *in.DurationMinutes > 0 {
		e.DurationMinutes = *in.DurationMinutes
	}
	if !in.DueDate.IsZero() {
		e.DueDate = in.DueDate.UTC()
	}
	return svc.repo.UpdateExam(e)
}

func (svc *Service) DeleteExam(teacherID, examID string) error {
	if _, err := svc.getTeacherExam(teacherID, examID); err != nil {
		return err
	}
	return svc.repo.DeleteExam(examID)
}

func (svc *Service) QueryExamAttempts(teacherID, examID string) ([]ExamAttempt, error) {
	if _, err := svc.getTeacherExam(teacherID, examID); err != nil {
		return nil, err
	}
	return svc.repo.QueryExamAttempts(examID)
}

// Attempts

// SubmitExamAttempt upserts the student's attempt: re-submitting overwrites
// the answers and refreshes submittedAt rather than creating a second row.
func (svc *Service) SubmitExamAttempt(studentID string, in NewAttempt) (ExamAttempt, error) {
	if _, err := svc.repo.GetExamByID(in.ExamID); err != nil {
		return ExamAttempt{}, ErrExamNotFound
	}
	return svc.repo.UpsertExamAttempt(ExamAttempt{
		ID:          uuid.New().String(),
		ExamID:      in.ExamID,
		StudentID:   studentID,
		Answers:     null.NewString(in.Answers, in.Answers != ""),
		Status:      StatusSubmitted,
		SubmittedAt: null.TimeFrom(time.Now().UTC()),
	})
}

func (svc *Service) QueryStudentAttempts(studentID string) ([]ExamAttempt, error) {
	return svc.repo.FilterAttemptsByStudent(studentID)
}
