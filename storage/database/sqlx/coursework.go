package sqlxrepos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/coursework"
	"github.com/trezcool/shule/core/school"
)

type (
	lessonRow struct {
		ID         string      `db:"id"`
		Title      string      `db:"title"`
		Content    null.String `db:"content"`
		OrderIndex int         `db:"order_index"`
		SubjectID  string      `db:"subject_id"`
		ClassID    string      `db:"class_id"`
		TeacherID  string      `db:"teacher_id"`
		CreatedAt  time.Time   `db:"created_at"`
	}

	homeworkRow struct {
		ID          string      `db:"id"`
		Title       string      `db:"title"`
		Description null.String `db:"description"`
		DueDate     time.Time   `db:"due_date"`
		SubjectID   string      `db:"subject_id"`
		ClassID     string      `db:"class_id"`
		TeacherID   string      `db:"teacher_id"`
		CreatedAt   time.Time   `db:"created_at"`
	}

	submissionRow struct {
		ID          string    `db:"id"`
		HomeworkID  string    `db:"homework_id"`
		StudentID   string    `db:"student_id"`
		Content     string    `db:"content"`
		Status      string    `db:"status"`
		SubmittedAt time.Time `db:"submitted_at"`
	}

	examRow struct {
		ID              string      `db:"id"`
		Title           string      `db:"title"`
		Description     null.String `db:"description"`
		DurationMinutes int         `db:"duration_minutes"`
		DueDate         time.Time   `db:"due_date"`
		SubjectID       string      `db:"subject_id"`
		ClassID         string      `db:"class_id"`
		TeacherID       string      `db:"teacher_id"`
		CreatedAt       time.Time   `db:"created_at"`
	}

	attemptRow struct {
		ID          string      `db:"id"`
		ExamID      string      `db:"exam_id"`
		StudentID   string      `db:"student_id"`
		Answers     null.String `db:"answers"`
		Score       null.Int    `db:"score"`
		Status      string      `db:"status"`
		SubmittedAt null.Time   `db:"submitted_at"`
	}
)

func (r lessonRow) toLesson() coursework.Lesson {
	return coursework.Lesson{
		ID:         r.ID,
		Title:      r.Title,
		Content:    r.Content,
		OrderIndex: r.OrderIndex,
		SubjectID:  r.SubjectID,
		ClassID:    r.ClassID,
		TeacherID:  r.TeacherID,
		CreatedAt:  r.CreatedAt,
	}
}

func (r homeworkRow) toHomework() coursework.Homework {
	return coursework.Homework{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		SubjectID:   r.SubjectID,
		ClassID:     r.ClassID,
		TeacherID:   r.TeacherID,
		CreatedAt:   r.CreatedAt,
	}
}

func (r submissionRow) toSubmission() coursework.Submission {
	return coursework.Submission{
		ID:          r.ID,
		HomeworkID:  r.HomeworkID,
		StudentID:   r.StudentID,
		Content:     r.Content,
		Status:      r.Status,
		SubmittedAt: r.SubmittedAt,
	}
}

func (r examRow) toExam() coursework.Exam {
	return coursework.Exam{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		DueDate:         r.DueDate,
		SubjectID:       r.SubjectID,
		ClassID:         r.ClassID,
		TeacherID:       r.TeacherID,
		CreatedAt:       r.CreatedAt,
	}
}

func (r attemptRow) toAttempt() coursework.ExamAttempt {
	return coursework.ExamAttempt{
		ID:          r.ID,
		ExamID:      r.ExamID,
		StudentID:   r.StudentID,
		Answers:     r.Answers,
		Score:       r.Score,
		Status:      r.Status,
		SubmittedAt: r.SubmittedAt,
	}
}

type courseworkRepository struct {
	db *sqlx.DB
}

var _ coursework.Repository = (*courseworkRepository)(nil) // interface compliance check

func NewCourseworkRepository(db *sqlx.DB) coursework.Repository {
	return &courseworkRepository{db: db}
}

// getStudentIdentity fetches the student row with its account attached, for
// teacher-facing submission and attempt listings.
func (repo *courseworkRepository) getStudentIdentity(studentID string) (*school.Student, error) {
	var row struct {
		ID     string `db:"id"`
		UserID string `db:"user_id"`
	}
	err := repo.db.Get(&row, `SELECT id, user_id FROM student WHERE id = $1`, studentID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting student")
	}
	usr, err := getUser(repo.db, row.UserID)
	if err != nil {
		return nil, err
	}
	return &school.Student{ID: row.ID, UserID: row.UserID, User: &usr}, nil
}

// Lessons

func (repo *courseworkRepository) CreateLesson(l coursework.Lesson) (coursework.Lesson, error) {
	_, err := repo.db.Exec(
		`INSERT INTO lesson (id, title, content, order_index, subject_id, class_id, teacher_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.Title, l.Content, l.OrderIndex, l.SubjectID, l.ClassID, l.TeacherID, l.CreatedAt,
	)
	if err != nil {
		return coursework.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return l, nil
}

func (repo *courseworkRepository) FilterLessons(filter coursework.LessonFilter) ([]coursework.Lesson, error) {
	query := `SELECT * FROM lesson WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		query += ` AND teacher_id = ?`
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		query += ` AND class_id = ?`
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		query += ` AND subject_id = ?`
	}
	query += ` ORDER BY order_index, created_at`

	rows := make([]lessonRow, 0)
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	lessons := make([]coursework.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, r.toLesson())
	}
	return lessons, nil
}

func (repo *courseworkRepository) GetLessonByID(id string) (coursework.Lesson, error) {
	var row lessonRow
	if err := repo.db.Get(&row, `SELECT * FROM lesson WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return coursework.Lesson{}, coursework.ErrLessonNotFound
		}
		return coursework.Lesson{}, errors.Wrap(err, "getting lesson")
	}
	return row.toLesson(), nil
}

func (repo *courseworkRepository) UpdateLesson(l coursework.Lesson) (coursework.Lesson, error) {
	_, err := repo.db.Exec(
		`UPDATE lesson SET title = $2, content = $3, order_index = $4 WHERE id = $1`,
		l.ID, l.Title, l.Content, l.OrderIndex,
	)
	if err != nil {
		return coursework.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	return l, nil
}

func (repo *courseworkRepository) DeleteLesson(id string) error {
	if _, err := repo.db.Exec(`DELETE FROM lesson WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return nil
}

// Homework

func (repo *courseworkRepository) CreateHomework(hw coursework.Homework) (coursework.Homework, error) {
	_, err := repo.db.Exec(
		`INSERT INTO homework (id, title, description, due_date, subject_id, class_id, teacher_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		hw.ID, hw.Title, hw.Description, hw.DueDate, hw.SubjectID, hw.ClassID, hw.TeacherID, hw.CreatedAt,
	)
	if err != nil {
		return coursework.Homework{}, errors.Wrap(err, "inserting homework")
	}
	return hw, nil
}

func (repo *courseworkRepository) FilterHomework(filter coursework.HomeworkFilter) ([]coursework.Homework, error) {
	query := `SELECT * FROM homework WHERE 1=1`
	args := make([]interface{}, 0, 2)
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		query += ` AND teacher_id = ?`
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		query += ` AND class_id = ?`
	}
	query += ` ORDER BY due_date`

	rows := make([]homeworkRow, 0)
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying homework")
	}
	hws := make([]coursework.Homework, 0, len(rows))
	for _, r := range rows {
		hws = append(hws, r.toHomework())
	}
	return hws, nil
}

func (repo *courseworkRepository) GetHomeworkByID(id string) (coursework.Homework, error) {
	var row homeworkRow
	if err := repo.db.Get(&row, `SELECT * FROM homework WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return coursework.Homework{}, coursework.ErrHomeworkNotFound
		}
		return coursework.Homework{}, errors.Wrap(err, "getting homework")
	}
	return row.toHomework(), nil
}

func (repo *courseworkRepository) UpdateHomework(hw coursework.Homework) (coursework.Homework, error) {
	_, err := repo.db.Exec(
		`UPDATE homework SET title = $2, description = $3, due_date = $4 WHERE id = $1`,
		hw.ID, hw.Title, hw.Description, hw.DueDate,
	)
	if err != nil {
		return coursework.Homework{}, errors.Wrap(err, "updating homework")
	}
	return hw, nil
}

func (repo *courseworkRepository) DeleteHomework(id string) error {
	return runInTx(repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`DELETE FROM submission WHERE homework_id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting submissions")
		}
		if _, err := tx.Exec(`DELETE FROM homework WHERE id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting homework")
		}
		return nil
	})
}

// Submissions

func (repo *courseworkRepository) CreateSubmission(sub coursework.Submission) (coursework.Submission, error) {
	_, err := repo.db.Exec(
		`INSERT INTO submission (id, homework_id, student_id, content, status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.HomeworkID, sub.StudentID, sub.Content, sub.Status, sub.SubmittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coursework.Submission{}, coursework.ErrAlreadySubmitted
		}
		return coursework.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo *courseworkRepository) FilterSubmissions(filter coursework.SubmissionFilter) ([]coursework.Submission, error) {
	query := `SELECT * FROM submission WHERE 1=1`
	args := make([]interface{}, 0, 2)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += ` AND student_id = ?`
	}
	if filter.HomeworkID != "" {
		args = append(args, filter.HomeworkID)
		query += ` AND homework_id = ?`
	}
	query += ` ORDER BY submitted_at DESC`

	rows := make([]submissionRow, 0)
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]coursework.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toSubmission())
	}
	return subs, nil
}

func (repo *courseworkRepository) QueryHomeworkSubmissions(homeworkID string) ([]coursework.Submission, error) {
	subs, err := repo.FilterSubmissions(coursework.SubmissionFilter{HomeworkID: homeworkID})
	if err != nil {
		return nil, err
	}
	for i := range subs {
		st, err := repo.getStudentIdentity(subs[i].StudentID)
		if err != nil {
			return nil, err
		}
		subs[i].Student = st
	}
	return subs, nil
}

// Exams

func (repo *courseworkRepository) CreateExam(e coursework.Exam) (coursework.Exam, error) {
	_, err := repo.db.Exec(
		`INSERT INTO exam (id, title, description, duration_minutes, due_date, subject_id, class_id, teacher_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Title, e.Description, e.DurationMinutes, e.DueDate, e.SubjectID, e.ClassID, e.TeacherID, e.CreatedAt,
	)
	if err != nil {
		return coursework.Exam{}, errors.Wrap(err, "inserting exam")
	}
	return e, nil
}

func (repo *courseworkRepository) FilterExams(filter coursework.ExamFilter) ([]coursework.Exam, error) {
	query := `SELECT * FROM exam WHERE 1=1`
	args := make([]interface{}, 0, 2)
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		query += ` AND teacher_id = ?`
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		query += ` AND class_id = ?`
	}
	query += ` ORDER BY due_date`

	rows := make([]examRow, 0)
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	exams := make([]coursework.Exam, 0, len(rows))
	for _, r := range rows {
		exams = append(exams, r.toExam())
	}
	return exams, nil
}

func (repo *courseworkRepository) GetExamByID(id string) (coursework.Exam, error) {
	var row examRow
	if err := repo.db.Get(&row, `SELECT * FROM exam WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return coursework.Exam{}, coursework.ErrExamNotFound
		}
		return coursework.Exam{}, errors.Wrap(err, "getting exam")
	}
	return row.toExam(), nil
}

func (repo *courseworkRepository) UpdateExam(e coursework.Exam) (coursework.Exam, error) {
	_, err := repo.db.Exec(
		`UPDATE exam SET title = $2, description = $3, duration_minutes = $4, due_date = $5 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.DurationMinutes, e.DueDate,
	)
	if err != nil {
		return coursework.Exam{}, errors.Wrap(err, "updating exam")
	}
	return e, nil
}

func (repo *courseworkRepository) DeleteExam(id string) error {
	return runInTx(repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`DELETE FROM exam_attempt WHERE exam_id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting attempts")
		}
		if _, err := tx.Exec(`DELETE FROM exam WHERE id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting exam")
		}
		return nil
	})
}

// Attempts

func (repo *courseworkRepository) UpsertExamAttempt(a coursework.ExamAttempt) (coursework.ExamAttempt, error) {
	var row attemptRow
	err := repo.db.Get(&row,
		`INSERT INTO exam_attempt (id, exam_id, student_id, answers, score, status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (exam_id, student_id)
		 DO UPDATE SET answers = EXCLUDED.answers, status = EXCLUDED.status, submitted_at = EXCLUDED.submitted_at
		 RETURNING *`,
		a.ID, a.ExamID, a.StudentID, a.Answers, a.Score, a.Status, a.SubmittedAt,
	)
	if err != nil {
		return coursework.ExamAttempt{}, errors.Wrap(err, "upserting attempt")
	}
	return row.toAttempt(), nil
}

func (repo *courseworkRepository) FilterAttemptsByStudent(studentID string) ([]coursework.ExamAttempt, error) {
	rows := make([]attemptRow, 0)
	err := repo.db.Select(&rows, `SELECT * FROM exam_attempt WHERE student_id = $1 ORDER BY submitted_at DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	attempts := make([]coursework.ExamAttempt, 0, len(rows))
	for _, r := range rows {
		attempts = append(attempts, r.toAttempt())
	}
	return attempts, nil
}

func (repo *courseworkRepository) GetStudentAttempt(examID, studentID string) (coursework.ExamAttempt, error) {
	var row attemptRow
	err := repo.db.Get(&row, `SELECT * FROM exam_attempt WHERE exam_id = $1 AND student_id = $2`, examID, studentID)
	if err != nil {
		if isNoRows(err) {
			return coursework.ExamAttempt{}, coursework.ErrAttemptNotFound
		}
		return coursework.ExamAttempt{}, errors.Wrap(err, "getting attempt")
	}
	return row.toAttempt(), nil
}

func (repo *courseworkRepository) QueryExamAttempts(examID string) ([]coursework.ExamAttempt, error) {
	rows := make([]attemptRow, 0)
	err := repo.db.Select(&rows, `SELECT * FROM exam_attempt WHERE exam_id = $1 ORDER BY submitted_at`, examID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	attempts := make([]coursework.ExamAttempt, 0, len(rows))
	for _, r := range rows {
		st, err := repo.getStudentIdentity(r.StudentID)
		if err != nil {
			return nil, err
		}
		att := r.toAttempt()
		att.Student = st
		attempts = append(attempts, att)
	}
	return attempts, nil
}
