package dummydb

import (
	"sort"

	"github.com/trezcool/shule/core/coursework"
	"github.com/trezcool/shule/core/school"
)

type courseworkRepository struct {
	db *DB
}

var _ coursework.Repository = (*courseworkRepository)(nil) // interface compliance check

func NewCourseworkRepository(db *DB) coursework.Repository {
	return &courseworkRepository{db: db}
}

// studentIdentity returns the student row with its account attached.
// Callers must hold the lock.
func (repo *courseworkRepository) studentIdentity(studentID string) *school.Student {
	st, ok := repo.db.students[studentID]
	if !ok {
		return nil
	}
	identity := school.Student{ID: st.ID, UserID: st.UserID}
	if usr, ok := repo.db.users[st.UserID]; ok {
		u := *usr
		identity.User = &u
	}
	return &identity
}

// Lessons

func (repo *courseworkRepository) CreateLesson(l coursework.Lesson) (coursework.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.lessons[l.ID] = &l
	return l, nil
}

func (repo *courseworkRepository) FilterLessons(filter coursework.LessonFilter) ([]coursework.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lessons := make([]coursework.Lesson, 0)
	for _, l := range repo.db.lessons {
		if filter.TeacherID != "" && l.TeacherID != filter.TeacherID {
			continue
		}
		if filter.ClassID != "" && l.ClassID != filter.ClassID {
			continue
		}
		if filter.SubjectID != "" && l.SubjectID != filter.SubjectID {
			continue
		}
		lessons = append(lessons, *l)
	}
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].OrderIndex != lessons[j].OrderIndex {
			return lessons[i].OrderIndex < lessons[j].OrderIndex
		}
		return lessons[i].CreatedAt.Before(lessons[j].CreatedAt)
	})
	return lessons, nil
}

func (repo *courseworkRepository) GetLessonByID(id string) (coursework.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if l, ok := repo.db.lessons[id]; ok {
		return *l, nil
	}
	return coursework.Lesson{}, coursework.ErrLessonNotFound
}

func (repo *courseworkRepository) UpdateLesson(l coursework.Lesson) (coursework.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.lessons[l.ID]; !ok {
		return coursework.Lesson{}, coursework.ErrLessonNotFound
	}
	repo.db.lessons[l.ID] = &l
	return l, nil
}

func (repo *courseworkRepository) DeleteLesson(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.lessons, id)
	return nil
}

// Homework

func (repo *courseworkRepository) CreateHomework(hw coursework.Homework) (coursework.Homework, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.homework[hw.ID] = &hw
	return hw, nil
}

func (repo *courseworkRepository) FilterHomework(filter coursework.HomeworkFilter) ([]coursework.Homework, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	hws := make([]coursework.Homework, 0)
	for _, hw := range repo.db.homework {
		if filter.TeacherID != "" && hw.TeacherID != filter.TeacherID {
			continue
		}
		if filter.ClassID != "" && hw.ClassID != filter.ClassID {
			continue
		}
		hws = append(hws, *hw)
	}
	sort.Slice(hws, func(i, j int) bool { return hws[i].DueDate.Before(hws[j].DueDate) })
	return hws, nil
}

func (repo *courseworkRepository) GetHomeworkByID(id string) (coursework.Homework, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if hw, ok := repo.db.homework[id]; ok {
		return *hw, nil
	}
	return coursework.Homework{}, coursework.ErrHomeworkNotFound
}

func (repo *courseworkRepository) UpdateHomework(hw coursework.Homework) (coursework.Homework, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.homework[hw.ID]; !ok {
		return coursework.Homework{}, coursework.ErrHomeworkNotFound
	}
	repo.db.homework[hw.ID] = &hw
	return hw, nil
}

func (repo *courseworkRepository) DeleteHomework(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for subID, sub := range repo.db.submissions {
		if sub.HomeworkID == id {
			delete(repo.db.submissions, subID)
		}
	}
	delete(repo.db.homework, id)
	return nil
}

// Submissions

func (repo *courseworkRepository) CreateSubmission(sub coursework.Submission) (coursework.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.HomeworkID == sub.HomeworkID && existing.StudentID == sub.StudentID {
			return coursework.Submission{}, coursework.ErrAlreadySubmitted
		}
	}
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *courseworkRepository) filterSubmissions(filter coursework.SubmissionFilter) []coursework.Submission {
	subs := make([]coursework.Submission, 0)
	for _, sub := range repo.db.submissions {
		if filter.StudentID != "" && sub.StudentID != filter.StudentID {
			continue
		}
		if filter.HomeworkID != "" && sub.HomeworkID != filter.HomeworkID {
			continue
		}
		subs = append(subs, *sub)
	}
	// newest first
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs
}

func (repo *courseworkRepository) FilterSubmissions(filter coursework.SubmissionFilter) ([]coursework.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filterSubmissions(filter), nil
}

func (repo *courseworkRepository) QueryHomeworkSubmissions(homeworkID string) ([]coursework.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := repo.filterSubmissions(coursework.SubmissionFilter{HomeworkID: homeworkID})
	for i := range subs {
		subs[i].Student = repo.studentIdentity(subs[i].StudentID)
	}
	return subs, nil
}

// Exams

func (repo *courseworkRepository) CreateExam(e coursework.Exam) (coursework.Exam, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.exams[e.ID] = &e
	return e, nil
}

func (repo *courseworkRepository) FilterExams(filter coursework.ExamFilter) ([]coursework.Exam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exams := make([]coursework.Exam, 0)
	for _, e := range repo.db.exams {
		if filter.TeacherID != "" && e.TeacherID != filter.TeacherID {
			continue
		}
		if filter.ClassID != "" && e.ClassID != filter.ClassID {
			continue
		}
		exams = append(exams, *e)
	}
	sort.Slice(exams, func(i, j int) bool { return exams[i].DueDate.Before(exams[j].DueDate) })
	return exams, nil
}

func (repo *courseworkRepository) GetExamByID(id string) (coursework.Exam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.exams[id]; ok {
		return *e, nil
	}
	return coursework.Exam{}, coursework.ErrExamNotFound
}

func (repo *courseworkRepository) UpdateExam(e coursework.Exam) (coursework.Exam, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.exams[e.ID]; !ok {
		return coursework.Exam{}, coursework.ErrExamNotFound
	}
	repo.db.exams[e.ID] = &e
	return e, nil
}

func (repo *courseworkRepository) DeleteExam(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for attID, att := range repo.db.attempts {
		if att.ExamID == id {
			delete(repo.db.attempts, attID)
		}
	}
	delete(repo.db.exams, id)
	return nil
}

// Attempts

func (repo *courseworkRepository) UpsertExamAttempt(a coursework.ExamAttempt) (coursework.ExamAttempt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.attempts {
		if existing.ExamID == a.ExamID && existing.StudentID == a.StudentID {
			existing.Answers = a.Answers
			existing.Status = a.Status
			existing.SubmittedAt = a.SubmittedAt
			return *existing, nil
		}
	}
	repo.db.attempts[a.ID] = &a
	return a, nil
}

func (repo *courseworkRepository) FilterAttemptsByStudent(studentID string) ([]coursework.ExamAttempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	attempts := make([]coursework.ExamAttempt, 0)
	for _, att := range repo.db.attempts {
		if att.StudentID == studentID {
			attempts = append(attempts, *att)
		}
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].ID < attempts[j].ID })
	return attempts, nil
}

func (repo *courseworkRepository) GetStudentAttempt(examID, studentID string) (coursework.ExamAttempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, att := range repo.db.attempts {
		if att.ExamID == examID && att.StudentID == studentID {
			return *att, nil
		}
	}
	return coursework.ExamAttempt{}, coursework.ErrAttemptNotFound
}

func (repo *courseworkRepository) QueryExamAttempts(examID string) ([]coursework.ExamAttempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	attempts := make([]coursework.ExamAttempt, 0)
	for _, att := range repo.db.attempts {
		if att.ExamID == examID {
			a := *att
			a.Student = repo.studentIdentity(a.StudentID)
			attempts = append(attempts, a)
		}
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].ID < attempts[j].ID })
	return attempts, nil
}
