package dummydb

import (
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

// Grades

func (repo *schoolRepository) CreateGrade(g school.Grade) (school.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.grades[g.ID] = &g
	return g, nil
}

func (repo *schoolRepository) QueryAllGrades() ([]school.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grades := make([]school.Grade, 0, len(repo.db.grades))
	for _, g := range repo.db.grades {
		grades = append(grades, *g)
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].Name < grades[j].Name })
	return grades, nil
}

func (repo *schoolRepository) GetGradeByID(id string) (school.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.grades[id]; ok {
		return *g, nil
	}
	return school.Grade{}, school.ErrGradeNotFound
}

func (repo *schoolRepository) UpdateGrade(g school.Grade) (school.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.grades[g.ID]; !ok {
		return school.Grade{}, school.ErrGradeNotFound
	}
	repo.db.grades[g.ID] = &g
	return g, nil
}

func (repo *schoolRepository) DeleteGrade(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.grades, id)
	return nil
}

// Classes

func (repo *schoolRepository) CreateClass(c school.Class) (school.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.classes[c.ID] = &c
	return c, nil
}

func (repo *schoolRepository) FilterClasses(gradeID string, orderings ...core.DBOrdering) ([]school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]school.Class, 0, len(repo.db.classes))
	for _, c := range repo.db.classes {
		if gradeID != "" && c.GradeID != gradeID {
			continue
		}
		classes = append(classes, *c)
	}
	sort.Slice(classes, func(i, j int) bool { return classLess(classes[i], classes[j], orderings) })
	return classes, nil
}

// classLess compares classes per the requested orderings, defaulting to
// (gradeId, name).
func classLess(a, b school.Class, orderings []core.DBOrdering) bool {
	for _, ord := range orderings {
		var av, bv string
		switch ord.Field {
		case "name":
			av, bv = a.Name, b.Name
		case "gradeId":
			av, bv = a.GradeID, b.GradeID
		default:
			continue // unknown fields are ignored
		}
		if av == bv {
			continue
		}
		if ord.Ascending {
			return av < bv
		}
		return av > bv
	}
	if a.GradeID != b.GradeID {
		return a.GradeID < b.GradeID
	}
	return a.Name < b.Name
}

func (repo *schoolRepository) GetClassByID(id string) (school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.classes[id]; ok {
		return *c, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *schoolRepository) UpdateClass(c school.Class) (school.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[c.ID]; !ok {
		return school.Class{}, school.ErrClassNotFound
	}
	repo.db.classes[c.ID] = &c
	return c, nil
}

func (repo *schoolRepository) DeleteClass(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.classes, id)
	return nil
}

// Subjects

func (repo *schoolRepository) CreateSubject(s school.Subject) (school.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.subjects[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) QueryAllSubjects() ([]school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]school.Subject, 0, len(repo.db.subjects))
	for _, s := range repo.db.subjects {
		subjects = append(subjects, *s)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *schoolRepository) GetSubjectByID(id string) (school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.subjects[id]; ok {
		return *s, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func (repo *schoolRepository) UpdateSubject(s school.Subject) (school.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.subjects[s.ID]; !ok {
		return school.Subject{}, school.ErrSubjectNotFound
	}
	repo.db.subjects[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) DeleteSubject(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.subjects, id)
	return nil
}

// Teaching assignments

func (repo *schoolRepository) filterAssignments(filter school.AssignmentFilter) []school.TeachingAssignment {
	matches := make([]school.TeachingAssignment, 0)
	for _, a := range repo.db.assignments {
		if filter.TeacherID != "" && a.TeacherID != filter.TeacherID {
			continue
		}
		if filter.SubjectID != "" && a.SubjectID != filter.SubjectID {
			continue
		}
		if filter.ClassID != "" && a.ClassID != filter.ClassID {
			continue
		}
		matches = append(matches, *a)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches
}

func (repo *schoolRepository) FilterAssignments(filter school.AssignmentFilter) ([]school.TeachingAssignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filterAssignments(filter), nil
}

func (repo *schoolRepository) QueryTeacherSubjects(teacherID string) ([]school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	seen := make(map[string]struct{})
	subjects := make([]school.Subject, 0)
	for _, a := range repo.filterAssignments(school.AssignmentFilter{TeacherID: teacherID}) {
		if _, ok := seen[a.SubjectID]; ok {
			continue
		}
		seen[a.SubjectID] = struct{}{}
		if s, ok := repo.db.subjects[a.SubjectID]; ok {
			subjects = append(subjects, *s)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

// assignmentDetails expands a teacher's assignments with their subject and
// class rows. Callers must hold the lock.
func (repo *schoolRepository) assignmentDetails(teacherID string) []school.AssignmentDetail {
	details := make([]school.AssignmentDetail, 0)
	for _, a := range repo.filterAssignments(school.AssignmentFilter{TeacherID: teacherID}) {
		d := school.AssignmentDetail{ID: a.ID}
		if s, ok := repo.db.subjects[a.SubjectID]; ok {
			d.Subject = *s
		}
		if c, ok := repo.db.classes[a.ClassID]; ok {
			d.Class = *c
		}
		details = append(details, d)
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].Subject.Name != details[j].Subject.Name {
			return details[i].Subject.Name < details[j].Subject.Name
		}
		return details[i].Class.Name < details[j].Class.Name
	})
	return details
}

// Teachers

func (repo *schoolRepository) hydrateTeacher(t school.Teacher) school.Teacher {
	if usr, ok := repo.db.users[t.UserID]; ok {
		u := *usr
		t.User = &u
	}
	t.Assignments = repo.assignmentDetails(t.ID)
	return t
}

func (repo *schoolRepository) CreateTeacher(usr user.User, t school.Teacher, a school.TeachingAssignment) (school.Teacher, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.users[usr.ID] = &usr
	repo.db.teachers[t.ID] = &t
	repo.db.assignments[a.ID] = &a
	return repo.hydrateTeacher(t), nil
}

func (repo *schoolRepository) QueryAllTeachers() ([]school.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	teachers := make([]school.Teacher, 0, len(repo.db.teachers))
	for _, t := range repo.db.teachers {
		teachers = append(teachers, repo.hydrateTeacher(*t))
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })
	return teachers, nil
}

func (repo *schoolRepository) GetTeacherByID(id string) (school.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.teachers[id]; ok {
		return repo.hydrateTeacher(*t), nil
	}
	return school.Teacher{}, school.ErrTeacherNotFound
}

func (repo *schoolRepository) GetTeacherByUserID(userID string) (school.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, t := range repo.db.teachers {
		if t.UserID == userID {
			return repo.hydrateTeacher(*t), nil
		}
	}
	return school.Teacher{}, school.ErrTeacherNotFound
}

func (repo *schoolRepository) UpdateTeacher(teacherID string, usr *user.User, assignments *[]school.TeachingAssignment) (school.Teacher, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.teachers[teacherID]
	if !ok {
		return school.Teacher{}, school.ErrTeacherNotFound
	}
	if usr != nil {
		u := *usr
		repo.db.users[u.ID] = &u
	}
	if assignments != nil {
		for id, a := range repo.db.assignments {
			if a.TeacherID == teacherID {
				delete(repo.db.assignments, id)
			}
		}
		for _, a := range *assignments {
			a := a
			repo.db.assignments[a.ID] = &a
		}
	}
	return repo.hydrateTeacher(*t), nil
}

func (repo *schoolRepository) DeleteTeacher(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.teachers[id]
	if !ok {
		return school.ErrTeacherNotFound
	}

	for hwID, hw := range repo.db.homework {
		if hw.TeacherID == id {
			for subID, sub := range repo.db.submissions {
				if sub.HomeworkID == hwID {
					delete(repo.db.submissions, subID)
				}
			}
			delete(repo.db.homework, hwID)
		}
	}
	for examID, e := range repo.db.exams {
		if e.TeacherID == id {
			for attID, att := range repo.db.attempts {
				if att.ExamID == examID {
					delete(repo.db.attempts, attID)
				}
			}
			delete(repo.db.exams, examID)
		}
	}
	for lessonID, l := range repo.db.lessons {
		if l.TeacherID == id {
			delete(repo.db.lessons, lessonID)
		}
	}
	for aID, a := range repo.db.assignments {
		if a.TeacherID == id {
			delete(repo.db.assignments, aID)
		}
	}
	delete(repo.db.teachers, id)
	delete(repo.db.users, t.UserID)
	return nil
}

// Students

func (repo *schoolRepository) hydrateStudent(st school.Student) school.Student {
	if usr, ok := repo.db.users[st.UserID]; ok {
		u := *usr
		st.User = &u
	}
	if st.GradeID.Valid {
		if g, ok := repo.db.grades[st.GradeID.String]; ok {
			grade := *g
			st.Grade = &grade
		}
	}
	if st.ClassID.Valid {
		if c, ok := repo.db.classes[st.ClassID.String]; ok {
			cls := *c
			st.Class = &cls
		}
	}
	if st.ParentID.Valid {
		if p, ok := repo.db.parents[st.ParentID.String]; ok {
			parent := *p
			if usr, ok := repo.db.users[parent.UserID]; ok {
				u := *usr
				parent.User = &u
			}
			st.Parent = &parent
		}
	}
	return st
}

func (repo *schoolRepository) CreateStudent(usr user.User, st school.Student) (school.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.users[usr.ID] = &usr
	repo.db.students[st.ID] = &st
	return repo.hydrateStudent(st), nil
}

func (repo *schoolRepository) QueryAllStudents() ([]school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]school.Student, 0, len(repo.db.students))
	for _, st := range repo.db.students {
		students = append(students, repo.hydrateStudent(*st))
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *schoolRepository) GetStudentByID(id string) (school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.students[id]; ok {
		return repo.hydrateStudent(*st), nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) GetStudentByUserID(userID string) (school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, st := range repo.db.students {
		if st.UserID == userID {
			return repo.hydrateStudent(*st), nil
		}
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) UpdateStudent(st school.Student, usr *user.User) (school.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[st.ID]; !ok {
		return school.Student{}, school.ErrStudentNotFound
	}
	if usr != nil {
		u := *usr
		repo.db.users[u.ID] = &u
	}
	row := school.Student{ID: st.ID, UserID: st.UserID, GradeID: st.GradeID, ClassID: st.ClassID, ParentID: st.ParentID}
	repo.db.students[st.ID] = &row
	return repo.hydrateStudent(row), nil
}

func (repo *schoolRepository) DeleteStudent(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	st, ok := repo.db.students[id]
	if !ok {
		return school.ErrStudentNotFound
	}

	for subID, sub := range repo.db.submissions {
		if sub.StudentID == id {
			delete(repo.db.submissions, subID)
		}
	}
	for attID, att := range repo.db.attempts {
		if att.StudentID == id {
			delete(repo.db.attempts, attID)
		}
	}
	delete(repo.db.students, id)
	delete(repo.db.users, st.UserID)
	return nil
}

// Parents

func (repo *schoolRepository) hydrateParent(p school.Parent) school.Parent {
	if usr, ok := repo.db.users[p.UserID]; ok {
		u := *usr
		p.User = &u
	}
	return p
}

func (repo *schoolRepository) CreateParent(usr user.User, p school.Parent) (school.Parent, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.users[usr.ID] = &usr
	repo.db.parents[p.ID] = &p
	return repo.hydrateParent(p), nil
}

func (repo *schoolRepository) QueryAllParents() ([]school.Parent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	parents := make([]school.Parent, 0, len(repo.db.parents))
	for _, p := range repo.db.parents {
		parents = append(parents, repo.hydrateParent(*p))
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].ID < parents[j].ID })
	return parents, nil
}

func (repo *schoolRepository) GetParentByID(id string) (school.Parent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.parents[id]; ok {
		return repo.hydrateParent(*p), nil
	}
	return school.Parent{}, school.ErrParentNotFound
}

func (repo *schoolRepository) DeleteParent(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.parents[id]
	if !ok {
		return school.ErrParentNotFound
	}

	for _, st := range repo.db.students {
		if st.ParentID.Valid && st.ParentID.String == id {
			st.ParentID.Valid = false
			st.ParentID.String = ""
		}
	}
	delete(repo.db.parents, id)
	delete(repo.db.users, p.UserID)
	return nil
}
