package dummydb

import (
	"sync"

	"github.com/trezcool/shule/core/coursework"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

// DB is an in-memory database. A single lock guards all tables so
// multi-table writes stay atomic.
type DB struct {
	sync.RWMutex
	users       map[string]*user.User
	admins      map[string]string // id -> userID
	teachers    map[string]*school.Teacher
	students    map[string]*school.Student
	parents     map[string]*school.Parent
	grades      map[string]*school.Grade
	classes     map[string]*school.Class
	subjects    map[string]*school.Subject
	assignments map[string]*school.TeachingAssignment
	lessons     map[string]*coursework.Lesson
	homework    map[string]*coursework.Homework
	submissions map[string]*coursework.Submission
	exams       map[string]*coursework.Exam
	attempts    map[string]*coursework.ExamAttempt
}

func Open() *DB {
	db := &DB{
		users:       make(map[string]*user.User),
		admins:      make(map[string]string),
		teachers:    make(map[string]*school.Teacher),
		students:    make(map[string]*school.Student),
		parents:     make(map[string]*school.Parent),
		grades:      make(map[string]*school.Grade),
		classes:     make(map[string]*school.Class),
		subjects:    make(map[string]*school.Subject),
		assignments: make(map[string]*school.TeachingAssignment),
		lessons:     make(map[string]*coursework.Lesson),
		homework:    make(map[string]*coursework.Homework),
		submissions: make(map[string]*coursework.Submission),
		exams:       make(map[string]*coursework.Exam),
		attempts:    make(map[string]*coursework.ExamAttempt),
	}
	return db
}
