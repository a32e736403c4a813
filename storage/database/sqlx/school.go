package sqlxrepos

import (
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type (
	classRow struct {
		ID      string `db:"id"`
		Name    string `db:"name"`
		GradeID string `db:"grade_id"`
	}

	assignmentRow struct {
		ID        string `db:"id"`
		TeacherID string `db:"teacher_id"`
		SubjectID string `db:"subject_id"`
		ClassID   string `db:"class_id"`
	}

	assignmentDetailRow struct {
		ID           string `db:"id"`
		SubjectID    string `db:"subject_id"`
		SubjectName  string `db:"subject_name"`
		ClassID      string `db:"class_id"`
		ClassName    string `db:"class_name"`
		ClassGradeID string `db:"class_grade_id"`
	}

	teacherRow struct {
		ID     string `db:"id"`
		UserID string `db:"user_id"`
	}

	studentRow struct {
		ID       string      `db:"id"`
		UserID   string      `db:"user_id"`
		GradeID  null.String `db:"grade_id"`
		ClassID  null.String `db:"class_id"`
		ParentID null.String `db:"parent_id"`
	}

	parentRow struct {
		ID     string `db:"id"`
		UserID string `db:"user_id"`
	}
)

func (r classRow) toClass() school.Class {
	return school.Class{ID: r.ID, Name: r.Name, GradeID: r.GradeID}
}

func (r assignmentRow) toAssignment() school.TeachingAssignment {
	return school.TeachingAssignment{ID: r.ID, TeacherID: r.TeacherID, SubjectID: r.SubjectID, ClassID: r.ClassID}
}

func (r assignmentDetailRow) toDetail() school.AssignmentDetail {
	return school.AssignmentDetail{
		ID:      r.ID,
		Subject: school.Subject{ID: r.SubjectID, Name: r.SubjectName},
		Class:   school.Class{ID: r.ClassID, Name: r.ClassName, GradeID: r.ClassGradeID},
	}
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

// getUser hydrates a profile's account row.
func getUser(ext sqlx.Ext, id string) (user.User, error) {
	var row userRow
	if err := sqlx.Get(ext, &row, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

// Grades

func (repo *schoolRepository) CreateGrade(g school.Grade) (school.Grade, error) {
	if _, err := repo.db.Exec(`INSERT INTO grade (id, name) VALUES ($1, $2)`, g.ID, g.Name); err != nil {
		return school.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (repo *schoolRepository) QueryAllGrades() ([]school.Grade, error) {
	grades := make([]school.Grade, 0)
	if err := repo.db.Select(&grades, `SELECT * FROM grade ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return grades, nil
}

func (repo *schoolRepository) GetGradeByID(id string) (school.Grade, error) {
	var g school.Grade
	if err := repo.db.Get(&g, `SELECT * FROM grade WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return school.Grade{}, school.ErrGradeNotFound
		}
		return school.Grade{}, errors.Wrap(err, "getting grade")
	}
	return g, nil
}

func (repo *schoolRepository) UpdateGrade(g school.Grade) (school.Grade, error) {
	if _, err := repo.db.Exec(`UPDATE grade SET name = $2 WHERE id = $1`, g.ID, g.Name); err != nil {
		return school.Grade{}, errors.Wrap(err, "updating grade")
	}
	return g, nil
}

func (repo *schoolRepository) DeleteGrade(id string) error {
	if _, err := repo.db.Exec(`DELETE FROM grade WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return nil
}

// Classes

func (repo *schoolRepository) CreateClass(c school.Class) (school.Class, error) {
	_, err := repo.db.Exec(`INSERT INTO class (id, name, grade_id) VALUES ($1, $2, $3)`, c.ID, c.Name, c.GradeID)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	return c, nil
}

// classOrderingFields maps exposed ordering fields to columns.
var classOrderingFields = map[string]string{
	"name":    "name",
	"gradeId": "grade_id",
}

func (repo *schoolRepository) FilterClasses(gradeID string, orderings ...core.DBOrdering) ([]school.Class, error) {
	query := `SELECT * FROM class`
	args := make([]interface{}, 0, 1)
	if gradeID != "" {
		query += ` WHERE grade_id = $1`
		args = append(args, gradeID)
	}

	orderBy := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		col, ok := classOrderingFields[ord.Field]
		if !ok {
			continue // unknown fields are ignored
		}
		dir := "ASC"
		if !ord.Ascending {
			dir = "DESC"
		}
		orderBy = append(orderBy, col+" "+dir)
	}
	if len(orderBy) == 0 {
		orderBy = []string{"grade_id", "name"}
	}
	query += ` ORDER BY ` + strings.Join(orderBy, ", ")

	rows := make([]classRow, 0)
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]school.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.toClass())
	}
	return classes, nil
}

func (repo *schoolRepository) GetClassByID(id string) (school.Class, error) {
	var row classRow
	if err := repo.db.Get(&row, `SELECT * FROM class WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return school.Class{}, school.ErrClassNotFound
		}
		return school.Class{}, errors.Wrap(err, "getting class")
	}
	return row.toClass(), nil
}

func (repo *schoolRepository) UpdateClass(c school.Class) (school.Class, error) {
	_, err := repo.db.Exec(`UPDATE class SET name = $2, grade_id = $3 WHERE id = $1`, c.ID, c.Name, c.GradeID)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "updating class")
	}
	return c, nil
}

func (repo *schoolRepository) DeleteClass(id string) error {
	if _, err := repo.db.Exec(`DELETE FROM class WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return nil
}

// Subjects

func (repo *schoolRepository) CreateSubject(s school.Subject) (school.Subject, error) {
	if _, err := repo.db.Exec(`INSERT INTO subject (id, name) VALUES ($1, $2)`, s.ID, s.Name); err != nil {
		return school.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return s, nil
}

func (repo *schoolRepository) QueryAllSubjects() ([]school.Subject, error) {
	subjects := make([]school.Subject, 0)
	if err := repo.db.Select(&subjects, `SELECT * FROM subject ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subjects, nil
}

func (repo *schoolRepository) GetSubjectByID(id string) (school.Subject, error) {
	var s school.Subject
	if err := repo.db.Get(&s, `SELECT * FROM subject WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return school.Subject{}, school.ErrSubjectNotFound
		}
		return school.Subject{}, errors.Wrap(err, "getting subject")
	}
	return s, nil
}

func (repo *schoolRepository) UpdateSubject(s school.Subject) (school.Subject, error) {
	if _, err := repo.db.Exec(`UPDATE subject SET name = $2 WHERE id = $1`, s.ID, s.Name); err != nil {
		return school.Subject{}, errors.Wrap(err, "updating subject")
	}
	return s, nil
}

func (repo *schoolRepository) DeleteSubject(id string) error {
	if _, err := repo.db.Exec(`DELETE FROM subject WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return nil
}

// Teaching assignments

func (repo *schoolRepository) FilterAssignments(filter school.AssignmentFilter) ([]school.TeachingAssignment, error) {
	query := `SELECT * FROM teaching_assignment WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		query += ` AND teacher_id = ?`
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		query += ` AND subject_id = ?`
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		query += ` AND class_id = ?`
	}

	rows := make([]assignmentRow, 0)
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]school.TeachingAssignment, 0, len(rows))
	for _, r := range rows {
		assignments = append(assignments, r.toAssignment())
	}
	return assignments, nil
}

func (repo *schoolRepository) QueryTeacherSubjects(teacherID string) ([]school.Subject, error) {
	subjects := make([]school.Subject, 0)
	err := repo.db.Select(&subjects,
		`SELECT DISTINCT s.* FROM subject s
		 JOIN teaching_assignment ta ON ta.subject_id = s.id
		 WHERE ta.teacher_id = $1
		 ORDER BY s.name`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying teacher subjects")
	}
	return subjects, nil
}

func queryAssignmentDetails(ext sqlx.Ext, teacherID string) ([]school.AssignmentDetail, error) {
	rows := make([]assignmentDetailRow, 0)
	err := sqlx.Select(ext, &rows,
		`SELECT ta.id, s.id AS subject_id, s.name AS subject_name,
		        c.id AS class_id, c.name AS class_name, c.grade_id AS class_grade_id
		 FROM teaching_assignment ta
		 JOIN subject s ON s.id = ta.subject_id
		 JOIN class c ON c.id = ta.class_id
		 WHERE ta.teacher_id = $1
		 ORDER BY s.name, c.name`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignment details")
	}
	details := make([]school.AssignmentDetail, 0, len(rows))
	for _, r := range rows {
		details = append(details, r.toDetail())
	}
	return details, nil
}

func insertAssignment(tx *sqlx.Tx, a school.TeachingAssignment) error {
	_, err := tx.Exec(
		`INSERT INTO teaching_assignment (id, teacher_id, subject_id, class_id) VALUES ($1, $2, $3, $4)`,
		a.ID, a.TeacherID, a.SubjectID, a.ClassID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return school.ErrDuplicateAssignment
		}
		return errors.Wrap(err, "inserting assignment")
	}
	return nil
}

// Teachers

func (repo *schoolRepository) CreateTeacher(usr user.User, t school.Teacher, a school.TeachingAssignment) (school.Teacher, error) {
	err := runInTx(repo.db, func(tx *sqlx.Tx) error {
		if err := insertUser(tx, usr); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO teacher (id, user_id) VALUES ($1, $2)`, t.ID, t.UserID); err != nil {
			return errors.Wrap(err, "inserting teacher")
		}
		return insertAssignment(tx, a)
	})
	if err != nil {
		return school.Teacher{}, err
	}
	return repo.GetTeacherByID(t.ID)
}

func (repo *schoolRepository) hydrateTeacher(row teacherRow) (school.Teacher, error) {
	usr, err := getUser(repo.db, row.UserID)
	if err != nil {
		return school.Teacher{}, err
	}
	details, err := queryAssignmentDetails(repo.db, row.ID)
	if err != nil {
		return school.Teacher{}, err
	}
	return school.Teacher{ID: row.ID, UserID: row.UserID, User: &usr, Assignments: details}, nil
}

func (repo *schoolRepository) QueryAllTeachers() ([]school.Teacher, error) {
	rows := make([]teacherRow, 0)
	if err := repo.db.Select(&rows, `SELECT * FROM teacher`); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]school.Teacher, 0, len(rows))
	for _, row := range rows {
		t, err := repo.hydrateTeacher(row)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, nil
}

func (repo *schoolRepository) getTeacher(query string, arg interface{}) (school.Teacher, error) {
	var row teacherRow
	if err := repo.db.Get(&row, query, arg); err != nil {
		if isNoRows(err) {
			return school.Teacher{}, school.ErrTeacherNotFound
		}
		return school.Teacher{}, errors.Wrap(err, "getting teacher")
	}
	return repo.hydrateTeacher(row)
}

func (repo *schoolRepository) GetTeacherByID(id string) (school.Teacher, error) {
	return repo.getTeacher(`SELECT * FROM teacher WHERE id = $1`, id)
}

func (repo *schoolRepository) GetTeacherByUserID(userID string) (school.Teacher, error) {
	return repo.getTeacher(`SELECT * FROM teacher WHERE user_id = $1`, userID)
}

func (repo *schoolRepository) UpdateTeacher(teacherID string, usr *user.User, assignments *[]school.TeachingAssignment) (school.Teacher, error) {
	err := runInTx(repo.db, func(tx *sqlx.Tx) error {
		if usr != nil {
			_, err := tx.Exec(
				`UPDATE "user" SET name = $2, email = $3, password_hash = $4, updated_at = $5 WHERE id = $1`,
				usr.ID, usr.Name, usr.Email, usr.PasswordHash, usr.UpdatedAt,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return user.ErrEmailExists
				}
				return errors.Wrap(err, "updating user")
			}
		}
		if assignments != nil {
			if _, err := tx.Exec(`DELETE FROM teaching_assignment WHERE teacher_id = $1`, teacherID); err != nil {
				return errors.Wrap(err, "deleting assignments")
			}
			for _, a := range *assignments {
				if err := insertAssignment(tx, a); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return school.Teacher{}, err
	}
	return repo.GetTeacherByID(teacherID)
}

func (repo *schoolRepository) DeleteTeacher(id string) error {
	return runInTx(repo.db, func(tx *sqlx.Tx) error {
		var row teacherRow
		if err := tx.Get(&row, `SELECT * FROM teacher WHERE id = $1`, id); err != nil {
			if isNoRows(err) {
				return school.ErrTeacherNotFound
			}
			return errors.Wrap(err, "getting teacher")
		}

		steps := []string{
			`DELETE FROM submission WHERE homework_id IN (SELECT id FROM homework WHERE teacher_id = $1)`,
			`DELETE FROM exam_attempt WHERE exam_id IN (SELECT id FROM exam WHERE teacher_id = $1)`,
			`DELETE FROM homework WHERE teacher_id = $1`,
			`DELETE FROM exam WHERE teacher_id = $1`,
			`DELETE FROM lesson WHERE teacher_id = $1`,
			`DELETE FROM teaching_assignment WHERE teacher_id = $1`,
			`DELETE FROM teacher WHERE id = $1`,
		}
		for _, q := range steps {
			if _, err := tx.Exec(q, id); err != nil {
				return errors.Wrap(err, "deleting teacher")
			}
		}
		if _, err := tx.Exec(`DELETE FROM "user" WHERE id = $1`, row.UserID); err != nil {
			return errors.Wrap(err, "deleting user")
		}
		return nil
	})
}

// Students

func (repo *schoolRepository) CreateStudent(usr user.User, st school.Student) (school.Student, error) {
	err := runInTx(repo.db, func(tx *sqlx.Tx) error {
		if err := insertUser(tx, usr); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO student (id, user_id, grade_id, class_id, parent_id) VALUES ($1, $2, $3, $4, $5)`,
			st.ID, st.UserID, st.GradeID, st.ClassID, st.ParentID,
		)
		return errors.Wrap(err, "inserting student")
	})
	if err != nil {
		return school.Student{}, err
	}
	return repo.GetStudentByID(st.ID)
}

func (repo *schoolRepository) hydrateStudent(row studentRow) (school.Student, error) {
	st := school.Student{
		ID:       row.ID,
		UserID:   row.UserID,
		GradeID:  row.GradeID,
		ClassID:  row.ClassID,
		ParentID: row.ParentID,
	}

	usr, err := getUser(repo.db, row.UserID)
	if err != nil {
		return school.Student{}, err
	}
	st.User = &usr

	if row.GradeID.Valid {
		g, err := repo.GetGradeByID(row.GradeID.String)
		if err != nil {
			return school.Student{}, err
		}
		st.Grade = &g
	}
	if row.ClassID.Valid {
		c, err := repo.GetClassByID(row.ClassID.String)
		if err != nil {
			return school.Student{}, err
		}
		st.Class = &c
	}
	if row.ParentID.Valid {
		p, err := repo.GetParentByID(row.ParentID.String)
		if err != nil {
			return school.Student{}, err
		}
		st.Parent = &p
	}
	return st, nil
}

func (repo *schoolRepository) QueryAllStudents() ([]school.Student, error) {
	rows := make([]studentRow, 0)
	if err := repo.db.Select(&rows, `SELECT * FROM student`); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, row := range rows {
		st, err := repo.hydrateStudent(row)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, nil
}

func (repo *schoolRepository) getStudent(query string, arg interface{}) (school.Student, error) {
	var row studentRow
	if err := repo.db.Get(&row, query, arg); err != nil {
		if isNoRows(err) {
			return school.Student{}, school.ErrStudentNotFound
		}
		return school.Student{}, errors.Wrap(err, "getting student")
	}
	return repo.hydrateStudent(row)
}

func (repo *schoolRepository) GetStudentByID(id string) (school.Student, error) {
	return repo.getStudent(`SELECT * FROM student WHERE id = $1`, id)
}

func (repo *schoolRepository) GetStudentByUserID(userID string) (school.Student, error) {
	return repo.getStudent(`SELECT * FROM student WHERE user_id = $1`, userID)
}

func (repo *schoolRepository) UpdateStudent(st school.Student, usr *user.User) (school.Student, error) {
	err := runInTx(repo.db, func(tx *sqlx.Tx) error {
		if usr != nil {
			_, err := tx.Exec(
				`UPDATE "user" SET name = $2, email = $3, password_hash = $4, updated_at = $5 WHERE id = $1`,
				usr.ID, usr.Name, usr.Email, usr.PasswordHash, usr.UpdatedAt,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return user.ErrEmailExists
				}
				return errors.Wrap(err, "updating user")
			}
		}
		_, err := tx.Exec(
			`UPDATE student SET grade_id = $2, class_id = $3, parent_id = $4 WHERE id = $1`,
			st.ID, st.GradeID, st.ClassID, st.ParentID,
		)
		return errors.Wrap(err, "updating student")
	})
	if err != nil {
		return school.Student{}, err
	}
	return repo.GetStudentByID(st.ID)
}

func (repo *schoolRepository) DeleteStudent(id string) error {
	return runInTx(repo.db, func(tx *sqlx.Tx) error {
		var row studentRow
		if err := tx.Get(&row, `SELECT * FROM student WHERE id = $1`, id); err != nil {
			if isNoRows(err) {
				return school.ErrStudentNotFound
			}
			return errors.Wrap(err, "getting student")
		}

		steps := []string{
			`DELETE FROM submission WHERE student_id = $1`,
			`DELETE FROM exam_attempt WHERE student_id = $1`,
			`DELETE FROM student WHERE id = $1`,
		}
		for _, q := range steps {
			if _, err := tx.Exec(q, id); err != nil {
				return errors.Wrap(err, "deleting student")
			}
		}
		if _, err := tx.Exec(`DELETE FROM "user" WHERE id = $1`, row.UserID); err != nil {
			return errors.Wrap(err, "deleting user")
		}
		return nil
	})
}

// Parents

func (repo *schoolRepository) CreateParent(usr user.User, p school.Parent) (school.Parent, error) {
	err := runInTx(repo.db, func(tx *sqlx.Tx) error {
		if err := insertUser(tx, usr); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO parent (id, user_id) VALUES ($1, $2)`, p.ID, p.UserID)
		return errors.Wrap(err, "inserting parent")
	})
	if err != nil {
		return school.Parent{}, err
	}
	p.User = &usr
	return p, nil
}

func (repo *schoolRepository) QueryAllParents() ([]school.Parent, error) {
	rows := make([]parentRow, 0)
	if err := repo.db.Select(&rows, `SELECT * FROM parent`); err != nil {
		return nil, errors.Wrap(err, "querying parents")
	}
	parents := make([]school.Parent, 0, len(rows))
	for _, row := range rows {
		usr, err := getUser(repo.db, row.UserID)
		if err != nil {
			return nil, err
		}
		parents = append(parents, school.Parent{ID: row.ID, UserID: row.UserID, User: &usr})
	}
	return parents, nil
}

func (repo *schoolRepository) GetParentByID(id string) (school.Parent, error) {
	var row parentRow
	if err := repo.db.Get(&row, `SELECT * FROM parent WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return school.Parent{}, school.ErrParentNotFound
		}
		return school.Parent{}, errors.Wrap(err, "getting parent")
	}
	usr, err := getUser(repo.db, row.UserID)
	if err != nil {
		return school.Parent{}, err
	}
	return school.Parent{ID: row.ID, UserID: row.UserID, User: &usr}, nil
}

func (repo *schoolRepository) DeleteParent(id string) error {
	return runInTx(repo.db, func(tx *sqlx.Tx) error {
		var row parentRow
		if err := tx.Get(&row, `SELECT * FROM parent WHERE id = $1`, id); err != nil {
			if isNoRows(err) {
				return school.ErrParentNotFound
			}
			return errors.Wrap(err, "getting parent")
		}

		// detach children before removing the parent
		if _, err := tx.Exec(`UPDATE student SET parent_id = NULL WHERE parent_id = $1`, id); err != nil {
			return errors.Wrap(err, "detaching students")
		}
		if _, err := tx.Exec(`DELETE FROM parent WHERE id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting parent")
		}
		if _, err := tx.Exec(`DELETE FROM "user" WHERE id = $1`, row.UserID); err != nil {
			return errors.Wrap(err, "deleting user")
		}
		return nil
	})
}
