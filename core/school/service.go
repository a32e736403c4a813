package school

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrGradeNotFound      = core.NewNotFoundError("Grade not found")
	ErrClassNotFound      = core.NewNotFoundError("Class not found")
	ErrClassGradeMismatch = core.NewNotFoundError("Class not found or does not belong to grade")
	ErrSubjectNotFound    = core.NewNotFoundError("Subject not found")
	ErrTeacherNotFound    = core.NewNotFoundError("Teacher not found")
	ErrStudentNotFound    = core.NewNotFoundError("Student not found")
	ErrParentNotFound     = core.NewNotFoundError("Parent not found")

	// ErrSubjectNotOwned hides whether the subject exists at all from teachers
	// who have no assignment covering it.
	ErrSubjectNotOwned = core.NewNotFoundError("Subject not found or not yours")

	// ErrAmbiguousClass: the teacher covers this subject in more than one
	// class; picking one silently would file work into the wrong roster.
	ErrAmbiguousClass = core.NewAmbiguousInputError("classId is required: you teach this subject in more than one class")

	ErrDuplicateAssignment = core.NewConflictError("Duplicate teaching assignment")
)

type (
	// AssignmentFilter applies AND on non-empty fields.
	AssignmentFilter struct {
		TeacherID string
		SubjectID string
		ClassID   string
	}

	Repository interface {
		// grades
		CreateGrade(g Grade) (Grade, error)
		QueryAllGrades() ([]Grade, error)
		GetGradeByID(id string) (Grade, error)
		UpdateGrade(g Grade) (Grade, error)
		DeleteGrade(id string) error

		// classes
		CreateClass(c Class) (Class, error)
		// FilterClasses returns all classes, restricted to a grade when
		// gradeID is non-empty; ordered by (gradeId, name) unless orderings
		// say otherwise.
		FilterClasses(gradeID string, orderings ...core.DBOrdering) ([]Class, error)
		GetClassByID(id string) (Class, error)
		UpdateClass(c Class) (Class, error)
		DeleteClass(id string) error

		// subjects
		CreateSubject(s Subject) (Subject, error)
		QueryAllSubjects() ([]Subject, error)
		GetSubjectByID(id string) (Subject, error)
		UpdateSubject(s Subject) (Subject, error)
		DeleteSubject(id string) error

		// teaching assignments
		FilterAssignments(filter AssignmentFilter) ([]TeachingAssignment, error)
		// QueryTeacherSubjects returns the distinct subjects covered by a
		// teacher's assignments, ordered by name.
		QueryTeacherSubjects(teacherID string) ([]Subject, error)

		// teachers
		// CreateTeacher writes the user, the teacher profile and the initial
		// assignment in a single transaction.
		CreateTeacher(usr user.User, t Teacher, a TeachingAssignment) (Teacher, error)
		QueryAllTeachers() ([]Teacher, error)
		GetTeacherByID(id string) (Teacher, error)
		GetTeacherByUserID(userID string) (Teacher, error)
		// UpdateTeacher updates the user row (when usr is non-nil) and
		// replaces the assignment set (when assignments is non-nil) atomically.
		UpdateTeacher(teacherID string, usr *user.User, assignments *[]TeachingAssignment) (Teacher, error)
		// DeleteTeacher removes assignments, homework and exams before the
		// profile and user rows, in that order.
		DeleteTeacher(id string) error

		// students
		CreateStudent(usr user.User, st Student) (Student, error)
		QueryAllStudents() ([]Student, error)
		GetStudentByID(id string) (Student, error)
		GetStudentByUserID(userID string) (Student, error)
		UpdateStudent(st Student, usr *user.User) (Student, error)
		// DeleteStudent removes submissions and exam attempts before the
		// profile and user rows.
		DeleteStudent(id string) error

		// parents
		CreateParent(usr user.User, p Parent) (Parent, error)
		QueryAllParents() ([]Parent, error)
		GetParentByID(id string) (Parent, error)
		// DeleteParent detaches the parent's students before removing the
		// profile and user rows.
		DeleteParent(id string) error
	}

	Service struct {
		repo   Repository
		usrSvc *user.Service
	}
)

func NewService(repo Repository, usrSvc *user.Service) *Service {
	return &Service{repo: repo, usrSvc: usrSvc}
}

// Grades

func (svc *Service) CreateGrade(in NameInput) (Grade, error) {
	return svc.repo.CreateGrade(Grade{ID: uuid.New().String(), Name: in.Name})
}

func (svc *Service) QueryGrades() ([]Grade, error) {
	return svc.repo.QueryAllGrades()
}

func (svc *Service) GetGrade(id string) (Grade, error) {
	return svc.repo.GetGradeByID(id)
}

func (svc *Service) UpdateGrade(id string, in NameInput) (Grade, error) {
	g, err := svc.repo.GetGradeByID(id)
	if err != nil {
		return Grade{}, err
	}
	g.Name = in.Name
	return svc.repo.UpdateGrade(g)
}

func (svc *Service) DeleteGrade(id string) error {
	if _, err := svc.repo.GetGradeByID(id); err != nil {
		return err
	}
	return svc.repo.DeleteGrade(id)
}

// Classes

func (svc *Service) CreateClass(in NewClass) (Class, error) {
	if _, err := svc.repo.GetGradeByID(in.GradeID); err != nil {
		return Class{}, err
	}
	return svc.repo.CreateClass(Class{ID: uuid.New().String(), Name: in.Name, GradeID: in.GradeID})
}

func (svc *Service) QueryClasses(gradeID string, orderings ...core.DBOrdering) ([]Class, error) {
	return svc.repo.FilterClasses(gradeID, orderings...)
}

func (svc *Service) GetClass(id string) (Class, error) {
	return svc.repo.GetClassByID(id)
}

func (svc *Service) UpdateClass(id string, in UpdateClass) (Class, error) {
	cls, err := svc.repo.GetClassByID(id)
	if err != nil {
		return Class{}, err
	}
	if in.Name == "" && in.GradeID == "" {
		return cls, nil
	}
	if in.Name != "" {
		cls.Name = in.Name
	}
	if in.GradeID != "" {
		if _, err := svc.repo.GetGradeByID(in.GradeID); err != nil {
			return Class{}, err
		}
		cls.GradeID = in.GradeID
	}
	return svc.repo.UpdateClass(cls)
}

func (svc *Service) DeleteClass(id string) error {
	if _, err := svc.repo.GetClassByID(id); err != nil {
		return err
	}
	return svc.repo.DeleteClass(id)
}

// ValidateClassInGrade checks that classID references an existing Class
// belonging to gradeID. A mismatch is reported as not-found, never as a
// created orphan.
func (svc *Service) ValidateClassInGrade(classID, gradeID string) error {
	cls, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return ErrClassGradeMismatch
	}
	if cls.GradeID != gradeID {
		return ErrClassGradeMismatch
	}
	return nil
}

// Subjects

func (svc *Service) CreateSubject(in NameInput) (Subject, error) {
	return svc.repo.CreateSubject(Subject{ID: uuid.New().String(), Name: in.Name})
}

func (svc *Service) QuerySubjects() ([]Subject, error) {
	return svc.repo.QueryAllSubjects()
}

func (svc *Service) GetSubject(id string) (Subject, error) {
	return svc.repo.GetSubjectByID(id)
}

func (svc *Service) UpdateSubject(id string, in NameInput) (Subject, error) {
	s, err := svc.repo.GetSubjectByID(id)
	if err != nil {
		return Subject{}, err
	}
	s.Name = in.Name
	return svc.repo.UpdateSubject(s)
}

func (svc *Service) DeleteSubject(id string) error {
	if _, err := svc.repo.GetSubjectByID(id); err != nil {
		return err
	}
	return svc.repo.DeleteSubject(id)
}

// Teaching assignments

// ResolveAssignment resolves the assignment authorizing teacherID to act on
// subjectID, optionally narrowed to classID. Zero matches fail closed as
// not-found; multiple matches with no classID are rejected as ambiguous
// rather than guessed.
func (svc *Service) ResolveAssignment(teacherID, subjectID, classID string) (TeachingAssignment, error) {
	matches, err := svc.repo.FilterAssignments(AssignmentFilter{
		TeacherID: teacherID,
		SubjectID: subjectID,
		ClassID:   classID,
	})
	if err != nil {
		return TeachingAssignment{}, err
	}
	switch {
	case len(matches) == 0:
		return TeachingAssignment{}, ErrSubjectNotOwned
	case len(matches) > 1 && classID == "":
		return TeachingAssignment{}, ErrAmbiguousClass
	}
	return matches[0], nil
}

// AssignmentCovers reports whether teacherID holds an assignment for the
// exact (subjectID, classID) pair.
func (svc *Service) AssignmentCovers(teacherID, subjectID, classID string) (bool, error) {
	matches, err := svc.repo.FilterAssignments(AssignmentFilter{
		TeacherID: teacherID,
		SubjectID: subjectID,
		ClassID:   classID,
	})
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

func (svc *Service) QueryTeacherSubjects(teacherID string) ([]Subject, error) {
	return svc.repo.QueryTeacherSubjects(teacherID)
}

// Teachers

func (svc *Service) CreateTeacher(in NewTeacher) (Teacher, error) {
	if err := svc.usrSvc.CheckEmailUniqueness(in.Email); err != nil {
		return Teacher{}, err
	}
	if _, err := svc.repo.GetSubjectByID(in.SubjectID); err != nil {
		return Teacher{}, err
	}
	if _, err := svc.repo.GetClassByID(in.ClassID); err != nil {
		return Teacher{}, err
	}

	now := time.Now().UTC()
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      user.NullableName(in.Name),
		Email:     in.Email,
		Role:      user.RoleTeacher,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(in.Password); err != nil {
		return Teacher{}, err
	}

	t := Teacher{ID: uuid.New().String(), UserID: usr.ID}
	a := TeachingAssignment{
		ID:        uuid.New().String(),
		TeacherID: t.ID,
		SubjectID: in.SubjectID,
		ClassID:   in.ClassID,
	}
	return svc.repo.CreateTeacher(usr, t, a)
}

func (svc *Service) QueryTeachers() ([]Teacher, error) {
	return svc.repo.QueryAllTeachers()
}

func (svc *Service) GetTeacher(id string) (Teacher, error) {
	return svc.repo.GetTeacherByID(id)
}

func (svc *Service) GetTeacherByUserID(userID string) (Teacher, error) {
	return svc.repo.GetTeacherByUserID(userID)
}

func (svc *Service) UpdateTeacher(id string, in UpdateTeacher) (Teacher, error) {
	t, err := svc.repo.GetTeacherByID(id)
	if err != nil {
		return Teacher{}, err
	}

	var usr *user.User
	if !in.IsEmpty() {
		if t.User == nil {
			return Teacher{}, ErrTeacherNotFound
		}
		if in.Email != "" {
			if err := svc.usrSvc.CheckEmailUniqueness(in.Email, *t.User); err != nil {
				return Teacher{}, err
			}
		}
		updated, err := in.Apply(*t.User)
		if err != nil {
			return Teacher{}, err
		}
		usr = &updated
	}

	var assignments *[]TeachingAssignment
	if in.Assignments != nil {
		built, err := svc.buildAssignments(id, *in.Assignments)
		if err != nil {
			return Teacher{}, err
		}
		assignments = &built
	}

	return svc.repo.UpdateTeacher(id, usr, assignments)
}

// buildAssignments validates the replace-all assignment set: every subject
// and class must exist and the (subject, class) pairs must be distinct.
func (svc *Service) buildAssignments(teacherID string, inputs []AssignmentInput) ([]TeachingAssignment, error) {
	seen := make(map[[2]string]struct{}, len(inputs))
	built := make([]TeachingAssignment, 0, len(inputs))
	for _, in := range inputs {
		if _, err := svc.repo.GetSubjectByID(in.SubjectID); err != nil {
			return nil, err
		}
		if _, err := svc.repo.GetClassByID(in.ClassID); err != nil {
			return nil, err
		}
		key := [2]string{in.SubjectID, in.ClassID}
		if _, dup := seen[key]; dup {
			return nil, ErrDuplicateAssignment
		}
		seen[key] = struct{}{}
		built = append(built, TeachingAssignment{
			ID:        uuid.New().String(),
			TeacherID: teacherID,
			SubjectID: in.SubjectID,
			ClassID:   in.ClassID,
		})
	}
	return built, nil
}

func (svc *Service) DeleteTeacher(id string) error {
	if _, err := svc.repo.GetTeacherByID(id); err != nil {
		return err
	}
	return svc.repo.DeleteTeacher(id)
}

// Students

func (svc *Service) CreateStudent(in NewStudent) (Student, error) {
	if err := svc.usrSvc.CheckEmailUniqueness(in.Email); err != nil {
		return Student{}, err
	}
	if _, err := svc.repo.GetGradeByID(in.GradeID); err != nil {
		return Student{}, err
	}
	if err := svc.ValidateClassInGrade(in.ClassID, in.GradeID); err != nil {
		return Student{}, err
	}
	if in.ParentID != "" {
		if _, err := svc.repo.GetParentByID(in.ParentID); err != nil {
			return Student{}, err
		}
	}

	now := time.Now().UTC()
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      user.NullableName(in.Name),
		Email:     in.Email,
		Role:      user.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(in.Password); err != nil {
		return Student{}, err
	}

	st := Student{
		ID:       uuid.New().String(),
		UserID:   usr.ID,
		GradeID:  null.StringFrom(in.GradeID),
		ClassID:  null.StringFrom(in.ClassID),
		ParentID: null.NewString(in.ParentID, in.ParentID != ""),
	}
	return svc.repo.CreateStudent(usr, st)
}

func (svc *Service) QueryStudents() ([]Student, error) {
	return svc.repo.QueryAllStudents()
}

func (svc *Service) GetStudent(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *Service) GetStudentByUserID(userID string) (Student, error) {
	return svc.repo.GetStudentByUserID(userID)
}

func (svc *Service) UpdateStudent(id string, in UpdateStudent) (Student, error) {
	st, err := svc.repo.GetStudentByID(id)
	if err != nil {
		return Student{}, err
	}

	if in.GradeID != "" {
		if _, err := svc.repo.GetGradeByID(in.GradeID); err != nil {
			return Student{}, err
		}
	}
	if in.ClassID != "" {
		// the class must belong to the incoming grade, falling back to the stored one
		gradeID := in.GradeID
		if gradeID == "" {
			gradeID = st.GradeID.String
		}
		if err := svc.ValidateClassInGrade(in.ClassID, gradeID); err != nil {
			return Student{}, err
		}
	}
	if in.ParentID != nil && *in.ParentID != "" {
		if _, err := svc.repo.GetParentByID(*in.ParentID); err != nil {
			return Student{}, err
		}
	}

	var usr *user.User
	if !in.IsEmpty() {
		if st.User == nil {
			return Student{}, ErrStudentNotFound
		}
		if in.Email != "" {
			if err := svc.usrSvc.CheckEmailUniqueness(in.Email, *st.User); err != nil {
				return Student{}, err
			}
		}
		updated, err := in.Apply(*st.User)
		if err != nil {
			return Student{}, err
		}
		usr = &updated
	}

	if in.GradeID != "" {
		st.GradeID = null.StringFrom(in.GradeID)
	}
	if in.ClassID != "" {
		st.ClassID = null.StringFrom(in.ClassID)
	}
	if in.ParentID != nil {
		st.ParentID = null.NewString(*in.ParentID, *in.ParentID != "")
	}

	return svc.repo.UpdateStudent(st, usr)
}

func (svc *Service) DeleteStudent(id string) error {
	if _, err := svc.repo.GetStudentByID(id); err != nil {
		return err
	}
	return svc.repo.DeleteStudent(id)
}

// Parents

func (svc *Service) CreateParent(in NewParent) (Parent, error) {
	if err := svc.usrSvc.CheckEmailUniqueness(in.Email); err != nil {
		return Parent{}, err
	}

	now := time.Now().UTC()
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      user.NullableName(in.Name),
		Email:     in.Email,
		Role:      user.RoleParent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(in.Password); err != nil {
		return Parent{}, err
	}

	p := Parent{ID: uuid.New().String(), UserID: usr.ID}
	return svc.repo.CreateParent(usr, p)
}

func (svc *Service) QueryParents() ([]Parent, error) {
	return svc.repo.QueryAllParents()
}

func (svc *Service) GetParent(id string) (Parent, error) {
	return svc.repo.GetParentByID(id)
}

func (svc *Service) UpdateParent(id string, in UpdateParent) (Parent, error) {
	p, err := svc.repo.GetParentByID(id)
	if err != nil {
		return Parent{}, err
	}
	if in.IsEmpty() {
		return p, nil
	}
	if p.User == nil {
		return Parent{}, ErrParentNotFound
	}
	if in.Email != "" {
		if err := svc.usrSvc.CheckEmailUniqueness(in.Email, *p.User); err != nil {
			return Parent{}, err
		}
	}
	updated, err := in.Apply(*p.User)
	if err != nil {
		return Parent{}, err
	}
	if _, err := svc.usrSvc.Update(updated); err != nil {
		return Parent{}, err
	}
	return svc.repo.GetParentByID(id)
}

func (svc *Service) DeleteParent(id string) error {
	if _, err := svc.repo.GetParentByID(id); err != nil {
		return err
	}
	return svc.repo.DeleteParent(id)
}
