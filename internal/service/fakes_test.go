package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/repository"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

var errUnique = &pgconn.PgError{Code: apperrors.UniqueViolation}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func strPtr(s string) *string { return &s }

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func recordAll(d events.Dispatcher, types ...events.EventType) *recordedEvents {
	rec := &recordedEvents{}
	for _, et := range types {
		d.Subscribe(et, func(_ context.Context, e events.Event) error {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.events = append(rec.events, e)
			return nil
		})
	}
	return rec
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fakeAccounts struct {
	mu       sync.Mutex
	byEmail  map[string]*domain.Account
	profiles *fakeProfiles
}

func newFakeAccounts(profiles *fakeProfiles) *fakeAccounts {
	return &fakeAccounts{byEmail: map[string]*domain.Account{}, profiles: profiles}
}

func (f *fakeAccounts) CreateWithProfile(_ context.Context, account *domain.Account, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[account.Email]; ok {
		return errUnique
	}
	account.ID = uuid.NewString()
	account.CreatedAt = time.Now()
	stored := *account
	f.byEmail[account.Email] = &stored
	if f.profiles != nil {
		f.profiles.put(&domain.Profile{ID: account.ID, Role: role, Email: account.Email})
	}
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byEmail {
		if a.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAccounts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, a := range f.byEmail {
		if a.ID == id {
			delete(f.byEmail, email)
			if f.profiles != nil {
				f.profiles.remove(id)
			}
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeProfiles struct {
	mu    sync.Mutex
	byID  map[string]*domain.Profile
	reads int
}

func newFakeProfiles(profiles ...*domain.Profile) *fakeProfiles {
	f := &fakeProfiles{byID: map[string]*domain.Profile{}}
	for _, p := range profiles {
		f.put(p)
	}
	return f
}

func (f *fakeProfiles) put(p *domain.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *p
	f.byID[p.ID] = &copied
}

func (f *fakeProfiles) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
}

func (f *fakeProfiles) List(_ context.Context, search string, limit int) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Profile
	needle := strings.ToLower(search)
	for _, p := range f.byID {
		name := ""
		if p.FullName != nil {
			name = strings.ToLower(*p.FullName)
		}
		if needle == "" || strings.Contains(name, needle) || strings.Contains(strings.ToLower(p.Email), needle) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeProfiles) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	p.Role = role
	copied := *p
	return &copied, nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	p, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeProfiles) SaveSetup(_ context.Context, id string, role domain.Role, fullName string, classLevel *string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		p = &domain.Profile{ID: id, Role: role, Email: id + "@example.com"}
		f.byID[id] = p
	}
	p.FullName = &fullName
	if classLevel != nil {
		p.ClassLevel = classLevel
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProfiles) UpdateStreak(_ context.Context, id string, streak int, activeOn time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.CurrentStreak = streak
	p.LastActiveDate = &activeOn
	return nil
}

type fakeQuestions struct {
	topics map[string][]domain.Question
	exams  map[string]*domain.Exam
	byExam map[string][]domain.Question
}

func (f *fakeQuestions) ListByTopic(_ context.Context, topicID string) ([]domain.Question, error) {
	return append([]domain.Question(nil), f.topics[topicID]...), nil
}

func (f *fakeQuestions) ListByExam(_ context.Context, examID string) ([]domain.Question, error) {
	return append([]domain.Question(nil), f.byExam[examID]...), nil
}

func (f *fakeQuestions) GetExam(_ context.Context, examID string) (*domain.Exam, error) {
	exam, ok := f.exams[examID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return exam, nil
}

type fakeResults struct {
	mu          sync.Mutex
	quizzes     []domain.QuizResult
	exams       []domain.ExamResult
	points      []repository.StudentPoints
	pointsCalls int
	examErrs    []error
}

func (f *fakeResults) CreateQuizResult(_ context.Context, result *domain.QuizResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	result.ID = uuid.NewString()
	f.quizzes = append(f.quizzes, *result)
	return nil
}

func (f *fakeResults) CreateExamResult(_ context.Context, result *domain.ExamResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.examErrs) > 0 {
		err := f.examErrs[0]
		f.examErrs = f.examErrs[1:]
		return err
	}
	result.ID = uuid.NewString()
	f.exams = append(f.exams, *result)
	return nil
}

func (f *fakeResults) PointsByStudent(context.Context) ([]repository.StudentPoints, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pointsCalls++
	return append([]repository.StudentPoints(nil), f.points...), nil
}

type fakeClassrooms struct {
	mu      sync.Mutex
	byCode  map[string]*domain.Classroom
	members map[[2]string]bool
}

func newFakeClassrooms() *fakeClassrooms {
	return &fakeClassrooms{byCode: map[string]*domain.Classroom{}, members: map[[2]string]bool{}}
}

func (f *fakeClassrooms) Create(_ context.Context, c *domain.Classroom) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byCode[c.Code]; ok {
		return errUnique
	}
	c.ID = uuid.NewString()
	stored := *c
	f.byCode[c.Code] = &stored
	return nil
}

func (f *fakeClassrooms) GetByCode(_ context.Context, code string) (*domain.Classroom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byCode[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (f *fakeClassrooms) ListByTeacher(_ context.Context, teacherID string) ([]domain.Classroom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Classroom
	for _, c := range f.byCode {
		if c.TeacherID == teacherID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeClassrooms) AddStudent(_ context.Context, classroomID, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]string{classroomID, studentID}
	if f.members[key] {
		return errUnique
	}
	f.members[key] = true
	return nil
}

type fakeParents struct {
	mu    sync.Mutex
	links map[string][]string
}

func newFakeParents() *fakeParents {
	return &fakeParents{links: map[string][]string{}}
}

func (f *fakeParents) Link(_ context.Context, parentID, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.links[parentID] {
		if s == studentID {
			return errUnique
		}
	}
	f.links[parentID] = append(f.links[parentID], studentID)
	return nil
}

func (f *fakeParents) ListChildren(_ context.Context, parentID string) ([]domain.ChildSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ChildSummary
	for _, s := range f.links[parentID] {
		out = append(out, domain.ChildSummary{StudentID: s, FullName: "Anonymous"})
	}
	return out, nil
}

func (f *fakeParents) ParentsOf(_ context.Context, studentID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for parent, students := range f.links {
		for _, s := range students {
			if s == studentID {
				out = append(out, parent)
			}
		}
	}
	return out, nil
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string]*repository.StoredObject
}

func (f *fakeObjects) Put(_ context.Context, obj *repository.StoredObject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string]*repository.StoredObject{}
	}
	obj.CreatedAt = time.Now()
	stored := *obj
	f.objects[obj.Bucket+"/"+obj.Key] = &stored
	return nil
}

func (f *fakeObjects) Get(_ context.Context, bucket, key string) (*repository.StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return obj, nil
}
