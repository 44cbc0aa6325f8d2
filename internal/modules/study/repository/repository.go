package repository

import (
	"context"
	"errors"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubjectAggregate struct {
	SubjectID    uuid.UUID
	SubjectName  string
	SessionCount int64
	TotalSeconds float64
}

type StudyRepository interface {
	CreateSession(ctx context.Context, session *entity.StudySession) error
	FindSessionByID(ctx context.Context, id uuid.UUID) (*entity.StudySession, error)
	UpdateSession(ctx context.Context, session *entity.StudySession) error
	ListSessions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.StudySession, error)
	ActiveSessions(ctx context.Context, userID uuid.UUID) ([]entity.StudySession, error)
	SubjectTotals(ctx context.Context, userID uuid.UUID) ([]SubjectAggregate, error)

	FindOrCreateSubject(ctx context.Context, name, slug string) (*entity.Subject, error)

	GetPomodoro(ctx context.Context, userID uuid.UUID) (*entity.PomodoroSettings, error)
	SavePomodoro(ctx context.Context, settings *entity.PomodoroSettings) error

	CreateAlarm(ctx context.Context, alarm *entity.Alarm) error
	FindAlarmByID(ctx context.Context, id uuid.UUID) (*entity.Alarm, error)
	UpdateAlarm(ctx context.Context, alarm *entity.Alarm) error
	DeleteAlarm(ctx context.Context, id uuid.UUID) error
	ListAlarms(ctx context.Context, userID uuid.UUID) ([]entity.Alarm, error)

	CreatePostIt(ctx context.Context, postIt *entity.PostIt) error
	FindPostItByID(ctx context.Context, id uuid.UUID) (*entity.PostIt, error)
	UpdatePostIt(ctx context.Context, postIt *entity.PostIt) error
	DeletePostIt(ctx context.Context, id uuid.UUID) error
	ListPostIts(ctx context.Context, userID uuid.UUID) ([]entity.PostIt, error)
}

type studyRepository struct {
	db *gorm.DB
}

func NewStudyRepository(db *gorm.DB) StudyRepository {
	return &studyRepository{db: db}
}

func (r *studyRepository) CreateSession(ctx context.Context, session *entity.StudySession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *studyRepository) FindSessionByID(ctx context.Context, id uuid.UUID) (*entity.StudySession, error) {
	var session entity.StudySession
	err := r.db.WithContext(ctx).
		Preload("Subject").
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *studyRepository) UpdateSession(ctx context.Context, session *entity.StudySession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *studyRepository) ListSessions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.StudySession, error) {
	var sessions []entity.StudySession
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Subject").
		Order("start_time DESC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&sessions).Error
	return sessions, err
}

func (r *studyRepository) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]entity.StudySession, error) {
	var sessions []entity.StudySession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND end_time IS NULL", userID).
		Preload("Subject").
		Order("start_time DESC").
		Find(&sessions).Error
	return sessions, err
}

// SubjectTotals aggregates finished sessions only; running sessions have no
// duration yet.
func (r *studyRepository) SubjectTotals(ctx context.Context, userID uuid.UUID) ([]SubjectAggregate, error) {
	var totals []SubjectAggregate
	err := r.db.WithContext(ctx).
		Model(&entity.StudySession{}).
		Select(`study_sessions.subject_id AS subject_id,
			subjects.name AS subject_name,
			COUNT(*) AS session_count,
			COALESCE(SUM(study_sessions.duration), 0) / 1e9 AS total_seconds`).
		Joins("JOIN subjects ON subjects.id = study_sessions.subject_id").
		Where("study_sessions.user_id = ? AND study_sessions.end_time IS NOT NULL", userID).
		Group("study_sessions.subject_id, subjects.name").
		Order("total_seconds DESC").
		Scan(&totals).Error
	return totals, err
}

func (r *studyRepository) FindOrCreateSubject(ctx context.Context, name, slug string) (*entity.Subject, error) {
	var subject entity.Subject
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&subject).Error
	if err == nil {
		return &subject, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	subject = entity.Subject{Name: name, Slug: slug}
	if err := r.db.WithContext(ctx).Create(&subject).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *studyRepository) GetPomodoro(ctx context.Context, userID uuid.UUID) (*entity.PomodoroSettings, error) {
	var settings entity.PomodoroSettings
	err := r.db.WithContext(ctx).First(&settings, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *studyRepository) SavePomodoro(ctx context.Context, settings *entity.PomodoroSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}

func (r *studyRepository) CreateAlarm(ctx context.Context, alarm *entity.Alarm) error {
	return r.db.WithContext(ctx).Create(alarm).Error
}

func (r *studyRepository) FindAlarmByID(ctx context.Context, id uuid.UUID) (*entity.Alarm, error) {
	var alarm entity.Alarm
	err := r.db.WithContext(ctx).First(&alarm, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &alarm, nil
}

func (r *studyRepository) UpdateAlarm(ctx context.Context, alarm *entity.Alarm) error {
	return r.db.WithContext(ctx).Save(alarm).Error
}

func (r *studyRepository) DeleteAlarm(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Alarm{}, "id = ?", id).Error
}

func (r *studyRepository) ListAlarms(ctx context.Context, userID uuid.UUID) ([]entity.Alarm, error) {
	var alarms []entity.Alarm
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&alarms).Error
	return alarms, err
}

func (r *studyRepository) CreatePostIt(ctx context.Context, postIt *entity.PostIt) error {
	return r.db.WithContext(ctx).Create(postIt).Error
}

func (r *studyRepository) FindPostItByID(ctx context.Context, id uuid.UUID) (*entity.PostIt, error) {
	var postIt entity.PostIt
	err := r.db.WithContext(ctx).First(&postIt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &postIt, nil
}

func (r *studyRepository) UpdatePostIt(ctx context.Context, postIt *entity.PostIt) error {
	return r.db.WithContext(ctx).Save(postIt).Error
}

func (r *studyRepository) DeletePostIt(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.PostIt{}, "id = ?", id).Error
}

// ListPostIts keeps the most recently touched note first, mirroring how
// notes stack on the desktop.
func (r *studyRepository) ListPostIts(ctx context.Context, userID uuid.UUID) ([]entity.PostIt, error) {
	var postIts []entity.PostIt
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&postIts).Error
	return postIts, err
}
