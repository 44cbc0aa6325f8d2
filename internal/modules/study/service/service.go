package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/study/dto"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/study/repository"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var alarmTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidatePomodoro checks all four timer values against their bounds.
func ValidatePomodoro(work, brk, longBrk, sessions int) error {
	if work < entity.PomodoroWorkMin || work > entity.PomodoroWorkMax {
		return fmt.Errorf("work duration must be between %d and %d minutes: %w",
			entity.PomodoroWorkMin, entity.PomodoroWorkMax, apperror.ErrInvalidInput)
	}
	if brk < entity.PomodoroBreakMin || brk > entity.PomodoroBreakMax {
		return fmt.Errorf("break duration must be between %d and %d minutes: %w",
			entity.PomodoroBreakMin, entity.PomodoroBreakMax, apperror.ErrInvalidInput)
	}
	if longBrk < entity.PomodoroLongBreakMin || longBrk > entity.PomodoroLongBreakMax {
		return fmt.Errorf("long break duration must be between %d and %d minutes: %w",
			entity.PomodoroLongBreakMin, entity.PomodoroLongBreakMax, apperror.ErrInvalidInput)
	}
	if sessions < entity.PomodoroSessionsMin || sessions > entity.PomodoroSessionsMax {
		return fmt.Errorf("sessions until long break must be between %d and %d: %w",
			entity.PomodoroSessionsMin, entity.PomodoroSessionsMax, apperror.ErrInvalidInput)
	}
	return nil
}

// ValidAlarmTime reports whether s is a 24h "HH:MM" clock time.
func ValidAlarmTime(s string) bool {
	return alarmTimePattern.MatchString(s)
}

type StudyService interface {
	StartSession(ctx context.Context, userID uuid.UUID, input dto.StartSessionInput) (*dto.SessionResponse, error)
	EndSession(ctx context.Context, userID, sessionID uuid.UUID, input dto.EndSessionInput) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.SessionResponse, error)
	ActiveSessions(ctx context.Context, userID uuid.UUID) ([]dto.SessionResponse, error)
	Stats(ctx context.Context, userID uuid.UUID) (*dto.StudyStatsResponse, error)

	GetPomodoro(ctx context.Context, userID uuid.UUID) (*entity.PomodoroSettings, error)
	UpdatePomodoro(ctx context.Context, userID uuid.UUID, input dto.UpdatePomodoroInput) (*entity.PomodoroSettings, error)

	CreateAlarm(ctx context.Context, userID uuid.UUID, input dto.CreateAlarmInput) (*entity.Alarm, error)
	UpdateAlarm(ctx context.Context, userID, alarmID uuid.UUID, input dto.UpdateAlarmInput) (*entity.Alarm, error)
	DeleteAlarm(ctx context.Context, userID, alarmID uuid.UUID) error
	ListAlarms(ctx context.Context, userID uuid.UUID) ([]entity.Alarm, error)

	CreatePostIt(ctx context.Context, userID uuid.UUID, input dto.CreatePostItInput) (*entity.PostIt, error)
	UpdatePostIt(ctx context.Context, userID, postItID uuid.UUID, input dto.UpdatePostItInput) (*entity.PostIt, error)
	DeletePostIt(ctx context.Context, userID, postItID uuid.UUID) error
	ListPostIts(ctx context.Context, userID uuid.UUID) ([]entity.PostIt, error)
}

type studyService struct {
	repo repository.StudyRepository
}

func NewStudyService(repo repository.StudyRepository) StudyService {
	return &studyService{repo: repo}
}

// StartSession opens a new session. Several sessions may run at once; ending
// one never touches the others.
func (s *studyService) StartSession(ctx context.Context, userID uuid.UUID, input dto.StartSessionInput) (*dto.SessionResponse, error) {
	name := strings.TrimSpace(input.Subject)
	if name == "" {
		return nil, fmt.Errorf("subject cannot be empty: %w", apperror.ErrInvalidInput)
	}

	slug := strings.ReplaceAll(strings.ToLower(name), " ", "-")
	subject, err := s.repo.FindOrCreateSubject(ctx, name, slug)
	if err != nil {
		return nil, err
	}

	session := &entity.StudySession{
		UserID:    userID,
		SubjectID: subject.ID,
		StartTime: time.Now(),
		Notes:     input.Notes,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	session.Subject = subject

	return sessionResponse(session), nil
}

// EndSession closes a running session, persisting end time and the derived
// duration together. Ending an already finished session changes nothing.
func (s *studyService) EndSession(ctx context.Context, userID, sessionID uuid.UUID, input dto.EndSessionInput) (*dto.SessionResponse, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if session.UserID != userID {
		return nil, fmt.Errorf("session belongs to another user: %w", apperror.ErrForbidden)
	}

	if !session.IsActive() {
		return sessionResponse(session), nil
	}

	now := time.Now()
	duration := now.Sub(session.StartTime)
	session.EndTime = &now
	session.Duration = &duration
	if input.Notes != nil {
		session.Notes = *input.Notes
	}

	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	return sessionResponse(session), nil
}

func (s *studyService) ListSessions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.ListSessions(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return sessionResponses(sessions), nil
}

func (s *studyService) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.ActiveSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sessionResponses(sessions), nil
}

func (s *studyService) Stats(ctx context.Context, userID uuid.UUID) (*dto.StudyStatsResponse, error) {
	totals, err := s.repo.SubjectTotals(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &dto.StudyStatsResponse{
		BySubject: make([]dto.SubjectTotal, 0, len(totals)),
	}
	for _, t := range totals {
		stats.SessionCount += t.SessionCount
		stats.TotalSeconds += t.TotalSeconds
		stats.BySubject = append(stats.BySubject, dto.SubjectTotal{
			SubjectID:    t.SubjectID,
			SubjectName:  t.SubjectName,
			SessionCount: t.SessionCount,
			TotalSeconds: t.TotalSeconds,
		})
	}
	return stats, nil
}

// GetPomodoro falls back to defaults for accounts created before settings
// were provisioned at registration.
func (s *studyService) GetPomodoro(ctx context.Context, userID uuid.UUID) (*entity.PomodoroSettings, error) {
	settings, err := s.repo.GetPomodoro(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := entity.DefaultPomodoroSettings(userID)
			if err := s.repo.SavePomodoro(ctx, &defaults); err != nil {
				return nil, err
			}
			return &defaults, nil
		}
		return nil, err
	}
	return settings, nil
}

func (s *studyService) UpdatePomodoro(ctx context.Context, userID uuid.UUID, input dto.UpdatePomodoroInput) (*entity.PomodoroSettings, error) {
	settings, err := s.GetPomodoro(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.WorkDuration != nil {
		settings.WorkDuration = *input.WorkDuration
	}
	if input.BreakDuration != nil {
		settings.BreakDuration = *input.BreakDuration
	}
	if input.LongBreakDuration != nil {
		settings.LongBreakDuration = *input.LongBreakDuration
	}
	if input.SessionsUntilLongBreak != nil {
		settings.SessionsUntilLongBreak = *input.SessionsUntilLongBreak
	}

	if err := ValidatePomodoro(settings.WorkDuration, settings.BreakDuration,
		settings.LongBreakDuration, settings.SessionsUntilLongBreak); err != nil {
		return nil, err
	}

	if err := s.repo.SavePomodoro(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *studyService) CreateAlarm(ctx context.Context, userID uuid.UUID, input dto.CreateAlarmInput) (*entity.Alarm, error) {
	if !ValidAlarmTime(input.Time) {
		return nil, fmt.Errorf("time must be HH:MM in 24h format: %w", apperror.ErrInvalidInput)
	}

	days, err := marshalDays(input.Days)
	if err != nil {
		return nil, err
	}

	alarm := &entity.Alarm{
		UserID:   userID,
		Name:     strings.TrimSpace(input.Name),
		Time:     input.Time,
		Days:     days,
		IsActive: true,
	}
	if input.IsActive != nil {
		alarm.IsActive = *input.IsActive
	}

	if err := s.repo.CreateAlarm(ctx, alarm); err != nil {
		return nil, err
	}
	return alarm, nil
}

func (s *studyService) UpdateAlarm(ctx context.Context, userID, alarmID uuid.UUID, input dto.UpdateAlarmInput) (*entity.Alarm, error) {
	alarm, err := s.findOwnedAlarm(ctx, userID, alarmID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		alarm.Name = strings.TrimSpace(*input.Name)
	}
	if input.Time != nil {
		if !ValidAlarmTime(*input.Time) {
			return nil, fmt.Errorf("time must be HH:MM in 24h format: %w", apperror.ErrInvalidInput)
		}
		alarm.Time = *input.Time
	}
	if input.Days != nil {
		days, err := marshalDays(*input.Days)
		if err != nil {
			return nil, err
		}
		alarm.Days = days
	}
	if input.IsActive != nil {
		alarm.IsActive = *input.IsActive
	}

	if err := s.repo.UpdateAlarm(ctx, alarm); err != nil {
		return nil, err
	}
	return alarm, nil
}

func (s *studyService) DeleteAlarm(ctx context.Context, userID, alarmID uuid.UUID) error {
	if _, err := s.findOwnedAlarm(ctx, userID, alarmID); err != nil {
		return err
	}
	return s.repo.DeleteAlarm(ctx, alarmID)
}

func (s *studyService) ListAlarms(ctx context.Context, userID uuid.UUID) ([]entity.Alarm, error) {
	return s.repo.ListAlarms(ctx, userID)
}

func (s *studyService) CreatePostIt(ctx context.Context, userID uuid.UUID, input dto.CreatePostItInput) (*entity.PostIt, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("content cannot be empty: %w", apperror.ErrInvalidInput)
	}

	postIt := &entity.PostIt{
		UserID:    userID,
		Content:   content,
		Color:     entity.PostItDefaultColor,
		PositionX: input.PositionX,
		PositionY: input.PositionY,
	}
	if input.Color != "" {
		postIt.Color = input.Color
	}

	if err := s.repo.CreatePostIt(ctx, postIt); err != nil {
		return nil, err
	}
	return postIt, nil
}

func (s *studyService) UpdatePostIt(ctx context.Context, userID, postItID uuid.UUID, input dto.UpdatePostItInput) (*entity.PostIt, error) {
	postIt, err := s.findOwnedPostIt(ctx, userID, postItID)
	if err != nil {
		return nil, err
	}

	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		if content == "" {
			return nil, fmt.Errorf("content cannot be empty: %w", apperror.ErrInvalidInput)
		}
		postIt.Content = content
	}
	if input.Color != nil {
		postIt.Color = *input.Color
	}
	if input.PositionX != nil {
		postIt.PositionX = *input.PositionX
	}
	if input.PositionY != nil {
		postIt.PositionY = *input.PositionY
	}

	if err := s.repo.UpdatePostIt(ctx, postIt); err != nil {
		return nil, err
	}
	return postIt, nil
}

func (s *studyService) DeletePostIt(ctx context.Context, userID, postItID uuid.UUID) error {
	if _, err := s.findOwnedPostIt(ctx, userID, postItID); err != nil {
		return err
	}
	return s.repo.DeletePostIt(ctx, postItID)
}

func (s *studyService) ListPostIts(ctx context.Context, userID uuid.UUID) ([]entity.PostIt, error) {
	return s.repo.ListPostIts(ctx, userID)
}

func (s *studyService) findOwnedPostIt(ctx context.Context, userID, postItID uuid.UUID) (*entity.PostIt, error) {
	postIt, err := s.repo.FindPostItByID(ctx, postItID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if postIt.UserID != userID {
		return nil, fmt.Errorf("note belongs to another user: %w", apperror.ErrForbidden)
	}
	return postIt, nil
}

func (s *studyService) findOwnedAlarm(ctx context.Context, userID, alarmID uuid.UUID) (*entity.Alarm, error) {
	alarm, err := s.repo.FindAlarmByID(ctx, alarmID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if alarm.UserID != userID {
		return nil, fmt.Errorf("alarm belongs to another user: %w", apperror.ErrForbidden)
	}
	return alarm, nil
}

func marshalDays(days []int) (datatypes.JSON, error) {
	seen := make(map[int]bool, len(days))
	unique := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("days must be weekday numbers 0-6: %w", apperror.ErrInvalidInput)
		}
		if !seen[d] {
			seen[d] = true
			unique = append(unique, d)
		}
	}
	raw, err := json.Marshal(unique)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func sessionResponse(session *entity.StudySession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:        session.ID,
		SubjectID: session.SubjectID,
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		Notes:     session.Notes,
		IsActive:  session.IsActive(),
	}
	if session.Subject != nil {
		resp.SubjectName = session.Subject.Name
	}
	if session.Duration != nil {
		seconds := session.Duration.Seconds()
		resp.DurationSeconds = &seconds
	}
	return resp
}

func sessionResponses(sessions []entity.StudySession) []dto.SessionResponse {
	out := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, *sessionResponse(&sessions[i]))
	}
	return out
}
