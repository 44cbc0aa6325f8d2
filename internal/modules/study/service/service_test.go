package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/study/dto"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/study/repository"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/testutil"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/apperror"
	"gorm.io/gorm"
)

func newService(tx *gorm.DB) StudyService {
	return NewStudyService(repository.NewStudyRepository(tx))
}

func TestValidatePomodoro(t *testing.T) {
	cases := []struct {
		name                    string
		work, brk, long, blocks int
		wantErr                 bool
	}{
		{"defaults", 25, 5, 15, 4, false},
		{"minimums", 1, 1, 1, 1, false},
		{"maximums", 120, 30, 60, 10, false},
		{"work too low", 0, 5, 15, 4, true},
		{"work too high", 121, 5, 15, 4, true},
		{"break too high", 25, 31, 15, 4, true},
		{"long break too high", 25, 5, 61, 4, true},
		{"sessions too high", 25, 5, 15, 11, true},
		{"sessions too low", 25, 5, 15, 0, true},
	}
	for _, c := range cases {
		err := ValidatePomodoro(c.work, c.brk, c.long, c.blocks)
		if c.wantErr && !errors.Is(err, apperror.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", c.name, err)
		}
		if !c.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", c.name, err)
		}
	}
}

func TestValidAlarmTime(t *testing.T) {
	valid := []string{"00:00", "07:30", "19:05", "23:59"}
	for _, s := range valid {
		if !ValidAlarmTime(s) {
			t.Fatalf("%q should be valid", s)
		}
	}
	invalid := []string{"24:00", "12:60", "7:30", "07:5", "0730", "", "noon"}
	for _, s := range invalid {
		if ValidAlarmTime(s) {
			t.Fatalf("%q should be invalid", s)
		}
	}
}

func TestStartAndEndSession(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	svc := newService(tx)

	started, err := svc.StartSession(ctx, alice.ID, dto.StartSessionInput{Subject: "Linear Algebra"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !started.IsActive {
		t.Fatalf("new session should be active")
	}
	if started.DurationSeconds != nil {
		t.Fatalf("active session has no duration yet")
	}

	ended, err := svc.EndSession(ctx, alice.ID, started.ID, dto.EndSessionInput{})
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.IsActive {
		t.Fatalf("ended session still active")
	}
	if ended.DurationSeconds == nil {
		t.Fatalf("ended session missing duration")
	}
	if ended.EndTime == nil {
		t.Fatalf("ended session missing end time")
	}
	got := *ended.DurationSeconds
	want := ended.EndTime.Sub(started.StartTime).Seconds()
	if diff := got - want; diff < -0.001 || diff > 0.001 {
		t.Fatalf("duration %v does not match end-start %v", got, want)
	}
}

func TestEndSessionIdempotent(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	svc := newService(tx)

	started, err := svc.StartSession(ctx, alice.ID, dto.StartSessionInput{Subject: "math"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	first, err := svc.EndSession(ctx, alice.ID, started.ID, dto.EndSessionInput{})
	if err != nil {
		t.Fatalf("end: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	second, err := svc.EndSession(ctx, alice.ID, started.ID, dto.EndSessionInput{})
	if err != nil {
		t.Fatalf("second end: %v", err)
	}
	if !first.EndTime.Equal(*second.EndTime) {
		t.Fatalf("second end changed the end time: %v vs %v", first.EndTime, second.EndTime)
	}
}

func TestEndSessionOwnerOnly(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	mallory := testutil.SeedUser(t, ctx, tx, "mallory")
	svc := newService(tx)

	started, err := svc.StartSession(ctx, alice.ID, dto.StartSessionInput{Subject: "math"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = svc.EndSession(ctx, mallory.ID, started.ID, dto.EndSessionInput{})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestMultipleActiveSessions(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	svc := newService(tx)

	if _, err := svc.StartSession(ctx, alice.ID, dto.StartSessionInput{Subject: "math"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.StartSession(ctx, alice.ID, dto.StartSessionInput{Subject: "physics"}); err != nil {
		t.Fatalf("second start: %v", err)
	}

	active, err := svc.ActiveSessions(ctx, alice.ID)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active sessions, got %d", len(active))
	}
}

func TestStatsAggregatesFinishedSessions(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	math := testutil.SeedSubject(t, ctx, tx, "Math", "math")
	svc := newService(tx)

	start := time.Now().Add(-2 * time.Hour)
	finished := testutil.SeedStudySession(t, ctx, tx, alice.ID, math.ID, start)
	end := start.Add(30 * time.Minute)
	duration := end.Sub(start)
	finished.EndTime = &end
	finished.Duration = &duration
	if err := tx.WithContext(ctx).Save(finished).Error; err != nil {
		t.Fatalf("finish session: %v", err)
	}

	// An unfinished session must not count toward totals.
	testutil.SeedStudySession(t, ctx, tx, alice.ID, math.ID, time.Now())

	stats, err := svc.Stats(ctx, alice.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.SessionCount != 1 {
		t.Fatalf("session count = %d, want 1", stats.SessionCount)
	}
	if got := stats.TotalSeconds; got < 1799 || got > 1801 {
		t.Fatalf("total seconds = %v, want ~1800", got)
	}
	if len(stats.BySubject) != 1 || stats.BySubject[0].SubjectName != "Math" {
		t.Fatalf("unexpected subject breakdown: %+v", stats.BySubject)
	}
}

func TestGetPomodoroCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	svc := newService(tx)

	settings, err := svc.GetPomodoro(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings.WorkDuration != entity.PomodoroDefaultWork {
		t.Fatalf("work = %d, want %d", settings.WorkDuration, entity.PomodoroDefaultWork)
	}
	if settings.BreakDuration != entity.PomodoroDefaultBreak {
		t.Fatalf("break = %d, want %d", settings.BreakDuration, entity.PomodoroDefaultBreak)
	}
}

func TestUpdatePomodoroRejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	svc := newService(tx)

	work := 200
	_, err := svc.UpdatePomodoro(ctx, alice.ID, dto.UpdatePomodoroInput{WorkDuration: &work})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	work = 50
	settings, err := svc.UpdatePomodoro(ctx, alice.ID, dto.UpdatePomodoroInput{WorkDuration: &work})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if settings.WorkDuration != 50 {
		t.Fatalf("work = %d, want 50", settings.WorkDuration)
	}
	if settings.BreakDuration != entity.PomodoroDefaultBreak {
		t.Fatalf("untouched fields should keep defaults, break = %d", settings.BreakDuration)
	}
}

func TestPostItLifecycle(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	mallory := testutil.SeedUser(t, ctx, tx, "mallory")
	svc := newService(tx)

	note, err := svc.CreatePostIt(ctx, alice.ID, dto.CreatePostItInput{Content: "buy flashcards"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if note.Color != entity.PostItDefaultColor {
		t.Fatalf("color = %q, want default %q", note.Color, entity.PostItDefaultColor)
	}
	if note.PositionX != 0 || note.PositionY != 0 {
		t.Fatalf("new note should sit at the origin: (%d, %d)", note.PositionX, note.PositionY)
	}

	_, err = svc.CreatePostIt(ctx, alice.ID, dto.CreatePostItInput{Content: "   "})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank content, got %v", err)
	}

	x, y := 120, 45
	color := "#aef2d0"
	moved, err := svc.UpdatePostIt(ctx, alice.ID, note.ID, dto.UpdatePostItInput{
		Color:     &color,
		PositionX: &x,
		PositionY: &y,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if moved.PositionX != 120 || moved.PositionY != 45 {
		t.Fatalf("position = (%d, %d), want (120, 45)", moved.PositionX, moved.PositionY)
	}
	if moved.Color != "#aef2d0" {
		t.Fatalf("color = %q, want #aef2d0", moved.Color)
	}
	if moved.Content != "buy flashcards" {
		t.Fatalf("content changed on move: %q", moved.Content)
	}

	if _, err := svc.UpdatePostIt(ctx, mallory.ID, note.ID, dto.UpdatePostItInput{PositionX: &x}); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.DeletePostIt(ctx, mallory.ID, note.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := svc.DeletePostIt(ctx, alice.ID, note.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	notes, err := svc.ListPostIts(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("expected no notes, got %d", len(notes))
	}
}

func TestAlarmLifecycle(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	mallory := testutil.SeedUser(t, ctx, tx, "mallory")
	svc := newService(tx)

	alarm, err := svc.CreateAlarm(ctx, alice.ID, dto.CreateAlarmInput{
		Name: "morning review",
		Time: "07:30",
		Days: []int{1, 2, 3, 3},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !alarm.IsActive {
		t.Fatalf("alarms default to active")
	}

	_, err = svc.CreateAlarm(ctx, alice.ID, dto.CreateAlarmInput{Name: "bad", Time: "25:00"})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad time, got %v", err)
	}

	newTime := "08:00"
	updated, err := svc.UpdateAlarm(ctx, alice.ID, alarm.ID, dto.UpdateAlarmInput{Time: &newTime})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Time != "08:00" {
		t.Fatalf("time = %q, want 08:00", updated.Time)
	}

	if err := svc.DeleteAlarm(ctx, mallory.ID, alarm.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteAlarm(ctx, alice.ID, alarm.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	alarms, err := svc.ListAlarms(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(alarms) != 0 {
		t.Fatalf("expected no alarms, got %d", len(alarms))
	}
}
