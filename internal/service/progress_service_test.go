package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kidsvideohub/internal/apperr"
	"kidsvideohub/internal/models"
	"kidsvideohub/internal/repository"
)

func TestMarkWatchedStopsAtViewCap(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	var kids []*models.Kid
	for i := 0; i < 5; i++ {
		kids = append(kids, s.addKid(t, "owner", fmt.Sprintf("kid %d", i)))
	}
	video := s.addVideo(t, "owner", "https://youtu.be/abc123")

	for _, kid := range kids[:4] {
		_, err := s.progress.MarkWatched(ctx, "owner", video.ID, kid.ID, recording(3))
		require.NoError(t, err)
	}

	_, err := s.progress.MarkWatched(ctx, "owner", video.ID, kids[4].ID, recording(3))
	require.ErrorIs(t, err, ErrViewCapReached)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got := s.mustVideo(t, "owner", video.ID)
	assert.Equal(t, models.MaxViews, got.TotalViews)
	last := got.Progress[kids[4].ID]
	require.NotNil(t, last)
	assert.False(t, last.Watched)
	assert.Empty(t, last.VoiceRecordings)
}

func TestMarkWatchedConcurrentKidsRespectViewCap(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	var kids []*models.Kid
	for i := 0; i < 6; i++ {
		kids = append(kids, s.addKid(t, "owner", fmt.Sprintf("kid %d", i)))
	}
	video := s.addVideo(t, "owner", "https://youtu.be/abc123")

	errs := make([]error, len(kids))
	var wg sync.WaitGroup
	for i, kid := range kids {
		wg.Add(1)
		go func(i int, kidID string) {
			defer wg.Done()
			_, errs[i] = s.progress.MarkWatched(ctx, "owner", video.ID, kidID, recording(2))
		}(i, kid.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrViewCapReached)
	}
	assert.Equal(t, models.MaxViews, succeeded)

	got := s.mustVideo(t, "owner", video.ID)
	assert.Equal(t, models.MaxViews, got.TotalViews)
	watched := 0
	for _, p := range got.Progress {
		if p.Watched {
			watched++
			assert.Len(t, p.VoiceRecordings, 1)
		} else {
			assert.Empty(t, p.VoiceRecordings)
		}
	}
	assert.Equal(t, models.MaxViews, watched)
}

func TestMarkWatchedRewatchKeepsCount(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	kid := s.addKid(t, "owner", "Ana")
	video := s.addVideo(t, "owner", "https://youtu.be/abc123")

	first, err := s.progress.MarkWatched(ctx, "owner", video.ID, kid.ID, recording(3))
	require.NoError(t, err)
	require.NotNil(t, first.Progress[kid.ID].WatchedAt)
	watchedAt := *first.Progress[kid.ID].WatchedAt

	s.clock.Advance(time.Hour)
	again, err := s.progress.MarkWatched(ctx, "owner", video.ID, kid.ID, recording(4))
	require.NoError(t, err)

	assert.Equal(t, 1, again.TotalViews)
	p := again.Progress[kid.ID]
	assert.Len(t, p.VoiceRecordings, 2)
	require.NotNil(t, p.WatchedAt)
	assert.True(t, p.WatchedAt.Equal(watchedAt))
	require.NotNil(t, p.ParentReviewed)
	assert.False(t, *p.ParentReviewed)
}

func TestMarkWatchedRewatchAllowedAtCap(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	var kids []*models.Kid
	for i := 0; i < 4; i++ {
		kids = append(kids, s.addKid(t, "owner", fmt.Sprintf("kid %d", i)))
	}
	video := s.addVideo(t, "owner", "https://youtu.be/abc123")
	for _, kid := range kids {
		_, err := s.progress.MarkWatched(ctx, "owner", video.ID, kid.ID, recording(2))
		require.NoError(t, err)
	}

	got, err := s.progress.MarkWatched(ctx, "owner", video.ID, kids[0].ID, recording(2))
	require.NoError(t, err)
	assert.Equal(t, models.MaxViews, got.TotalViews)
}

func TestMarkWatchedRejectsEmptyRecording(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	kid := s.addKid(t, "owner", "Ana")
	video := s.addVideo(t, "owner", "https://youtu.be/abc123")

	for _, d := range []float64{0, -1} {
		_, err := s.progress.MarkWatched(ctx, "owner", video.ID, kid.ID, recording(d))
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}

	got := s.mustVideo(t, "owner", video.ID)
	assert.Equal(t, 0, got.TotalViews)
	assert.False(t, got.Progress[kid.ID].Watched)
	assert.Empty(t, got.Progress[kid.ID].VoiceRecordings)
	assert.Empty(t, s.notifier.notices)
}

func TestMarkWatchedRequiresAssignment(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	ana := s.addKid(t, "owner", "Ana")
	ben := s.addKid(t, "owner", "Ben")
	video := s.addVideo(t, "owner", "https://youtu.be/abc123", ana.ID)

	_, err := s.progress.MarkWatched(ctx, "owner", video.ID, ben.ID, recording(2))
	assert.ErrorIs(t, err, ErrKidNotAssigned)

	_, err = s.progress.MarkWatched(ctx, "other", video.ID, ana.ID, recording(2))
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestMarkWatchedMigratesLegacyRecordingOnce(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	kid := s.addKid(t, "owner", "Ana")
	video := &models.Video{
		UserID:          "owner",
		URL:             "https://youtu.be/legacy",
		Platform:        "youtube",
		PlatformVideoID: "legacy",
		Priority:        models.DefaultPriority,
		CreatedAt:       s.clock.Now(),
	}
	require.NoError(t, s.store.Videos.InsertVideo(ctx, video))
	legacy := &models.VoiceRecording{RecordedAt: s.clock.Now().Add(-time.Hour), Duration: 7}
	require.NoError(t, s.store.Progress.InsertProgress(ctx, &repository.ProgressRow{
		VideoID:  video.ID,
		KidID:    kid.ID,
		Assigned: true,
		Progress: models.Progress{LegacyRecording: legacy},
	}))

	got, err := s.progress.MarkWatched(ctx, "owner", video.ID, kid.ID, recording(3))
	require.NoError(t, err)
	recs := got.Progress[kid.ID].VoiceRecordings
	require.Len(t, recs, 2)
	assert.Equal(t, 7.0, recs[0].Duration)
	assert.Equal(t, 3.0, recs[1].Duration)

	row, err := s.store.Progress.GetProgress(ctx, video.ID, kid.ID)
	require.NoError(t, err)
	assert.Nil(t, row.Progress.LegacyRecording)

	s.clock.Advance(time.Minute)
	got, err = s.progress.MarkWatched(ctx, "owner", video.ID, kid.ID, recording(4))
	require.NoError(t, err)
	assert.Len(t, got.Progress[kid.ID].VoiceRecordings, 3)
}

func TestMarkWatchedNotifiesOwner(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	require.NoError(t, s.store.Accounts.Upsert(ctx, "owner", "parent@example.com"))
	kid := s.addKid(t, "owner", "Ana")
	video := s.addVideo(t, "owner", "https://youtu.be/abc123")

	_, err := s.progress.MarkWatchedAsKid(ctx, kid.ID, video.ID, recording(3))
	require.NoError(t, err)
	_, err = s.progress.MarkWatchedAsKid(ctx, kid.ID, video.ID, recording(3))
	require.NoError(t, err)

	require.Len(t, s.notifier.notices, 2)
	assert.Equal(t, "parent@example.com", s.notifier.notices[0].OwnerEmail)
	assert.Equal(t, "Ana", s.notifier.notices[0].KidName)
	assert.False(t, s.notifier.notices[0].Rewatch)
	assert.True(t, s.notifier.notices[1].Rewatch)
}

func TestSavePositionAccumulatesDailyWatchTime(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	kid := s.addKid(t, "owner", "Ana")
	video := s.addVideo(t, "owner", "https://youtu.be/abc123")
	today := s.clock.Now().Format("2006-01-02")

	require.NoError(t, s.progress.SavePosition(ctx, "owner", video.ID, kid.ID, 10, 120))
	before := s.mustVideo(t, "owner", video.ID).Progress[kid.ID].DailyWatchTime[today]

	require.NoError(t, s.progress.SavePosition(ctx, "owner", video.ID, kid.ID, 15, 0))
	p := s.mustVideo(t, "owner", video.ID).Progress[kid.ID]
	assert.Equal(t, before+5, p.DailyWatchTime[today])

	require.NoError(t, s.progress.SavePositionAsKid(ctx, kid.ID, video.ID, 5, 0))
	p = s.mustVideo(t, "owner", video.ID).Progress[kid.ID]
	assert.Equal(t, before+5, p.DailyWatchTime[today])
	require.NotNil(t, p.LastPosition)
	assert.Equal(t, 5.0, *p.LastPosition)
	require.NotNil(t, p.VideoDuration)
	assert.Equal(t, 120.0, *p.VideoDuration)
}

func TestSavePositionBucketsByUTCDay(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	kid := s.addKid(t, "owner", "Ana")
	video := s.addVideo(t, "owner", "https://youtu.be/abc123")

	// 05:00 on May 2nd at UTC+10 is still May 1st in UTC
	zone := time.FixedZone("AEST", 10*60*60)
	at := time.Date(2024, 5, 2, 5, 0, 0, 0, zone)
	progress := NewProgressService(s.store, s.kids, nil, func() time.Time { return at })

	require.NoError(t, progress.SavePosition(ctx, "owner", video.ID, kid.ID, 0, 60))
	require.NoError(t, progress.SavePosition(ctx, "owner", video.ID, kid.ID, 12, 60))

	p := s.mustVideo(t, "owner", video.ID).Progress[kid.ID]
	assert.Equal(t, map[string]float64{"2024-05-01": 12}, p.DailyWatchTime)
}

func TestSavePositionIgnoresSeeks(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	kid := s.addKid(t, "owner", "Ana")
	video := s.addVideo(t, "owner", "https://youtu.be/abc123")

	require.NoError(t, s.progress.SavePosition(ctx, "owner", video.ID, kid.ID, 45, 0))
	p := s.mustVideo(t, "owner", video.ID).Progress[kid.ID]
	assert.Empty(t, p.DailyWatchTime)
	require.NotNil(t, p.LastPosition)
	assert.Equal(t, 45.0, *p.LastPosition)

	err := s.progress.SavePosition(ctx, "owner", video.ID, kid.ID, -1, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestBadges(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	kid := s.addKid(t, "owner", "Ana")
	v1 := s.addVideo(t, "owner", "https://youtu.be/one")
	s.addVideo(t, "owner", "https://youtu.be/two")

	count, err := s.progress.KidBadge(ctx, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = s.progress.MarkWatched(ctx, "owner", v1.ID, kid.ID, recording(3))
	require.NoError(t, err)

	count, err = s.progress.KidBadge(ctx, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = s.progress.ParentBadge(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cleared, err := s.progress.ClearParentBadge(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	count, err = s.progress.ParentBadge(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = s.progress.KidBadge(ctx, "missing")
	assert.ErrorIs(t, err, ErrKidNotFound)
}
