package service

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kidsvideohub/internal/database"
	"kidsvideohub/internal/models"
	"kidsvideohub/internal/repository"
)

func newEmptyServices(t *testing.T) *services {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "restore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newServicesForStore(repository.NewStore(db), testMasterID)
}

func TestBackupRoundTrip(t *testing.T) {
	src := newServices(t)
	ctx := context.Background()

	require.NoError(t, src.store.Accounts.Upsert(ctx, "owner", "parent@example.com"))
	kid := src.addKid(t, "owner", "Ana")
	folder, err := src.folders.CreateFolder(ctx, "owner", "Songs")
	require.NoError(t, err)
	video := src.addFolderVideo(t, "owner", folder.ID, "https://youtu.be/abc123")
	_, err = src.progress.MarkWatched(ctx, "owner", video.ID, kid.ID, recording(3))
	require.NoError(t, err)
	require.NoError(t, src.progress.SavePosition(ctx, "owner", video.ID, kid.ID, 8, 90))
	_, err = src.feedback.Create(ctx, "owner", models.FeedbackText, "hello")
	require.NoError(t, err)
	require.NoError(t, src.store.Subscriptions.UpsertSubscription(ctx, &models.GlobalSubscription{
		UserID: "owner", MasterFolderID: "m1", KidIDs: []string{kid.ID}, CreatedAt: src.clock.Now(),
	}))

	var buf bytes.Buffer
	require.NoError(t, src.backup.ExportToWriter(ctx, &buf))

	dst := newEmptyServices(t)
	require.NoError(t, dst.backup.ImportFromReader(ctx, &buf))

	want, err := src.backup.Snapshot(ctx)
	require.NoError(t, err)
	got, err := dst.backup.Snapshot(ctx)
	require.NoError(t, err)

	assert.Len(t, got.Accounts, 1)
	assert.Equal(t, "parent@example.com", got.Accounts[0].Email)
	require.Len(t, got.Kids, len(want.Kids))
	assert.Equal(t, want.Kids[0].ID, got.Kids[0].ID)
	assert.Equal(t, want.Kids[0].Name, got.Kids[0].Name)
	assert.True(t, want.Kids[0].CreatedAt.Equal(got.Kids[0].CreatedAt))
	assert.Equal(t, len(want.Folders), len(got.Folders))
	require.Len(t, got.Subscriptions, 1)
	assert.Equal(t, want.Subscriptions[0].KidIDs, got.Subscriptions[0].KidIDs)
	require.Len(t, got.Feedback, 1)
	assert.Equal(t, "hello", got.Feedback[0].Content)

	restored := dst.mustVideo(t, "owner", video.ID)
	assert.Equal(t, 1, restored.TotalViews)
	require.NotNil(t, restored.FolderID)
	assert.Equal(t, folder.ID, *restored.FolderID)
	p := restored.Progress[kid.ID]
	require.NotNil(t, p)
	assert.True(t, p.Watched)
	assert.Len(t, p.VoiceRecordings, 1)
	require.NotNil(t, p.LastPosition)
	assert.Equal(t, 8.0, *p.LastPosition)
	assert.Equal(t, 8.0, p.DailyWatchTime[src.clock.Now().Format("2006-01-02")])
}

func TestImportLegacyVoiceRecording(t *testing.T) {
	s := newEmptyServices(t)
	ctx := context.Background()

	backup := `{
		"version": "1.0",
		"kids": [{"id": "k1", "user_id": "owner", "name": "Ana", "created_at": "2024-01-01T00:00:00Z"}],
		"videos": [{
			"id": "v1", "user_id": "owner", "url": "https://youtu.be/abc123", "platform": "youtube",
			"platform_video_id": "abc123", "priority": 5, "total_views": 1, "created_at": "2024-01-01T00:00:00Z",
			"kids": [{
				"kid_id": "k1", "assigned": true, "watched": true, "watched_at": "2024-01-02T00:00:00Z",
				"voiceRecording": {"recordedAt": "2024-01-02T00:00:00Z", "duration": 6}
			}]
		}]
	}`
	require.NoError(t, s.backup.ImportFromReader(ctx, strings.NewReader(backup)))

	row, err := s.store.Progress.GetProgress(ctx, "v1", "k1")
	require.NoError(t, err)
	require.NotNil(t, row.Progress.LegacyRecording)
	assert.Equal(t, 6.0, row.Progress.LegacyRecording.Duration)

	got, err := s.progress.MarkWatched(ctx, "owner", "v1", "k1", recording(2))
	require.NoError(t, err)
	assert.Len(t, got.Progress["k1"].VoiceRecordings, 2)
	assert.Equal(t, 1, got.TotalViews)
}

func TestImportRollsBackOnFailure(t *testing.T) {
	s := newEmptyServices(t)
	ctx := context.Background()

	backup := `{
		"kids": [
			{"id": "k1", "user_id": "owner", "name": "Ana", "created_at": "2024-01-01T00:00:00Z"},
			{"id": "k1", "user_id": "owner", "name": "Ana again", "created_at": "2024-01-01T00:00:00Z"}
		]
	}`
	require.Error(t, s.backup.ImportFromReader(ctx, strings.NewReader(backup)))

	kids, err := s.kids.ListKids(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, kids)
}
