package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kidsvideohub/internal/apperr"
	"kidsvideohub/internal/models"
)

func TestCreateVideoAssignsAllKids(t *testing.T) {
	s := newServices(t)

	k1 := s.addKid(t, "owner", "Ana")
	k2 := s.addKid(t, "owner", "Ben")

	video := s.addVideo(t, "owner", "https://youtu.be/abc123")
	assert.Equal(t, "youtube", video.Platform)
	assert.Equal(t, "abc123", video.PlatformVideoID)
	assert.Equal(t, map[string]bool{k1.ID: true, k2.ID: true}, video.Assigned)
	assert.Equal(t, 0, video.TotalViews)
	assert.Equal(t, models.DefaultPriority, video.Priority)
	assert.Nil(t, video.FolderID)

	got := s.mustVideo(t, "owner", video.ID)
	assert.Equal(t, video.Assigned, got.Assigned)
}

func TestCreateVideoRejections(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	s.addVideo(t, "owner", "https://youtu.be/abc123")

	tests := []struct {
		name  string
		input VideoInput
		want  error
		kind  error
	}{
		{"duplicate", VideoInput{URL: "https://www.youtube.com/watch?v=abc123"}, ErrDuplicateVideo, apperr.ErrConflict},
		{"unsupported", VideoInput{URL: "https://vimeo.com/123"}, ErrUnsupportedURL, apperr.ErrValidation},
		{"empty", VideoInput{URL: ""}, ErrUnsupportedURL, apperr.ErrValidation},
		{"unknown folder", VideoInput{URL: "https://youtu.be/zzz", FolderID: strPtr("nope")}, ErrFolderNotFound, apperr.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.videos.CreateVideo(ctx, "owner", tt.input)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	_, err := s.videos.CreateVideo(ctx, "someone-else", VideoInput{URL: "https://youtu.be/abc123"})
	assert.NoError(t, err)
}

func TestCreateVideoResolvesShortLinks(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	s.resolver.resolved = "https://www.tiktok.com/@user/video/7234567890123456789?is_from_webapp=1"
	video, err := s.videos.CreateVideo(ctx, "owner", VideoInput{URL: "https://vm.tiktok.com/ZMabc123/"})
	require.NoError(t, err)
	assert.Equal(t, "tiktok", video.Platform)
	assert.Equal(t, "7234567890123456789", video.PlatformVideoID)
	assert.Equal(t, "https://vm.tiktok.com/ZMabc123/", video.URL)
	assert.Equal(t, 1, s.resolver.calls)

	s.resolver.err = errors.New("timeout")
	_, err = s.videos.CreateVideo(ctx, "owner", VideoInput{URL: "https://vt.tiktok.com/ZSother/"})
	assert.ErrorIs(t, err, ErrResolverFailure)
	assert.ErrorIs(t, err, apperr.ErrDependency)

	s.resolver.err = nil
	s.resolver.resolved = "https://www.tiktok.com/@user"
	_, err = s.videos.CreateVideo(ctx, "owner", VideoInput{URL: "https://vt.tiktok.com/ZSthird/"})
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}

func TestUpdateVideo(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	folder, err := s.folders.CreateFolder(ctx, "owner", "Songs")
	require.NoError(t, err)
	video := s.addVideo(t, "owner", "https://youtu.be/abc123")

	folderID := &folder.ID
	updated, err := s.videos.UpdateVideo(ctx, "owner", video.ID, VideoUpdate{Priority: intPtr(42), FolderID: &folderID})
	require.NoError(t, err)
	assert.Equal(t, models.MaxPriority, updated.Priority)
	require.NotNil(t, updated.FolderID)
	assert.Equal(t, folder.ID, *updated.FolderID)

	var none *string
	updated, err = s.videos.UpdateVideo(ctx, "owner", video.ID, VideoUpdate{FolderID: &none})
	require.NoError(t, err)
	assert.Nil(t, updated.FolderID)
	assert.Equal(t, models.MaxPriority, updated.Priority)

	_, err = s.videos.UpdateVideo(ctx, "intruder", video.ID, VideoUpdate{Priority: intPtr(1)})
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestDeleteFolderDetachesVideos(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	folder, err := s.folders.CreateFolder(ctx, "owner", "Songs")
	require.NoError(t, err)
	video := s.addFolderVideo(t, "owner", folder.ID, "https://youtu.be/abc123")

	require.NoError(t, s.folders.DeleteFolder(ctx, "owner", folder.ID))

	got := s.mustVideo(t, "owner", video.ID)
	assert.Nil(t, got.FolderID)

	folders, err := s.folders.ListFolders(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestFolderNamesCannotUseReservedPrefix(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	_, err := s.folders.CreateFolder(ctx, "owner", models.ShadowFolderPrefix+"abc")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	folder, err := s.folders.CreateFolder(ctx, "owner", "Songs")
	require.NoError(t, err)
	_, err = s.folders.RenameFolder(ctx, "owner", folder.ID, models.ShadowFolderPrefix+"abc")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteVideo(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	kid := s.addKid(t, "owner", "Ana")
	video := s.addVideo(t, "owner", "https://youtu.be/abc123")
	_, err := s.progress.MarkWatched(ctx, "owner", video.ID, kid.ID, recording(2))
	require.NoError(t, err)

	assert.ErrorIs(t, s.videos.DeleteVideo(ctx, "intruder", video.ID), ErrVideoNotFound)
	require.NoError(t, s.videos.DeleteVideo(ctx, "owner", video.ID))

	_, err = s.videos.GetVideo(ctx, "owner", video.ID)
	assert.ErrorIs(t, err, ErrVideoNotFound)

	count, err := s.progress.ParentBadge(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestListKidVideosShowsOnlyThatKid(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	ana := s.addKid(t, "owner", "Ana")
	ben := s.addKid(t, "owner", "Ben")
	s.addVideo(t, "owner", "https://youtu.be/both")
	s.addVideo(t, "owner", "https://youtu.be/ben", ben.ID)

	videos, err := s.videos.ListKidVideos(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, map[string]bool{ana.ID: true}, videos[0].Assigned)
	assert.NotContains(t, videos[0].Progress, ben.ID)

	_, err = s.videos.ListKidVideos(ctx, "missing")
	assert.ErrorIs(t, err, ErrKidNotFound)
}

func TestFeedback(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	_, err := s.feedback.Create(ctx, "owner", "letter", "hi")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.feedback.Create(ctx, "owner", models.FeedbackText, " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	entry, err := s.feedback.Create(ctx, "owner", models.FeedbackText, "More dinosaurs please")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)

	entries, err := s.feedback.List(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "More dinosaurs please", entries[0].Content)

	entries, err = s.feedback.List(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
