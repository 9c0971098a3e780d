package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kidsvideohub/internal/database"
	"kidsvideohub/internal/models"
	"kidsvideohub/internal/notify"
	"kidsvideohub/internal/repository"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeResolver struct {
	resolved string
	err      error
	calls    int
}

func (r *fakeResolver) Resolve(ctx context.Context, shortURL string) (string, error) {
	r.calls++
	return r.resolved, r.err
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notify.ReviewNotice
}

func (n *fakeNotifier) NotifyReview(ctx context.Context, notice notify.ReviewNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return nil
}

// services bundles every service over one temp SQLite database
type services struct {
	store    *repository.Store
	clock    *testClock
	resolver *fakeResolver
	notifier *fakeNotifier
	kids     *KidService
	folders  *FolderService
	videos   *VideoService
	progress *ProgressService
	global   *GlobalService
	feedback *FeedbackService
	backup   *BackupService
}

const testMasterID = "master-account"

func newServices(t *testing.T) *services {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return newServicesForStore(repository.NewStore(db), testMasterID)
}

func newServicesForStore(store *repository.Store, master string) *services {
	s := &services{
		store:    store,
		clock:    newTestClock(),
		resolver: &fakeResolver{},
		notifier: &fakeNotifier{},
	}
	s.kids = NewKidService(store, s.clock.Now)
	s.folders = NewFolderService(store, s.clock.Now)
	s.videos = NewVideoService(store, s.resolver, s.kids, s.clock.Now)
	s.progress = NewProgressService(store, s.kids, s.notifier, s.clock.Now)
	s.global = NewGlobalService(store, master, s.clock.Now)
	s.feedback = NewFeedbackService(store, s.clock.Now)
	s.backup = NewBackupService(store, s.clock.Now)
	return s
}

func (s *services) addKid(t *testing.T, owner, name string) *models.Kid {
	t.Helper()
	kid, err := s.kids.CreateKid(context.Background(), owner, name, "")
	require.NoError(t, err)
	return kid
}

func (s *services) addVideo(t *testing.T, owner, url string, kidIDs ...string) *models.Video {
	t.Helper()
	video, err := s.videos.CreateVideo(context.Background(), owner, VideoInput{URL: url, KidIDs: kidIDs})
	require.NoError(t, err)
	return video
}

func (s *services) addFolderVideo(t *testing.T, owner, folderID, url string) *models.Video {
	t.Helper()
	video, err := s.videos.CreateVideo(context.Background(), owner, VideoInput{URL: url, FolderID: &folderID})
	require.NoError(t, err)
	return video
}

func (s *services) mustVideo(t *testing.T, owner, videoID string) *models.Video {
	t.Helper()
	video, err := s.videos.GetVideo(context.Background(), owner, videoID)
	require.NoError(t, err)
	return video
}

func recording(seconds float64) RecordingInput {
	return RecordingInput{Duration: seconds, AudioPayload: "data:audio/webm;base64,AAAA"}
}
