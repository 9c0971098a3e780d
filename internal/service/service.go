package service

import (
	"context"
	"time"

	"kidsvideohub/internal/apperr"
	"kidsvideohub/internal/models"
	"kidsvideohub/internal/notify"
	"kidsvideohub/internal/repository"
)

var (
	ErrKidNotFound          = apperr.New(apperr.ErrNotFound, "kid not found")
	ErrFolderNotFound       = apperr.New(apperr.ErrNotFound, "folder not found")
	ErrVideoNotFound        = apperr.New(apperr.ErrNotFound, "video not found")
	ErrKidNotAssigned       = apperr.New(apperr.ErrNotFound, "video is not assigned to this kid")
	ErrSubscriptionNotFound = apperr.New(apperr.ErrNotFound, "subscription not found")
	ErrMasterFolderNotFound = apperr.New(apperr.ErrNotFound, "global playlist not found")
	ErrGlobalDisabled       = apperr.New(apperr.ErrNotFound, "global playlists are not available")

	ErrKidLimitReached  = apperr.New(apperr.ErrConflict, "maximum number of kids reached")
	ErrDuplicateKidName = apperr.New(apperr.ErrConflict, "a kid with this name already exists")
	ErrDuplicateVideo   = apperr.New(apperr.ErrConflict, "video already exists in library")
	ErrViewCapReached   = apperr.New(apperr.ErrConflict, "video has reached its view limit")

	ErrUnsupportedURL  = apperr.New(apperr.ErrValidation, "unsupported video url")
	ErrShadowFolder    = apperr.New(apperr.ErrValidation, "synced playlist folders are managed automatically")
	ErrSelfSubscribe   = apperr.New(apperr.ErrValidation, "the global playlist account cannot subscribe to itself")
	ErrResolverFailure = apperr.New(apperr.ErrDependency, "could not resolve short link")
)

// Clock returns the current time
type Clock func() time.Time

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// Resolver expands short links that the classifier cannot read
type Resolver interface {
	Resolve(ctx context.Context, shortURL string) (string, error)
}

// Notifier is told about recordings awaiting parent review
type Notifier interface {
	NotifyReview(ctx context.Context, notice notify.ReviewNotice) error
}

// resolveTargetKids intersects requested with the owner's kids, keeping the
// owner's order. An empty request selects every kid.
func resolveTargetKids(ctx context.Context, store *repository.Store, owner string, requested []string) ([]string, error) {
	kids, err := store.Kids.GetOwnerKids(ctx, owner)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(requested))
	for _, id := range requested {
		want[id] = true
	}

	ids := make([]string, 0, len(kids))
	for _, kid := range kids {
		if len(requested) == 0 || want[kid.ID] {
			ids = append(ids, kid.ID)
		}
	}
	return ids, nil
}

func nonNilVideos(videos []models.Video) []models.Video {
	if videos == nil {
		return []models.Video{}
	}
	return videos
}
