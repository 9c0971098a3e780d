package service

import (
	"context"
	"fmt"
	"strings"

	"kidsvideohub/internal/logging"
	"kidsvideohub/internal/models"
	"kidsvideohub/internal/platform"
	"kidsvideohub/internal/repository"
)

// VideoInput holds the fields of a new video
type VideoInput struct {
	URL      string
	KidIDs   []string
	FolderID *string
	Priority *int
}

// VideoUpdate is a partial update. A nil field is left untouched; FolderID
// pointing at nil moves the video out of its folder.
type VideoUpdate struct {
	Priority *int
	FolderID **string
}

// VideoService handles an owner's video library
type VideoService struct {
	store    *repository.Store
	resolver Resolver
	kids     *KidService
	now      Clock
}

// NewVideoService creates a new video service. resolver may be nil, in which
// case short links are rejected as unsupported.
func NewVideoService(store *repository.Store, resolver Resolver, kids *KidService, clock Clock) *VideoService {
	return &VideoService{store: store, resolver: resolver, kids: kids, now: clockOrDefault(clock)}
}

// CreateVideo classifies the URL and adds the video, assigned to the
// requested kids or to every kid when none are given
func (s *VideoService) CreateVideo(ctx context.Context, owner string, in VideoInput) (*models.Video, error) {
	match, err := s.classify(ctx, in.URL)
	if err != nil {
		return nil, err
	}

	priority := models.DefaultPriority
	if in.Priority != nil {
		priority = models.ClampPriority(*in.Priority)
	}

	video := &models.Video{
		UserID:          owner,
		URL:             strings.TrimSpace(in.URL),
		Platform:        match.Platform,
		PlatformVideoID: match.VideoID,
		Priority:        priority,
		Assigned:        map[string]bool{},
		CreatedAt:       s.now().UTC(),
	}

	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		existing, err := tx.Videos.GetVideoByPlatformID(ctx, owner, match.Platform, match.VideoID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateVideo
		}

		if in.FolderID != nil && *in.FolderID != "" {
			folder, err := videoFolder(ctx, tx, owner, *in.FolderID)
			if err != nil {
				return err
			}
			video.FolderID = &folder.ID
		}

		kidIDs, err := resolveTargetKids(ctx, tx, owner, in.KidIDs)
		if err != nil {
			return err
		}
		for _, id := range kidIDs {
			video.Assigned[id] = true
		}

		return tx.Videos.CreateVideo(ctx, video)
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

// videoFolder loads a folder an owner may file videos into. Shadow folders
// only receive synced copies.
func videoFolder(ctx context.Context, store *repository.Store, owner, folderID string) (*models.Folder, error) {
	folder, err := store.Folders.GetOwnerFolder(ctx, owner, folderID)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, ErrFolderNotFound
	}
	if folder.IsShadow {
		return nil, ErrShadowFolder
	}
	return folder, nil
}

// classify turns a URL into a platform match, resolving TikTok short links
func (s *VideoService) classify(ctx context.Context, raw string) (platform.Match, error) {
	if match, ok := platform.Classify(raw); ok {
		return match, nil
	}
	if !platform.IsTikTokShortLink(raw) || s.resolver == nil {
		return platform.Match{}, ErrUnsupportedURL
	}

	resolved, err := s.resolver.Resolve(ctx, strings.TrimSpace(raw))
	if err != nil {
		logging.Logger.Warn().Err(err).Str("url", raw).Msg("Failed to resolve short link")
		return platform.Match{}, fmt.Errorf("%w: %v", ErrResolverFailure, err)
	}

	match, ok := platform.Classify(resolved)
	if !ok {
		return platform.Match{}, ErrUnsupportedURL
	}
	return match, nil
}

// UpdateVideo changes priority and/or folder of a video
func (s *VideoService) UpdateVideo(ctx context.Context, owner, videoID string, upd VideoUpdate) (*models.Video, error) {
	var updated *models.Video
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		video, err := tx.Videos.GetOwnerVideo(ctx, owner, videoID)
		if err != nil {
			return err
		}
		if video == nil {
			return ErrVideoNotFound
		}

		if upd.Priority != nil {
			video.Priority = models.ClampPriority(*upd.Priority)
		}
		if upd.FolderID != nil {
			folderID := *upd.FolderID
			if folderID != nil && *folderID == "" {
				folderID = nil
			}
			if folderID != nil {
				if _, err := videoFolder(ctx, tx, owner, *folderID); err != nil {
					return err
				}
			}
			video.FolderID = folderID
		}

		if err := tx.Videos.UpdateVideo(ctx, video.ID, video.Priority, video.FolderID); err != nil {
			return err
		}
		updated = video
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteVideo removes a video and its per-kid state
func (s *VideoService) DeleteVideo(ctx context.Context, owner, videoID string) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		video, err := tx.Videos.GetOwnerVideoRow(ctx, owner, videoID)
		if err != nil {
			return err
		}
		if video == nil {
			return ErrVideoNotFound
		}
		return tx.Videos.DeleteVideo(ctx, videoID)
	})
}

// ListVideos retrieves the owner's library ordered by folder and priority
func (s *VideoService) ListVideos(ctx context.Context, owner string) ([]models.Video, error) {
	videos, err := s.store.Videos.GetOwnerVideos(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return nonNilVideos(videos), nil
}

// GetVideo retrieves one of the owner's videos
func (s *VideoService) GetVideo(ctx context.Context, owner, videoID string) (*models.Video, error) {
	video, err := s.store.Videos.GetOwnerVideo(ctx, owner, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	if video == nil {
		return nil, ErrVideoNotFound
	}
	return video, nil
}

// ListKidVideos retrieves the videos assigned to a kid, each carrying only
// that kid's entries
func (s *VideoService) ListKidVideos(ctx context.Context, kidID string) ([]models.Video, error) {
	kid, err := s.kids.ResolveKid(ctx, kidID)
	if err != nil {
		return nil, err
	}

	videos, err := s.store.Videos.GetKidVideos(ctx, kid.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list kid videos: %w", err)
	}

	out := make([]models.Video, 0, len(videos))
	for i := range videos {
		if videos[i].UserID != kid.UserID {
			continue
		}
		out = append(out, videos[i].ForKid(kid.ID))
	}
	return out, nil
}

