package service

import (
	"context"
	"errors"
	"fmt"

	"kidsvideohub/internal/logging"
	"kidsvideohub/internal/metrics"
	"kidsvideohub/internal/models"
	"kidsvideohub/internal/notify"
	"kidsvideohub/internal/repository"
	"kidsvideohub/internal/validation"
)

const dayLayout = "2006-01-02"

// RecordingInput is the voice recording that accompanies a completion
type RecordingInput struct {
	Duration     float64
	AudioPayload string
}

// ProgressService tracks what kids watched and what parents reviewed
type ProgressService struct {
	store    *repository.Store
	kids     *KidService
	notifier Notifier
	now      Clock
}

// NewProgressService creates a new progress service. notifier may be nil.
func NewProgressService(store *repository.Store, kids *KidService, notifier Notifier, clock Clock) *ProgressService {
	return &ProgressService{store: store, kids: kids, notifier: notifier, now: clockOrDefault(clock)}
}

// MarkWatched records a completion of a video by a kid. The first completion
// counts towards the video's view cap; later ones only add a recording. It
// returns the video as seen by the kid.
func (s *ProgressService) MarkWatched(ctx context.Context, owner, videoID, kidID string, rec RecordingInput) (*models.Video, error) {
	if err := validation.ValidatePositive("duration", rec.Duration); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var first bool
	var kidName, videoURL string

	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		video, err := tx.Videos.GetOwnerVideoRow(ctx, owner, videoID)
		if err != nil {
			return err
		}
		if video == nil {
			return ErrVideoNotFound
		}
		kid, err := tx.Kids.GetOwnerKid(ctx, owner, kidID)
		if err != nil {
			return err
		}
		if kid == nil {
			return ErrKidNotFound
		}
		row, err := tx.Progress.GetProgress(ctx, videoID, kidID)
		if err != nil {
			return err
		}
		if row == nil || !row.Assigned {
			return ErrKidNotAssigned
		}

		if !row.Progress.Watched && video.TotalViews >= models.MaxViews {
			return ErrViewCapReached
		}

		if legacy := row.Progress.LegacyRecording; legacy != nil {
			migrated := *legacy
			migrated.ID = ""
			if err := tx.Progress.AddRecording(ctx, videoID, kidID, &migrated); err != nil {
				return err
			}
			if err := tx.Progress.ClearLegacyRecording(ctx, videoID, kidID); err != nil {
				return err
			}
		}

		recording := &models.VoiceRecording{
			RecordedAt:   now,
			Duration:     rec.Duration,
			AudioPayload: rec.AudioPayload,
		}
		if err := tx.Progress.AddRecording(ctx, videoID, kidID, recording); err != nil {
			return err
		}

		first, err = tx.Progress.MarkWatched(ctx, videoID, kidID, now)
		if err != nil {
			return err
		}
		if first {
			ok, err := tx.Videos.IncrementViews(ctx, videoID, models.MaxViews)
			if err != nil {
				return err
			}
			if !ok {
				return ErrViewCapReached
			}
		}

		kidName, videoURL = kid.Name, video.URL
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrViewCapReached) {
			metrics.Completions.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	outcome := "rewatch"
	if first {
		outcome = "first"
	}
	metrics.Completions.WithLabelValues(outcome).Inc()

	s.notifyReview(ctx, owner, kidName, videoURL, !first)

	video, err := s.store.Videos.GetOwnerVideo(ctx, owner, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload video: %w", err)
	}
	if video == nil {
		return nil, ErrVideoNotFound
	}
	view := video.ForKid(kidID)
	return &view, nil
}

// notifyReview tells the guardian about a new recording. Failures are logged.
func (s *ProgressService) notifyReview(ctx context.Context, owner, kidName, videoURL string, rewatch bool) {
	if s.notifier == nil {
		return
	}

	account, err := s.store.Accounts.GetByID(ctx, owner)
	if err != nil {
		logging.Logger.Warn().Err(err).Str("owner", owner).Msg("Failed to load account for review notice")
		return
	}
	email := ""
	if account != nil {
		email = account.Email
	}

	notice := notify.ReviewNotice{OwnerEmail: email, KidName: kidName, VideoURL: videoURL, Rewatch: rewatch}
	if err := s.notifier.NotifyReview(ctx, notice); err != nil {
		logging.Logger.Warn().Err(err).Str("owner", owner).Msg("Failed to send review notice")
	}
}

// MarkWatchedAsKid is MarkWatched with the owner taken from the kid record
func (s *ProgressService) MarkWatchedAsKid(ctx context.Context, kidID, videoID string, rec RecordingInput) (*models.Video, error) {
	kid, err := s.kids.ResolveKid(ctx, kidID)
	if err != nil {
		return nil, err
	}
	return s.MarkWatched(ctx, kid.UserID, videoID, kid.ID, rec)
}

// SavePosition stores the playback position. Forward steps shorter than
// MaxCountedIncrement are added to today's watch time; seeks and rewinds
// only move the position.
func (s *ProgressService) SavePosition(ctx context.Context, owner, videoID, kidID string, position, duration float64) error {
	if err := validation.ValidateNonNegative("position", position); err != nil {
		return err
	}
	day := s.now().UTC().Format(dayLayout)

	return s.store.InTx(ctx, func(tx *repository.Store) error {
		video, err := tx.Videos.GetOwnerVideoRow(ctx, owner, videoID)
		if err != nil {
			return err
		}
		if video == nil {
			return ErrVideoNotFound
		}
		row, err := tx.Progress.GetProgress(ctx, videoID, kidID)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrKidNotAssigned
		}

		last := 0.0
		if row.Progress.LastPosition != nil {
			last = *row.Progress.LastPosition
		}
		increment := position - last
		if increment < 0 {
			increment = 0
		}
		if increment > 0 && increment < models.MaxCountedIncrement {
			if err := tx.Progress.AddDailyWatchTime(ctx, videoID, kidID, day, increment); err != nil {
				return err
			}
		}

		return tx.Progress.UpdatePosition(ctx, videoID, kidID, position, duration)
	})
}

// SavePositionAsKid is SavePosition with the owner taken from the kid record
func (s *ProgressService) SavePositionAsKid(ctx context.Context, kidID, videoID string, position, duration float64) error {
	kid, err := s.kids.ResolveKid(ctx, kidID)
	if err != nil {
		return err
	}
	return s.SavePosition(ctx, kid.UserID, videoID, kid.ID, position, duration)
}

// KidBadge counts the kid's assigned videos that are not watched yet
func (s *ProgressService) KidBadge(ctx context.Context, kidID string) (int, error) {
	kid, err := s.kids.ResolveKid(ctx, kidID)
	if err != nil {
		return 0, err
	}
	return s.store.Progress.CountUnwatched(ctx, kid.ID)
}

// ParentBadge counts completions the owner has not reviewed
func (s *ProgressService) ParentBadge(ctx context.Context, owner string) (int, error) {
	return s.store.Progress.CountUnreviewed(ctx, owner)
}

// ClearParentBadge marks every unreviewed completion as reviewed and returns
// how many were cleared
func (s *ProgressService) ClearParentBadge(ctx context.Context, owner string) (int, error) {
	n, err := s.store.Progress.MarkReviewed(ctx, owner)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
