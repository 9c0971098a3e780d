package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"kidsvideohub/internal/logging"
	"kidsvideohub/internal/models"
	"kidsvideohub/internal/repository"
	"kidsvideohub/internal/validation"
)

// KidService handles kid profiles and keeps video assignments in step with them
type KidService struct {
	store *repository.Store
	now   Clock
}

// NewKidService creates a new kid service
func NewKidService(store *repository.Store, clock Clock) *KidService {
	return &KidService{store: store, now: clockOrDefault(clock)}
}

// ListKids retrieves all kids of an owner
func (s *KidService) ListKids(ctx context.Context, owner string) ([]models.Kid, error) {
	kids, err := s.store.Kids.GetOwnerKids(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list kids: %w", err)
	}
	if kids == nil {
		kids = []models.Kid{}
	}
	return kids, nil
}

// GetKid retrieves one of the owner's kids
func (s *KidService) GetKid(ctx context.Context, owner, kidID string) (*models.Kid, error) {
	kid, err := s.store.Kids.GetOwnerKid(ctx, owner, kidID)
	if err != nil {
		return nil, fmt.Errorf("failed to get kid: %w", err)
	}
	if kid == nil {
		return nil, ErrKidNotFound
	}
	return kid, nil
}

// ResolveKid looks a kid up by id alone. Kid ids act as capability tokens
// for the kid-facing endpoints.
func (s *KidService) ResolveKid(ctx context.Context, kidID string) (*models.Kid, error) {
	kid, err := s.store.Kids.GetKidByID(ctx, kidID)
	if err != nil {
		return nil, fmt.Errorf("failed to get kid: %w", err)
	}
	if kid == nil {
		return nil, ErrKidNotFound
	}
	return kid, nil
}

// CreateKid adds a kid and assigns every existing video of the owner to it
func (s *KidService) CreateKid(ctx context.Context, owner, name, avatar string) (*models.Kid, error) {
	if err := validation.ValidateKidName(name); err != nil {
		return nil, err
	}

	kid := &models.Kid{
		UserID:    owner,
		Name:      strings.TrimSpace(name),
		Avatar:    avatar,
		CreatedAt: s.now().UTC(),
	}

	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		kids, err := tx.Kids.GetOwnerKids(ctx, owner)
		if err != nil {
			return err
		}
		if len(kids) >= models.MaxKidsPerOwner {
			return ErrKidLimitReached
		}
		if nameTaken(kids, kid.Name, "") {
			return ErrDuplicateKidName
		}

		if err := tx.Kids.CreateKid(ctx, kid); err != nil {
			return err
		}

		videoIDs, err := tx.Videos.GetOwnerVideoIDs(ctx, owner)
		if err != nil {
			return err
		}
		for _, videoID := range videoIDs {
			if err := tx.Progress.AssignKid(ctx, videoID, kid.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kid, nil
}

// UpdateKid renames a kid and changes its avatar
func (s *KidService) UpdateKid(ctx context.Context, owner, kidID, name, avatar string) (*models.Kid, error) {
	if err := validation.ValidateKidName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	var updated *models.Kid
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		kid, err := tx.Kids.GetOwnerKid(ctx, owner, kidID)
		if err != nil {
			return err
		}
		if kid == nil {
			return ErrKidNotFound
		}

		kids, err := tx.Kids.GetOwnerKids(ctx, owner)
		if err != nil {
			return err
		}
		if nameTaken(kids, name, kidID) {
			return ErrDuplicateKidName
		}

		if err := tx.Kids.UpdateKid(ctx, kidID, name, avatar); err != nil {
			return err
		}
		kid.Name = name
		kid.Avatar = avatar
		updated = kid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteKid removes a kid together with its assignments and progress
func (s *KidService) DeleteKid(ctx context.Context, owner, kidID string) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		kid, err := tx.Kids.GetOwnerKid(ctx, owner, kidID)
		if err != nil {
			return err
		}
		if kid == nil {
			return ErrKidNotFound
		}
		if err := tx.Progress.DeleteKidProgress(ctx, owner, kidID); err != nil {
			return err
		}
		return tx.Kids.DeleteKid(ctx, kidID)
	})
}

type mergeOp int

const (
	opMove mergeOp = iota
	opDelete
	opSetAssigned
)

// mergeStep is one write of a duplicate-kid merge
type mergeStep struct {
	op       mergeOp
	videoID  string
	from     string
	to       string
	assigned bool
}

// CleanupDuplicateKids merges kids sharing a normalized name into the one
// with the smallest id. The whole plan is computed before anything is
// written, and applied in a single transaction.
func (s *KidService) CleanupDuplicateKids(ctx context.Context, owner string) (*models.CleanupReport, error) {
	report := &models.CleanupReport{KeptKids: []string{}, RemovedKids: []string{}}

	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		kids, err := tx.Kids.GetOwnerKids(ctx, owner)
		if err != nil {
			return err
		}

		groups := duplicateGroups(kids)
		if len(groups) == 0 {
			return nil
		}

		videos, err := tx.Videos.GetOwnerVideos(ctx, owner)
		if err != nil {
			return err
		}

		var steps []mergeStep
		for _, v := range videos {
			videoSteps := planVideoMerge(v, groups)
			if len(videoSteps) > 0 {
				report.VideosUpdated++
				steps = append(steps, videoSteps...)
			}
		}

		for _, step := range steps {
			if err := applyMergeStep(ctx, tx, step); err != nil {
				return err
			}
		}

		for _, g := range groups {
			report.KeptKids = append(report.KeptKids, g[0])
			for _, dup := range g[1:] {
				if err := tx.Kids.DeleteKid(ctx, dup); err != nil {
					return err
				}
				report.RemovedKids = append(report.RemovedKids, dup)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(report.RemovedKids) > 0 {
		logging.Logger.Info().
			Str("owner", owner).
			Strs("removed", report.RemovedKids).
			Int("videos_updated", report.VideosUpdated).
			Msg("Merged duplicate kids")
	}
	return report, nil
}

// duplicateGroups returns the ids of kids sharing a normalized name, keeper
// first, for every name held by more than one kid
func duplicateGroups(kids []models.Kid) [][]string {
	byName := make(map[string][]string)
	for _, kid := range kids {
		key := models.NormalizeKidName(kid.Name)
		byName[key] = append(byName[key], kid.ID)
	}

	var groups [][]string
	for _, ids := range byName {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		groups = append(groups, ids)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

// planVideoMerge folds each duplicate's entry on v into the keeper. The
// duplicate's progress replaces the keeper's unless the keeper has watched.
func planVideoMerge(v models.Video, groups [][]string) []mergeStep {
	var steps []mergeStep
	for _, g := range groups {
		keeper := g[0]
		keeperAssigned, keeperHas := v.Assigned[keeper]
		keeperWatched := keeperHas && v.Progress[keeper] != nil && v.Progress[keeper].Watched

		for _, dup := range g[1:] {
			dupAssigned, dupHas := v.Assigned[dup]
			if !dupHas {
				continue
			}
			dupWatched := v.Progress[dup] != nil && v.Progress[dup].Watched
			merged := keeperAssigned || dupAssigned

			switch {
			case !keeperHas:
				steps = append(steps, mergeStep{op: opMove, videoID: v.ID, from: dup, to: keeper})
				keeperHas, keeperAssigned, keeperWatched = true, dupAssigned, dupWatched
			case !keeperWatched:
				steps = append(steps,
					mergeStep{op: opDelete, videoID: v.ID, from: keeper},
					mergeStep{op: opMove, videoID: v.ID, from: dup, to: keeper},
					mergeStep{op: opSetAssigned, videoID: v.ID, to: keeper, assigned: merged},
				)
				keeperAssigned, keeperWatched = merged, dupWatched
			default:
				steps = append(steps,
					mergeStep{op: opSetAssigned, videoID: v.ID, to: keeper, assigned: merged},
					mergeStep{op: opDelete, videoID: v.ID, from: dup},
				)
				keeperAssigned = merged
			}
		}
	}
	return steps
}

func applyMergeStep(ctx context.Context, tx *repository.Store, step mergeStep) error {
	switch step.op {
	case opMove:
		return tx.Progress.MovePair(ctx, step.videoID, step.from, step.to)
	case opDelete:
		return tx.Progress.DeletePair(ctx, step.videoID, step.from)
	case opSetAssigned:
		return tx.Progress.SetAssigned(ctx, step.videoID, step.to, step.assigned)
	}
	return fmt.Errorf("unknown merge step %d", step.op)
}

func nameTaken(kids []models.Kid, name, exceptID string) bool {
	want := models.NormalizeKidName(name)
	for _, kid := range kids {
		if kid.ID != exceptID && models.NormalizeKidName(kid.Name) == want {
			return true
		}
	}
	return false
}
