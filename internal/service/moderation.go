package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/augbriz/desarrollo-FE-tp/internal/auth"
	"github.com/augbriz/desarrollo-FE-tp/internal/cache"
	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
)

// DeletedNotice is the message shown after a successful deletion.
const DeletedNotice = "review deleted"

// ReviewSource is the store API's review endpoints.
type ReviewSource interface {
	ListAll(ctx context.Context, token string) ([]domain.Review, error)
	Delete(ctx context.Context, token string, id int) error
}

// ReviewEvents publishes moderation events.
type ReviewEvents interface {
	PublishReviewDeleted(ctx context.Context, review domain.Review, deletedBy string, at time.Time) error
}

// ModerationConfig holds tunables for the moderation service.
type ModerationConfig struct {
	// Location decides where calendar months and years start.
	Location *time.Location
	// NoticeTTL is how long the post-delete notice stays visible.
	NoticeTTL time.Duration
}

// Board is what the review moderation page renders.
type Board struct {
	View     domain.View        `json:"view"`
	Filter   domain.FilterState `json:"filter"`
	Notice   *domain.Notice     `json:"notice,omitempty"`
	LoadedAt time.Time          `json:"loaded_at"`
}

// ModerationService loads an admin's reviews once, serves filtered pages
// from the cached snapshot and applies deletions locally.
type ModerationService struct {
	source   ReviewSource
	store    cache.Store
	events   ReviewEvents
	logger   *slog.Logger
	cfg      ModerationConfig
	now      func() time.Time
	locks    *keyedMutex
	inflight *inflightSet
}

// NewModerationService creates a new moderation service.
func NewModerationService(source ReviewSource, store cache.Store, events ReviewEvents, logger *slog.Logger, cfg ModerationConfig) *ModerationService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = 4 * time.Second
	}
	return &ModerationService{
		source:   source,
		store:    store,
		events:   events,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		locks:    newKeyedMutex(),
		inflight: newInflightSet(),
	}
}

func (s *ModerationService) clock() time.Time {
	return s.now().In(s.cfg.Location)
}

// Board returns the page of reviews selected by fs. The collection is
// fetched from the store API when none is cached for the caller or when
// reload is set; otherwise the cached snapshot is used.
func (s *ModerationService) Board(ctx context.Context, fs domain.FilterState, reload bool) (*Board, error) {
	snap, err := s.snapshot(ctx, reload)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	return &Board{
		View:     domain.ComputeView(snap.Reviews, fs, now),
		Filter:   fs,
		Notice:   snap.ActiveNotice(now),
		LoadedAt: snap.LoadedAt,
	}, nil
}

// Export returns every review passing fs's filters in fs's order, ignoring
// paging.
func (s *ModerationService) Export(ctx context.Context, fs domain.FilterState) ([]domain.Review, error) {
	snap, err := s.snapshot(ctx, false)
	if err != nil {
		return nil, err
	}
	return domain.FilterReviews(snap.Reviews, fs, s.clock()), nil
}

func (s *ModerationService) snapshot(ctx context.Context, reload bool) (*domain.Snapshot, error) {
	cred, err := auth.FromContext(ctx)
	if err != nil {
		reviewLoadsTotal.WithLabelValues(outcomeUnauthenticated).Inc()
		return nil, err
	}

	unlock := s.locks.Lock(cred.Owner)
	defer unlock()

	if !reload {
		snap, err := s.store.Get(ctx, cred.Owner)
		if err == nil {
			reviewLoadsTotal.WithLabelValues(outcomeCached).Inc()
			return snap, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.WarnContext(ctx, "snapshot read failed, refetching",
				slog.String("error", err.Error()),
			)
		}
	}

	reviews, err := s.source.ListAll(ctx, cred.Token)
	if err != nil {
		outcome, mapped := classifyLoadError(err)
		reviewLoadsTotal.WithLabelValues(outcome).Inc()
		s.logger.WarnContext(ctx, "failed to load reviews",
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
		return nil, mapped
	}

	snap := &domain.Snapshot{
		Owner:    cred.Owner,
		Reviews:  reviews,
		LoadedAt: s.now().UTC(),
	}
	if err := s.store.Put(ctx, snap); err != nil {
		s.logger.WarnContext(ctx, "snapshot write failed",
			slog.String("error", err.Error()),
		)
	}

	reviewLoadsTotal.WithLabelValues(outcomeOK).Inc()
	s.logger.InfoContext(ctx, "reviews loaded",
		slog.Int("count", len(reviews)),
		slog.Bool("reload", reload),
	)
	return snap, nil
}

// DeleteReview deletes a review upstream and then removes it from the
// caller's snapshot without refetching. A second delete of the same review
// by the same admin while the first is running is refused with a conflict.
func (s *ModerationService) DeleteReview(ctx context.Context, id int) error {
	cred, err := auth.FromContext(ctx)
	if err != nil {
		reviewDeletesTotal.WithLabelValues(outcomeUnauthenticated).Inc()
		return err
	}

	key := cred.Owner + "/" + strconv.Itoa(id)
	if !s.inflight.TryAcquire(key) {
		reviewDeletesTotal.WithLabelValues(outcomeConflict).Inc()
		return apperrors.Conflict(fmt.Sprintf("review %d is already being deleted", id))
	}
	defer s.inflight.Release(key)

	if err := s.source.Delete(ctx, cred.Token, id); err != nil {
		outcome, mapped := classifyDeleteError(err, id)
		reviewDeletesTotal.WithLabelValues(outcome).Inc()
		s.logger.WarnContext(ctx, "failed to delete review",
			slog.Int("review_id", id),
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
		return mapped
	}

	removed := s.removeLocally(ctx, cred.Owner, id)

	reviewDeletesTotal.WithLabelValues(outcomeOK).Inc()
	s.logger.InfoContext(ctx, "review deleted", slog.Int("review_id", id))

	if s.events == nil {
		return nil
	}
	if err := s.events.PublishReviewDeleted(ctx, removed, cred.Owner, s.now()); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.Int("review_id", id),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// removeLocally drops id from the owner's snapshot, if one is cached, and
// sets the deletion notice. It returns the removed review, or one carrying
// only the id when it was not cached.
func (s *ModerationService) removeLocally(ctx context.Context, owner string, id int) domain.Review {
	removed := domain.Review{ID: id}

	unlock := s.locks.Lock(owner)
	defer unlock()

	snap, err := s.store.Get(ctx, owner)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.WarnContext(ctx, "snapshot read failed after delete", slog.String("error", err.Error()))
		}
		return removed
	}

	if r, ok := domain.FindReview(snap.Reviews, id); ok {
		removed = r
	}
	snap.Reviews = domain.DeleteReview(snap.Reviews, id)
	snap.Notice = &domain.Notice{
		Message:   DeletedNotice,
		ExpiresAt: s.now().Add(s.cfg.NoticeTTL).UTC(),
	}

	if err := s.store.Put(ctx, snap); err != nil {
		s.logger.WarnContext(ctx, "snapshot write failed after delete", slog.String("error", err.Error()))
	}
	return removed
}

// Logout drops the caller's cached snapshot.
func (s *ModerationService) Logout(ctx context.Context) error {
	cred, err := auth.FromContext(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(cred.Owner)
	defer unlock()

	if err := s.store.Delete(ctx, cred.Owner); err != nil {
		return fmt.Errorf("drop snapshot: %w", err)
	}
	s.logger.InfoContext(ctx, "admin session closed")
	return nil
}

// classifyLoadError maps a review fetch failure onto the three outcomes the
// page distinguishes.
func classifyLoadError(err error) (string, error) {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		return outcomeUnauthenticated, apperrors.SessionExpired(err)
	case errors.Is(err, apperrors.ErrForbidden):
		return outcomeForbidden, apperrors.Forbidden("you do not have permission to moderate reviews")
	default:
		return outcomeTransient, apperrors.Upstream("REVIEWS_UNAVAILABLE", "failed to load reviews, try again", true, err)
	}
}

func classifyDeleteError(err error, id int) (string, error) {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		return outcomeUnauthenticated, apperrors.SessionExpired(err)
	case errors.Is(err, apperrors.ErrForbidden):
		return outcomeForbidden, apperrors.Forbidden("you do not have permission to delete reviews")
	case errors.Is(err, apperrors.ErrNotFound):
		return outcomeFailed, apperrors.NotFound("review", strconv.Itoa(id))
	default:
		return outcomeFailed, apperrors.Upstream("DELETE_FAILED", "failed to delete review", false, err)
	}
}
