package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ecofinds/marketplace/internal/core/catalog"
	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

// maxReplaceAttempts bounds the re-read loop of unconditional updates racing
// with other writers.
const maxReplaceAttempts = 3

type listingService struct {
	repo      ports.ListingRepository
	publisher ports.EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewListingService returns the product store. publisher may be nil.
func NewListingService(repo ports.ListingRepository, publisher ports.EventPublisher, log zerolog.Logger) ports.ListingService {
	return &listingService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *listingService) Create(ctx context.Context, actor *domain.User, draft domain.ListingDraft) (*domain.Listing, error) {
	if actor == nil || actor.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	listing := &domain.Listing{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Price:       draft.Price,
		Category:    draft.Category,
		ImageRef:    draft.ImageRef,
		Seller:      actor.AsSeller(),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		s.log.Error().Err(err).Str("seller_id", actor.ID).Msg("failed to create listing")
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.log.Info().Str("listing_id", listing.ID).Str("seller_id", actor.ID).Msg("listing created")
	s.publish(ctx, domain.NewListingEvent(domain.SubjectListingCreated, *listing, now))
	return listing, nil
}

func (s *listingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *listingService) ListAll(ctx context.Context) ([]domain.Listing, error) {
	return s.repo.List(ctx)
}

func (s *listingService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	return s.repo.ListBySeller(ctx, ownerID)
}

// Browse filters the latest snapshot of the store.
func (s *listingService) Browse(ctx context.Context, q catalog.Query) ([]domain.Listing, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(all, q), nil
}

// Update applies patch on behalf of actor. Without an expected version the
// last writer wins; concurrent replaces are retried against the fresh record.
func (s *listingService) Update(ctx context.Context, id string, actor *domain.User, patch domain.ListingPatch) (*domain.Listing, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !domain.CanMutate(*current, actor) {
			return nil, domain.ErrForbidden
		}
		if patch.ExpectedVersion != 0 && patch.ExpectedVersion != current.Version {
			return nil, domain.ErrVersionConflict
		}
		if patch.Empty() {
			return current, nil
		}

		next, err := patch.Apply(*current)
		if err != nil {
			return nil, err
		}
		next.Version = current.Version + 1
		next.UpdatedAt = s.now()

		err = s.repo.Replace(ctx, &next, current.Version)
		if errors.Is(err, domain.ErrVersionConflict) && patch.ExpectedVersion == 0 && attempt < maxReplaceAttempts {
			s.log.Debug().Str("listing_id", id).Int("attempt", attempt).Msg("concurrent update, retrying")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update listing: %w", err)
		}

		s.log.Info().Str("listing_id", id).Int64("version", next.Version).Msg("listing updated")
		s.publish(ctx, domain.NewListingEvent(domain.SubjectListingUpdated, next, next.UpdatedAt))
		return &next, nil
	}
}

// Delete removes the listing. An absent listing yields false without error.
func (s *listingService) Delete(ctx context.Context, id string, actor *domain.User) (bool, error) {
	current, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrListingNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !domain.CanMutate(*current, actor) {
		return false, domain.ErrForbidden
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete listing: %w", err)
	}
	if removed {
		s.log.Info().Str("listing_id", id).Msg("listing deleted")
		s.publish(ctx, domain.NewListingEvent(domain.SubjectListingDeleted, *current, s.now()))
	}
	return removed, nil
}

// RenameSeller copies seller onto every listing it owns. Listings deleted while
// the rename runs are skipped.
func (s *listingService) RenameSeller(ctx context.Context, seller domain.Seller) (int, error) {
	owned, err := s.repo.ListBySeller(ctx, seller.ID)
	if err != nil {
		return 0, err
	}

	renamed := 0
	for _, l := range owned {
		changed, err := s.renameOn(ctx, l, seller)
		if err != nil {
			return renamed, err
		}
		if changed {
			renamed++
		}
	}
	if renamed > 0 {
		s.log.Info().Str("seller_id", seller.ID).Int("listings", renamed).Msg("seller renamed")
	}
	return renamed, nil
}

func (s *listingService) renameOn(ctx context.Context, current domain.Listing, seller domain.Seller) (bool, error) {
	for attempt := 1; ; attempt++ {
		if current.Seller == seller {
			return false, nil
		}
		next := current
		next.Seller = seller
		next.Version = current.Version + 1
		next.UpdatedAt = s.now()

		err := s.repo.Replace(ctx, &next, current.Version)
		if errors.Is(err, domain.ErrListingNotFound) {
			return false, nil
		}
		if errors.Is(err, domain.ErrVersionConflict) && attempt < maxReplaceAttempts {
			fresh, ferr := s.repo.FindByID(ctx, current.ID)
			if errors.Is(ferr, domain.ErrListingNotFound) {
				return false, nil
			}
			if ferr != nil {
				return false, ferr
			}
			current = *fresh
			continue
		}
		if err != nil {
			return false, fmt.Errorf("rename seller on listing %s: %w", current.ID, err)
		}

		s.publish(ctx, domain.NewListingEvent(domain.SubjectListingUpdated, next, next.UpdatedAt))
		return true, nil
	}
}

// publish is best effort; the mutation is already acknowledged.
func (s *listingService) publish(ctx context.Context, event domain.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("subject", event.Subject).Str("key", event.Key).Msg("failed to publish event")
	}
}
