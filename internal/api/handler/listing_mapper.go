package handler

import (
	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

// --- Request → Service input ---

func toListingDraft(req createListingRequest) domain.ListingDraft {
	return domain.ListingDraft{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    domain.Category(req.Category),
		ImageRef:    req.ImageRef,
	}
}

// toListingPatch merges the body with the version taken from If-Match, which
// wins when both are present.
func toListingPatch(req updateListingRequest, ifMatch int64) domain.ListingPatch {
	patch := domain.ListingPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		ImageRef:    req.ImageRef,
	}
	if req.Category != nil {
		cat := domain.Category(*req.Category)
		patch.Category = &cat
	}
	if req.Version != nil {
		patch.ExpectedVersion = *req.Version
	}
	if ifMatch > 0 {
		patch.ExpectedVersion = ifMatch
	}
	return patch
}

// --- Service result → HTTP response ---

func toListingResponse(l domain.Listing, images ports.ImageStore, actor *domain.User) listingResponse {
	resp := listingResponse{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price.StringFixed(2),
		Category:    string(l.Category),
		ImageRef:    l.ImageRef,
		Seller:      l.Seller,
		Version:     l.Version,
		CreatedAt:   l.CreatedAt.UTC(),
		UpdatedAt:   l.UpdatedAt.UTC(),
		CanEdit:     domain.CanMutate(l, actor),
	}
	if l.ImageRef != "" && images != nil {
		resp.ImageURL = images.Resolve(l.ImageRef)
	}
	return resp
}

func toListingsResponse(ls []domain.Listing, images ports.ImageStore, actor *domain.User) listingsResponse {
	items := make([]listingResponse, len(ls))
	for i, l := range ls {
		items[i] = toListingResponse(l, images, actor)
	}
	return listingsResponse{Items: items, Count: len(items)}
}
