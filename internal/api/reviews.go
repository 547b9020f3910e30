package api

import (
	"net/http"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/model"
	"github.com/erazemk/webshop/internal/policy"
	"github.com/erazemk/webshop/internal/store"
)

// ReviewsHandler handles review endpoints.
type ReviewsHandler struct {
	handler
}

// reviewRequest has no reviewer field: the reviewer is always the caller.
type reviewRequest struct {
	Type         *model.ReviewType `json:"review_type"`
	Item         optionalID        `json:"item"`
	ReviewedUser optionalID        `json:"reviewed_user"`
	Rating       *int              `json:"rating"`
	Comment      *string           `json:"comment"`
}

func (req *reviewRequest) apply(review *model.Review) {
	if req.Type != nil {
		review.Type = *req.Type
	}
	req.Item.apply(&review.ItemID)
	req.ReviewedUser.apply(&review.ReviewedUserID)
	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	setString(&review.Comment, req.Comment)
}

// List handles GET /api/reviews.
func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := store.ListReviews(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	jsonResponse(w, http.StatusOK, reviews)
}

// Create handles POST /api/reviews.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	review := &model.Review{ReviewerID: actor.UserID}
	req.apply(review)
	if err := h.Validator.Review(r.Context(), review); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := store.CreateReview(r.Context(), h.DB, review)
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("review created", "id", created.ID, "type", created.Type)
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/reviews/{id}.
func (h *ReviewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, review)
}

// Update handles PUT and PATCH /api/reviews/{id}. The merged review is checked
// against every review rule again, excluding itself from the duplicate check.
func (h *ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Policy.Authorize(ActorFrom(r.Context()), policy.Reviews, policy.ActionUpdate, existing); err != nil {
		writeError(w, r, err)
		return
	}

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	review := *existing
	if r.Method == http.MethodPut {
		review = model.Review{ID: existing.ID, ReviewerID: existing.ReviewerID, CreatedAt: existing.CreatedAt}
	}
	req.apply(&review)

	if err := h.Validator.Review(r.Context(), &review); err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.UpdateReview(r.Context(), h.DB, &review); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := store.GetReview(r.Context(), h.DB, review.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("review updated", "id", review.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/reviews/{id}.
func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Policy.Authorize(ActorFrom(r.Context()), policy.Reviews, policy.ActionDelete, existing); err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.DeleteReview(r.Context(), h.DB, existing.ID); err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("review deleted", "id", existing.ID)
	deleted(w, "review")
}

func (h *ReviewsHandler) load(r *http.Request) (*model.Review, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	review, err := store.GetReview(r.Context(), h.DB, id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, apperr.NotFound("review")
	}
	return review, nil
}
