// Package moderation holds the product and review status rules.
// The functions are pure; callers persist the returned status.
package moderation

import (
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/metrics"
)

// Action is a moderation or authoring action on a product or review
type Action string

const (
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ProductTransition returns the status a product moves to when actor applies action.
// Approve and reject are admin-only and only leave pending. An owner edit resets the
// product to pending; an admin edit keeps the current status.
func ProductTransition(actor *domain.Actor, p *domain.Product, action Action) (domain.ProductStatus, error) {
	switch action {
	case ActionCreate:
		if err := domain.RequireActor(actor); err != nil {
			return "", err
		}
		return domain.ProductPending, nil

	case ActionEdit:
		if err := CanEditProduct(actor, p); err != nil {
			return "", err
		}
		if actor.IsAdmin() {
			return p.Status, nil
		}
		return domain.ProductPending, nil

	case ActionApprove, ActionReject:
		if err := domain.RequireAdmin(actor); err != nil {
			return "", err
		}
		if p.Status != domain.ProductPending {
			return "", domain.Conflict("product is %s, only pending products can be moderated", p.Status)
		}
		if action == ActionApprove {
			return domain.ProductApproved, nil
		}
		return domain.ProductRejected, nil
	}
	return "", domain.Invalid("unknown action %q", action)
}

// ReviewTransition returns the status a review moves to when actor applies action.
// Created and owner-edited reviews take defaultStatus.
func ReviewTransition(actor *domain.Actor, r *domain.Review, action Action, defaultStatus domain.ReviewStatus) (domain.ReviewStatus, error) {
	if !defaultStatus.Valid() || defaultStatus == domain.ReviewRejected {
		return "", domain.Invalid("review default status %q", defaultStatus)
	}

	switch action {
	case ActionCreate:
		if err := domain.RequireActor(actor); err != nil {
			return "", err
		}
		if err := validRating(r.Rating); err != nil {
			return "", err
		}
		return defaultStatus, nil

	case ActionEdit:
		if err := CanEditReview(actor, r); err != nil {
			return "", err
		}
		if err := validRating(r.Rating); err != nil {
			return "", err
		}
		return defaultStatus, nil

	case ActionApprove, ActionReject:
		if err := domain.RequireAdmin(actor); err != nil {
			return "", err
		}
		if r.Status != domain.ReviewPending {
			return "", domain.Conflict("review is %s, only pending reviews can be moderated", r.Status)
		}
		if action == ActionApprove {
			return domain.ReviewApproved, nil
		}
		return domain.ReviewRejected, nil
	}
	return "", domain.Invalid("unknown action %q", action)
}

// CanEditProduct allows the submitter and admins
func CanEditProduct(actor *domain.Actor, p *domain.Product) error {
	if err := domain.RequireActor(actor); err != nil {
		return err
	}
	if !actor.Owns(p.SubmittedBy) && !actor.IsAdmin() {
		return domain.Denied("only the submitter or an admin may change this product")
	}
	return nil
}

// CanEditReview allows the author only
func CanEditReview(actor *domain.Actor, r *domain.Review) error {
	if err := domain.RequireActor(actor); err != nil {
		return err
	}
	if !actor.Owns(r.UserID) {
		return domain.Denied("only the author may change this review")
	}
	return nil
}

// AffectsRating reports whether moving from before to after changes the product's rating
// aggregate. A nil review stands for one that does not exist.
func AffectsRating(before, after *domain.Review) bool {
	if before.Counted() != after.Counted() {
		return true
	}
	return before.Counted() && before.Rating != after.Rating
}

// Record counts a committed transition
func Record(entity string, action Action, status string) {
	metrics.ModerationTransitions.WithLabelValues(entity, string(action), status).Inc()
}

func validRating(rating int) error {
	if rating < 1 || rating > 5 {
		return domain.Invalid("rating must be between 1 and 5")
	}
	return nil
}
