package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/feastly/api/internal/domain"
	"github.com/feastly/api/internal/scheduler"
)

func TestApplyTransitionUpdatesStatusAndScore(t *testing.T) {
	repo := &stubOrderRepo{findByIDResp: domain.Order{
		ID:          "ord_1",
		OrderNumber: "ORD-1-1",
		UserID:      "user-a",
		Status:      domain.OrderStatusPreparing,
		Delivery:    domain.DeliveryMetrics{QualityScore: 100},
	}}
	publisher := &capturePublisher{}
	now := time.Date(2025, 3, 1, 10, 0, 30, 0, time.UTC)

	applier, err := NewProgressionApplier(ProgressionApplierDeps{
		Orders: repo,
		Events: publisher,
		Clock:  fixedClock(now),
	})
	if err != nil {
		t.Fatalf("new progression applier: %v", err)
	}

	score := 85
	err = applier.ApplyTransition(context.Background(), "ord_1", scheduler.Transition{
		Status:       domain.OrderStatusOutForDelivery,
		QualityScore: &score,
		Offset:       30 * time.Second,
	})
	if err != nil {
		t.Fatalf("apply transition: %v", err)
	}

	if repo.updatePatch.Status != domain.OrderStatusOutForDelivery {
		t.Fatalf("unexpected patched status: %q", repo.updatePatch.Status)
	}
	if repo.updatePatch.QualityScore == nil || *repo.updatePatch.QualityScore != 85 {
		t.Fatalf("expected quality score 85 in patch, got %v", repo.updatePatch.QualityScore)
	}
	if !repo.updatePatch.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt %v, got %v", now, repo.updatePatch.UpdatedAt)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.published))
	}
	event := publisher.published[0]
	if event.PreviousStatus != "preparing" || event.CurrentStatus != "out_for_delivery" {
		t.Fatalf("unexpected event statuses: %+v", event)
	}
}

func TestApplyTransitionPreparingKeepsScore(t *testing.T) {
	repo := &stubOrderRepo{findByIDResp: domain.Order{ID: "ord_1", Status: domain.OrderStatusConfirmed}}
	applier, err := NewProgressionApplier(ProgressionApplierDeps{Orders: repo})
	if err != nil {
		t.Fatalf("new progression applier: %v", err)
	}

	err = applier.ApplyTransition(context.Background(), "ord_1", scheduler.Transition{
		Status: domain.OrderStatusPreparing,
		Offset: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("apply transition: %v", err)
	}
	if repo.updatePatch.QualityScore != nil {
		t.Fatalf("preparing transition must not touch the quality score, got %v", *repo.updatePatch.QualityScore)
	}
}

func TestApplyTransitionReturnsRepositoryError(t *testing.T) {
	repo := &stubOrderRepo{findByIDErr: &stubRepoError{notFound: true}}
	applier, err := NewProgressionApplier(ProgressionApplierDeps{Orders: repo})
	if err != nil {
		t.Fatalf("new progression applier: %v", err)
	}

	err = applier.ApplyTransition(context.Background(), "ord_gone", scheduler.Transition{Status: domain.OrderStatusPreparing})
	if err == nil {
		t.Fatalf("expected error for deleted order")
	}
}

func TestApplyTransitionSurvivesPublishFailure(t *testing.T) {
	repo := &stubOrderRepo{findByIDResp: domain.Order{ID: "ord_1", Status: domain.OrderStatusConfirmed}}
	publisher := &capturePublisher{err: errors.New("pubsub unavailable")}
	applier, err := NewProgressionApplier(ProgressionApplierDeps{Orders: repo, Events: publisher})
	if err != nil {
		t.Fatalf("new progression applier: %v", err)
	}

	err = applier.ApplyTransition(context.Background(), "ord_1", scheduler.Transition{Status: domain.OrderStatusPreparing})
	if err != nil {
		t.Fatalf("publish failure must not fail the transition: %v", err)
	}
}

func TestDefaultProgressionPlan(t *testing.T) {
	plan := scheduler.DefaultProgression(10*time.Second, 30*time.Second, 60*time.Second, 85, 70)
	if len(plan) != 3 {
		t.Fatalf("expected 3 transitions, got %d", len(plan))
	}
	if plan[0].Status != domain.OrderStatusPreparing || plan[0].Offset != 10*time.Second || plan[0].QualityScore != nil {
		t.Fatalf("unexpected first transition: %+v", plan[0])
	}
	if plan[1].Status != domain.OrderStatusOutForDelivery || plan[1].Offset != 30*time.Second {
		t.Fatalf("unexpected second transition: %+v", plan[1])
	}
	if plan[1].QualityScore == nil || *plan[1].QualityScore != 85 {
		t.Fatalf("expected score 85 at out_for_delivery, got %v", plan[1].QualityScore)
	}
	if plan[2].Status != domain.OrderStatusDelivered || plan[2].Offset != 60*time.Second {
		t.Fatalf("unexpected third transition: %+v", plan[2])
	}
	if plan[2].QualityScore == nil || *plan[2].QualityScore != 70 {
		t.Fatalf("expected score 70 at delivered, got %v", plan[2].QualityScore)
	}
}
