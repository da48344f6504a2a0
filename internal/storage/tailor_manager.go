package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/repository"
)

// TailorManager owns the onboarding gate. Approval is a prerequisite the
// login path must re-check on every authentication, not a cached grant.
type TailorManager struct {
	repo   TailorRepository
	tx     *transitioner
	logger *zap.Logger
}

func NewTailorManager(repo TailorRepository, bus *lifecycle.Bus, logger *zap.Logger) *TailorManager {
	return &TailorManager{
		repo:   repo,
		tx:     newTransitioner(bus, logger),
		logger: logger,
	}
}

type RegisterTailorInput struct {
	Name        string
	Email       string
	Phone       string
	ShopName    string
	ShopAddress string
	Password    string
}

// Register files a new application, always starting pending. A duplicate
// contact identity is a conflict regardless of the prior application's
// status.
func (m *TailorManager) Register(ctx context.Context, in RegisterTailorInput) (*repository.Tailor, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", lifecycle.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tailor := &repository.Tailor{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        strings.ToLower(in.Email),
		Phone:        in.Phone,
		ShopName:     in.ShopName,
		ShopAddress:  in.ShopAddress,
		PasswordHash: string(hashed),
		Status:       string(lifecycle.TailorPending),
		CreatedAt:    time.Now().UTC(),
	}

	if err := m.repo.Create(ctx, tailor); err != nil {
		return nil, err
	}

	m.logger.Info("tailor application filed",
		zap.String("id", tailor.ID),
		zap.String("email", tailor.Email))
	return tailor, nil
}

func (m *TailorManager) GetTailor(ctx context.Context, id string) (*repository.Tailor, error) {
	return m.repo.GetByID(ctx, id)
}

// ReviewApplication decides a pending application. The conditional write
// requires status pending, so the gate closes exactly once.
func (m *TailorManager) ReviewApplication(ctx context.Context, tailorID, decision, reviewer string) (*repository.Tailor, error) {
	if tailorID == "" {
		return nil, fmt.Errorf("%w: tailor id is required", lifecycle.ErrValidation)
	}

	tailor, err := m.repo.GetByID(ctx, tailorID)
	if err != nil {
		return nil, err
	}

	next, err := m.tx.execute(ctx, transition{
		kind:      lifecycle.KindTailor,
		event:     lifecycle.EventTailorStatusChanged,
		graph:     lifecycle.TailorGraph,
		entityID:  tailor.ID,
		display:   tailor.Email,
		recipient: tailor.ID,
		actor:     reviewer,
		current:   lifecycle.Status(tailor.Status),
		requested: decision,
		write: func(ctx context.Context, from, to lifecycle.Status, now time.Time) (bool, error) {
			var approvedAt *time.Time
			var approvedBy *string
			if to == lifecycle.TailorApproved {
				approvedAt = &now
				approvedBy = &reviewer
			}
			return m.repo.Review(ctx, tailor.ID, string(to), approvedAt, approvedBy)
		},
	})
	if err != nil {
		return nil, err
	}

	tailor.Status = string(next)
	if next == lifecycle.TailorApproved {
		now := time.Now().UTC()
		tailor.ApprovedAt = &now
		tailor.ApprovedBy = &reviewer
	}
	return tailor, nil
}
