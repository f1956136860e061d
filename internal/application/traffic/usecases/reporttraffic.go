package usecases

import (
	"context"
	"fmt"

	"meridian/internal/domain/entitlement"
	"meridian/internal/domain/node"
	"meridian/internal/domain/user"
	"meridian/internal/shared/biztime"
	"meridian/internal/shared/db"
	"meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// ReportTrafficCommand is one usage report from a node agent.
type ReportTrafficCommand struct {
	UUID     string
	NodeID   uint
	Upload   int64
	Download int64
}

// ReportTrafficResult contains the settlement outcome
type ReportTrafficResult struct {
	UserID       uint
	SettledBytes int64
	DroppedBytes int64
	Entitlements int
}

// MinuteRecorder is the best-effort per-minute traffic sink.
type MinuteRecorder interface {
	RecordMinute(ctx context.Context, userID uint, upload, download int64) error
}

// ReportTrafficUseCase settles reported usage against the entitlement ledger.
// Usage is apportioned across the user's node-eligible entitlements in
// service expiry order, draining the soonest-to-expire first; a finite row
// that reaches its cap flips to exhausted and the walk continues. Excess
// beyond all headroom is dropped, never carried negative. The relational
// writes commit in one transaction; the minute-series cache is written after
// commit and failures there are only logged.
type ReportTrafficUseCase struct {
	clientRepo      user.ClientRepository
	userRepo        user.Repository
	entitlementRepo entitlement.Repository
	nodeTrafficRepo node.TrafficRepository
	txManager       *db.TransactionManager
	minuteRecorder  MinuteRecorder
	logger          logger.Interface
}

// NewReportTrafficUseCase creates a new instance of ReportTrafficUseCase
func NewReportTrafficUseCase(
	clientRepo user.ClientRepository,
	userRepo user.Repository,
	entitlementRepo entitlement.Repository,
	nodeTrafficRepo node.TrafficRepository,
	txManager *db.TransactionManager,
	minuteRecorder MinuteRecorder,
	logger logger.Interface,
) *ReportTrafficUseCase {
	return &ReportTrafficUseCase{
		clientRepo:      clientRepo,
		userRepo:        userRepo,
		entitlementRepo: entitlementRepo,
		nodeTrafficRepo: nodeTrafficRepo,
		txManager:       txManager,
		minuteRecorder:  minuteRecorder,
		logger:          logger,
	}
}

// Execute settles the report.
func (uc *ReportTrafficUseCase) Execute(ctx context.Context, cmd ReportTrafficCommand) (*ReportTrafficResult, error) {
	if cmd.UUID == "" {
		return nil, errors.NewValidationError("uuid is required")
	}
	if cmd.NodeID == 0 {
		return nil, errors.NewValidationError("node_id is required")
	}
	total := cmd.Upload + cmd.Download
	if cmd.Upload < 0 || cmd.Download < 0 || total <= 0 {
		return nil, errors.NewValidationError("traffic must be positive")
	}

	client, err := uc.clientRepo.GetByUUID(ctx, cmd.UUID)
	if err != nil {
		if err == user.ErrClientNotFound {
			return nil, errors.NewNotFoundError("unknown client uuid")
		}
		return nil, err
	}
	if !client.Enabled() {
		return nil, errors.NewForbiddenError("client uuid disabled")
	}

	var result ReportTrafficResult
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		now := biztime.NowUTC()

		ents, err := uc.entitlementRepo.ListUsableForNode(txCtx, client.UserID(), cmd.NodeID, now)
		if err != nil {
			return err
		}
		if len(ents) == 0 {
			return errors.NewConflictError("no_entitlement_for_node",
				fmt.Sprintf("user %d has no usable entitlement for node %d", client.UserID(), cmd.NodeID))
		}

		remaining := total
		settled := int64(0)
		touched := 0
		for _, ent := range ents {
			if remaining <= 0 {
				break
			}
			consumed := ent.Consume(remaining, now)
			if consumed == 0 && ent.Status() == entitlement.StatusActive {
				continue
			}
			if err := uc.entitlementRepo.Update(txCtx, ent); err != nil {
				return err
			}
			remaining -= consumed
			settled += consumed
			touched++
		}

		if settled > 0 {
			u, err := uc.userRepo.GetByID(txCtx, client.UserID())
			if err != nil {
				return err
			}
			u.ConsumeCompatTraffic(settled)
			if err := uc.userRepo.Update(txCtx, u); err != nil {
				return err
			}

			date := biztime.BizDate(now)
			if err := uc.nodeTrafficRepo.AddDaily(txCtx, cmd.NodeID, date, cmd.Upload, cmd.Download); err != nil {
				return err
			}
		}

		result = ReportTrafficResult{
			UserID:       client.UserID(),
			SettledBytes: settled,
			DroppedBytes: remaining,
			Entitlements: touched,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.SettledBytes > 0 && uc.minuteRecorder != nil {
		if err := uc.minuteRecorder.RecordMinute(ctx, result.UserID, cmd.Upload, cmd.Download); err != nil {
			uc.logger.Warnw("minute traffic sink failed",
				"user_id", result.UserID, "node_id", cmd.NodeID, "error", err)
		}
	}

	if result.DroppedBytes > 0 {
		uc.logger.Warnw("traffic exceeded entitlement headroom",
			"user_id", result.UserID,
			"node_id", cmd.NodeID,
			"settled", result.SettledBytes,
			"dropped", result.DroppedBytes,
		)
	}

	return &result, nil
}
