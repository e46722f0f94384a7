package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/infrastructure/persistence/models"
	"github.com/licensegate/licensegate/internal/shared/db"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

// ActivationLedgerImpl keeps licenses.current_activations equal to the
// number of active activation rows. Every mutation locks the license row and
// moves the counter and the activation row in one transaction.
type ActivationLedgerImpl struct {
	db        *gorm.DB
	txManager *db.TransactionManager
	logger    logger.Interface
}

func NewActivationLedger(gdb *gorm.DB, logger logger.Interface) license.ActivationLedger {
	return &ActivationLedgerImpl{
		db:        gdb,
		txManager: db.NewTransactionManager(gdb),
		logger:    logger,
	}
}

func (r *ActivationLedgerImpl) Activate(ctx context.Context, licenseID uint, machine license.MachineInfo) (*license.Activation, bool, error) {
	if err := machine.Validate(); err != nil {
		return nil, false, err
	}

	var (
		result  *license.Activation
		created bool
	)

	err := r.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		tx := db.GetTxFromContext(txCtx, r.db)

		lic, err := r.lockLicense(tx, licenseID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		var existing models.ActivationModel
		err = tx.Where("license_id = ? AND machine_id = ?", licenseID, machine.MachineID).Take(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load activation: %w", err)
		}

		if found && existing.IsActive {
			updates := machineUpdates(machine)
			updates["last_seen_at"] = now
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to touch activation: %w", err)
			}
			applyMachine(&existing, machine)
			existing.LastSeenAt = now
			result = activationToEntity(&existing)
			return nil
		}

		claim := tx.Model(&models.LicenseModel{}).
			Where("id = ? AND current_activations < max_activations", licenseID).
			UpdateColumn("current_activations", gorm.Expr("current_activations + ?", 1))
		if claim.Error != nil {
			return fmt.Errorf("failed to claim activation slot: %w", claim.Error)
		}
		if claim.RowsAffected == 0 {
			return &license.SlotsExhaustedError{
				Activations:    lic.CurrentActivations,
				MaxActivations: lic.MaxActivations,
			}
		}

		if found {
			updates := machineUpdates(machine)
			updates["is_active"] = true
			updates["activated_at"] = now
			updates["last_seen_at"] = now
			updates["deactivated_at"] = nil
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to reactivate machine: %w", err)
			}
			applyMachine(&existing, machine)
			existing.IsActive = true
			existing.ActivatedAt = now
			existing.LastSeenAt = now
			existing.DeactivatedAt = nil
			result = activationToEntity(&existing)
		} else {
			model := &models.ActivationModel{
				LicenseID:   licenseID,
				MachineID:   machine.MachineID,
				Hostname:    machine.Hostname,
				IPAddress:   machine.IPAddress,
				IsActive:    true,
				ActivatedAt: now,
				LastSeenAt:  now,
			}
			if err := tx.Create(model).Error; err != nil {
				return fmt.Errorf("failed to create activation: %w", err)
			}
			result = activationToEntity(model)
		}
		created = true
		return nil
	})
	if err != nil {
		var exhausted *license.SlotsExhaustedError
		if !errors.As(err, &exhausted) && !errors.Is(err, license.ErrLicenseNotFound) {
			r.logger.Errorw("activation failed", "license_id", licenseID, "error", err)
		}
		return nil, false, err
	}

	if created {
		r.logger.Infow("machine activated", "license_id", licenseID, "activation_id", result.ID())
	}
	return result, created, nil
}

func (r *ActivationLedgerImpl) Deactivate(ctx context.Context, licenseID uint, machineID string) (bool, error) {
	var released bool

	err := r.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		tx := db.GetTxFromContext(txCtx, r.db)

		if _, err := r.lockLicense(tx, licenseID); err != nil {
			return err
		}

		now := time.Now().UTC()
		res := tx.Model(&models.ActivationModel{}).
			Where("license_id = ? AND machine_id = ? AND is_active = ?", licenseID, machineID, true).
			Updates(map[string]interface{}{
				"is_active":      false,
				"deactivated_at": now,
				"updated_at":     now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to deactivate machine: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		// Floor at zero so a drifted counter can never go negative.
		if err := tx.Model(&models.LicenseModel{}).
			Where("id = ?", licenseID).
			UpdateColumn("current_activations",
				gorm.Expr("CASE WHEN current_activations > 0 THEN current_activations - 1 ELSE 0 END")).Error; err != nil {
			return fmt.Errorf("failed to release activation slot: %w", err)
		}
		released = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, license.ErrLicenseNotFound) {
			r.logger.Errorw("deactivation failed", "license_id", licenseID, "error", err)
		}
		return false, err
	}

	if released {
		r.logger.Infow("machine deactivated", "license_id", licenseID)
	}
	return released, nil
}

func (r *ActivationLedgerImpl) ListActive(ctx context.Context, licenseID uint) ([]*license.Activation, error) {
	var rows []models.ActivationModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("license_id = ? AND is_active = ?", licenseID, true).
		Order("activated_at ASC").
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list activations", "license_id", licenseID, "error", err)
		return nil, fmt.Errorf("failed to list activations: %w", err)
	}

	out := make([]*license.Activation, 0, len(rows))
	for i := range rows {
		out = append(out, activationToEntity(&rows[i]))
	}
	return out, nil
}

// lockLicense takes a row lock on the license for the rest of the
// transaction. SQLite serializes writers and has no row locks.
func (r *ActivationLedgerImpl) lockLicense(tx *gorm.DB, licenseID uint) (*models.LicenseModel, error) {
	q := tx.Select("id", "current_activations", "max_activations")
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var lic models.LicenseModel
	if err := q.First(&lic, licenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, license.ErrLicenseNotFound
		}
		return nil, fmt.Errorf("failed to lock license: %w", err)
	}
	return &lic, nil
}

func machineUpdates(m license.MachineInfo) map[string]interface{} {
	updates := map[string]interface{}{}
	if m.Hostname != "" {
		updates["hostname"] = m.Hostname
	}
	if m.IPAddress != "" {
		updates["ip_address"] = m.IPAddress
	}
	return updates
}

func applyMachine(m *models.ActivationModel, machine license.MachineInfo) {
	if machine.Hostname != "" {
		m.Hostname = machine.Hostname
	}
	if machine.IPAddress != "" {
		m.IPAddress = machine.IPAddress
	}
}

func activationToEntity(m *models.ActivationModel) *license.Activation {
	return license.ReconstructActivation(
		m.ID,
		m.LicenseID,
		m.MachineID,
		m.Hostname,
		m.IPAddress,
		m.IsActive,
		m.ActivatedAt,
		m.LastSeenAt,
		m.DeactivatedAt,
	)
}
