package repository

import (
	"context"
	"fmt"
	"time"

	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/domain/user"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

const auditBatchSize = 500

// UserImportRepository commits a user import. Roles are attached to created
// users only; updates never touch passwords or role membership.
type UserImportRepository struct {
	db *gorm.DB
}

func NewUserImportRepository(db *gorm.DB) *UserImportRepository {
	return &UserImportRepository{db: db}
}

func (r *UserImportRepository) CommitUsers(ctx context.Context, batch domain.UserBatch) error {
	now := time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if batch.Set != nil {
			row := setRow(*batch.Set, now)
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create user group: %w", err)
			}
		}

		if len(batch.Fields) > 0 {
			rows := make([]models.CustomFieldDefinition, 0, len(batch.Fields))
			for _, def := range batch.Fields {
				rows = append(rows, fieldRow(def, now))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("create field definitions: %w", err)
			}
		}

		if err := createUsers(tx, batch.Created, now); err != nil {
			return err
		}

		for _, u := range batch.Updated {
			extra, err := extraJSON(u.Extra)
			if err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", u.ID.String()).Updates(map[string]any{
				"full_name":           u.FullName,
				"is_active":           u.IsActive,
				"employment_end_date": u.EmploymentEndDate,
				"asset_set_id":        uuidText(u.AssetSetID),
				"extra":               extra,
				"updated_at":          now,
			}).Error; err != nil {
				return fmt.Errorf("update user %s: %w", u.Email, err)
			}
		}

		if len(batch.Audit) > 0 {
			rows := make([]models.AuditLog, 0, len(batch.Audit))
			for _, entry := range batch.Audit {
				row, err := auditRow(entry, now)
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}
			if err := tx.CreateInBatches(&rows, auditBatchSize).Error; err != nil {
				return fmt.Errorf("create audit logs: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("commit user import: %w", err)
	}
	return nil
}

func createUsers(tx *gorm.DB, users []user.User, now time.Time) error {
	if len(users) == 0 {
		return nil
	}

	rows := make([]models.User, 0, len(users))
	names := map[string]struct{}{}
	for _, u := range users {
		row, err := userRow(u, now)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		for _, role := range u.Roles {
			names[role] = struct{}{}
		}
	}
	if err := tx.Omit("Roles").Create(&rows).Error; err != nil {
		return fmt.Errorf("create users: %w", err)
	}

	if len(names) == 0 {
		return nil
	}
	roleNames := make([]string, 0, len(names))
	for name := range names {
		roleNames = append(roleNames, name)
	}
	var roles []models.Role
	if err := tx.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	roleIDs := make(map[string]string, len(roles))
	for _, role := range roles {
		roleIDs[role.Name] = role.ID
	}

	var links []models.UserRole
	for _, u := range users {
		for _, name := range u.Roles {
			roleID, ok := roleIDs[name]
			if !ok {
				return fmt.Errorf("role %q not found", name)
			}
			links = append(links, models.UserRole{UserID: u.ID.String(), RoleID: roleID})
		}
	}
	if len(links) > 0 {
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("assign user roles: %w", err)
		}
	}
	return nil
}
