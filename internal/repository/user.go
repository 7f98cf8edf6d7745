package repository

import (
	"context"
	"errors"
	"time"

	"github.com/emisorlabs/emisor/internal/auth"
	constant "github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/internal/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("usuario o contraseña incorrectos")
	ErrUserInactive       = errors.New("la cuenta está desactivada")
)

type UserRepository struct {
	*baseRepository
	audit *AuditRepository
}

func (ur UserRepository) GetById(ctx context.Context, tx *gorm.DB, userId string) (*model.User, error) {
	ur.logger.Debugf("Get user by id: %s", userId)

	db := ur.getDB(tx)
	var user *model.User

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.User{}).
		Where(&model.User{BaseModel: model.BaseModel{ID: userId}}).
		Where("is_deleted = ?", false).
		First(&user).Error; err != nil {
		return user, err
	}

	return user, nil
}

func (ur UserRepository) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*model.User, error) {
	ur.logger.Debugf("Get user by username: %s", username)

	db := ur.getDB(tx)
	var user *model.User

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.User{}).
		Where(&model.User{Username: username}).
		Where("is_deleted = ?", false).
		First(&user).Error; err != nil {
		return user, err
	}

	return user, nil
}

func (ur UserRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*model.User, error) {
	ur.logger.Debugf("Get user by email: %s", email)

	db := ur.getDB(tx)
	var user *model.User

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.User{}).
		Where(&model.User{Email: email}).
		Where("is_deleted = ?", false).
		First(&user).Error; err != nil {
		return user, err
	}

	return user, nil
}

func (ur UserRepository) GetList(ctx context.Context, tx *gorm.DB, search string, page, pageSize uint) ([]*model.User, int64, error) {
	ur.logger.Debugf("Get user list, search: %s", search)

	db := ur.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.User{}).Where("is_deleted = ?", false)
	if search != "" {
		query = query.Where("username ILIKE ? OR nombre_completo ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*model.User
	if err := query.Order("username asc").
		Offset(int((page - 1) * pageSize)).Limit(int(pageSize)).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Create hashes the password and inserts the user together with its bitacora
// entry. Username and email uniqueness is enforced by the database, surfaced
// as gorm.ErrDuplicatedKey.
func (ur *UserRepository) Create(ctx context.Context, tx *gorm.DB, actx AuditContext, newUser model.User, password string) (*model.User, error) {
	ur.logger.Debugf("Create user: %s", newUser.Username)

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	db := ur.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	user := &model.User{
		Username:       newUser.Username,
		Email:          newUser.Email,
		HashedPassword: hashed,
		NombreCompleto: newUser.NombreCompleto,
		Rol:            newUser.Rol,
		IsActive:       true,
	}

	txErr := ur.withTx(db, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Model(&model.User{}).Create(user).Error; err != nil {
			return err
		}

		return ur.audit.Append(ctx, tx, actx, constant.AuditActionCreate, constant.AuditEntityUser, user.ID, model.JSONMap{
			"username": user.Username,
			"rol":      string(user.Rol),
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	return user, nil
}

// Authenticate verifies username/password, refuses inactive or deleted
// accounts, stamps last_login and records the LOGIN in the bitacora.
func (ur *UserRepository) Authenticate(ctx context.Context, tx *gorm.DB, username, password, ip, userAgent string) (*model.User, error) {
	ur.logger.Debugf("Authenticate user: %s", username)

	user, err := ur.GetByUsername(ctx, tx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := auth.VerifyPassword(password, user.HashedPassword)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	db := ur.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	now := time.Now()
	txErr := ur.withTx(db, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Model(&model.User{}).
			Where(&model.User{BaseModel: model.BaseModel{ID: user.ID}}).
			Update("last_login", now).Error; err != nil {
			return err
		}

		return ur.audit.Append(ctx, tx, AuditContext{UserID: user.ID, IP: ip, UserAgent: userAgent},
			constant.AuditActionLogin, constant.AuditEntityUser, user.ID, nil)
	})
	if txErr != nil {
		return nil, txErr
	}

	user.LastLogin = &now
	return user, nil
}

// UpdateProfile applies the changed fields and writes a field-level diff to
// the bitacora in the same transaction. A no-op update writes no entry.
func (ur *UserRepository) UpdateProfile(ctx context.Context, tx *gorm.DB, actx AuditContext, userId string, updated model.User) (*model.User, error) {
	ur.logger.Debugf("Update user: %s", userId)

	db := ur.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var result *model.User
	txErr := ur.withTx(db, func(tx *gorm.DB) error {
		current, err := ur.GetById(ctx, tx, userId)
		if err != nil {
			return err
		}

		oldFields := map[string]any{
			"email":           current.Email,
			"nombre_completo": current.NombreCompleto,
			"rol":             string(current.Rol),
			"is_active":       current.IsActive,
		}
		newFields := map[string]any{
			"email":           updated.Email,
			"nombre_completo": updated.NombreCompleto,
			"rol":             string(updated.Rol),
			"is_active":       updated.IsActive,
		}

		diff := util.DiffFields(oldFields, newFields)
		if len(diff) == 0 {
			result = current
			return nil
		}

		if err := tx.WithContext(ctx).Model(&model.User{}).
			Where(&model.User{BaseModel: model.BaseModel{ID: userId}}).
			Updates(map[string]any{
				"email":           updated.Email,
				"nombre_completo": updated.NombreCompleto,
				"rol":             updated.Rol,
				"is_active":       updated.IsActive,
			}).Error; err != nil {
			return err
		}

		detalles := make(model.JSONMap, len(diff))
		for field, change := range diff {
			detalles[field] = map[string]any{"anterior": change.Old, "nuevo": change.New}
		}
		if err := ur.audit.Append(ctx, tx, actx, constant.AuditActionUpdate, constant.AuditEntityUser, userId, detalles); err != nil {
			return err
		}

		result, err = ur.GetById(ctx, tx, userId)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	return result, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (ur *UserRepository) ChangePassword(ctx context.Context, tx *gorm.DB, actx AuditContext, userId, currentPassword, newPassword string) error {
	ur.logger.Debugf("Change password for user: %s", userId)

	db := ur.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return ur.withTx(db, func(tx *gorm.DB) error {
		user, err := ur.GetById(ctx, tx, userId)
		if err != nil {
			return err
		}

		match, err := auth.VerifyPassword(currentPassword, user.HashedPassword)
		if err != nil {
			return err
		}
		if !match {
			return ErrInvalidCredentials
		}

		hashed, err := auth.HashPassword(newPassword)
		if err != nil {
			return err
		}

		if err := tx.WithContext(ctx).Model(&model.User{}).
			Where(&model.User{BaseModel: model.BaseModel{ID: userId}}).
			Update("hashed_password", hashed).Error; err != nil {
			return err
		}

		return ur.audit.Append(ctx, tx, actx, constant.AuditActionUpdate, constant.AuditEntityUser, userId, model.JSONMap{
			"campo": "password",
		})
	})
}

// SoftDelete flags the user instead of removing the row so historic emissions
// and bitacora entries keep resolving the actor. Deleting an already deleted
// user is a no-op.
func (ur *UserRepository) SoftDelete(ctx context.Context, tx *gorm.DB, actx AuditContext, userId string) error {
	ur.logger.Debugf("Soft delete user: %s", userId)

	db := ur.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return ur.withTx(db, func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Model(&model.User{}).
			Where("id = ? AND is_deleted = ?", userId, false).
			Updates(map[string]any{"is_deleted": true, "is_active": false})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		return ur.audit.Append(ctx, tx, actx, constant.AuditActionDelete, constant.AuditEntityUser, userId, nil)
	})
}
