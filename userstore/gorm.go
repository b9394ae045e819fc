package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/password"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ authkeep.UserStore = (*Gorm)(nil)

// userModel is the users table.
type userModel struct {
	ID              string     `gorm:"type:uuid;primaryKey"`
	Fullname        string     `gorm:"size:100;not null"`
	Username        string     `gorm:"size:50;uniqueIndex;not null"`
	Email           string     `gorm:"size:255;uniqueIndex;not null"`
	Password        string     `gorm:"not null"`
	ProfileImage    string     `gorm:"size:512"`
	Role            string     `gorm:"size:16;not null;default:user;index"`
	IsEmailVerified bool       `gorm:"not null;default:false"`
	IsActive        bool       `gorm:"not null;default:true"`
	RefreshToken    string     `gorm:"type:text"`
	LastLogin       *time.Time
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

func (userModel) TableName() string { return "users" }

func (m *userModel) record() *authkeep.UserRecord {
	return &authkeep.UserRecord{
		ID:              m.ID,
		Fullname:        m.Fullname,
		Username:        m.Username,
		Email:           m.Email,
		PasswordHash:    m.Password,
		ProfileImage:    m.ProfileImage,
		Role:            authkeep.Role(m.Role),
		IsEmailVerified: m.IsEmailVerified,
		IsActive:        m.IsActive,
		RefreshToken:    m.RefreshToken,
		LastLogin:       m.LastLogin,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// sortColumns maps ListQuery.SortBy to columns; anything else sorts by created_at.
var sortColumns = map[string]string{
	"fullname":  "fullname",
	"username":  "username",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
	"lastLogin": "last_login",
}

// Gorm is a UserStore on PostgreSQL.
type Gorm struct {
	db     *gorm.DB
	hasher *password.Argon2
	logger zerolog.Logger
}

// OpenPostgres connects with dsn and migrates the users table.
func OpenPostgres(dsn string, h *password.Argon2, logger zerolog.Logger) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGorm(db, h, logger)
}

// NewGorm wraps an open connection and migrates the users table.
func NewGorm(db *gorm.DB, h *password.Argon2, logger zerolog.Logger) (*Gorm, error) {
	if err := db.AutoMigrate(&userModel{}); err != nil {
		return nil, fmt.Errorf("migrate users: %w", err)
	}
	return newGorm(db, h, logger), nil
}

func newGorm(db *gorm.DB, h *password.Argon2, logger zerolog.Logger) *Gorm {
	return &Gorm{db: db, hasher: h, logger: logger.With().Str("component", "userstore").Logger()}
}

// Close closes the underlying connection pool.
func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return authkeep.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return authkeep.ErrDuplicateUser
	default:
		return err
	}
}

func (g *Gorm) FindByField(ctx context.Context, field authkeep.UserField, value string) (*authkeep.UserRecord, error) {
	var column string
	switch field {
	case authkeep.FieldEmail:
		column = "email"
	case authkeep.FieldUsername:
		column = "username"
	default:
		return nil, fmt.Errorf("unsupported lookup field %q", field)
	}

	var m userModel
	if err := g.db.WithContext(ctx).Where(column+" = ?", value).First(&m).Error; err != nil {
		return nil, mapErr(err)
	}
	return m.record(), nil
}

func (g *Gorm) FindByID(ctx context.Context, id string) (*authkeep.UserRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, authkeep.ErrUserNotFound
	}
	var m userModel
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapErr(err)
	}
	return m.record(), nil
}

func (g *Gorm) Create(ctx context.Context, nu authkeep.NewUser) (*authkeep.UserRecord, error) {
	hash, err := g.hasher.Hash(nu.Password)
	if err != nil {
		return nil, err
	}
	role := nu.Role
	if role == "" {
		role = authkeep.RoleUser
	}
	m := userModel{
		ID:              uuid.NewString(),
		Fullname:        nu.Fullname,
		Username:        nu.Username,
		Email:           nu.Email,
		Password:        hash,
		ProfileImage:    nu.ProfileImage,
		Role:            string(role),
		IsEmailVerified: nu.IsEmailVerified,
		IsActive:        nu.IsActive,
	}
	// Select all columns so false booleans are written instead of column defaults.
	if err := g.db.WithContext(ctx).Select("*").Create(&m).Error; err != nil {
		return nil, mapErr(err)
	}
	return m.record(), nil
}

func (g *Gorm) Update(ctx context.Context, id string, upd authkeep.UserUpdate) (*authkeep.UserRecord, error) {
	changes := map[string]any{}
	if upd.Fullname != nil {
		changes["fullname"] = *upd.Fullname
	}
	if upd.Username != nil {
		changes["username"] = *upd.Username
	}
	if upd.ProfileImage != nil {
		changes["profile_image"] = *upd.ProfileImage
	}
	if upd.Password != nil {
		hash, err := g.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		changes["password"] = hash
	}
	if upd.RefreshToken != nil {
		changes["refresh_token"] = *upd.RefreshToken
	}
	if upd.IsEmailVerified != nil {
		changes["is_email_verified"] = *upd.IsEmailVerified
	}
	if upd.IsActive != nil {
		changes["is_active"] = *upd.IsActive
	}
	if upd.LastLogin != nil {
		changes["last_login"] = *upd.LastLogin
	}

	var m userModel
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&m).Updates(changes).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&m).Error
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return m.record(), nil
}

func (g *Gorm) Delete(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&userModel{})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return authkeep.ErrUserNotFound
	}
	return nil
}

// ComparePassword verifies plain and rehashes a matching password stored with weaker
// parameters. The rewrite only applies if the stored hash is unchanged.
func (g *Gorm) ComparePassword(ctx context.Context, u *authkeep.UserRecord, plain string) (bool, error) {
	ok, err := verify(g.hasher, u, plain)
	if !ok || err != nil {
		return ok, err
	}
	if hash, stale := upgraded(g.hasher, u, plain); stale {
		res := g.db.WithContext(ctx).Model(&userModel{}).
			Where("id = ? AND password = ?", u.ID, u.PasswordHash).
			Update("password", hash)
		if res.Error != nil {
			g.logger.Warn().Err(res.Error).Str("op", "rehash_password").Str("user_id", u.ID).Msg("password rehash failed")
		}
	}
	return true, nil
}

func (g *Gorm) List(ctx context.Context, q authkeep.ListQuery) ([]authkeep.UserRecord, int64, error) {
	tx := g.db.WithContext(ctx).Model(&userModel{})
	if q.Search != "" {
		like := "%" + q.Search + "%"
		tx = tx.Where("fullname ILIKE ? OR username ILIKE ? OR email ILIKE ?", like, like, like)
	}
	if q.Role != "" && q.Role != "all" {
		tx = tx.Where("role = ?", q.Role)
	}
	switch q.Status {
	case "active":
		tx = tx.Where("is_active = ?", true)
	case "inactive":
		tx = tx.Where("is_active = ?", false)
	case "verified":
		tx = tx.Where("is_email_verified = ?", true)
	case "unverified":
		tx = tx.Where("is_email_verified = ?", false)
	}
	if !q.CreatedAfter.IsZero() {
		tx = tx.Where("created_at >= ?", q.CreatedAfter)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	order := column + " DESC"
	if q.SortOrder == "asc" {
		order = column + " ASC"
	}
	tx = tx.Order(order)
	if q.Limit > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		tx = tx.Offset((page - 1) * q.Limit).Limit(q.Limit)
	}

	var rows []userModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]authkeep.UserRecord, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].record())
	}
	return out, total, nil
}
