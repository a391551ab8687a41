package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"omifemcuts/pkg/domain"
)

const migrateLockID int64 = 51102348

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&UserModel{}, &StyleModel{}, &FeedbackModel{}, &ContactMessageModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		// Likes and tags are jsonb arrays; the GIN index backs the @> membership check.
		if err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_style_models_likes ON style_models USING GIN (likes)`).Error; err != nil {
			return fmt.Errorf("create likes index: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(ctx context.Context, u domain.User) error {
	model := userToModel(u)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "photo_url", "password_hash", "provider", "role", "updated_at"}),
	}).Create(&model).Error
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(ctx context.Context, id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users, newest first.
func (s *GormStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	var models []UserModel
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// UserCount returns number of users.
func (s *GormStore) UserCount(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SetUserRole overwrites the role field.
func (s *GormStore) SetUserRole(ctx context.Context, id string, role domain.UserRole) (domain.User, bool, error) {
	res := s.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"role":       string(role),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return domain.User{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.User{}, false, nil
	}
	return s.GetUserByID(ctx, id)
}

// DeleteUser removes a user profile.
func (s *GormStore) DeleteUser(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&UserModel{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// SaveStyle stores or replaces a style.
func (s *GormStore) SaveStyle(ctx context.Context, st domain.Style) error {
	model, err := styleToModel(st)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "image_url", "category", "price_without_fabrics",
			"price_with_fabrics", "delivery_time", "likes", "tags", "source", "updated_at",
		}),
	}).Create(&model).Error
}

// GetStyle retrieves a style.
func (s *GormStore) GetStyle(ctx context.Context, id string) (domain.Style, bool, error) {
	var model StyleModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Style{}, false, nil
		}
		return domain.Style{}, false, err
	}
	st, err := styleFromModel(model)
	if err != nil {
		return domain.Style{}, false, err
	}
	return st, true, nil
}

// ListStyles returns every style, newest first.
func (s *GormStore) ListStyles(ctx context.Context) ([]domain.Style, error) {
	return s.listStyles(s.db.WithContext(ctx))
}

// ListStylesPage returns up to limit styles strictly after the cursor.
func (s *GormStore) ListStylesPage(ctx context.Context, after *Cursor, limit int) ([]domain.Style, error) {
	tx := s.db.WithContext(ctx)
	if after != nil {
		tx = tx.Where("created_at < ? OR (created_at = ? AND id < ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	return s.listStyles(tx)
}

// ListStylesByCategory returns up to limit styles in a category, newest first.
func (s *GormStore) ListStylesByCategory(ctx context.Context, category domain.Category, limit int) ([]domain.Style, error) {
	tx := s.db.WithContext(ctx).Where("category = ?", string(category))
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	return s.listStyles(tx)
}

func (s *GormStore) listStyles(tx *gorm.DB) ([]domain.Style, error) {
	var models []StyleModel
	if err := tx.Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Style, 0, len(models))
	for _, m := range models {
		st, err := styleFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, st)
	}
	return res, nil
}

// UpdateStyle writes the non-nil patch fields.
func (s *GormStore) UpdateStyle(ctx context.Context, id string, patch domain.StylePatch) (domain.Style, bool, error) {
	updates, err := stylePatchColumns(patch)
	if err != nil {
		return domain.Style{}, false, err
	}
	updates["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&StyleModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return domain.Style{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Style{}, false, nil
	}
	return s.GetStyle(ctx, id)
}

// AddLike adds userID to the liker set in a single statement.
func (s *GormStore) AddLike(ctx context.Context, styleID, userID string) (domain.Style, bool, error) {
	expr := gorm.Expr(
		"CASE WHEN likes @> jsonb_build_array(CAST(? AS text)) THEN likes ELSE likes || jsonb_build_array(CAST(? AS text)) END",
		userID, userID,
	)
	return s.updateLikes(ctx, styleID, expr)
}

// RemoveLike removes userID from the liker set in a single statement.
func (s *GormStore) RemoveLike(ctx context.Context, styleID, userID string) (domain.Style, bool, error) {
	return s.updateLikes(ctx, styleID, gorm.Expr("likes - CAST(? AS text)", userID))
}

func (s *GormStore) updateLikes(ctx context.Context, styleID string, expr clause.Expr) (domain.Style, bool, error) {
	res := s.db.WithContext(ctx).Model(&StyleModel{}).
		Where("id = ?", styleID).
		UpdateColumn("likes", expr)
	if res.Error != nil {
		return domain.Style{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Style{}, false, nil
	}
	return s.GetStyle(ctx, styleID)
}

// DeleteStyle removes a style.
func (s *GormStore) DeleteStyle(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&StyleModel{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// SaveFeedback stores a feedback record.
func (s *GormStore) SaveFeedback(ctx context.Context, f domain.Feedback) error {
	model := feedbackToModel(f)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"comment", "rating", "approved"}),
	}).Create(&model).Error
}

// GetFeedback retrieves one feedback record.
func (s *GormStore) GetFeedback(ctx context.Context, id string) (domain.Feedback, bool, error) {
	var model FeedbackModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Feedback{}, false, nil
		}
		return domain.Feedback{}, false, err
	}
	return feedbackFromModel(model), true, nil
}

// ListFeedback returns all feedback, newest first.
func (s *GormStore) ListFeedback(ctx context.Context) ([]domain.Feedback, error) {
	return s.listFeedback(s.db.WithContext(ctx))
}

// ListApprovedFeedback returns up to limit approved feedback, newest first.
func (s *GormStore) ListApprovedFeedback(ctx context.Context, limit int) ([]domain.Feedback, error) {
	tx := s.db.WithContext(ctx).Where("approved = ?", true)
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	return s.listFeedback(tx)
}

func (s *GormStore) listFeedback(tx *gorm.DB) ([]domain.Feedback, error) {
	var models []FeedbackModel
	if err := tx.Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Feedback, 0, len(models))
	for _, m := range models {
		res = append(res, feedbackFromModel(m))
	}
	return res, nil
}

// SetFeedbackApproval overwrites the approval flag.
func (s *GormStore) SetFeedbackApproval(ctx context.Context, id string, approved bool) (domain.Feedback, bool, error) {
	res := s.db.WithContext(ctx).Model(&FeedbackModel{}).Where("id = ?", id).UpdateColumn("approved", approved)
	if res.Error != nil {
		return domain.Feedback{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Feedback{}, false, nil
	}
	return s.GetFeedback(ctx, id)
}

// DeleteFeedback removes a feedback record.
func (s *GormStore) DeleteFeedback(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&FeedbackModel{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// SaveContactMessage stores a contact form submission.
func (s *GormStore) SaveContactMessage(ctx context.Context, m domain.ContactMessage) error {
	model := contactToModel(m)
	return s.db.WithContext(ctx).Create(&model).Error
}

// ListContactMessages returns contact submissions, newest first.
func (s *GormStore) ListContactMessages(ctx context.Context) ([]domain.ContactMessage, error) {
	var models []ContactMessageModel
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ContactMessage, 0, len(models))
	for _, m := range models {
		res = append(res, contactFromModel(m))
	}
	return res, nil
}

// mappers
func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PhotoURL:     u.PhotoURL,
		PasswordHash: u.PasswordHash,
		Provider:     string(u.Provider),
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PhotoURL:     m.PhotoURL,
		PasswordHash: m.PasswordHash,
		Provider:     domain.AuthProvider(m.Provider),
		Role:         domain.UserRole(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func styleToModel(s domain.Style) (StyleModel, error) {
	likes, err := encodeStrings(s.Likes)
	if err != nil {
		return StyleModel{}, fmt.Errorf("encode likes: %w", err)
	}
	tags, err := encodeStrings(s.Tags)
	if err != nil {
		return StyleModel{}, fmt.Errorf("encode tags: %w", err)
	}
	return StyleModel{
		ID:                  s.ID,
		Title:               s.Title,
		Description:         s.Description,
		ImageURL:            s.ImageURL,
		Category:            string(s.Category),
		PriceWithoutFabrics: s.PriceWithoutFabrics,
		PriceWithFabrics:    s.PriceWithFabrics,
		DeliveryTime:        s.DeliveryTime,
		Likes:               likes,
		Tags:                tags,
		Source:              string(s.Source),
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}, nil
}

func styleFromModel(m StyleModel) (domain.Style, error) {
	likes, err := decodeStrings(m.Likes)
	if err != nil {
		return domain.Style{}, fmt.Errorf("decode likes for style %s: %w", m.ID, err)
	}
	tags, err := decodeStrings(m.Tags)
	if err != nil {
		return domain.Style{}, fmt.Errorf("decode tags for style %s: %w", m.ID, err)
	}
	return domain.Style{
		ID:                  m.ID,
		Title:               m.Title,
		Description:         m.Description,
		ImageURL:            m.ImageURL,
		Category:            domain.Category(m.Category),
		PriceWithoutFabrics: m.PriceWithoutFabrics,
		PriceWithFabrics:    m.PriceWithFabrics,
		DeliveryTime:        m.DeliveryTime,
		Likes:               likes,
		Tags:                tags,
		Source:              domain.StyleSource(m.Source),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}, nil
}

func stylePatchColumns(p domain.StylePatch) (map[string]any, error) {
	cols := make(map[string]any)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.ImageURL != nil {
		cols["image_url"] = *p.ImageURL
	}
	if p.Category != nil {
		cols["category"] = string(*p.Category)
	}
	if p.PriceWithoutFabrics != nil {
		cols["price_without_fabrics"] = *p.PriceWithoutFabrics
	}
	if p.PriceWithFabrics != nil {
		cols["price_with_fabrics"] = *p.PriceWithFabrics
	}
	if p.DeliveryTime != nil {
		cols["delivery_time"] = *p.DeliveryTime
	}
	if p.Tags != nil {
		tags, err := encodeStrings(*p.Tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
		cols["tags"] = tags
	}
	return cols, nil
}

func feedbackToModel(f domain.Feedback) FeedbackModel {
	return FeedbackModel{
		ID:        f.ID,
		UserID:    f.UserID,
		UserName:  f.UserName,
		UserPhoto: f.UserPhoto,
		Comment:   f.Comment,
		Rating:    f.Rating,
		Approved:  f.Approved,
		CreatedAt: f.CreatedAt,
	}
}

func feedbackFromModel(m FeedbackModel) domain.Feedback {
	return domain.Feedback{
		ID:        m.ID,
		UserID:    m.UserID,
		UserName:  m.UserName,
		UserPhoto: m.UserPhoto,
		Comment:   m.Comment,
		Rating:    m.Rating,
		Approved:  m.Approved,
		CreatedAt: m.CreatedAt,
	}
}

func contactToModel(m domain.ContactMessage) ContactMessageModel {
	return ContactMessageModel{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Subject:   m.Subject,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}

func contactFromModel(m ContactMessageModel) domain.ContactMessage {
	return domain.ContactMessage{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Subject:   m.Subject,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}

func encodeStrings(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func decodeStrings(raw datatypes.JSON) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
