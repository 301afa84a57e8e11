package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"harvest/internal/models"
)

// productRow mirrors the original products table schema; the joined
// active-ingredient text lives in a single column.
type productRow struct {
	ID               string    `gorm:"primaryKey;size:36"`
	Name             string    `gorm:"size:255;not null"`
	Category         string    `gorm:"size:100;not null;index"`
	Description      string    `gorm:"type:text"`
	Price            float64   `gorm:"not null"`
	Stock            int       `gorm:"not null"`
	ExpirationDate   string    `gorm:"size:32"`
	ActiveIngredient string    `gorm:"size:512"`
	PackageSize      string    `gorm:"size:100"`
	CartonSize       string    `gorm:"size:100"`
	Origin           string    `gorm:"size:100"`
	UnitType         string    `gorm:"size:100"`
	ImageURL         string    `gorm:"size:255"`
	// Timestamps are set explicitly; GORM auto-tracking is disabled.
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;index;autoUpdateTime:false"`
}

func (productRow) TableName() string { return "products" }

type userRow struct {
	ID       uint   `gorm:"primaryKey"`
	Username string `gorm:"size:100;uniqueIndex;not null"`
	Password string `gorm:"size:100;not null"`
	Role     string `gorm:"size:32;not null;default:admin"`
}

func (userRow) TableName() string { return "users" }

type settingRow struct {
	Key   string `gorm:"primaryKey;column:setting_key;size:100"`
	Value string `gorm:"column:setting_value;size:512"`
}

func (settingRow) TableName() string { return "settings" }

func rowToProduct(r productRow) models.Product {
	return models.Product{
		ID:                r.ID,
		Name:              r.Name,
		Category:          r.Category,
		Description:       r.Description,
		Price:             r.Price,
		Stock:             r.Stock,
		ExpirationDate:    r.ExpirationDate,
		ActiveIngredients: models.ParseIngredients(r.ActiveIngredient),
		PackageSize:       r.PackageSize,
		CartonSize:        r.CartonSize,
		Origin:            r.Origin,
		UnitType:          r.UnitType,
		ImageURL:          r.ImageURL,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func productToRow(p models.Product) productRow {
	return productRow{
		ID:               p.ID,
		Name:             p.Name,
		Category:         p.Category,
		Description:      p.Description,
		Price:            p.Price,
		Stock:            p.Stock,
		ExpirationDate:   p.ExpirationDate,
		ActiveIngredient: p.ActiveIngredients.Join(),
		PackageSize:      p.PackageSize,
		CartonSize:       p.CartonSize,
		Origin:           p.Origin,
		UnitType:         p.UnitType,
		ImageURL:         p.ImageURL,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// MySQLStore keeps the catalog in a relational database through GORM.
type MySQLStore struct {
	db *gorm.DB
}

// OpenMySQLStore connects and migrates the three tables.
func OpenMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&productRow{}, &userRow{}, &settingRow{}); err != nil {
		return nil, err
	}
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *MySQLStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *MySQLStore) listQuery(ctx context.Context, f ProductFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&productRow{})

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(active_ingredient) LIKE LOWER(?)", like, like)
	}

	switch f.Category {
	case "", CategoryAll:
	case CategoryPesticides:
		q = q.Where("LOWER(category) NOT LIKE ?", "%"+fertilizersMarker+"%")
	case CategoryFertilizers:
		q = q.Where("LOWER(category) LIKE ?", "%"+fertilizersMarker+"%")
	default:
		q = q.Where("category = ?", f.Category)
	}

	if f.SortByName {
		return q.Order("name ASC")
	}
	return q.Order("COALESCE(updated_at, created_at) DESC")
}

func (s *MySQLStore) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	var rows []productRow
	if err := s.listQuery(ctx, filter).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToProduct(r))
	}
	return out, nil
}

func (s *MySQLStore) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var row productRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, err
	}
	return rowToProduct(row), nil
}

func (s *MySQLStore) CreateProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	if err := validateInput(in); err != nil {
		return models.Product{}, err
	}

	p := newProduct(uuid.NewString(), in, time.Now().UTC())
	row := productToRow(p)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (s *MySQLStore) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (models.Product, error) {
	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	applyPatch(&existing, patch, time.Now().UTC())
	row := productToRow(existing)
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return models.Product{}, err
	}
	return existing, nil
}

func (s *MySQLStore) DeleteProduct(ctx context.Context, id string) (models.Product, bool, error) {
	removed, err := s.GetProduct(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.Product{}, false, nil
	}
	if err != nil {
		return models.Product{}, false, err
	}

	if err := s.db.WithContext(ctx).Delete(&productRow{}, "id = ?", id).Error; err != nil {
		return models.Product{}, false, err
	}
	return removed, true, nil
}

func (s *MySQLStore) LastUpdated(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	err := s.db.WithContext(ctx).Model(&productRow{}).
		Select("MAX(COALESCE(updated_at, created_at))").
		Scan(&latest).Error
	if err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

func (s *MySQLStore) GetSetting(ctx context.Context, key string) (string, error) {
	var row settingRow
	err := s.db.WithContext(ctx).First(&row, "setting_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

func (s *MySQLStore) SetSetting(ctx context.Context, key, value string) error {
	row := settingRow{Key: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

func (s *MySQLStore) EnsureAdmin(ctx context.Context, username, password string) error {
	hash, err := models.HashPassword(password)
	if err != nil {
		return err
	}

	var row userRow
	err = s.db.WithContext(ctx).First(&row, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = userRow{Username: username, Password: hash, Role: models.RoleAdmin}
		return s.db.WithContext(ctx).Create(&row).Error
	}
	if err != nil {
		return err
	}

	row.Password = hash
	row.Role = models.RoleAdmin
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *MySQLStore) VerifyAdmin(ctx context.Context, username, password string) (models.Admin, error) {
	var row userRow
	err := s.db.WithContext(ctx).First(&row, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Admin{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Admin{}, err
	}

	admin := models.Admin{Username: row.Username, Password: row.Password, Role: row.Role}
	if !admin.ValidatePassword(password) {
		return models.Admin{}, ErrInvalidCredentials
	}
	return admin, nil
}
