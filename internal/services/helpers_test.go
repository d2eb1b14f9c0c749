package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/bozor/internal/database"
	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/utils"
)

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open("sqlite::memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type fixtures struct {
	region   models.Region
	seller   models.User
	buyer    models.User
	category models.Category
	tea      models.Product // price 100
	coffee   models.Product // price 50
}

func seedFixtures(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()

	var f fixtures
	f.region = models.Region{Name: "Toshkent"}
	require.NoError(t, db.Create(&f.region).Error)

	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)

	f.seller = models.User{FullName: "Seller One", Phone: "+998900000001", Email: "seller@example.com",
		PasswordHash: hash, Role: models.RoleSeller, RegionID: f.region.ID}
	require.NoError(t, db.Create(&f.seller).Error)

	f.buyer = models.User{FullName: "Buyer One", Phone: "+998900000002", Email: "buyer@example.com",
		PasswordHash: hash, Role: models.RoleUser, RegionID: f.region.ID}
	require.NoError(t, db.Create(&f.buyer).Error)

	f.category = models.Category{Name: "Drinks"}
	require.NoError(t, db.Create(&f.category).Error)

	f.tea = models.Product{Name: "Tea", Price: 100, AuthorID: f.seller.ID, CategoryID: f.category.ID}
	require.NoError(t, db.Create(&f.tea).Error)

	f.coffee = models.Product{Name: "Coffee", Price: 50, AuthorID: f.seller.ID, CategoryID: f.category.ID}
	require.NoError(t, db.Create(&f.coffee).Error)

	return f
}

type sentOTP struct {
	phone, email, code string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (f *fakeSender) SendOTP(_ context.Context, phone, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentOTP{phone, email, code})
	return nil
}

func (f *fakeSender) last() sentOTP {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentOTP{}
	}
	return f.sent[len(f.sent)-1]
}
