package database

import (
	"fmt"
	"time"

	"retailpos-backend/internal/config"
	"retailpos-backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(cfg *config.Config) error {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := Migrate(DB); err != nil {
		return err
	}

	log.Info().Msg("database connected, migration complete")
	return nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Shop{},
		&models.CustomRole{},
		&models.User{},
		&models.Product{},
		&models.Transaction{},
		&models.ReturnRecord{},
		&models.Supplier{},
		&models.PurchaseEntry{},
		&models.PurchaseEntryProduct{},
		&models.DamagedInventory{},
		&models.InventoryLog{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// SKU is unique per shop when present
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_shop_sku
		ON products (shop_id, sku) WHERE sku IS NOT NULL AND sku <> ''`).Error; err != nil {
		log.Warn().Err(err).Msg("could not create products sku index")
	}
	return nil
}
