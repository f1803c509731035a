package config

import (
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"partner-onboarding-api/models"
)

var DB *gorm.DB

var Redis *redis.Client

// JWTSecret used to sign tokens — read from env or fallback
var JWTSecret = []byte(getEnv("JWT_SECRET", "partner_onboarding_super_secret_2024"))

// StripeKey configures the payment provider client.
var StripeKey = getEnv("STRIPE_API_KEY", "")

// Onboarding fees in cents, charged before the final registration stage.
const (
	DriverOnboardingFee     int64 = 4500
	RestaurantOnboardingFee int64 = 9900
	FeeCurrency                   = "cad"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB() {
	var err error
	DB, err = gorm.Open(sqlite.Open(getEnv("DB_PATH", "partner_onboarding.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	SeedSuperAdmin(DB)
	log.Println("Database connected and migrated")
}

// Migrate applies the schema for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Driver{},
		&models.Restaurant{},
		&models.Admin{},
	)
}

// SeedSuperAdmin creates the bootstrap super_admin account if none exists.
func SeedSuperAdmin(db *gorm.DB) {
	var count int64
	db.Model(&models.Admin{}).Where("role = ?", models.RoleSuperAdmin).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(getEnv("ADMIN_PASSWORD", "changeme123")), bcrypt.DefaultCost)
	if err != nil {
		log.Println("Failed to seed super admin:", err)
		return
	}
	admin := models.Admin{
		Email:        getEnv("ADMIN_EMAIL", "admin@partner-onboarding.local"),
		PasswordHash: string(hash),
		Name:         "Platform Admin",
		Role:         models.RoleSuperAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Println("Failed to seed super admin:", err)
		return
	}
	log.Println("Seeded super admin account:", admin.Email)
}

func InitRedis() {
	Redis = redis.NewClient(&redis.Options{Addr: getEnv("REDIS_ADDR", "localhost:6379")})
}
