package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	Port        string
	StoreDriver string
	DataFile    string
	MongoURI    string
	DBName      string
	MySQLDSN    string
	PublicDir   string

	JWTSecret  string
	SessionTTL time.Duration

	AdminUsername string
	AdminPassword string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		Port:        getEnvOrDefault("PORT", "3000"),
		StoreDriver: getEnvOrDefault("STORE_DRIVER", "file"),
		DataFile:    getEnvOrDefault("DATA_FILE", "harvest_system.json"),
		MongoURI:    getEnvOrDefault("MONGO_URI", ""),
		DBName:      getEnvOrDefault("DB_NAME", "harvest"),
		MySQLDSN:    getEnvOrDefault("MYSQL_DSN", ""),
		PublicDir:   getEnvOrDefault("PUBLIC_DIR", "./public"),

		JWTSecret:  getEnvOrDefault("SESSION_SECRET", "secret-harvest-key"),
		SessionTTL: getDurationEnv("SESSION_TTL_HOURS", 24, time.Hour),

		AdminUsername: getEnvOrDefault("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", "admin123"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
