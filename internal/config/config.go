package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config структура конфигурации
type Config struct {
	JWTSecret            string
	DatabaseURL          string
	DatabaseConfig       DatabaseConfig
	AppEnv               string
	ListenAddr           string // адрес HTTP API
	WebSocketAddr        string // адрес WebSocket-сервера
	SweepIntervalMinutes int    // период запуска сброса просроченных предложений места
	LocationTimeoutHours int    // срок жизни предложения места встречи
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// LoadConfig загружает переменные из .env
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "swapspot_user"),
		Password: getEnv("PGPASSWORD", "swapspot_pass"),
		Name:     getEnv("PGDATABASE", "swapspot"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	// Формируем строку подключения к базе данных
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	cfg := &Config{
		JWTSecret:            getEnv("JWT_SECRET", ""),
		DatabaseURL:          dbURL,
		DatabaseConfig:       dbConfig,
		AppEnv:               getEnv("APP_ENV", "production"),
		ListenAddr:           getEnv("LISTEN_ADDR", ":8080"),
		WebSocketAddr:        getEnv("WS_ADDR", ":8081"),
		SweepIntervalMinutes: getEnvInt("SWEEP_INTERVAL_MINUTES", 60),
		LocationTimeoutHours: getEnvInt("LOCATION_TIMEOUT_HOURS", 48),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("❌ Ошибка: Не заданы обязательные переменные окружения")
	}

	return cfg
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленную переменную окружения или дефолтное значение
func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️ Неверное значение %s=%q, используем %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
