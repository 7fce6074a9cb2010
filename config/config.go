package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultDBFile      = "db_peserta.csv"
	DefaultPhotoSubDir = "foto_peserta"
)

const (
	defaultPort              = "5000"
	defaultBoothCount        = 5
	defaultBoothNumber       = 2
	defaultBoothBlock        = 5
	defaultIdentityBlock     = 4
	defaultPollIntervalMs    = 200
	defaultPollErrorDelayMs  = 1000
	defaultPhotoMaxSize      = 1024
	defaultRegisterRateLimit = 30
)

type Config struct {
	// root for the participant CSV and the photo directory
	DataDir string

	DBPath      string // full-calculated path of the participant CSV
	PhotoSubDir string // photo directory name, also the prefix stored in the Foto column
	PhotoPath   string // full-calculated path of the photo directory

	// longest side of a stored photo, in pixels
	PhotoMaxSize int

	// http settings
	Port              string
	StaticDir         string
	AllowedOrigins    []string
	AdminPasswordHash string // bcrypt; empty disables admin auth
	RegisterRateLimit int    // registrations per IP per minute

	// booth station
	BoothCount  int
	BoothNumber int

	// tag memory layout
	BoothBlock    byte
	IdentityBlock byte

	// reader polling
	NFCEnabled     bool
	NFCReaderName  string // substring match against PC/SC reader names, empty picks the first
	PollInterval   time.Duration
	PollErrorDelay time.Duration

	CameraDevice int

	LogLevel string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBoolOrDefault(envVar string, defaultVal bool) bool {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %t. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

// getEnvBlockOrDefault reads a tag block number. Block 0 holds the
// manufacturer data and every fourth block is a sector trailer, neither
// of which may carry application data.
func getEnvBlockOrDefault(envVar string, defaultVal int) (byte, error) {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return byte(defaultVal), nil
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 || val > 255 {
		return 0, fmt.Errorf("invalid %s '%s': must be a block number between 1 and 255", envVar, valStr)
	}
	if val%4 == 3 {
		return 0, fmt.Errorf("invalid %s '%s': block %d is a sector trailer", envVar, valStr, val)
	}
	return byte(val), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	dataDir := getEnvOrDefault("DATA_DIR", ".")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for data directory '%s': %w", dataDir, err)
	}

	dbFile := getEnvOrDefault("DB_FILE", DefaultDBFile)
	dbPath := dbFile
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(absDataDir, dbFile)
	}

	photoSubDir := getEnvOrDefault("PHOTO_SUBDIR", DefaultPhotoSubDir)
	if photoSubDir != filepath.Base(photoSubDir) || photoSubDir == "." || photoSubDir == ".." {
		return Config{}, fmt.Errorf("invalid PHOTO_SUBDIR '%s': must be a single directory name", photoSubDir)
	}

	boothCount := getEnvIntOrDefault("BOOTH_COUNT", defaultBoothCount)
	boothNumber := getEnvIntOrDefault("BOOTH_NUMBER", defaultBoothNumber)
	if boothNumber > boothCount {
		return Config{}, fmt.Errorf("invalid BOOTH_NUMBER %d: event only has %d booths", boothNumber, boothCount)
	}

	boothBlock, err := getEnvBlockOrDefault("BOOTH_BLOCK", defaultBoothBlock)
	if err != nil {
		return Config{}, err
	}
	identityBlock, err := getEnvBlockOrDefault("IDENTITY_BLOCK", defaultIdentityBlock)
	if err != nil {
		return Config{}, err
	}
	if boothBlock == identityBlock {
		log.Printf("Warning: BOOTH_BLOCK and IDENTITY_BLOCK are both %d; booth stations will refuse registered tags", boothBlock)
	}

	cfg := Config{
		DataDir:           absDataDir,
		DBPath:            dbPath,
		PhotoSubDir:       photoSubDir,
		PhotoPath:         filepath.Join(absDataDir, photoSubDir),
		PhotoMaxSize:      getEnvIntOrDefault("PHOTO_MAX_SIZE", defaultPhotoMaxSize),
		Port:              getEnvOrDefault("PORT", defaultPort),
		StaticDir:         getEnvOrDefault("STATIC_DIR", filepath.Join("frontend", "dist")),
		AllowedOrigins:    splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:5173")),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		RegisterRateLimit: getEnvIntOrDefault("REGISTER_RATE_LIMIT", defaultRegisterRateLimit),
		BoothCount:        boothCount,
		BoothNumber:       boothNumber,
		BoothBlock:        boothBlock,
		IdentityBlock:     identityBlock,
		NFCEnabled:        getEnvBoolOrDefault("NFC_ENABLED", true),
		NFCReaderName:     os.Getenv("NFC_READER"),
		PollInterval:      time.Duration(getEnvIntOrDefault("POLL_INTERVAL_MS", defaultPollIntervalMs)) * time.Millisecond,
		PollErrorDelay:    time.Duration(getEnvIntOrDefault("POLL_ERROR_DELAY_MS", defaultPollErrorDelayMs)) * time.Millisecond,
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
	}

	// device 0 is valid, so the positive-only int helper does not apply
	if dev := os.Getenv("CAMERA_DEVICE"); dev != "" {
		n, err := strconv.Atoi(dev)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid CAMERA_DEVICE '%s'", dev)
		}
		cfg.CameraDevice = n
	}

	return cfg, nil
}

// SetupLogging applies LOG_LEVEL to the global logger.
func SetupLogging(cfg Config) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Printf("Warning: Invalid LOG_LEVEL '%s', using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
