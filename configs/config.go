package config

import (
	"os"
	"strconv"
	"time"
)

type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
}

type Instagram struct {
	AppID             string
	AppSecret         string
	RedirectURI       string
	AccessToken       string
	BusinessAccountID string
}

type GoogleDrive struct {
	ClientEmail string
	PrivateKey  string
	FolderID    string
}

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Publish struct {
	ImagePublishDelay time.Duration
	PollInterval      time.Duration
	MaxPollAttempts   int
}

type Config struct {
	Instagram         Instagram
	Cloudinary        Cloudinary
	GoogleDrive       GoogleDrive
	R2                R2
	Publish           Publish
	OpenAIAPIKey      string
	AppsFlyerAPIToken string
	AppsFlyerAppID    string
	RedisURI          string
	UploadDir         string
	BaseURL           string
	FrontendURL       string
	CronSecret        string
	DashboardPassword string
	SecretKey         string
	CookieName        string
}

func LoadConfig() *Config {
	return &Config{
		Instagram: Instagram{
			AppID:             getEnv("INSTAGRAM_APP_ID", ""),
			AppSecret:         getEnv("INSTAGRAM_APP_SECRET", ""),
			RedirectURI:       getEnv("INSTAGRAM_REDIRECT_URI", ""),
			AccessToken:       getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
			BusinessAccountID: getEnv("INSTAGRAM_BUSINESS_ACCOUNT_ID", ""),
		},
		Cloudinary: Cloudinary{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		},
		GoogleDrive: GoogleDrive{
			ClientEmail: getEnv("GOOGLE_DRIVE_CLIENT_EMAIL", ""),
			PrivateKey:  getEnv("GOOGLE_DRIVE_PRIVATE_KEY", ""),
			FolderID:    getEnv("GOOGLE_DRIVE_FOLDER_ID", ""),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Publish: Publish{
			ImagePublishDelay: getEnvDuration("PUBLISH_IMAGE_DELAY", 3*time.Second),
			PollInterval:      getEnvDuration("PUBLISH_POLL_INTERVAL", 2*time.Second),
			MaxPollAttempts:   getEnvInt("PUBLISH_MAX_POLL_ATTEMPTS", 30),
		},
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		AppsFlyerAPIToken: getEnv("APPSFLYER_API_TOKEN", ""),
		AppsFlyerAppID:    getEnv("APPSFLYER_APP_ID", ""),
		RedisURI:          getEnv("REDIS_URI", "localhost:6379"),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:3000"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		CronSecret:        getEnv("CRON_SECRET", ""),
		DashboardPassword: getEnv("DASHBOARD_PASSWORD", ""),
		SecretKey:         getEnv("SECRET_KEY", ""),
		CookieName:        getEnv("COOKIE_NAME", "gm_session"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
