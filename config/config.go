// Package config loads the worker configuration from the process
// environment, with an optional .env file merged underneath.
//
// Every component receives the piece of Config it needs at construction;
// nothing reads process-wide state after Load returns.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full worker configuration.
type Config struct {
	AppEnv string

	Mongo    Mongo
	Queue    Queue
	S3       S3
	Printer  Printer
	SMTP     SMTP
	Billing  Billing
	Tracking Tracking
	Crop     Crop
	Journal  Journal

	// HealthAddr is the listen address for the health/metrics endpoint.
	HealthAddr string

	// TempDir is the root under which per-order working directories are
	// created. Defaults to the OS temp dir.
	TempDir string

	// DownloadConcurrency bounds the image acquisition fan-out.
	DownloadConcurrency int

	// RequireSignupComplete gates order processing on user.SignupComplete
	// in addition to user.Active.
	RequireSignupComplete bool
}

// Mongo is the order/user store connection.
type Mongo struct {
	URI      string
	Database string
}

// Queue is the print queue connection and lease behaviour.
type Queue struct {
	RedisAddr     string
	RedisPassword string
	Key           string
	// WaitTime is the long-poll receive wait. Receiving nothing within it
	// is an empty result, not an error.
	WaitTime time.Duration
	// VisibilityTimeout is how long a received message stays invisible
	// before it is redelivered to another worker.
	VisibilityTimeout time.Duration
}

// S3 is the object storage target for assembled packages.
type S3 struct {
	Bucket   string
	Region   string
	Key      string
	Secret   string
	Endpoint string
	BaseURL  string
	// Folder is the key prefix under which user packages are stored.
	Folder string
}

// Printer holds the delivery channel configuration.
type Printer struct {
	Email EmailChannel
	FTP   FTPChannel
}

// EmailChannel configures the email print channel.
type EmailChannel struct {
	Enabled bool
	From    string
	To      string
	// Critical promotes an email send failure to a pipeline failure.
	// Off by default: email is best-effort, FTP is the fulfillment path.
	Critical bool
}

// FTPChannel configures the FTP print channel.
type FTPChannel struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTP is the outgoing mail transport.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Billing configures the invoice calculator and gateway.
type Billing struct {
	Enabled   bool
	StripeKey string
	// Plans is the set of fixed-allowance subscription plan ids.
	Plans               []string
	ShippingDescription string
	ChargeDescription   string
	PayAsYouGoPlan      string
	Currency            string
	Rates               Rates
}

// Rates is the tier rule table, in dollars. Converted to cents only at the
// gateway boundary.
type Rates struct {
	// Pay-as-you-go per-photo rate by order size. The bucket rate applies
	// to every photo in the order.
	PAYGFreeLimit  int
	PAYGTier1Limit int
	PAYGTier2Limit int
	PAYGTier1Rate  string
	PAYGTier2Rate  string
	PAYGTier3Rate  string

	PAYGShipping      string
	PAYGBulkShipping  string
	PAYGBulkThreshold int

	// Fixed-allowance plans.
	PlanIncluded     int
	PlanOverageFrom  int
	PlanOverageRate  string
	PlanMidShipping  string
	PlanBulkShipping string
}

// Tracking configures the analytics sink.
type Tracking struct {
	Enabled  bool
	Endpoint string
	APIKey   string
}

// Crop configures the crop policy engine and the derived-image CDN.
type Crop struct {
	// SquareRatio is the aspect threshold below which an image is treated
	// as square and letterboxed rather than cropped.
	SquareRatio     float64
	LandscapeWidth  int
	LandscapeHeight int
	SquareSize      int
	FillColor       string

	ImgixHost  string
	ImgixToken string

	// SquareProducts are product codes delivered from the source URL
	// untouched.
	SquareProducts []string
}

// Journal is the failed-order journal database.
type Journal struct {
	Path string
}

// Load reads .env (if present) and the process environment and returns the
// assembled configuration. Environment variables win over .env entries.
func Load() (*Config, error) {
	vals, err := readDotEnv(".env")
	if err != nil {
		return nil, err
	}

	get := func(key, fallback string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		if v := strings.TrimSpace(vals[key]); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		AppEnv:     get("APP_ENV", "local"),
		HealthAddr: get("HEALTH_ADDR", ":8030"),
		TempDir:    get("TEMP_DIR", os.TempDir()),

		DownloadConcurrency:   getInt(get, "DOWNLOAD_CONCURRENCY", 8),
		RequireSignupComplete: getBool(get, "REQUIRE_SIGNUP_COMPLETE", true),

		Mongo: Mongo{
			URI:      get("MONGO_URI", "mongodb://localhost:27017"),
			Database: get("MONGO_DB", "printworks"),
		},
		Queue: Queue{
			RedisAddr:         get("REDIS_ADDR", "localhost:6379"),
			RedisPassword:     get("REDIS_PASSWORD", ""),
			Key:               get("QUEUE_KEY", "printworks:queue:print"),
			WaitTime:          getSeconds(get, "QUEUE_WAIT_TIME", 20),
			VisibilityTimeout: getSeconds(get, "QUEUE_VISIBILITY_TIME", 300),
		},
		S3: S3{
			Bucket:   get("S3_BUCKET", ""),
			Region:   get("S3_REGION", "us-east-1"),
			Key:      get("S3_KEY", ""),
			Secret:   get("S3_SECRET", ""),
			Endpoint: get("S3_ENDPOINT", ""),
			BaseURL:  get("S3_URL", ""),
			Folder:   get("S3_FOLDER", "user-images"),
		},
		Printer: Printer{
			Email: EmailChannel{
				Enabled:  getBool(get, "PRINTER_EMAIL_ENABLED", true),
				From:     get("PRINTER_EMAIL_FROM", "hello@snapkeep.co"),
				To:       get("PRINTER_EMAIL_TO", "printer@snapkeep.co"),
				Critical: getBool(get, "PRINTER_EMAIL_CRITICAL", false),
			},
			FTP: FTPChannel{
				Enabled:  getBool(get, "PRINTER_FTP_ENABLED", false),
				Host:     get("PRINTER_FTP_HOST", ""),
				Port:     getInt(get, "PRINTER_FTP_PORT", 21),
				Username: get("PRINTER_FTP_USERNAME", ""),
				Password: get("PRINTER_FTP_PASSWORD", ""),
				Timeout:  getSeconds(get, "PRINTER_FTP_TIMEOUT", 60),
			},
		},
		SMTP: SMTP{
			Host:     get("MAIL_HOST", "smtp.mailtrap.io"),
			Port:     get("MAIL_PORT", "587"),
			Username: get("MAIL_USERNAME", ""),
			Password: get("MAIL_PASSWORD", ""),
			From:     get("MAIL_FROM", "hello@snapkeep.co"),
			FromName: get("MAIL_FROM_NAME", "Snapkeep"),
		},
		Billing: Billing{
			Enabled:             getBool(get, "BILLING_ENABLED", true),
			StripeKey:           get("STRIPE_KEY", ""),
			Plans:               splitList(get("BILLING_PLANS", "VALUE100,PHOTOADDICT100,UNLTD100SHIP")),
			ShippingDescription: get("BILLING_SHIPPING_DESCRIPTION", "Shipping"),
			ChargeDescription:   get("BILLING_CHARGE_DESCRIPTION", "Photos [%d]"),
			PayAsYouGoPlan:      get("BILLING_PAYG_PLAN", "PAYG"),
			Currency:            get("BILLING_CURRENCY", "usd"),
			Rates:               loadRates(get),
		},
		Tracking: Tracking{
			Enabled:  getBool(get, "TRACK_PRINTING", true),
			Endpoint: get("TRACKING_ENDPOINT", "https://api.mixpanel.com/track"),
			APIKey:   get("TRACKING_API_KEY", ""),
		},
		Crop: Crop{
			SquareRatio:     getFloat(get, "CROP_SQUARE_RATIO", 1.25),
			LandscapeWidth:  getInt(get, "CROP_LANDSCAPE_WIDTH", 1800),
			LandscapeHeight: getInt(get, "CROP_LANDSCAPE_HEIGHT", 1200),
			SquareSize:      getInt(get, "CROP_SQUARE_SIZE", 1200),
			FillColor:       get("CROP_FILL_COLOR", "fff"),
			ImgixHost:       get("IMGIX_HOST", "pixy.imgix.net"),
			ImgixToken:      get("IMGIX_SECURE_TOKEN", ""),
			SquareProducts:  splitList(get("CROP_SQUARE_PRODUCTS", "square,squ")),
		},
		Journal: Journal{
			Path: get("JOURNAL_PATH", "printworks-journal.db"),
		},
	}

	return cfg, nil
}

// loadRates reads the tier rule table; every rate and threshold is
// overridable from the environment.
func loadRates(get getter) Rates {
	return Rates{
		PAYGFreeLimit:  getInt(get, "RATE_PAYG_FREE_LIMIT", 5),
		PAYGTier1Limit: getInt(get, "RATE_PAYG_TIER1_LIMIT", 10),
		PAYGTier2Limit: getInt(get, "RATE_PAYG_TIER2_LIMIT", 50),
		PAYGTier1Rate:  get("RATE_PAYG_TIER1", "0.80"),
		PAYGTier2Rate:  get("RATE_PAYG_TIER2", "0.50"),
		PAYGTier3Rate:  get("RATE_PAYG_TIER3", "0.30"),

		PAYGShipping:      get("RATE_PAYG_SHIPPING", "3.00"),
		PAYGBulkShipping:  get("RATE_PAYG_BULK_SHIPPING", "6.00"),
		PAYGBulkThreshold: getInt(get, "RATE_PAYG_BULK_THRESHOLD", 50),

		PlanIncluded:     getInt(get, "RATE_PLAN_INCLUDED", 50),
		PlanOverageFrom:  getInt(get, "RATE_PLAN_OVERAGE_FROM", 100),
		PlanOverageRate:  get("RATE_PLAN_OVERAGE", "0.50"),
		PlanMidShipping:  get("RATE_PLAN_MID_SHIPPING", "2.00"),
		PlanBulkShipping: get("RATE_PLAN_BULK_SHIPPING", "4.00"),
	}
}

// ── Parsing helpers ──────────────────────────────────────────────────────────

type getter func(key, fallback string) string

func getInt(get getter, key string, fallback int) int {
	if n, err := strconv.Atoi(get(key, "")); err == nil {
		return n
	}
	return fallback
}

func getFloat(get getter, key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(get(key, ""), 64); err == nil {
		return f
	}
	return fallback
}

func getBool(get getter, key string, fallback bool) bool {
	switch strings.ToLower(get(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getSeconds(get getter, key string, fallback int) time.Duration {
	return time.Duration(getInt(get, key, fallback)) * time.Second
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

// readDotEnv parses a KEY=VALUE file. A missing file is not an error.
func readDotEnv(path string) (map[string]string, error) {
	out := map[string]string{}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"'`)
		if key != "" {
			out[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}
