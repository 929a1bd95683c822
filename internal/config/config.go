package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "neela-data/common/config"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config neela-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	// DataSource: memory | postgres | http
	DataSource string
	Database   commoncfg.DatabaseConfig
	Backend    BackendConfig
	Redis      struct {
		Enabled bool
		commoncfg.RedisConfig
	}
	MQTT struct {
		Enabled bool
		commoncfg.MQTTConfig
	}
	Log struct {
		Level  string
		Format string
	}
	AI        AIConfig
	Screening ScreeningConfig
	Portal    PortalConfig
	Settings  Settings
}

// BackendConfig REST 后端（HTTPDataSource 使用）
type BackendConfig struct {
	BaseURL string
	Token   string
}

// AIConfig 分诊 / 租约起草服务；BaseURL 为空时不启用
type AIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ScreeningConfig 模拟背调
type ScreeningConfig struct {
	Delay       time.Duration
	CreditScore int
}

// PortalConfig 住户端限流（每个住户）
type PortalConfig struct {
	RatePerSecond float64
	Burst         int
}

// Settings 物业设置（SettingsView 对应的只读配置）
type Settings struct {
	Properties     []Property        `json:"properties"`
	Application    ApplicationConfig `json:"application"`
	LeaseTemplates []LeaseTemplate   `json:"leaseTemplates"`
	NoticeTemplates []NoticeTemplate `json:"noticeTemplates"`
	Finance        FinanceConfig     `json:"finance"`
	Branding       BrandingConfig    `json:"branding"`
}

type Property struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Units   int    `json:"units"`
}

type ApplicationConfig struct {
	RequireEmployment bool            `json:"requireEmployment"`
	RequireReferences bool            `json:"requireReferences"`
	RequireSSN        bool            `json:"requireSSN"`
	ApplicationFee    decimal.Decimal `json:"applicationFee"`
	ConsentText       string          `json:"consentText"`
}

// LeaseTemplate 租约模板；Body 中的 {{name}} 在起草时替换
type LeaseTemplate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Body string `json:"body"`
}

// NoticeTemplate 通知 / 法律文书模板，Type 对应文书类型
type NoticeTemplate struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Body string `json:"body"`
}

type FinanceConfig struct {
	DueDay         int             `json:"dueDay"`
	GracePeriod    int             `json:"gracePeriod"`
	LateFeeInitial decimal.Decimal `json:"lateFeeInitial"`
	LateFeeDaily   decimal.Decimal `json:"lateFeeDaily"`
	Currency       string          `json:"currency"`
}

type BrandingConfig struct {
	CompanyName  string `json:"companyName"`
	PrimaryColor string `json:"primaryColor"`
	LogoURL      string `json:"logoUrl"`
}

// Template 按 id 查模板
func (s Settings) Template(id string) (LeaseTemplate, bool) {
	for _, t := range s.LeaseTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return LeaseTemplate{}, false
}

// Notice 按文书类型查模板
func (s Settings) Notice(docType string) (NoticeTemplate, bool) {
	for _, t := range s.NoticeTemplates {
		if t.Type == docType {
			return t, true
		}
	}
	return NoticeTemplate{}, false
}

// Load 读取环境变量；存在 .env 时先加载（不覆盖已有变量）
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.DataSource = getEnv("DATA_SOURCE", "memory")

	cfg.Database = commoncfg.DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "postgres",
		Password:        "postgres",
		Database:        "neela",
		SSLMode:         "disable",
		MaxConns:        10,
		MaxIdle:         5,
		ConnMaxLifetime: 30 * time.Minute,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Backend.BaseURL = getEnv("BACKEND_URL", "http://localhost:8000/api")
	cfg.Backend.Token = getEnv("BACKEND_TOKEN", "")

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.RedisConfig.LoadFromEnv("REDIS")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.MQTTConfig = commoncfg.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "neela-data",
		Topic:    "neela/notifications",
		QoS:      1,
	}
	cfg.MQTT.MQTTConfig.LoadFromEnv("MQTT")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.AI.BaseURL = getEnv("AI_BASE_URL", "")
	cfg.AI.APIKey = getEnv("AI_API_KEY", "")
	cfg.AI.Timeout = parseDuration(getEnv("AI_TIMEOUT", "30s"), 30*time.Second)

	cfg.Screening.Delay = parseDuration(getEnv("SCREENING_DELAY", "2s"), 2*time.Second)
	cfg.Screening.CreditScore = parseInt(getEnv("SCREENING_CREDIT_SCORE", "715"), 715)

	cfg.Portal.RatePerSecond = parseFloat(getEnv("PORTAL_RATE", "5"), 5)
	cfg.Portal.Burst = parseInt(getEnv("PORTAL_BURST", "10"), 10)

	cfg.Settings = DefaultSettings()
	if name := os.Getenv("COMPANY_NAME"); name != "" {
		cfg.Settings.Branding.CompanyName = name
	}
	cfg.Settings.Finance.DueDay = parseInt(getEnv("RENT_DUE_DAY", "1"), 1)
	return cfg
}

// DefaultSettings 出厂设置
func DefaultSettings() Settings {
	return Settings{
		Properties: []Property{
			{ID: 1, Name: "Sunset Apartments", Address: "101 Sunset Blvd", City: "Austin", State: "TX", Units: 24},
			{ID: 2, Name: "Oak Lane Houses", Address: "452 Oak Lane", City: "Round Rock", State: "TX", Units: 12},
		},
		Application: ApplicationConfig{
			RequireEmployment: true,
			RequireReferences: true,
			ApplicationFee:    decimal.NewFromInt(45),
			ConsentText:       "I authorize Neela Capital Investment to perform background checks...",
		},
		LeaseTemplates: []LeaseTemplate{
			{ID: "standard-texas", Name: "Standard Texas Residential", Body: standardLease},
			{ID: "month-to-month", Name: "Month-to-Month Agreement", Body: monthToMonthLease},
			{ID: "student-housing", Name: "Student Housing (Guarantor Req)", Body: studentLease},
		},
		NoticeTemplates: []NoticeTemplate{
			{Type: "Late Rent Notice", Name: "Late Rent Reminder", Body: lateRentNotice},
			{Type: "Notice to Pay or Quit", Name: "Texas Notice to Pay or Quit", Body: payOrQuitNotice},
			{Type: "Lease Violation Notice", Name: "Lease Violation", Body: leaseViolationNotice},
		},
		Finance: FinanceConfig{
			DueDay:         1,
			GracePeriod:    3,
			LateFeeInitial: decimal.NewFromInt(50),
			LateFeeDaily:   decimal.NewFromInt(10),
			Currency:       "USD",
		},
		Branding: BrandingConfig{
			CompanyName:  "Neela Capital Investment",
			PrimaryColor: "#4f46e5",
		},
	}
}

const standardLease = `RESIDENTIAL LEASE AGREEMENT

This agreement is made on {{date}} between:
Landlord: {{company_name}}
Tenant: {{tenant_name}}

Property: {{property_address}}
Rent: ${{rent_amount}} due on the {{due_day}} of each month.
Term: {{lease_term}} months beginning on {{start_date}}.

1. PAYMENT
Tenant agrees to pay rent by the due date. Late fees apply as follows: ${{late_fee_initial}} initial + ${{late_fee_daily}}/day.

2. MAINTENANCE
Tenant agrees to maintain the property in good condition.

Signatures:
________________________ Landlord
________________________ Tenant`

const monthToMonthLease = `MONTH-TO-MONTH RENTAL AGREEMENT

Made on {{date}} between {{company_name}} (Landlord) and {{tenant_name}} (Tenant).

Property: {{property_address}}
Rent: ${{rent_amount}} per month, due on the {{due_day}}.
This tenancy begins on {{start_date}} and continues month to month until terminated by either party with 30 days written notice.

Signatures:
________________________ Landlord
________________________ Tenant`

const studentLease = `STUDENT HOUSING LEASE AGREEMENT

Made on {{date}} between {{company_name}} (Landlord) and {{tenant_name}} (Student Tenant).

Property: {{property_address}}
Rent: ${{rent_amount}} due on the {{due_day}} of each month.
Term: {{lease_term}} months beginning on {{start_date}}.

GUARANTOR
A parent or guardian must co-sign this agreement and guarantees all obligations of the Student Tenant.

Signatures:
________________________ Landlord
________________________ Student Tenant
________________________ Guarantor`

const lateRentNotice = `LATE RENT NOTICE

Date: {{date}}
To: {{tenant_name}}
Property: {{property_address}}

Our records show an outstanding balance of ${{balance}} on your account. Rent is due on the {{due_day}} of each month with a {{grace_period}} day grace period. A late fee of ${{late_fee_initial}} plus ${{late_fee_daily}}/day applies after the grace period.

Please pay the full balance through the resident portal as soon as possible.

{{company_name}}`

const payOrQuitNotice = `NOTICE TO PAY RENT OR QUIT

Date: {{date}}
To: {{tenant_name}}
Premises: {{property_address}}

You are hereby notified that rent in the amount of ${{balance}} is past due. You must pay the full amount or vacate the premises within three (3) days of delivery of this notice. Failure to do so may result in eviction proceedings.

{{company_name}}, Landlord`

const leaseViolationNotice = `NOTICE OF LEASE VIOLATION

Date: {{date}}
To: {{tenant_name}}
Premises: {{property_address}}

This notice concerns a violation of your lease agreement. Please contact the management office within seven (7) days to resolve the matter.

{{company_name}}`

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
