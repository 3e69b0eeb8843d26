package ports

// Settings keys with their built-in defaults. The suspension profile default
// is a sentinel: the orchestrator only ever auto-creates a profile carrying
// this exact name.
const (
	KeySuspensionProfile     = "suspension.profile"
	KeySuspensionGraceDays   = "suspension.grace_period_days"
	KeyAutoSuspensionEnabled = "suspension.auto_enabled"
	KeyDefaultRestoreProfile = "restore.default_profile"
	KeyDefaultTaxRatePercent = "billing.default_tax_rate"

	DefaultSuspensionProfile = "isolir"
	DefaultRestoreProfile    = "default"
	DefaultGraceDays         = 7
	DefaultTaxRatePercent    = 11.0
)

// SettingsStore is a key/value configuration source with caller-supplied
// defaults for missing keys.
type SettingsStore interface {
	GetString(key, def string) string
	GetInt(key string, def int) int
	GetBool(key string, def bool) bool
	GetFloat(key string, def float64) float64
}
