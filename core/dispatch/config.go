package dispatch

// Config defines matcher-related settings.
type Config struct {
	AckWindowSeconds       int       `json:"ack_window_seconds"`
	AckWindowMinSeconds    int       `json:"ack_window_min_seconds"`
	AckWindowMaxSeconds    int       `json:"ack_window_max_seconds"`
	AttemptsPerTier        int       `json:"attempts_per_tier"`
	RadiusTiersKm          []float64 `json:"radius_tiers_km"`
	RematchIntervalSeconds int       `json:"rematch_interval_seconds"`
}

// SetDefaults fills unset fields with working defaults.
func (c *Config) SetDefaults() {
	if c.AckWindowSeconds <= 0 {
		c.AckWindowSeconds = 15
	}
	if c.AckWindowMinSeconds <= 0 {
		c.AckWindowMinSeconds = 5
	}
	if c.AckWindowMaxSeconds < c.AckWindowMinSeconds {
		c.AckWindowMaxSeconds = 60
	}
	if c.AttemptsPerTier <= 0 {
		c.AttemptsPerTier = 3
	}
	if len(c.RadiusTiersKm) == 0 {
		c.RadiusTiersKm = []float64{3, 8, 25}
	}
	if c.RematchIntervalSeconds <= 0 {
		c.RematchIntervalSeconds = 30
	}
}
