package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	if c.AI.Model == "" {
		return fmt.Errorf("ai.model must not be empty")
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("ai.max_tokens must be > 0 (got %d)", c.AI.MaxTokens)
	}

	if c.Store.RecentlyViewedMax <= 0 {
		return fmt.Errorf("store.recently_viewed_max must be > 0 (got %d)", c.Store.RecentlyViewedMax)
	}

	if c.RateLimit.AIRequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.ai_requests_per_minute must be > 0 (got %d)", c.RateLimit.AIRequestsPerMinute)
	}

	return nil
}
