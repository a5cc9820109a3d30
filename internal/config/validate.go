package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDMH(); err != nil {
		return err
	}
	if err := c.validateRecords(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDMH() error {
	if strings.TrimSpace(c.DMH.BaseURL) != "" {
		if !strings.HasPrefix(c.DMH.BaseURL, "http://") && !strings.HasPrefix(c.DMH.BaseURL, "https://") {
			return fmt.Errorf("dmh.base_url must be an http(s) URL, got %q", c.DMH.BaseURL)
		}
	}
	if err := ensurePositiveMap(map[string]int{
		"dmh.timeout_seconds":  c.DMH.TimeoutSeconds,
		"dmh.concurrent_limit": c.DMH.ConcurrentLimit,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRecords() error {
	if c.Records.DefaultTaxRate < 0 || c.Records.DefaultTaxRate > 1 {
		return errors.New("records.default_tax_rate must be between 0 and 1")
	}
	if len(c.Records.DefaultCurrency) != 3 {
		return fmt.Errorf("records.default_currency must be a 3-letter ISO code, got %q", c.Records.DefaultCurrency)
	}
	for pair, rate := range c.Records.ConversionRates {
		src, dst, ok := strings.Cut(pair, "/")
		if !ok || len(src) != 3 || len(dst) != 3 {
			return fmt.Errorf("records.conversion_rates key %q must be of the form SRC/DST", pair)
		}
		if rate <= 0 {
			return fmt.Errorf("records.conversion_rates[%q] must be positive", pair)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.batch_workers":  c.Workflow.BatchWorkers,
		"workflow.submit_timeout": c.Workflow.SubmitTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
