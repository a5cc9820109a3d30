package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDMH()
	c.normalizeRecords()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		c.Paths.BackupDir = defaultBackupDir
	}
	if c.Paths.BackupDir, err = expandPath(c.Paths.BackupDir); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TemplatesDir) == "" {
		c.Paths.TemplatesDir = defaultTemplatesDir
	}
	if c.Paths.TemplatesDir, err = expandPath(c.Paths.TemplatesDir); err != nil {
		return fmt.Errorf("paths.templates_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDMH() {
	c.DMH.BaseURL = strings.TrimRight(strings.TrimSpace(c.DMH.BaseURL), "/")
	c.DMH.LoginPath = strings.TrimSpace(c.DMH.LoginPath)
	if c.DMH.LoginPath == "" {
		c.DMH.LoginPath = defaultDMHLoginPath
	}
	c.DMH.SubmitPath = strings.TrimSpace(c.DMH.SubmitPath)
	if c.DMH.SubmitPath == "" {
		c.DMH.SubmitPath = defaultDMHSubmitPath
	}
	if c.DMH.Username == "" {
		if value, ok := os.LookupEnv("DMH_USERNAME"); ok {
			c.DMH.Username = value
		}
	}
	if c.DMH.TimeoutSeconds <= 0 {
		c.DMH.TimeoutSeconds = defaultDMHTimeout
	}
	if c.DMH.ConcurrentLimit <= 0 {
		c.DMH.ConcurrentLimit = defaultDMHConcurrentLimit
	}
}

func (c *Config) normalizeRecords() {
	if c.Records.DefaultTaxRate == 0 {
		c.Records.DefaultTaxRate = defaultTaxRate
	}
	c.Records.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.Records.DefaultCurrency))
	if c.Records.DefaultCurrency == "" {
		c.Records.DefaultCurrency = defaultCurrency
	}
	if len(c.Records.ConversionRates) > 0 {
		normalized := make(map[string]float64, len(c.Records.ConversionRates))
		for pair, rate := range c.Records.ConversionRates {
			normalized[strings.ToUpper(strings.TrimSpace(pair))] = rate
		}
		c.Records.ConversionRates = normalized
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.BatchWorkers <= 0 {
		c.Workflow.BatchWorkers = defaultBatchWorkers
	}
	if c.Workflow.SubmitTimeout <= 0 {
		c.Workflow.SubmitTimeout = defaultSubmitTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
