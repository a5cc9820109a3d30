package config

const (
	defaultDownloadDir        = "~/.local/share/dmhmr/downloads"
	defaultBackupDir          = "~/.local/share/dmhmr/backups"
	defaultTemplatesDir       = "~/.config/dmhmr/templates"
	defaultLogDir             = "~/.local/share/dmhmr/logs"
	defaultDMHLoginPath       = "/auth/login"
	defaultDMHSubmitPath      = "/mr/submit"
	defaultDMHTimeout         = 60
	defaultDMHConcurrentLimit = 3
	defaultTaxRate            = 0.30
	defaultCurrency           = "AUD"
	defaultBatchWorkers       = 4
	defaultSubmitTimeout      = 60
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir:  defaultDownloadDir,
			BackupDir:    defaultBackupDir,
			TemplatesDir: defaultTemplatesDir,
			LogDir:       defaultLogDir,
		},
		DMH: DMH{
			LoginPath:       defaultDMHLoginPath,
			SubmitPath:      defaultDMHSubmitPath,
			TimeoutSeconds:  defaultDMHTimeout,
			ConcurrentLimit: defaultDMHConcurrentLimit,
		},
		Records: Records{
			DefaultTaxRate:  defaultTaxRate,
			DefaultCurrency: defaultCurrency,
		},
		Workflow: Workflow{
			BatchWorkers:  defaultBatchWorkers,
			SubmitTimeout: defaultSubmitTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
