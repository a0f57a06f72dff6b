package config

const (
	defaultStagingDir      = "~/.local/share/optijpeg/staging"
	defaultLogDir          = "~/.local/share/optijpeg/logs"
	defaultJpegtranBinary  = "jpegtran"
	defaultJpegtranTimeout = 120
	defaultQuality         = 95
	defaultSubsampling     = "420"
	defaultCopyMetadata    = "comments"
	defaultBatchJobs       = 1
	defaultStaleAgeHours   = 24
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Jpegtran: Jpegtran{
			Binary:         defaultJpegtranBinary,
			TimeoutSeconds: defaultJpegtranTimeout,
		},
		Encoder: Encoder{
			Quality:      defaultQuality,
			Subsampling:  defaultSubsampling,
			Optimize:     true,
			Progressive:  false,
			CopyMetadata: defaultCopyMetadata,
		},
		Batch: Batch{
			Jobs:          defaultBatchJobs,
			StaleAgeHours: defaultStaleAgeHours,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
