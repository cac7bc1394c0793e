package config

const (
	defaultConfigPath        = "~/.config/streamkeeper/config.toml"
	defaultRecordingsDir     = "~/streamkeeper/recordings"
	defaultSnapshotDir       = "~/streamkeeper/static/users"
	defaultStateDir          = "~/.local/share/streamkeeper"
	defaultLogDir            = "~/.local/share/streamkeeper/logs"
	defaultAPIBind           = "127.0.0.1:7488"
	defaultCheckInterval     = 60
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultExtension         = "mp4"
	defaultStartGrace        = 3
	defaultStopTimeout       = 10
	defaultSnapshotTimeout   = 10
	defaultSnapshotMaxAge    = 3600
	defaultSnapshotWidth     = 400
	defaultChaturbateBaseURL = "https://chaturbate.com"
	defaultChaturbateAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultRequestTimeout    = 20
	defaultProbeTimeout      = 5
	defaultNtfyTimeout       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	apiTokenEnv              = "STREAMKEEPER_API_TOKEN"
	chaturbateUserAgentEnv   = "STREAMKEEPER_USER_AGENT"
	ntfyTopicEnv             = "STREAMKEEPER_NTFY_TOPIC"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RecordingsDir: defaultRecordingsDir,
			SnapshotDir:   defaultSnapshotDir,
			StateDir:      defaultStateDir,
			LogDir:        defaultLogDir,
			APIBind:       defaultAPIBind,
		},
		Monitor: Monitor{
			CheckInterval: defaultCheckInterval,
			AutoStart:     true,
			StartOnAdd:    true,
		},
		Capture: Capture{
			FFmpegBinary:    defaultFFmpegBinary,
			FFprobeBinary:   defaultFFprobeBinary,
			Extension:       defaultExtension,
			StartGrace:      defaultStartGrace,
			StopTimeout:     defaultStopTimeout,
			SnapshotTimeout: defaultSnapshotTimeout,
			SnapshotMaxAge:  defaultSnapshotMaxAge,
			SnapshotWidth:   defaultSnapshotWidth,
		},
		Sites: Sites{
			Chaturbate: Chaturbate{
				BaseURL:        defaultChaturbateBaseURL,
				UserAgent:      defaultChaturbateAgent,
				RequestTimeout: defaultRequestTimeout,
				ProbeTimeout:   defaultProbeTimeout,
			},
		},
		Notifications: Notifications{
			RequestTimeout:    defaultNtfyTimeout,
			StreamOnline:      true,
			RecordingStarted:  true,
			RecordingFinished: true,
			Errors:            true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
