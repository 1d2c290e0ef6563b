package config

const (
	defaultStagingDir      = "~/.local/share/reel/staging"
	defaultCacheDir        = "~/.local/share/reel/cache"
	defaultLogDir          = "~/.local/share/reel/logs"
	defaultAPIBind         = "127.0.0.1:7519"
	defaultWorkerCount     = 3
	defaultTickInterval    = 1
	defaultIdleBackoff     = 5
	defaultPollInterval    = 5
	defaultDrainPaceMS     = 200
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultTargetContainer = "mkv"
	defaultVideoCodec      = "libx265"
	defaultAudioCodec      = "copy"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			CacheDir:   defaultCacheDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Workers: Workers{
			Count:        defaultWorkerCount,
			TickInterval: defaultTickInterval,
			IdleBackoff:  defaultIdleBackoff,
			PollInterval: defaultPollInterval,
			DrainPaceMS:  defaultDrainPaceMS,
		},
		Engine: Engine{
			FFmpegBinary:    defaultFFmpegBinary,
			FFprobeBinary:   defaultFFprobeBinary,
			TargetContainer: defaultTargetContainer,
			VideoCodec:      defaultVideoCodec,
			AudioCodec:      defaultAudioCodec,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
