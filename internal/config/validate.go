package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	// Zero workers is allowed: the pool idles until the target is raised.
	if c.Workers.Count < 0 {
		return errors.New("workers.count must not be negative")
	}
	if c.Workers.TickInterval < 1 {
		return errors.New("workers.tick_interval must be at least 1 second")
	}
	if c.Workers.IdleBackoff < 1 {
		return errors.New("workers.idle_backoff must be at least 1 second")
	}
	if c.Workers.PollInterval < 1 {
		return errors.New("workers.poll_interval must be at least 1 second")
	}
	if c.Workers.DrainPaceMS < 0 {
		return errors.New("workers.drain_pace_ms must not be negative")
	}
	return nil
}

func (c *Config) validateEngine() error {
	switch c.Engine.TargetContainer {
	case "mkv", "mp4", "webm", "mov":
	default:
		return fmt.Errorf("engine.target_container: unsupported container %q", c.Engine.TargetContainer)
	}
	if c.Engine.VideoCodec == "" {
		return errors.New("engine.video_codec must be set")
	}
	if c.Engine.AudioCodec == "" {
		return errors.New("engine.audio_codec must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
