package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"quill/internal/check"
	"quill/internal/checker"
	"quill/internal/config"
)

// loadConfig resolves the configuration for inputs under startDir: the
// --config file or the nearest quill.toml, then .env and QUILL_* variables,
// then the global flags.
func loadConfig(cmd *cobra.Command, startDir string) (*config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	var cfg *config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(startDir)
	}
	if err != nil {
		return nil, err
	}

	envDir := startDir
	if cfg.Path != "" {
		envDir = filepath.Dir(cfg.Path)
	}
	if err := config.LoadDotEnv(envDir); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	server, err := flags.GetString("server")
	if err != nil {
		return nil, fmt.Errorf("failed to get server flag: %w", err)
	}
	if server != "" {
		cfg.Server.URL = server
	}
	language, err := flags.GetString("language")
	if err != nil {
		return nil, fmt.Errorf("failed to get language flag: %w", err)
	}
	if language != "" {
		cfg.Check.Language = language
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type cacheOptions struct {
	disk bool
	dir  string
}

// newCoordinator wires the checker client, the response caches and the
// coordinator for cfg.
func newCoordinator(cfg *config.Config, cache cacheOptions) (*check.Coordinator, error) {
	opts, err := cfg.CheckOptions()
	if err != nil {
		return nil, err
	}
	var disk *checker.DiskCache
	if cache.disk || cache.dir != "" {
		disk, err = checker.OpenDiskCache(cache.dir)
		if err != nil {
			return nil, err
		}
	}
	cached, err := checker.NewCached(cfg.Client(), checker.DefaultCacheSize, disk)
	if err != nil {
		return nil, err
	}
	return check.New(cached, opts), nil
}

func readCacheOptions(cmd *cobra.Command) (cacheOptions, error) {
	disk, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return cacheOptions{}, fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return cacheOptions{}, fmt.Errorf("failed to get cache-dir flag: %w", err)
	}
	return cacheOptions{disk: disk, dir: dir}, nil
}

func addCacheFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("disk-cache", false, "persist checker responses on disk")
	cmd.Flags().String("cache-dir", "", "directory for the disk cache (implies --disk-cache)")
}

// startDirFor is the directory configuration is discovered from.
func startDirFor(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}
