package main

import (
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/optimode/mailprobe"
	"github.com/optimode/mailprobe/check"
)

// fileConfig is the YAML configuration file.
//
//	sender_address: verify@myapp.example
//	command_timeout: 15s
//	workers: 10
//	mx_cache_ttl: 5m
//	mailgun:
//	  api_key: key-123
//	blacklist:
//	  domains: [spam.example]
//	  disposable: true
//	  redis_url: redis://localhost:6379/0
type fileConfig struct {
	mailprobe.Config `yaml:",inline"`

	Workers    int           `yaml:"workers"`
	MXCacheTTL time.Duration `yaml:"mx_cache_ttl"`

	Mailgun struct {
		APIKey string `yaml:"api_key"`
		URL    string `yaml:"url"`
	} `yaml:"mailgun"`

	Blacklist struct {
		Domains    []string `yaml:"domains"`
		Disposable bool     `yaml:"disposable"`
		RedisURL   string   `yaml:"redis_url"`
		RedisKey   string   `yaml:"redis_key"`
	} `yaml:"blacklist"`
}

// loadConfig reads path. An empty path yields the zero configuration.
func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// verifier builds the configured Verifier. The returned close function
// releases the Redis client, if one was opened.
func (c *fileConfig) verifier(logger *zap.Logger) (*mailprobe.Verifier, func(), error) {
	closeFn := func() {}

	v := mailprobe.New(c.Config).WithLogger(logger).WithMXCache(c.MXCacheTTL)

	if c.Mailgun.APIKey != "" {
		var opts []check.MailgunOption
		if c.Mailgun.URL != "" {
			opts = append(opts, check.WithMailgunURL(c.Mailgun.URL))
		}
		v.WithValidator(check.NewMailgunValidator(c.Mailgun.APIKey, opts...))
	} else {
		v.WithValidator(check.NewSyntaxChecker())
	}

	var lists check.AnyBlacklist
	if len(c.Blacklist.Domains) > 0 {
		lists = append(lists, check.NewDomainList(c.Blacklist.Domains...))
	}
	if c.Blacklist.Disposable {
		lists = append(lists, check.NewDisposableList())
	}
	if c.Blacklist.RedisURL != "" {
		bl, client, err := check.NewRedisBlacklistFromURL(c.Blacklist.RedisURL, c.Blacklist.RedisKey)
		if err != nil {
			return nil, closeFn, err
		}
		lists = append(lists, bl)
		closeFn = closeRedis(client, logger)
	}
	if len(lists) > 0 {
		v.WithBlacklist(lists)
	}
	return v, closeFn, nil
}

func closeRedis(client *redis.Client, logger *zap.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			logger.Warn("close redis client", zap.Error(err))
		}
	}
}
