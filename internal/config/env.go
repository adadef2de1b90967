package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	textVars := []struct {
		key    string
		target *string
	}{
		{"LOREWEAVE_DATABASE_DSN", &cfg.Database.DSN},
		{"LOREWEAVE_HTTP_ADDR", &cfg.Server.HTTPAddr},
		{"LOREWEAVE_USER_AGENT", &cfg.Server.UserAgent},
		{"LOREWEAVE_JIKAN_URL", &cfg.Sources.Jikan.BaseURL},
		{"LOREWEAVE_ANILIST_URL", &cfg.Sources.AniList.BaseURL},
		{"LOREWEAVE_MANGADEX_URL", &cfg.Sources.MangaDex.BaseURL},
		{"LOREWEAVE_WIKI_URL", &cfg.Sources.Wiki.BaseURL},
		{"LOREWEAVE_LOG_LEVEL", &cfg.Log.Level},
	}
	for _, item := range textVars {
		if value, ok := lookup(item.key); ok && strings.TrimSpace(value) != "" {
			*item.target = strings.TrimSpace(value)
		}
	}

	millis := []struct {
		key    string
		target *time.Duration
	}{
		{"LOREWEAVE_JIKAN_DELAY_MS", &cfg.Sources.Jikan.Delay},
		{"LOREWEAVE_ANILIST_DELAY_MS", &cfg.Sources.AniList.Delay},
		{"LOREWEAVE_MANGADEX_DELAY_MS", &cfg.Sources.MangaDex.Delay},
		{"LOREWEAVE_WIKI_DELAY_MS", &cfg.Sources.Wiki.Delay},
		{"LOREWEAVE_RETRY_DELAY_MS", &cfg.Retry.Delay},
	}
	for _, item := range millis {
		n, ok, err := envInt(lookup, item.key)
		if err != nil {
			return err
		}
		if ok {
			*item.target = time.Duration(n) * time.Millisecond
		}
	}

	if n, ok, err := envInt(lookup, "LOREWEAVE_CACHE_TTL_SECONDS"); err != nil {
		return err
	} else if ok {
		cfg.Cache.TTL = time.Duration(n) * time.Second
	}
	if n, ok, err := envInt(lookup, "LOREWEAVE_CACHE_MAX_ENTRIES"); err != nil {
		return err
	} else if ok {
		cfg.Cache.MaxEntries = n
	}
	if n, ok, err := envInt(lookup, "LOREWEAVE_RETRY_COUNT"); err != nil {
		return err
	} else if ok {
		cfg.Retry.Count = n
	}

	return nil
}

func envInt(lookup lookupFunc, key string) (int, bool, error) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, true, nil
}
