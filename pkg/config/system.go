package config

import (
	"os"
	"strconv"
	"time"
)

// System holds the environment-variable-driven settings consulted at
// startup . Loaded once and passed explicitly to constructors
// rather than read ad hoc from os.Getenv throughout the codebase (spec
// §9: "Global mutable state ... model as explicitly constructed
// services").
type System struct {
	Workdir                string
	SkillsMode             string // "on" | "shadow" | "off"
	MemorySearchPastChats  bool
	ToolPermissionTimeout  time.Duration
	ToolPermissionDefault  bool // default-allow on approval timeout
	AppEnv                 string
	CoreAPIURL             string
	CoreAPIInternalKey     string
}

// LoadSystemFromEnv reads the system's environment-driven configuration.
// COWORK_WORKDIR takes precedence over the legacy CAMEL_WORKDIR alias;
// unset booleans/durations fall back to the documented defaults.
func LoadSystemFromEnv() System {
	workdir := firstNonEmptyEnv("COWORK_WORKDIR", "CAMEL_WORKDIR")
	if workdir == "" {
		home, _ := os.UserHomeDir()
		workdir = home + "/.cowork/workdir"
	}

	appEnv := getenvDefault("APP_ENV", "development")

	timeoutSeconds := 120
	if v := os.Getenv("TOOL_PERMISSION_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			timeoutSeconds = n
		}
	}

	// Default decision on approval timeout: approve in development,
	// deny elsewhere , unless the
	// operator overrides it explicitly.
	defaultAllow := appEnv == "development"
	if v := os.Getenv("TOOL_PERMISSION_DEFAULT_ALLOW"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			defaultAllow = b
		}
	}

	return System{
		Workdir:               workdir,
		SkillsMode:            getenvDefault("RUNTIME_SKILLS_V2", "on"),
		MemorySearchPastChats: os.Getenv("MEMORY_SEARCH_PAST_CHATS") == "true",
		ToolPermissionTimeout: time.Duration(timeoutSeconds) * time.Second,
		ToolPermissionDefault: defaultAllow,
		AppEnv:                appEnv,
		CoreAPIURL:            os.Getenv("CORE_API_URL"),
		CoreAPIInternalKey:    os.Getenv("CORE_API_INTERNAL_KEY"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstNonEmptyEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
