// Command cowork-engine is the process entrypoint: it loads
// configuration, wires every package from pkg/ into one runloop.Engine,
// and serves the HTTP surface from spec §6. Mirrors the teacher's
// cmd/tarsy/main.go: a flag for the config directory, .env loading,
// gin mode from the environment, then straight-line construction.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/rajat1299/Cowork-sub000/pkg/api"
	"github.com/rajat1299/Cowork-sub000/pkg/config"
	"github.com/rajat1299/Cowork-sub000/pkg/core"
	"github.com/rajat1299/Cowork-sub000/pkg/deps"
	"github.com/rajat1299/Cowork-sub000/pkg/memory"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
	"github.com/rajat1299/Cowork-sub000/pkg/runloop"
	"github.com/rajat1299/Cowork-sub000/pkg/skills"
	"github.com/rajat1299/Cowork-sub000/pkg/tools"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	skillPackDir := flag.String("skillpack-dir", getEnv("SKILLPACK_DIR", "./deploy/skillpacks"), "Path to the skill pack root")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	system := config.LoadSystemFromEnv()

	agentProfiles, err := config.LoadAgentProfiles(*configDir)
	if err != nil {
		log.Fatalf("failed to load agent profiles: %v", err)
	}
	agents := config.NewAgentRegistry(agentProfiles)

	providerConfigs, err := config.LoadProviderConfigs(*configDir)
	if err != nil {
		log.Fatalf("failed to load provider configs: %v", err)
	}
	providers := config.NewProviderRegistry(providerConfigs)

	packs, err := skills.LoadPacks(*skillPackDir)
	if err != nil {
		log.Fatalf("failed to load skill packs: %v", err)
	}
	logger.Info("loaded skill packs", "count", len(packs))

	coreClient := core.New(system.CoreAPIURL, system.CoreAPIInternalKey, logger)
	memBuilder := memory.NewBuilder(coreClient, logger)
	approvalGate := &tools.ApprovalGate{
		Timeout:      system.ToolPermissionTimeout,
		DefaultAllow: system.ToolPermissionDefault,
		Logger:       logger,
	}
	manager := queue.NewManager()
	installer := deps.NewInstaller(system.Workdir, logger)

	engine := &runloop.Engine{
		Manager:      manager,
		Agents:       agents,
		Providers:    providers,
		Core:         coreClient,
		Memory:       memBuilder,
		ApprovalGate: approvalGate,
		SkillPacks:   packs,
		System:       system,
		Logger:       logger,
	}

	if err := os.MkdirAll(system.Workdir, 0o755); err != nil {
		log.Fatalf("failed to create workdir %s: %v", system.Workdir, err)
	}

	ginMode := getEnv("GIN_MODE", "release")
	gin.SetMode(ginMode)

	server := api.NewServer(engine, manager, coreClient, installer, system, logger)

	httpPort := getEnv("HTTP_PORT", "8080")
	logger.Info("starting cowork-engine", "port", httpPort, "workdir", system.Workdir, "skills_mode", system.SkillsMode)
	if err := server.Run(":" + httpPort); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
