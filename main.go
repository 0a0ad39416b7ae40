package main

import (
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/SteamServerUI/PluginLib"
	"github.com/SteamServerUI/SaveSnapshotManager/api"
	"github.com/SteamServerUI/SaveSnapshotManager/backupmgr"
	"github.com/SteamServerUI/SaveSnapshotManager/global"
)

//go:embed assets/*
var assets embed.FS

var wg sync.WaitGroup

const defaultSaveRoot = "./saves"

func main() {

	// Register embedded assets
	global.AssetManager = PluginLib.RegisterAssets(&assets)

	PluginLib.InitConfig(global.PluginName, global.DefaultLogLevel)

	log := global.PluginLogger{}
	metrics := backupmgr.NewMetrics()

	if err := backupmgr.ReloadBackupManagerFromConfig(pluginSettings(), log, metrics); err != nil {
		log.Error("Failed to reload backup manager", "error", err)
		return
	}

	ExposeAPI(&wg, metrics)
	wg.Wait()
}

// pluginSettings resolves the watcher settings from SSUI, falling back to defaults.
func pluginSettings() backupmgr.Settings {
	return backupmgr.Settings{
		WatchedRoot:      stringSetting("SaveSnapshotRoot", defaultSaveRoot),
		BackupFolderName: stringSetting("SaveSnapshotFolder", ""),
		TimestampFormat:  stringSetting("SaveSnapshotTimestampFormat", ""),
		GracePeriod:      durationSetting("SaveSnapshotGracePeriod"),
		PollInterval:     durationSetting("SaveSnapshotPollInterval"),
	}
}

func stringSetting(key, fallback string) string {
	value, err := PluginLib.GetSetting(key)
	if err != nil {
		return fallback
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return fallback
	}
	return s
}

// durationSetting returns zero when the setting is unset or invalid so defaults apply.
func durationSetting(key string) time.Duration {
	raw := stringSetting(key, "")
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		PluginLib.Log(fmt.Sprintf("Ignoring invalid %s %q: %v", key, raw, err), "Warn")
		return 0
	}
	return d
}

func ExposeAPI(wg *sync.WaitGroup, metrics *backupmgr.Metrics) {

	rfi, err := getRfIdentifierFromSSUIRunfile()
	if err != nil {
		PluginLib.Log(err.Error(), "Warn")
	}
	global.RunfileIdentifier = rfi

	backupHandler := backupmgr.NewHTTPHandler(backupmgr.GlobalBackupManager)
	PluginLib.RegisterRoute("/", api.HandleBackupManagerIndex)
	PluginLib.RegisterRoute("/js/backups.js", api.HandleBackupsJS)

	PluginLib.RegisterRoute("/api/v1/backups", backupHandler.ListBackupsHandler)
	PluginLib.RegisterRoute("/api/v1/backups/snapshot", backupHandler.SnapshotNowHandler)
	PluginLib.RegisterRoute("/metrics", metrics.Handler().ServeHTTP)
	PluginLib.ExposeAPI(wg)
	PluginLib.RegisterPluginAPI()
	wg.Add(1)
}

func getRfIdentifierFromSSUIRunfile() (string, error) {
	runfileIdentifier, err := PluginLib.GetSetting("RunfileIdentifier")
	if err != nil {
		return "", fmt.Errorf("failed to get RunfileIdentifier from SSUI: %w", err)
	}

	runfileIdentifierStr, ok := runfileIdentifier.(string)
	if !ok {
		return "", fmt.Errorf("RunfileIdentifier is not a string")
	}
	return runfileIdentifierStr, nil
}
