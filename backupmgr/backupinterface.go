package backupmgr

import (
	"sync"
)

// GlobalBackupManager is the singleton instance of the backup manager
var GlobalBackupManager *BackupManager

// Track all HTTP handlers that need updating when manager changes
var activeHTTPHandlers []*HTTPHandler

// initMutex ensures thread-safe initialization of the global backup manager
var initMutex sync.Mutex

// InitGlobalBackupManager initializes the global backup manager instance
func InitGlobalBackupManager(config BackupConfig, log Logger, metrics *Metrics) error {
	if err := config.Settings.WithDefaults().Validate(); err != nil {
		return err
	}

	// Lock to prevent concurrent initialization
	initMutex.Lock()
	defer initMutex.Unlock()

	// Shut down existing manager if it exists
	if GlobalBackupManager != nil {
		log.Info(config.Identifier + " Previous Backup manager found. Shutting it down.")
		GlobalBackupManager.Shutdown()
		GlobalBackupManager = nil // Clear the manager to avoid stale references
	}

	log.Info(config.Identifier + " Creating a global backup manager")
	manager := NewBackupManager(config, log, metrics)
	GlobalBackupManager = manager

	// Update all active HTTP handlers with the new manager
	for _, handler := range activeHTTPHandlers {
		handler.setManager(manager)
	}

	// Start the backup manager in a goroutine to avoid blocking
	go func(m *BackupManager) {
		if err := m.Start(); err != nil {
			log.Error(config.Identifier+" Exited", "error", err)
		}
	}(manager)

	log.Info(config.Identifier + " Backup manager reloaded successfully")
	return nil
}

// RegisterHTTPHandler registers an HTTP handler to be updated when the manager changes
func RegisterHTTPHandler(handler *HTTPHandler) {
	initMutex.Lock()
	defer initMutex.Unlock()
	activeHTTPHandlers = append(activeHTTPHandlers, handler)
}

// ReloadBackupManagerFromConfig reloads the global backup manager with the given settings.
// This should be called whenever the config is changed.
func ReloadBackupManagerFromConfig(settings Settings, log Logger, metrics *Metrics) error {
	return InitGlobalBackupManager(NewBackupConfig(settings), log, metrics)
}

// ShutdownGlobalBackupManager stops the global manager, if any.
func ShutdownGlobalBackupManager() {
	initMutex.Lock()
	defer initMutex.Unlock()
	if GlobalBackupManager != nil {
		GlobalBackupManager.Shutdown()
		GlobalBackupManager = nil
	}
}
