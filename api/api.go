package api

import (
	"fmt"
	"net/http"

	"github.com/SteamServerUI/SaveSnapshotManager/global"
)

func HandleBackupManagerIndex(w http.ResponseWriter, r *http.Request) {
	serveAsset(w, "assets/index.html", "text/html")
}

func HandleBackupsJS(w http.ResponseWriter, r *http.Request) {
	serveAsset(w, "assets/backups.js", "text/javascript")
}

func serveAsset(w http.ResponseWriter, path, contentType string) {
	data, err := global.AssetManager.GetAssetString(path)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read asset %s: %v", path, err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	fmt.Fprintf(w, "%s", data)
}
