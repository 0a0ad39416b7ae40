package global

import "github.com/SteamServerUI/PluginLib"

var (
	AssetManager      *PluginLib.AssetManager
	PluginName        = "SaveSnapshotManagerPlugin"
	DefaultLogLevel   = "Info"
	PluginAuthor      = "JacksonTheMaster / SteamServerUI Dev Team"
	RunfileIdentifier string
)
