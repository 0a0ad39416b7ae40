package global

import (
	"fmt"
	"strings"

	"github.com/SteamServerUI/PluginLib"
)

// PluginLogger forwards structured log calls to the SSUI log sink.
// SSUI has no trace level, so trace messages are sent as Debug.
type PluginLogger struct{}

func (PluginLogger) Trace(msg string, args ...any) { pluginLog("Debug", msg, args) }
func (PluginLogger) Debug(msg string, args ...any) { pluginLog("Debug", msg, args) }
func (PluginLogger) Info(msg string, args ...any)  { pluginLog("Info", msg, args) }
func (PluginLogger) Warn(msg string, args ...any)  { pluginLog("Warn", msg, args) }
func (PluginLogger) Error(msg string, args ...any) { pluginLog("Error", msg, args) }

func pluginLog(level, msg string, args []any) {
	line := FormatKV(msg, args...)
	if err := PluginLib.Log(line, level); err != nil {
		fmt.Println(line)
		fmt.Println(err.Error())
	}
}

// FormatKV renders msg followed by key=value pairs. A trailing key without a value
// is printed as key=MISSING.
func FormatKV(msg string, args ...any) string {
	if len(args) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(args) {
			fmt.Fprintf(&b, "%v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, "%v=MISSING", args[i])
		}
	}
	return b.String()
}
