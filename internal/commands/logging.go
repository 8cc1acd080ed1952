package commands

import (
	"strings"

	"github.com/goliatone/go-wmarkdown/internal/logging"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

const commandLoggerRoot = "wmarkdown.commands"

// CommandLogger names the logger of a handler group, e.g. "render" yields
// wmarkdown.commands.render. Entries carry component=command and the group
// under command_module.
func CommandLogger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	name := strings.TrimSpace(group)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, commandLoggerRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
