/*
main.go

Copyright © 2025 Code Monkey Cybersecurity
Contact: git@cybermonkey.net.au

This file is part of stretchsync.

This software is dual-licensed under the Do No Harm License
and the GNU Affero General Public License v3 (AGPL-3.0-or-later).
You may use, modify, and distribute it under the terms of either license.

See LICENSE.agpl and LICENSE.dnh for full details.
*/
package main

import (
	"os"

	"github.com/CodeMonkeyCybersecurity/stretchsync/cmd"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/logger"
)

func main() {
	level := os.Getenv("STRETCHSYNC_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	logger.InitializeWithFallback(level)

	cmd.Execute()
}
