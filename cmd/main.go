// FilePath: server/analytics/cmd/main.go
package main

import (
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/config"
	"github.com/itsatony/w4b_v3/server/analytics/internal/server"
)

func main() {
	ClearConsole()
	DrawLogo()
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting W4B Analytics Server v%s", nuts.GetVersion())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	nuts.L.Infof("[Main] Driver=%s cache=%t graphql=%t log_level=%s",
		cfg.Database.Driver, cfg.Cache.Enabled, cfg.GraphQL.Enabled, cfg.Monitoring.LogLevel)

	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"    ___                __      __  _          ",
		"   /   |  ____  ____ _/ /_  __/ /_(_)_________",
		"  / /| | / __ \\/ __ `/ / / / / __/ / ___/ ___/",
		" / ___ |/ / / / /_/ / / /_/ / /_/ / /__(__  ) ",
		"/_/  |_/_/ /_/\\__,_/_/\\__, /\\__/_/\\___/____/  ",
		"                     /____/                   ",
		"..............................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
