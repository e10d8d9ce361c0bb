package main

import (
	"ipcheck/config"
	"ipcheck/internal/logs"
	"ipcheck/server"
)

func main() {
	cfg := config.MustLoad()
	app := &server.App{}
	if err := app.Initialize(cfg); err != nil {
		logs.Logger.Fatal(err)
	}
	if err := app.Run(); err != nil {
		logs.Logger.Fatal(err)
	}
}
