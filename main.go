package main

import (
	"os"

	"devicetracker/cli"
)

// @title Device Tracker API
// @version 1.0
// @description 디바이스 위치/IP 보고 수집 서버

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description POST /reset 토큰. 형식: Bearer {token}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
