package main

import (
	"runtime/debug"
	"strings"
)

var version = "dev"

var readBuildInfo = debug.ReadBuildInfo

func currentVersion() string {
	if v := strings.TrimSpace(version); v != "" && v != "dev" {
		return v
	}
	buildInfo, ok := readBuildInfo()
	if !ok || buildInfo == nil {
		return "dev"
	}
	if mv := strings.TrimSpace(buildInfo.Main.Version); mv != "" && mv != "(devel)" {
		return mv
	}
	return "dev"
}
