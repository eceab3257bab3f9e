package main

import (
	"os"
	"strings"
)

func envFlagEnabled(name string) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func debugEnabled() bool {
	return envFlagEnabled("RNB_DEBUG")
}

func nonInteractiveForced() bool {
	return envFlagEnabled("RNB_NONINTERACTIVE")
}

func isInteractiveTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func interactiveSession() bool {
	return !nonInteractiveForced() && isInteractiveTerminal(os.Stdin) && isInteractiveTerminal(os.Stdout)
}
