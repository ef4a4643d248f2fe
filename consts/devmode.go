package consts

import "strings"

// devmode is set at link time with -ldflags "-X .../consts.devmode=true"
var devmode string = "false"

func IsDevMode() bool {
	return strings.ToLower(devmode) == "true"
}

// EnableDevMode switches dev mode on at runtime, e.g. from configuration
func EnableDevMode() {
	devmode = "true"
}
