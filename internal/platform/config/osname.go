package config

import "runtime"

func osName() string {
	switch runtime.GOOS {
	case "darwin":
		return "Macintosh"
	case "windows":
		return "Windows"
	default:
		return "Linux"
	}
}
