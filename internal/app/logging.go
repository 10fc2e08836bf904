package app

import (
	"fmt"
	"log"
)

// SetupLogging configures the standard logger for the daemons.
func SetupLogging(deviceID string) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	if deviceID != "" {
		log.SetPrefix(fmt.Sprintf("[device=%s] ", deviceID))
	}
}
