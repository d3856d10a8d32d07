//go:build devmode

package server

const devModeAvailable = true
