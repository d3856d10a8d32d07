//go:build !devmode

package server

// devModeAvailable gates the unauthenticated preview handler. Release builds
// compile it to false, so CHARITYBOT_DEV_MODE alone cannot enable it.
const devModeAvailable = false
