//go:build !debug
// +build !debug

package transientnd

// Stubs so that release builds compile DebugLog calls away.

func DebugLog(format string, args ...interface{})     {}
func DebugLogOnce(format string, args ...interface{}) {}
