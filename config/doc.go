// Package config loads bridge settings with viper and builds the zap
// logger they describe.
//
// Keys:
//
//	events.capacity        subscriber slots per event kind (32)
//	log.level              zap level name (info)
//	log.format             console or json (console)
//	script.rc              Lua file run at startup (rc.lua)
//	registry.fail_on_leak  exit non-zero when references leak at shutdown (false)
//
// Every key can be overridden from the environment with the WMBRIDGE_
// prefix and dots replaced by underscores, e.g. WMBRIDGE_LOG_LEVEL=debug.
package config
