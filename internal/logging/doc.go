// Package logging provides the CLI's zap logger.
//
// Logging is silent unless a level is given on the command line or through
// the PRINTERDISCOVERY_LOG_LEVEL environment variable. Library debug hooks
// are bridged into the logger with Hook.
package logging
