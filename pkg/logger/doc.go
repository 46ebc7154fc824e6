// Package logger provides structured logging for the archiver built on
// zerolog. A global logger is initialized once from configuration; packages
// either receive a Logger or fall back to GetLogger.
package logger
