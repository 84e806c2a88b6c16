////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package wasm

import (
	"syscall/js"

	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/converterhq/converter-wasm/logging"
	"gitlab.com/converterhq/converter-wasm/utils"
)

// LogLevel sets the log level for logging and overwrites the default log
// printing to print to the Javascript console instead.
//
// Parameters:
//   - args[0] - Log level (int). 0 = TRACE through 6 = FATAL.
//
// Returns:
//   - Throws an error if the log level is invalid.
func LogLevel(_ js.Value, args []js.Value) interface{} {
	err := logging.SetLogLevel(jww.Threshold(args[0].Int()))
	if err != nil {
		utils.Throw(utils.TypeError, err)
		return nil
	}
	return nil
}

// LogToFile starts capturing log output to an in-memory file of the given max
// size so it can be downloaded from the page for debugging.
//
// Parameters:
//   - args[0] - Log level (int).
//   - args[1] - Max log file size, in bytes (int).
//
// Returns:
//   - A Javascript representation of the log file object.
//   - Throws an error if starting the log file fails.
func LogToFile(_ js.Value, args []js.Value) interface{} {
	fl, err := logging.LogToFile(jww.Threshold(args[0].Int()), args[1].Int())
	if err != nil {
		utils.Throw(utils.TypeError, err)
		return nil
	}
	return newLogFileJS(fl)
}

// GetLogFile returns the active log file object or null when file logging has
// not been enabled.
func GetLogFile(js.Value, []js.Value) interface{} {
	fl := logging.GetLogFile()
	if fl == nil {
		return js.Null()
	}
	return newLogFileJS(fl)
}

// logFile provides Javascript bindings around the in-memory log file.
type logFile interface {
	StopLogging()
	GetFile() []byte
	Threshold() jww.Threshold
	MaxSize() int
	Size() int
}

// newLogFileJS creates a new Javascript compatible object
// (map[string]interface{}) that matches the log file structure.
func newLogFileJS(fl logFile) map[string]interface{} {
	lf := logFileJS{fl}
	return map[string]interface{}{
		"StopLogging": js.FuncOf(lf.StopLogging),
		"GetFile":     js.FuncOf(lf.GetFile),
		"Threshold":   js.FuncOf(lf.Threshold),
		"MaxSize":     js.FuncOf(lf.MaxSize),
		"Size":        js.FuncOf(lf.Size),
	}
}

type logFileJS struct {
	fl logFile
}

// StopLogging stops log message writes. Once logging is stopped, it cannot be
// resumed and the log file cannot be recovered.
func (lf logFileJS) StopLogging(js.Value, []js.Value) interface{} {
	lf.fl.StopLogging()
	return nil
}

// GetFile returns the entire log file contents (Uint8Array).
func (lf logFileJS) GetFile(js.Value, []js.Value) interface{} {
	return utils.CopyBytesToJS(lf.fl.GetFile())
}

// Threshold returns the log level threshold used in the file (string).
func (lf logFileJS) Threshold(js.Value, []js.Value) interface{} {
	return lf.fl.Threshold().String()
}

// MaxSize returns the max size, in bytes, that the log file is allowed to be
// (int).
func (lf logFileJS) MaxSize(js.Value, []js.Value) interface{} {
	return lf.fl.MaxSize()
}

// Size returns the current size, in bytes, written to the log file (int).
func (lf logFileJS) Size(js.Value, []js.Value) interface{} {
	return lf.fl.Size()
}
