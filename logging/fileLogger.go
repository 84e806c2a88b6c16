////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package logging

import (
	"io"

	"github.com/armon/circbuf"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// fileLogger manages the recording of jwalterweatherman logs to a local
// in-memory circular buffer, so the most recent log entries can be retrieved
// from the page for debugging.
type fileLogger struct {
	threshold      jww.Threshold
	maxLogFileSize int
	listenerID     uint64
	cb             *circbuf.Buffer
}

// logFile is the active file logger, if logging to file has been enabled.
var logFile *fileLogger

// LogToFile starts logging to a local, in-memory log file at the specified
// threshold. Returns the logger so the caller can retrieve the file contents.
func LogToFile(threshold jww.Threshold, maxLogFileSize int) (*fileLogger, error) {
	if logFile != nil {
		return nil, errors.New("log file already enabled")
	}

	fl := &fileLogger{
		threshold:      threshold,
		maxLogFileSize: maxLogFileSize,
	}

	b, err := circbuf.NewBuffer(int64(maxLogFileSize))
	if err != nil {
		return nil, errors.Wrap(err, "could not create new circular buffer")
	}
	fl.cb = b

	fl.listenerID = AddLogListener(fl.Listen)
	logFile = fl

	jww.FEEDBACK.Printf("[LOG] Outputting log to file of max size %d at "+
		"level %s", fl.maxLogFileSize, fl.threshold)
	return fl, nil
}

// GetLogFile returns the active file logger or nil when none is enabled.
func GetLogFile() *fileLogger {
	return logFile
}

// Write adheres to the io.Writer interface and writes log entries to the
// buffer.
func (fl *fileLogger) Write(p []byte) (n int, err error) {
	return fl.cb.Write(p)
}

// Listen adheres to the [jwalterweatherman.LogListener] type and returns the
// log writer when the threshold is within the set threshold limit.
func (fl *fileLogger) Listen(t jww.Threshold) io.Writer {
	if t < fl.threshold {
		return nil
	}
	return fl
}

// StopLogging stops log message writes and unregisters the listener. Once
// logging is stopped, it cannot be resumed and the log file cannot be
// recovered.
func (fl *fileLogger) StopLogging() {
	fl.threshold = jww.LevelFatal + 1
	RemoveLogListener(fl.listenerID)
	if logFile == fl {
		logFile = nil
	}
}

// GetFile returns the entire log file.
func (fl *fileLogger) GetFile() []byte {
	return fl.cb.Bytes()
}

// Threshold returns the log level threshold used in the file.
func (fl *fileLogger) Threshold() jww.Threshold {
	return fl.threshold
}

// MaxSize returns the max size, in bytes, that the log file is allowed to be.
func (fl *fileLogger) MaxSize() int {
	return fl.maxLogFileSize
}

// Size returns the current size, in bytes, written to the log file.
func (fl *fileLogger) Size() int {
	return int(fl.cb.TotalWritten())
}
