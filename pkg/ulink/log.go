package ulink

import (
	"os"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// log is the package-wide logger. Firmware-download progress goes at Info,
// diagnostic detail (platform auto-detach, signals after init) at Debug,
// recoverable conditions (stranded packet drain, unimplemented pathmove)
// at Warn. USB payloads are not logged.
var log = newLogger()

func newLogger() *logrus.Entry {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	}
	l.Level = logrus.InfoLevel
	return l.WithField("component", "ulink")
}

// SetLogLevel adjusts verbosity; the CLI front-end wires -v to Debug.
func SetLogLevel(level logrus.Level) {
	log.Logger.SetLevel(level)
}
