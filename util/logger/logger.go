// Package logger exposes the shared application logger. Output goes to
// stderr so it never mixes with the command protocol on stdout, and
// colors stay off for the same reason: sessions are routinely captured.
package logger

import (
	"os"

	logrus "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// L is the process-wide logger.
var L = &logrus.Logger{
	Out:   os.Stderr,
	Level: logrus.InfoLevel,
	Formatter: &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
		DisableColors:   true,
	},
}

// C returns an entry tagged with the originating component ("pager",
// "table", "repl"); the prefixed formatter renders the tag ahead of the
// message.
func C(component string) *logrus.Entry {
	return L.WithField("prefix", component)
}
