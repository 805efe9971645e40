package common

import (
	"database/sql"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// SetupLogging points the process-wide apex logger at stderr with the given
// level and format ("text" or "json"). Unknown levels fall back to info.
func SetupLogging(level, format string) {
	switch format {
	case "json":
		log.SetHandler(json.New(os.Stderr))
	default:
		log.SetHandler(text.New(os.Stderr))
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// LogResult warns when a statement expected to touch one row did not.
func LogResult(msgPrefix string, r sql.Result, e error, e1 bool) {
	if e != nil {
		log.WithError(e).Errorf("%s: query failed", msgPrefix)
		return
	}
	rows, err := r.RowsAffected()
	if err != nil {
		log.WithError(err).Errorf("%s: failed to get status of db op", msgPrefix)
		return
	}
	if e1 && rows != 1 {
		log.Warnf("%s: Expected to affect 1 row, affected %d", msgPrefix, rows)
	}
}
