package canopyfft

import (
	"fmt"

	"github.com/hhkbp2/go-logging"
)

var logger = logging.GetLogger("canopyfft")

// ログレベルの選択肢 (--log)
var LogLevels = []string{"DEBUG", "INFO", "WARN", "ERROR", "CRITICAL"}

// ロガー name のレベルを --log の値 level に設定します。
func SetLogLevel(name string, level string) error {
	var lv logging.LogLevelType
	switch level {
	case "DEBUG":
		lv = logging.LevelDebug
	case "INFO":
		lv = logging.LevelInfo
	case "WARN":
		lv = logging.LevelWarn
	case "ERROR":
		lv = logging.LevelError
	case "CRITICAL":
		lv = logging.LevelCritical
	default:
		return fmt.Errorf("invalid log level %q (allowed: DEBUG, INFO, WARN, ERROR, CRITICAL)", level)
	}
	logging.GetLogger(name).SetLevel(lv)
	return nil
}
