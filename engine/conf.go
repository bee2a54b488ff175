package engine

type Conf struct {
	Version            string `long:"version" description:"version of the evaluation engine" env:"QKNIT_VERSION"`
	DevMode            bool   `long:"dev-mode" description:"run in dev mode" env:"QKNIT_DEV_MODE"`
	DisableStdoutLog   bool   `long:"disable-stdout-log" description:"do not log in standard output" env:"QKNIT_DISABLE_STDOUT_LOG"`
	EnableFileLog      bool   `long:"enable-file-log" description:"enable log in file" env:"QKNIT_ENABLE_FILE_LOG"`
	LogDir             string `long:"log-dir" description:"rotating log file dir" default:"./logs" env:"QKNIT_LOG_DIR"`
	LogLevel           string `long:"log-level" description:"log level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" env:"QKNIT_LOG_LEVEL"`
	LogRotationMaxDays int    `long:"log-rotation-max-days" description:"max days of log rotation" default:"7" env:"QKNIT_LOG_ROTATION_MAX_DAYS"`
	ScenarioPath       string `long:"scenario-path" description:"scenario file path" default:"./scenario.toml" env:"QKNIT_SCENARIO_PATH"`
	OutputPath         string `long:"output-path" description:"report output path, empty for stdout" env:"QKNIT_OUTPUT_PATH"`
	Shots              int    `long:"shots" description:"shot count for the shots sampler" default:"10000" env:"QKNIT_SHOTS"`
	Seed               int64  `long:"seed" description:"seed for the shots sampler, 0 for time-based" env:"QKNIT_SEED"`
}
