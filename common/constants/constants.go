package constants

const (
	APP_NAME = "go-layerpool"
	// prefix used to read config parameters from environment variables
	ENV_PREFIX = "LAYERPOOL"
	// config file name
	CONFIG_FILE_NAME = "config.yaml"
	// config file type
	CONFIG_FILE_TYPE = "yaml"
	// default workload file name, looked up in the config directory
	WORKLOAD_FILE_NAME = "workload.yaml"
)
