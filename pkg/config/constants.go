package config

const (
	EnvPrefix = "LETSLINK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "LETSLINK_DB_DSN"
	EnvDBHost = "LETSLINK_DB_HOST"
	EnvDBUser = "LETSLINK_DB_USER"
	EnvDBName = "LETSLINK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
