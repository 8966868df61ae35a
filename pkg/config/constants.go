package config

// EnvPrefix is the envconfig prefix shared by every variable.
const EnvPrefix = "MERCATERRA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "MERCATERRA_DB_DSN"
	EnvDBHost = "MERCATERRA_DB_HOST"
	EnvDBUser = "MERCATERRA_DB_USER"
	EnvDBName = "MERCATERRA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
