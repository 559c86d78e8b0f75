package config

const EnvPrefix = "GROCERPOS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names shared with tests and deployment manifests.
const (
	EnvAppEnv     = "GROCERPOS_APP_ENV"
	EnvLogLevel   = "GROCERPOS_LOG_LEVEL"
	EnvTerminalID = "GROCERPOS_TERMINAL_ID"
	EnvAPIBaseURL = "GROCERPOS_API_BASE_URL"
	EnvAPIToken   = "GROCERPOS_API_TOKEN"
	EnvTaxRate    = "GROCERPOS_TAX_RATE"
	EnvDiagAddr   = "GROCERPOS_DIAG_ADDR"
)
