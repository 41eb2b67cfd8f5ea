package utils

import (
	"os"
	"strconv"
)

func GetEnvVar(envVar string) string {
	value, found := os.LookupEnv(envVar)
	if !found {
		panic("Env var '" + envVar + "' not specified")
	}
	return value
}

func GetEnvVarWithDefault(envVar, defaultValue string) string {
	value, found := os.LookupEnv(envVar)
	if !found {
		return defaultValue
	}
	return value
}

func GetEnvIntWithDefault(envVar string, defaultValue int) int {
	value, found := os.LookupEnv(envVar)
	if !found {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		panic("Env var '" + envVar + "' is not an integer: " + value)
	}
	return parsed
}
