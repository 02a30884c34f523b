package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override plan values.
const (
	EnvPDK            = "SRAMCHAR_PDK"
	EnvProjectRoot    = "SRAMCHAR_PROJECT_ROOT"
	EnvTestsRoot      = "SRAMCHAR_TESTS_ROOT"
	EnvSRAMParameters = "SRAMCHAR_SRAM_PARAMETERS"
)

// DefaultEnvFile is loaded when no env file is named explicitly.
const DefaultEnvFile = ".env"

// LoadEnv loads variables from env files into the process environment.
// Variables already set in the environment win. With no files, .env is
// loaded if it exists.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		_, err := os.Stat(DefaultEnvFile)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		files = []string{DefaultEnvFile}
	}

	return godotenv.Load(files...)
}

// ApplyEnv overrides plan values with the SRAMCHAR_* environment variables
// that are set.
func (p *Plan) ApplyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	override(&p.PDK, EnvPDK)
	override(&p.ProjectRoot, EnvProjectRoot)
	override(&p.TestsRoot, EnvTestsRoot)
	override(&p.SRAMParameters, EnvSRAMParameters)
}
