package password

import (
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// Argon2idParams controla el costo de Argon2id. MemoryKiB en KiB (argon2.IDKey).
type Argon2idParams struct {
	MemoryKiB   uint32 `env:"ARGON2_MEMORY_KIB" envDefault:"65536"`
	Iterations  uint32 `env:"ARGON2_ITERATIONS" envDefault:"3"`
	Parallelism uint8  `env:"ARGON2_PARALLELISM"`
	SaltLength  uint32 `env:"ARGON2_SALT_LEN" envDefault:"16"`
	KeyLength   uint32 `env:"ARGON2_KEY_LEN" envDefault:"32"`
}

// Config es la única superficie de configuración del paquete.
type Config struct {
	Params Argon2idParams

	// EnforcePolicy hace que el servidor rechace contraseñas que no cumplen Validate.
	EnforcePolicy bool `env:"PASSWORD_POLICY_ENFORCE" envDefault:"true"`
}

func DefaultConfig() Config {
	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: defaultParallelism(),
			SaltLength:  16,
			KeyLength:   32,
		},
		EnforcePolicy: true,
	}
}

// FromEnv carga Config desde env con los defaults de DefaultConfig.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse password env: %w", err)
	}
	if cfg.Params.Parallelism == 0 {
		cfg.Params.Parallelism = defaultParallelism()
	}
	if cfg.Params.MemoryKiB < 8*1024 || cfg.Params.Iterations == 0 {
		return Config{}, fmt.Errorf("argon2 params too weak: m=%d t=%d", cfg.Params.MemoryKiB, cfg.Params.Iterations)
	}
	if cfg.Params.SaltLength < 8 || cfg.Params.KeyLength < 16 {
		return Config{}, fmt.Errorf("argon2 salt/key too short: salt=%d key=%d", cfg.Params.SaltLength, cfg.Params.KeyLength)
	}
	return cfg, nil
}

// FastConfig es para tests: mismo formato, costo mínimo.
func FastConfig() Config {
	return Config{
		Params: Argon2idParams{
			MemoryKiB:   8 * 1024,
			Iterations:  1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
		EnforcePolicy: true,
	}
}

// paralelismo acotado a [1..4] para contenedores
func defaultParallelism() uint8 {
	n := runtime.NumCPU()
	if n <= 0 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	return uint8(n) // #nosec G115 -- acotado arriba
}
