package config

import "github.com/caarlos0/env/v10"

// ProviderEnv holds the provider credentials and default instance-shape
// values sourced from the process environment — never from the config
// document — matching spec.md's treatment of credential management as
// passed through opaquely rather than owned by the core.
type ProviderEnv struct {
	SSHKeyPath     string `env:"CLOUDCONDUCTOR_SSH_KEY_PATH,required,notEmpty"`
	SSHUser        string `env:"CLOUDCONDUCTOR_SSH_USER" envDefault:"cloudconductor"`
	ServiceAccount string `env:"CLOUDCONDUCTOR_SERVICE_ACCOUNT,required,notEmpty"`
	DefaultZone    string `env:"CLOUDCONDUCTOR_ZONE" envDefault:"us-central1-a"`
	DefaultImage   string `env:"CLOUDCONDUCTOR_IMAGE" envDefault:"debian-cloud/debian-12"`
	Preemptible    bool   `env:"CLOUDCONDUCTOR_PREEMPTIBLE" envDefault:"true"`
}

// LoadProviderEnv parses ProviderEnv from the process environment.
func LoadProviderEnv() (*ProviderEnv, error) {
	var cfg ProviderEnv
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
