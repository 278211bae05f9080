package models

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfig retourne une configuration avec les valeurs par défaut du
// périmètre courant (plans en 3 échéances, marché AE).
func DefaultConfig() Config {
	return Config{
		NumInstalments: 3,
		Country:        "AE",
		Output:         "behaviour_mature_at_due.csv",
		Workers:        runtime.NumCPU(),
		Verbose:        true,
	}
}

// LoadFile complète la configuration depuis un fichier YAML optionnel.
// Les champs absents du fichier gardent leur valeur courante.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate vérifie les paramètres obligatoires avant de lancer le calcul.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("dsn manquant")
	}
	if c.NumInstalments <= 0 {
		return fmt.Errorf("num_instalments invalide: %d", c.NumInstalments)
	}
	if c.Country == "" {
		return fmt.Errorf("country manquant")
	}
	if c.Output == "" {
		return fmt.Errorf("output manquant")
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Observation.IsZero() {
		c.Observation = time.Now().UTC()
	}
	return nil
}
