package config

import (
	"encoding/json"
	"os"
	"sync"
)

type Config struct {
	DefaultEmployee string `json:"defaultEmployee"`
	OCRLanguage     string `json:"ocrLanguage"`
	DatabasePath    string `json:"databasePath"`
}

var (
	cfg Config
	mu  sync.RWMutex
)

const configFilePath = "./jinv_config.json"

func applyDefaults(c *Config) {
	if c.DefaultEmployee == "" {
		c.DefaultEmployee = "Employee"
	}
	if c.OCRLanguage == "" {
		c.OCRLanguage = "eng"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "./jinv.db"
	}
}

func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	file, err := os.ReadFile(configFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(&cfg)
			return cfg, nil
		}
		return Config{}, err
	}

	var tempCfg Config
	if err := json.Unmarshal(file, &tempCfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&tempCfg)
	cfg = tempCfg

	return cfg, nil
}

func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	applyDefaults(&newCfg)

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(configFilePath, file, 0644); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}
