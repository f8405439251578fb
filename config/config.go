package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del tracker.
type Config struct {
	Tracker  TrackerConfig  `yaml:"tracker"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// TrackerConfig describe el set de dados de las partidas nuevas y los
// cortes del binning grueso del test de independencia.
type TrackerConfig struct {
	DieSetLabel   string  `yaml:"die_set_label"`
	Dice          [][]int `yaml:"dice"` // multiset de caras por dado; vacío = 2d6
	CoarseLowMax  int     `yaml:"coarse_low_max"`
	CoarseHighMin int     `yaml:"coarse_high_min"`
}

// AnalysisConfig parametriza el motor de análisis.
type AnalysisConfig struct {
	MinExpected  float64 `yaml:"min_expected"`   // umbral de count esperado por bin
	PValueMethod string  `yaml:"p_value_method"` // exact | wilson-hilferty
	Alpha        float64 `yaml:"alpha"`          // nivel de significación para veredictos
}

// ServerConfig controla la superficie HTTP.
type ServerConfig struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rate_limit"` // req/s del limitador global
	RateBurst int     `yaml:"rate_burst"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Sin archivo se usan los defaults; la app funciona sin configurar nada
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("DICETRACK_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("DICETRACK_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Tracker.DieSetLabel == "" {
		cfg.Tracker.DieSetLabel = "2d6"
	}
	if len(cfg.Tracker.Dice) == 0 {
		cfg.Tracker.Dice = [][]int{{1, 2, 3, 4, 5, 6}, {1, 2, 3, 4, 5, 6}}
	}
	if cfg.Tracker.CoarseLowMax == 0 {
		cfg.Tracker.CoarseLowMax = 6
	}
	if cfg.Tracker.CoarseHighMin == 0 {
		cfg.Tracker.CoarseHighMin = 8
	}
	if cfg.Analysis.MinExpected <= 0 {
		cfg.Analysis.MinExpected = 5
	}
	if cfg.Analysis.PValueMethod == "" {
		cfg.Analysis.PValueMethod = "exact"
	}
	if cfg.Analysis.Alpha <= 0 {
		cfg.Analysis.Alpha = 0.05
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RateLimit <= 0 {
		cfg.Server.RateLimit = 20
	}
	if cfg.Server.RateBurst <= 0 {
		cfg.Server.RateBurst = 40
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "dicetrack.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
