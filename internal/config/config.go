// Package config provides Viper-based configuration loading for the battle runtime.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/wasteland/internal/game/combat"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds PostgreSQL connection settings for the defeated-spawn registry.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RegistryConfig selects where cleared spawn ids are recorded.
type RegistryConfig struct {
	// Backend is "memory" (process lifetime) or "postgres".
	Backend string `mapstructure:"backend"`
}

// BattleConfig holds the tunable numbers of the turn engine.
type BattleConfig struct {
	DoubleAttackCost int     `mapstructure:"double_attack_cost"`
	HealCost         int     `mapstructure:"heal_cost"`
	HealMin          int     `mapstructure:"heal_min"`
	HealMax          int     `mapstructure:"heal_max"`
	DefendReduction  int     `mapstructure:"defend_reduction"`
	FleeChance       float64 `mapstructure:"flee_chance"`
	EnergyRegen      int     `mapstructure:"energy_regen"`
	VictoryEnergy    int     `mapstructure:"victory_energy"`
}

// Rules converts the battle section into the engine's rule set.
func (b BattleConfig) Rules() combat.Rules {
	return combat.Rules{
		DoubleAttackCost: b.DoubleAttackCost,
		HealCost:         b.HealCost,
		HealMin:          b.HealMin,
		HealMax:          b.HealMax,
		DefendReduction:  b.DefendReduction,
		FleeChance:       b.FleeChance,
		EnergyRegen:      b.EnergyRegen,
		VictoryEnergy:    b.VictoryEnergy,
	}
}

// ChoreographyConfig holds every fixed step duration of the battle timelines.
type ChoreographyConfig struct {
	Recoil           time.Duration `mapstructure:"recoil"`
	Lunge            time.Duration `mapstructure:"lunge"`
	ImpactHold       time.Duration `mapstructure:"impact_hold"`
	Return           time.Duration `mapstructure:"return"`
	Settle           time.Duration `mapstructure:"settle"`
	EnemyThink       time.Duration `mapstructure:"enemy_think"`
	EnemyLunge       time.Duration `mapstructure:"enemy_lunge"`
	EnemyImpactHold  time.Duration `mapstructure:"enemy_impact_hold"`
	EnemyReturn      time.Duration `mapstructure:"enemy_return"`
	HitFlash         time.Duration `mapstructure:"hit_flash"`
	MessageInterval  time.Duration `mapstructure:"message_interval"`
	MessagePad       time.Duration `mapstructure:"message_pad"`
	FleeResultHold   time.Duration `mapstructure:"flee_result_hold"`
	Outro            time.Duration `mapstructure:"outro"`
	PreemptiveBanner time.Duration `mapstructure:"preemptive_banner"`
	// FrameRate is the tick rate used by headless and windowed drivers.
	FrameRate int `mapstructure:"frame_rate"`
}

// Timings converts the choreography section into the engine's timing table.
func (c ChoreographyConfig) Timings() combat.Timings {
	return combat.Timings{
		Recoil:           c.Recoil,
		Lunge:            c.Lunge,
		ImpactHold:       c.ImpactHold,
		Return:           c.Return,
		Settle:           c.Settle,
		EnemyThink:       c.EnemyThink,
		EnemyLunge:       c.EnemyLunge,
		EnemyImpactHold:  c.EnemyImpactHold,
		EnemyReturn:      c.EnemyReturn,
		HitFlash:         c.HitFlash,
		MessageInterval:  c.MessageInterval,
		MessagePad:       c.MessagePad,
		FleeResultHold:   c.FleeResultHold,
		Outro:            c.Outro,
		PreemptiveBanner: c.PreemptiveBanner,
	}
}

// FrameDuration returns the duration of one tick at FrameRate.
//
// Precondition: FrameRate > 0.
func (c ChoreographyConfig) FrameDuration() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// ContentConfig holds the directories of YAML content and Lua hooks.
type ContentConfig struct {
	EnemiesDir string `mapstructure:"enemies_dir"`
	WeaponsDir string `mapstructure:"weapons_dir"`
	SpritesDir string `mapstructure:"sprites_dir"`
	ScriptsDir string `mapstructure:"scripts_dir"`
	// StartingWeapon is the weapon id equipped on a fresh PlayerProgress.
	StartingWeapon string `mapstructure:"starting_weapon"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging      LoggingConfig      `mapstructure:"logging"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Registry     RegistryConfig     `mapstructure:"registry"`
	Battle       BattleConfig       `mapstructure:"battle"`
	Choreography ChoreographyConfig `mapstructure:"choreography"`
	Content      ContentConfig      `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRegistry(c.Registry); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Registry.Backend == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := c.Battle.Rules().Validate(); err != nil {
		errs = append(errs, "battle: "+err.Error())
	}
	if err := validateChoreography(c.Choreography); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateRegistry(r RegistryConfig) error {
	switch r.Backend {
	case "memory", "postgres":
		return nil
	default:
		return fmt.Errorf("registry.backend must be one of [memory, postgres], got %q", r.Backend)
	}
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateChoreography(c ChoreographyConfig) error {
	var errs []string
	durations := map[string]time.Duration{
		"recoil":            c.Recoil,
		"lunge":             c.Lunge,
		"impact_hold":       c.ImpactHold,
		"return":            c.Return,
		"settle":            c.Settle,
		"enemy_think":       c.EnemyThink,
		"enemy_lunge":       c.EnemyLunge,
		"enemy_impact_hold": c.EnemyImpactHold,
		"enemy_return":      c.EnemyReturn,
		"hit_flash":         c.HitFlash,
		"message_interval":  c.MessageInterval,
		"message_pad":       c.MessagePad,
		"flee_result_hold":  c.FleeResultHold,
		"outro":             c.Outro,
		"preemptive_banner": c.PreemptiveBanner,
	}
	for name, d := range durations {
		if d < 0 {
			errs = append(errs, fmt.Sprintf("choreography.%s must not be negative", name))
		}
	}
	if c.FrameRate < 1 || c.FrameRate > 240 {
		errs = append(errs, fmt.Sprintf("choreography.frame_rate must be 1-240, got %d", c.FrameRate))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.EnemiesDir == "" {
		return errors.New("content.enemies_dir must not be empty")
	}
	if c.WeaponsDir == "" {
		return errors.New("content.weapons_dir must not be empty")
	}
	if c.StartingWeapon == "" {
		return errors.New("content.starting_weapon must not be empty")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with WASTELAND_ prefix
	v.SetEnvPrefix("WASTELAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the built-in defaults.
//
// Postcondition: LoadFromViper(Defaults()) succeeds.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "wasteland")
	v.SetDefault("database.password", "wasteland")
	v.SetDefault("database.name", "wasteland")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("registry.backend", "memory")

	rules := combat.DefaultRules()
	v.SetDefault("battle.double_attack_cost", rules.DoubleAttackCost)
	v.SetDefault("battle.heal_cost", rules.HealCost)
	v.SetDefault("battle.heal_min", rules.HealMin)
	v.SetDefault("battle.heal_max", rules.HealMax)
	v.SetDefault("battle.defend_reduction", rules.DefendReduction)
	v.SetDefault("battle.flee_chance", rules.FleeChance)
	v.SetDefault("battle.energy_regen", rules.EnergyRegen)
	v.SetDefault("battle.victory_energy", rules.VictoryEnergy)

	t := combat.DefaultTimings()
	v.SetDefault("choreography.recoil", t.Recoil)
	v.SetDefault("choreography.lunge", t.Lunge)
	v.SetDefault("choreography.impact_hold", t.ImpactHold)
	v.SetDefault("choreography.return", t.Return)
	v.SetDefault("choreography.settle", t.Settle)
	v.SetDefault("choreography.enemy_think", t.EnemyThink)
	v.SetDefault("choreography.enemy_lunge", t.EnemyLunge)
	v.SetDefault("choreography.enemy_impact_hold", t.EnemyImpactHold)
	v.SetDefault("choreography.enemy_return", t.EnemyReturn)
	v.SetDefault("choreography.hit_flash", t.HitFlash)
	v.SetDefault("choreography.message_interval", t.MessageInterval)
	v.SetDefault("choreography.message_pad", t.MessagePad)
	v.SetDefault("choreography.flee_result_hold", t.FleeResultHold)
	v.SetDefault("choreography.outro", t.Outro)
	v.SetDefault("choreography.preemptive_banner", t.PreemptiveBanner)
	v.SetDefault("choreography.frame_rate", 60)

	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.weapons_dir", "content/weapons")
	v.SetDefault("content.sprites_dir", "content/sprites")
	v.SetDefault("content.scripts_dir", "content/scripts")
	v.SetDefault("content.starting_weapon", "copper_sword")
}
