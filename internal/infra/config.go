package infra

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"dfs_go/internal/domain"
)

// StackPair couples a pitcher with a team stack for the pairing rules. A zero
// Trigger falls back to the configured secondary stack minimum.
type StackPair struct {
	Pitcher string `yaml:"pitcher"`
	Team    string `yaml:"team"`
	Trigger int    `yaml:"trigger"`
}

// Config holds every setting of the application. Values are loaded from YAML
// on top of DefaultConfig and then overridden by environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Contest struct {
		SalaryCap   int           `yaml:"salary_cap"`
		SalaryFloor int           `yaml:"salary_floor"`
		MaxTeams    int           `yaml:"max_teams"`
		Slots       []domain.Slot `yaml:"slots"`
	} `yaml:"contest"`

	Build struct {
		TargetLineups        int             `yaml:"target_lineups"`
		MaxAttempts          int             `yaml:"max_attempts"`
		PrimaryStackSize     int             `yaml:"primary_stack_size"`
		SecondaryStackMin    int             `yaml:"secondary_stack_min"`
		SecondaryStackMax    int             `yaml:"secondary_stack_max"`
		MinUnique            int             `yaml:"min_unique"`
		PrimaryExposureCap   decimal.Decimal `yaml:"primary_exposure_cap"`
		SecondaryExposureCap decimal.Decimal `yaml:"secondary_exposure_cap"`
		RecencyWindow        int             `yaml:"recency_window"`
		AnnouncedOnly        bool            `yaml:"announced_only"`
		JitterStdDev         decimal.Decimal `yaml:"jitter_std_dev"`
		JitterSeed           int64           `yaml:"jitter_seed"`
		SolveBudgetMS        int             `yaml:"solve_budget_ms"`
		Workers              int             `yaml:"workers"`
	} `yaml:"build"`

	Rules struct {
		ExcludedPlayers []string `yaml:"excluded_players"`
		OneOffPlayers   []string `yaml:"one_off_players"`
		LateOrder       struct {
			MinOrder int `yaml:"min_order"`
			MaxOrder int `yaml:"max_order"`
			MaxCount int `yaml:"max_count"`
		} `yaml:"late_order"`
		AvoidStackPairs   []StackPair         `yaml:"avoid_stack_pairs"`
		RequireStackPairs []StackPair         `yaml:"require_stack_pairs"`
		PrimaryPairs      map[string][]string `yaml:"primary_pairs"`
		NoPrimaryTeams    []string            `yaml:"no_primary_teams"`
	} `yaml:"rules"`

	Swap struct {
		MinGain       decimal.Decimal `yaml:"min_gain"`
		MaxSalaryBump int             `yaml:"max_salary_bump"`
		AvoidSameTeam bool            `yaml:"avoid_same_team"`
		MaxFixIters   int             `yaml:"max_fix_iters"`
		SolveBudgetMS int             `yaml:"solve_budget_ms"`
	} `yaml:"swap"`

	Feed struct {
		WSURL string `yaml:"ws_url"`
	} `yaml:"feed"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns the FanDuel MLB baseline used when a field is absent
// from the config file.
func DefaultConfig() *Config {
	var cfg Config

	cfg.App.Name = "dfs-optimizer"
	cfg.App.Version = "1.0.0"

	cfg.Contest.SalaryCap = 35000
	cfg.Contest.SalaryFloor = 0
	cfg.Contest.MaxTeams = 0

	cfg.Build.TargetLineups = 300
	cfg.Build.MaxAttempts = 1000
	cfg.Build.PrimaryStackSize = 4
	cfg.Build.SecondaryStackMin = 3
	cfg.Build.SecondaryStackMax = 4
	cfg.Build.MinUnique = 3
	cfg.Build.PrimaryExposureCap = decimal.RequireFromString("0.2083")
	cfg.Build.SecondaryExposureCap = decimal.RequireFromString("0.126")
	cfg.Build.RecencyWindow = 5
	cfg.Build.AnnouncedOnly = true
	cfg.Build.JitterStdDev = decimal.Zero
	cfg.Build.SolveBudgetMS = 10000
	cfg.Build.Workers = 8

	cfg.Rules.LateOrder.MinOrder = 8
	cfg.Rules.LateOrder.MaxOrder = 9
	cfg.Rules.LateOrder.MaxCount = 1

	// Scratched starters usually project above their replacements, so a
	// repair that loses a few points still beats a dead roster spot.
	cfg.Swap.MinGain = decimal.RequireFromString("-10")
	cfg.Swap.MaxSalaryBump = 10000
	cfg.Swap.MaxFixIters = 8
	cfg.Swap.SolveBudgetMS = 5000

	cfg.Storage.Path = ""
	cfg.Logging.Level = "info"

	return &cfg
}

// LoadConfig reads and parses the config file. An empty path skips the file
// and serves defaults, so commands run without any config present.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Contest.SalaryCap <= 0 {
		return fmt.Errorf("salary cap must be positive, got %d", c.Contest.SalaryCap)
	}
	if c.Contest.SalaryFloor < 0 || c.Contest.SalaryFloor > c.Contest.SalaryCap {
		return fmt.Errorf("salary floor %d outside [0, %d]", c.Contest.SalaryFloor, c.Contest.SalaryCap)
	}
	for _, slot := range c.Contest.Slots {
		if slot.Name == "" || slot.Count < 1 {
			return fmt.Errorf("invalid slot %q with count %d", slot.Name, slot.Count)
		}
		if !slot.Util && len(slot.Positions) == 0 {
			return fmt.Errorf("slot %q admits no positions", slot.Name)
		}
	}

	if c.Build.TargetLineups <= 0 {
		return fmt.Errorf("target lineups must be positive")
	}
	if c.Build.MaxAttempts < c.Build.TargetLineups {
		return fmt.Errorf("max attempts %d below target lineups %d", c.Build.MaxAttempts, c.Build.TargetLineups)
	}
	if c.Build.PrimaryStackSize < 2 {
		return fmt.Errorf("primary stack size must be at least 2")
	}
	if c.Build.SecondaryStackMin < 2 || c.Build.SecondaryStackMin > c.Build.SecondaryStackMax {
		return fmt.Errorf("secondary stack range %d..%d is invalid", c.Build.SecondaryStackMin, c.Build.SecondaryStackMax)
	}
	one := decimal.NewFromInt(1)
	if c.Build.PrimaryExposureCap.LessThanOrEqual(decimal.Zero) || c.Build.PrimaryExposureCap.GreaterThan(one) {
		return fmt.Errorf("primary exposure cap must be in (0, 1]")
	}
	if c.Build.SecondaryExposureCap.LessThanOrEqual(decimal.Zero) || c.Build.SecondaryExposureCap.GreaterThan(one) {
		return fmt.Errorf("secondary exposure cap must be in (0, 1]")
	}
	if c.Build.RecencyWindow < 1 {
		return fmt.Errorf("recency window must be at least 1")
	}
	if c.Build.JitterStdDev.IsNegative() {
		return fmt.Errorf("jitter std dev must not be negative")
	}
	if c.Build.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Build.SolveBudgetMS <= 0 {
		return fmt.Errorf("build solve budget must be positive")
	}

	if c.Rules.LateOrder.MinOrder > c.Rules.LateOrder.MaxOrder {
		return fmt.Errorf("late order band %d..%d is empty", c.Rules.LateOrder.MinOrder, c.Rules.LateOrder.MaxOrder)
	}

	if c.Swap.MaxSalaryBump < 0 {
		return fmt.Errorf("max salary bump must not be negative")
	}
	if c.Swap.SolveBudgetMS <= 0 {
		return fmt.Errorf("swap solve budget must be positive")
	}

	if c.Feed.WSURL != "" && !hasPrefix(c.Feed.WSURL, "ws://") && !hasPrefix(c.Feed.WSURL, "wss://") {
		return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WSURL)
	}

	return nil
}

// SlotMap returns the configured roster layout, falling back to the FanDuel
// MLB default when the config names no slots.
func (c *Config) SlotMap() domain.SlotMap {
	if len(c.Contest.Slots) == 0 {
		return domain.DefaultSlotMap()
	}
	return domain.SlotMap(c.Contest.Slots)
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment overrides when the variables are set.
func overrideWithEnv(cfg *Config) {
	if level := os.Getenv("DFS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if path := os.Getenv("DFS_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if url := os.Getenv("DFS_FEED_URL"); url != "" {
		cfg.Feed.WSURL = url
	}
	if workers := os.Getenv("DFS_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			cfg.Build.Workers = n
		}
	}
}
