package types

import "fmt"

// ModuleKind distinguishes the scheduling nuances of a module: a normal
// module, an output-type module (handlers serialize on the module's own
// worker thread), or an internal module (built-in bookkeeping modules that
// are exempt from the speculation-collision rule since they never compete
// with "speculate" for IP ranges).
type ModuleKind int

const (
	ModuleKindNormal ModuleKind = iota
	ModuleKindOutput
	ModuleKindInternal
)

// ModuleConfig holds the per-module declared configuration recognized by
// the runtime.
type ModuleConfig struct {
	MaxEventHandlers int
	MaxThreads       int
	BatchSize        int
	BatchWait        float64 // approximate seconds before force-flush
	OutgoingGateCap  int
	Priority         int

	AcceptDupes   bool
	SuppressDupes bool

	TargetOnly   bool
	InScopeOnly  bool
	// ScopeDistanceModifier is nil for the sentinel-none value (disables
	// the scope-distance cap entirely).
	ScopeDistanceModifier *int
	ScopeShepherding      bool

	AuthRequired bool
	Description  string
}

// DefaultModuleConfig returns the documented defaults for every
// recognized option.
func DefaultModuleConfig() ModuleConfig {
	modifier := -1
	return ModuleConfig{
		MaxEventHandlers:      1,
		MaxThreads:            10,
		BatchSize:             1,
		BatchWait:             10,
		OutgoingGateCap:       100,
		Priority:              3,
		AcceptDupes:           false,
		SuppressDupes:         true,
		TargetOnly:            false,
		InScopeOnly:           false,
		ScopeDistanceModifier: &modifier,
		ScopeShepherding:      true,
		AuthRequired:          false,
	}
}

// ClampPriority clamps p to the valid [1,5] range, per the "priority is
// clamped to [1,5] on read" invariant.
func ClampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 5 {
		return 5
	}
	return p
}

// DecodeModuleConfig builds a ModuleConfig from the generic option map the
// orchestrator's "Configuration lookup" contract hands back
// (scan.config["modules"][module_name]). Unrecognized keys are ignored;
// missing keys fall back to DefaultModuleConfig. A scope_distance_modifier
// of the string "none" (or a bare nil) selects the sentinel-none behavior.
func DecodeModuleConfig(raw map[string]any) (ModuleConfig, error) {
	cfg := DefaultModuleConfig()
	if raw == nil {
		return cfg, nil
	}

	if v, ok := raw["max_event_handlers"]; ok {
		n, err := toInt(v)
		if err != nil {
			return cfg, fmt.Errorf("max_event_handlers: %w", err)
		}
		cfg.MaxEventHandlers = n
	}
	if v, ok := raw["max_threads"]; ok {
		n, err := toInt(v)
		if err != nil {
			return cfg, fmt.Errorf("max_threads: %w", err)
		}
		cfg.MaxThreads = n
	}
	if v, ok := raw["batch_size"]; ok {
		n, err := toInt(v)
		if err != nil {
			return cfg, fmt.Errorf("batch_size: %w", err)
		}
		if n < 1 {
			n = 1
		}
		cfg.BatchSize = n
	}
	if v, ok := raw["batch_wait"]; ok {
		f, err := toFloat(v)
		if err != nil {
			return cfg, fmt.Errorf("batch_wait: %w", err)
		}
		cfg.BatchWait = f
	}
	if v, ok := raw["outgoing_gate_capacity"]; ok {
		n, err := toInt(v)
		if err != nil {
			return cfg, fmt.Errorf("outgoing_gate_capacity: %w", err)
		}
		cfg.OutgoingGateCap = n
	}
	if v, ok := raw["priority"]; ok {
		n, err := toInt(v)
		if err != nil {
			return cfg, fmt.Errorf("priority: %w", err)
		}
		cfg.Priority = ClampPriority(n)
	}
	if v, ok := raw["accept_dupes"]; ok {
		b, err := toBool(v)
		if err != nil {
			return cfg, fmt.Errorf("accept_dupes: %w", err)
		}
		cfg.AcceptDupes = b
	}
	if v, ok := raw["suppress_dupes"]; ok {
		b, err := toBool(v)
		if err != nil {
			return cfg, fmt.Errorf("suppress_dupes: %w", err)
		}
		cfg.SuppressDupes = b
	}
	if v, ok := raw["target_only"]; ok {
		b, err := toBool(v)
		if err != nil {
			return cfg, fmt.Errorf("target_only: %w", err)
		}
		cfg.TargetOnly = b
	}
	if v, ok := raw["in_scope_only"]; ok {
		b, err := toBool(v)
		if err != nil {
			return cfg, fmt.Errorf("in_scope_only: %w", err)
		}
		cfg.InScopeOnly = b
	}
	if v, ok := raw["scope_distance_modifier"]; ok {
		if v == nil {
			cfg.ScopeDistanceModifier = nil
		} else if s, ok := v.(string); ok && s == "none" {
			cfg.ScopeDistanceModifier = nil
		} else {
			n, err := toInt(v)
			if err != nil {
				return cfg, fmt.Errorf("scope_distance_modifier: %w", err)
			}
			cfg.ScopeDistanceModifier = &n
		}
	}
	if v, ok := raw["scope_shepherding"]; ok {
		b, err := toBool(v)
		if err != nil {
			return cfg, fmt.Errorf("scope_shepherding: %w", err)
		}
		cfg.ScopeShepherding = b
	}
	if v, ok := raw["auth_required"]; ok {
		b, err := toBool(v)
		if err != nil {
			return cfg, fmt.Errorf("auth_required: %w", err)
		}
		cfg.AuthRequired = b
	}
	if v, ok := raw["description"]; ok {
		if s, ok := v.(string); ok {
			cfg.Description = s
		}
	}

	return cfg, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func toBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

// MaxScopeDistance computes the scope-distance cap: 0 if in_scope_only or
// target_only, else max(0, scopeSearchDistance+modifier). Callers must
// only invoke this when ScopeDistanceModifier is non-nil.
func (c ModuleConfig) MaxScopeDistance(scopeSearchDistance int) int {
	if c.InScopeOnly || c.TargetOnly {
		return 0
	}
	d := scopeSearchDistance
	if c.ScopeDistanceModifier != nil {
		d += *c.ScopeDistanceModifier
	}
	if d < 0 {
		return 0
	}
	return d
}
