package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DisclosurePolicy carries the IBPT approximate-tax percentages. The state
// share is informative; the split is total minus federal.
type DisclosurePolicy struct {
	TotalPercent   float64 `mapstructure:"totalPercent"`
	FederalPercent float64 `mapstructure:"federalPercent"`
	StatePercent   float64 `mapstructure:"statePercent"`
}

// Policy is the operator-tunable fiscal policy, separate from process
// configuration: it changes with IBPT table releases, not with deployments.
type Policy struct {
	Disclosure DisclosurePolicy `mapstructure:"disclosure"`
}

func DefaultPolicy() Policy {
	return Policy{
		Disclosure: DisclosurePolicy{
			TotalPercent:   15.25,
			FederalPercent: 13.45,
			StatePercent:   1.8,
		},
	}
}

// PolicyHolder serves the current policy and follows file edits without a
// restart.
type PolicyHolder struct {
	current atomic.Value // holds Policy
}

// NewPolicyHolder reads fiscal.yml and watches it for changes. A missing
// file means defaults.
func NewPolicyHolder() (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("fiscal")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/fiscal")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FISCAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &PolicyHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultPolicy())
		return holder, nil
	}

	holder.current.Store(unmarshalPolicy(v))

	v.OnConfigChange(func(fsnotify.Event) {
		holder.current.Store(unmarshalPolicy(v))
	})
	v.WatchConfig()

	return holder, nil
}

// Load returns the policy in effect. Safe for concurrent use.
func (h *PolicyHolder) Load() Policy {
	if h == nil {
		return DefaultPolicy()
	}
	policy, ok := h.current.Load().(Policy)
	if !ok {
		return DefaultPolicy()
	}
	return policy
}

func unmarshalPolicy(v *viper.Viper) Policy {
	policy := DefaultPolicy()
	if err := v.Unmarshal(&policy); err != nil {
		return DefaultPolicy()
	}
	if policy.Disclosure.TotalPercent <= 0 {
		policy.Disclosure = DefaultPolicy().Disclosure
	}
	return policy
}
