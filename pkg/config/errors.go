package config

import "errors"

var (
	ErrAgentNotFound    = errors.New("agent profile not found")
	ErrProviderNotFound = errors.New("provider config not found")
	ErrSkillPackInvalid = errors.New("skill pack invalid")
)
