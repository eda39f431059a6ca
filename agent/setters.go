package agent

import "github.com/devadoot/devadoot/rules"

// SetName returns an UpdateSetter that sets the agent's name.
func SetName(name string) UpdateSetter {
	return func(a *Agent) error {
		if name == "" {
			return ErrInvalidName
		}
		a.Name = name
		return nil
	}
}

// SetSites returns an UpdateSetter that replaces the agent's site list.
func SetSites(sites []string) UpdateSetter {
	return func(a *Agent) error {
		if len(sites) == 0 {
			return ErrNoSites
		}
		a.Sites = sites
		return nil
	}
}

// SetURLPatterns returns an UpdateSetter that replaces the agent's URL
// pattern list. An empty list is allowed; such agents fire on any page of
// their sites.
func SetURLPatterns(patterns []string) UpdateSetter {
	return func(a *Agent) error {
		a.URLPatterns = patterns
		return nil
	}
}

// SetSource returns an UpdateSetter that sets the agent's source along
// with its source-specific reference.
func SetSource(source Source, marketplaceID, customEndpoint string) UpdateSetter {
	return func(a *Agent) error {
		if !source.IsValid() {
			return ErrInvalidSource
		}
		a.Source = source
		a.MarketplaceID = marketplaceID
		a.CustomEndpoint = customEndpoint
		return nil
	}
}

// SetMonitoring returns an UpdateSetter that sets the monitoring mode.
func SetMonitoring(monitoring Monitoring) UpdateSetter {
	return func(a *Agent) error {
		if !monitoring.IsValid() {
			return ErrInvalidMonitoring
		}
		a.Monitoring = monitoring
		return nil
	}
}

// SetRule returns an UpdateSetter that sets the rule text and its optional
// structured form.
func SetRule(ruleNL string, structured *rules.Structured) UpdateSetter {
	return func(a *Agent) error {
		if ruleNL == "" {
			return ErrInvalidRule
		}
		a.RuleNL = ruleNL
		a.RuleStructured = structured
		return nil
	}
}

// SetWelcomeMessage returns an UpdateSetter that sets the welcome message.
func SetWelcomeMessage(msg string) UpdateSetter {
	return func(a *Agent) error {
		a.WelcomeMessage = msg
		return nil
	}
}

// SetCollectors returns an UpdateSetter that replaces the collector flags.
func SetCollectors(collectors CollectorConfig) UpdateSetter {
	return func(a *Agent) error {
		a.Collectors = collectors
		return nil
	}
}

// SetPriority returns an UpdateSetter that sets the agent's priority.
// Lower values take precedence when resolving matches.
func SetPriority(priority int) UpdateSetter {
	return func(a *Agent) error {
		a.Priority = priority
		return nil
	}
}
