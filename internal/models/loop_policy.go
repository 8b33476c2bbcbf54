package models

// Loop strategies decide which rule wins when several tags match.
const (
	LoopShortest = "shortest"
	LoopPriority = "priority"
)

// LoopRule binds a tag to a cadence.
type LoopRule struct {
	Tag         string `yaml:"tag"`
	CadenceDays int    `yaml:"cadence_days"`
	Priority    int    `yaml:"priority"`
}

// LoopPolicy maps a contact's tag set to a cadence. Loaded from YAML.
type LoopPolicy struct {
	DefaultCadenceDays *int       `yaml:"default_cadence_days"`
	Strategy           string     `yaml:"strategy"`
	Rules              []LoopRule `yaml:"rules"`
}

// Validate normalizes rule tags and checks cadences and the strategy.
func (p *LoopPolicy) Validate() error {
	switch p.Strategy {
	case LoopShortest, LoopPriority:
	case "":
		p.Strategy = LoopShortest
	default:
		return &ValidationError{Field: "strategy", Message: "Strategy must be shortest or priority"}
	}

	if p.DefaultCadenceDays != nil {
		if err := ValidateCadence(*p.DefaultCadenceDays); err != nil {
			return err
		}
	}

	for i := range p.Rules {
		normalized, err := NormalizeTagName(p.Rules[i].Tag)
		if err != nil {
			return err
		}
		p.Rules[i].Tag = normalized
		if err := ValidateCadence(p.Rules[i].CadenceDays); err != nil {
			return err
		}
	}
	return nil
}
