package fsm

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// tableDoc is the YAML schema for a machine definition.
//
//	initial: IDLE
//	global_transitions:
//	  ESTOP: ABORTED
//	states:
//	  - name: WAIT
//	    timeout: 200ms
//	    timeout_event: TIMEOUT
//	    transitions:
//	      TIMEOUT: ABORTED
//	    conditional:
//	      CHECK:
//	        - target: READY
//	          priority: 10
//	          predicate: tank_full
//	    guards:
//	      START: pressure_ok
//	    preconditions: [TEMP_LIMIT]
//	    postconditions: [NOZZLE_CLEAR]
//
// Predicate and condition names resolve through a Registry; functions
// cannot live in a document.
type tableDoc struct {
	Initial string            `yaml:"initial"`
	Globals map[string]string `yaml:"global_transitions"`
	States  []stateDoc        `yaml:"states"`
}

type stateDoc struct {
	Name           string                      `yaml:"name"`
	Timeout        duration                    `yaml:"timeout"`
	TimeoutEvent   string                      `yaml:"timeout_event"`
	Transitions    map[string]string           `yaml:"transitions"`
	Conditional    map[string][]conditionalDoc `yaml:"conditional"`
	Guards         map[string]string           `yaml:"guards"`
	Preconditions  []string                    `yaml:"preconditions"`
	Postconditions []string                    `yaml:"postconditions"`
}

type conditionalDoc struct {
	Target      string `yaml:"target"`
	Priority    int    `yaml:"priority"`
	Predicate   string `yaml:"predicate"`
	Description string `yaml:"description"`
}

// duration parses YAML scalars like "200ms" via time.ParseDuration.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("fsm: invalid duration %q: %w", raw, err)
	}
	*d = duration(parsed)
	return nil
}

// LoadTable parses a YAML machine definition and builds an immutable table,
// resolving predicate and condition references through reg.
func LoadTable(r io.Reader, reg *Registry) (*Table, error) {
	var doc tableDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("fsm: failed to parse table definition: %w", err)
	}

	tableOpts := make([]TableOption, 0, len(doc.States)+len(doc.Globals))
	for event, target := range doc.Globals {
		tableOpts = append(tableOpts, WithGlobalTransition(event, target))
	}
	for _, sd := range doc.States {
		opts, err := stateOptions(sd, reg)
		if err != nil {
			return nil, err
		}
		tableOpts = append(tableOpts, WithState(sd.Name, opts...))
	}

	return New(doc.Initial, tableOpts...)
}

func stateOptions(sd stateDoc, reg *Registry) ([]StateOption, error) {
	var opts []StateOption

	if sd.Timeout > 0 {
		opts = append(opts, WithTimeout(time.Duration(sd.Timeout)))
	}
	if sd.TimeoutEvent != "" {
		opts = append(opts, WithTimeoutEvent(sd.TimeoutEvent))
	}
	for event, target := range sd.Transitions {
		opts = append(opts, WithTransition(event, target))
	}
	for event, list := range sd.Conditional {
		for _, cd := range list {
			pred, ok := reg.Predicate(cd.Predicate)
			if !ok {
				return nil, fmt.Errorf("%w: %q (state %q, event %q)", ErrUnknownPredicate, cd.Predicate, sd.Name, event)
			}
			opts = append(opts, WithConditional(event, ConditionalTransition{
				Target:      cd.Target,
				Priority:    cd.Priority,
				Description: cd.Description,
				Predicate:   pred,
			}))
		}
	}
	for event, name := range sd.Guards {
		pred, ok := reg.Predicate(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q (state %q, guard for %q)", ErrUnknownPredicate, name, sd.Name, event)
		}
		opts = append(opts, WithGuard(event, pred))
	}
	for _, code := range sd.Preconditions {
		cond, ok := reg.Condition(code)
		if !ok {
			return nil, fmt.Errorf("%w: %q (state %q precondition)", ErrUnknownCondition, code, sd.Name)
		}
		opts = append(opts, WithPrecondition(cond))
	}
	for _, code := range sd.Postconditions {
		cond, ok := reg.Condition(code)
		if !ok {
			return nil, fmt.Errorf("%w: %q (state %q postcondition)", ErrUnknownCondition, code, sd.Name)
		}
		opts = append(opts, WithPostcondition(cond))
	}

	return opts, nil
}
