// Package modeldef is a thin declarative loader standing in for the
// out-of-scope XML model parser and xparser code generator: a YAML
// file names agents, their variables, message boards, the dependency
// graph and queue routing. Apply drives the structural registration
// calls a hand-written Go driver would use; ApplyDependencies wires
// the dependency graph once the driver has created the tasks it
// references.
//
// Unlike a real xparser it performs no code generation and no
// ADT/condition validation — variable types are limited to a sealed
// catalogue of Go scalars (matching the "no open-ended reflection"
// design note the rest of this module follows), and message element
// types are all the one boxed Record envelope rather than per-model
// generated structs.
package modeldef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flame-hpc/flame2/pkg/ferrors"
	"github.com/flame-hpc/flame2/pkg/flame2"
	"github.com/flame-hpc/flame2/pkg/task"
)

// Record is the single message element type modeldef-declared boards
// carry: a model file cannot generate a bespoke Go struct per message
// type the way xparser would, so every field lives in this map.
type Record map[string]any

// VarSpec names one agent variable and its scalar type.
type VarSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// AgentSpec declares one agent type, its variables, and (optionally)
// its population size.
type AgentSpec struct {
	Name       string    `yaml:"name"`
	Population int       `yaml:"population"`
	Vars       []VarSpec `yaml:"vars"`
}

// MessageSpec declares one message board by name.
type MessageSpec struct {
	Name string `yaml:"name"`
}

// DependencySpec declares one dependency edge: successor may not run
// until predecessor completes.
type DependencySpec struct {
	Successor   string `yaml:"successor"`
	Predecessor string `yaml:"predecessor"`
}

// QueueSpec declares one scheduler queue and the task kinds routed to it.
type QueueSpec struct {
	ID        int      `yaml:"id"`
	Slots     int      `yaml:"slots"`
	Splitting bool     `yaml:"splitting"`
	Kinds     []string `yaml:"kinds"`
}

// Model is the root of a modeldef YAML file.
type Model struct {
	Agents       []AgentSpec      `yaml:"agents"`
	Messages     []MessageSpec    `yaml:"messages"`
	Dependencies []DependencySpec `yaml:"dependencies"`
	Queues       []QueueSpec      `yaml:"queues"`
}

// Load reads and parses a modeldef YAML file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("modeldef: read %s: %w", path, err)
	}
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("modeldef: parse %s: %w", path, err)
	}
	return &m, nil
}

// Apply drives rt's registration API from m: agents and their
// variables, message boards, and queue routing. It does not create
// tasks — transition functions are Go closures a model file cannot
// express, so the driver still builds tasks by hand against the
// agents/boards Apply just registered. Call ApplyDependencies once
// those tasks exist to wire m.Dependencies against them.
func (m *Model) Apply(rt *flame2.Runtime) error {
	for _, a := range m.Agents {
		if err := rt.RegisterAgent(a.Name); err != nil {
			return err
		}
		for _, v := range a.Vars {
			if err := registerVar(rt, a.Name, v); err != nil {
				return err
			}
		}
		if a.Population > 0 {
			if err := rt.HintPopulationSize(a.Name, a.Population); err != nil {
				return err
			}
		}
	}

	for _, msg := range m.Messages {
		if _, err := flame2.RegisterMessage[Record](rt, msg.Name); err != nil {
			return err
		}
	}

	for _, q := range m.Queues {
		var err error
		if q.Splitting {
			err = rt.CreateSplittingQueue(q.ID, q.Slots)
		} else {
			err = rt.CreateQueue(q.ID, q.Slots)
		}
		if err != nil {
			return err
		}
		for _, k := range q.Kinds {
			rt.AssignType(q.ID, task.Kind(k))
		}
	}

	return nil
}

// ApplyDependencies wires m.Dependencies into rt's task graph. Unlike
// Apply, it must run after the driver has created every task named as
// a successor or predecessor — AddDependency rejects unknown task
// names, and modeldef never creates tasks itself.
func (m *Model) ApplyDependencies(rt *flame2.Runtime) error {
	for _, d := range m.Dependencies {
		if err := rt.AddDependency(d.Successor, d.Predecessor); err != nil {
			return err
		}
	}
	return nil
}

func registerVar(rt *flame2.Runtime, agent string, v VarSpec) error {
	switch v.Type {
	case "int":
		return flame2.RegisterAgentVar[int](rt, agent, v.Name)
	case "float64":
		return flame2.RegisterAgentVar[float64](rt, agent, v.Name)
	case "string":
		return flame2.RegisterAgentVar[string](rt, agent, v.Name)
	case "bool":
		return flame2.RegisterAgentVar[bool](rt, agent, v.Name)
	default:
		return ferrors.New(ferrors.ErrInvalidArgument,
			"modeldef: agent %q var %q: unsupported type %q", agent, v.Name, v.Type)
	}
}
