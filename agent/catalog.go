package agent

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/genui/tool"
)

// Names of the built-in agents.
const (
	EnhancedMarkdown = "enhanced-markdown"
	RawWeb           = "raw-web"
)

//go:embed prompts.yaml
var defaultCatalog []byte

// Definition describes one agent of the catalog.
type Definition struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Tools        []string `yaml:"tools"`
	ChatPrompt   string   `yaml:"chat_prompt"`
	ReportPrompt string   `yaml:"report_prompt"`
}

// Catalog is the set of agent definitions.
type Catalog struct {
	Agents []Definition `yaml:"agents"`
}

// LoadCatalog parses and validates a YAML catalog.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse agent catalog: %w", err)
	}

	if len(c.Agents) == 0 {
		return nil, errors.New("agent catalog is empty")
	}

	seen := make(map[string]struct{}, len(c.Agents))
	for i, d := range c.Agents {
		name := strings.TrimSpace(d.Name)
		switch {
		case name == "":
			return nil, fmt.Errorf("agent catalog entry %d has no name", i)
		case strings.TrimSpace(d.ChatPrompt) == "" || strings.TrimSpace(d.ReportPrompt) == "":
			return nil, fmt.Errorf("agent %s: chat_prompt and report_prompt are required", name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("agent %s is defined twice", name)
		}
		seen[name] = struct{}{}
		c.Agents[i].Name = name
	}

	return &c, nil
}

// DefaultCatalog returns the embedded catalog of built-in agents.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultCatalog)
}

// BuildOptions configures Catalog.Build.
type BuildOptions struct {
	EnableStreaming bool
	Clock           func() time.Time
}

// Build creates one ReportAgent per definition. Tools are looked up by name
// in available.
func (c *Catalog) Build(models ModelResolver, available []tool.Tool, optFns ...func(o *BuildOptions)) ([]*ReportAgent, error) {
	opts := BuildOptions{
		EnableStreaming: true,
		Clock:           time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	agents := make([]*ReportAgent, 0, len(c.Agents))
	for _, d := range c.Agents {
		tools := make([]tool.Tool, 0, len(d.Tools))
		for _, name := range d.Tools {
			t, err := tool.Find(available, name)
			if err != nil {
				return nil, fmt.Errorf("agent %s: %w", d.Name, err)
			}
			tools = append(tools, t)
		}

		a, err := NewReportAgent(d.Name, models, func(o *ReportAgentOptions) {
			o.Description = d.Description
			o.ChatInstruction = NewInstructionFromTemplate(d.ChatPrompt, opts.Clock)
			o.ReportInstruction = NewInstructionFromTemplate(d.ReportPrompt, opts.Clock)
			o.Tools = tools
			o.EnableStreaming = opts.EnableStreaming
		})
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}

	return agents, nil
}
