package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"agentwatch/internal/config"
)

type ConfigCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (config.Config, error)
}

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"

	redactedToken = "********"
)

type configOutput struct {
	ConfigPath string            `json:"config_path,omitempty" toml:"config_path,omitempty"`
	BaseURL    string            `json:"effective_base_url" toml:"effective_base_url"`
	Roles      map[string]string `json:"effective_roles,omitempty" toml:"effective_roles,omitempty"`
	config.Config
}

func NewConfigCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error)) *ConfigCommand {
	return &ConfigCommand{
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: loadConfig,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatTOML, "output format: toml|json")
	showToken := fs.Bool("show-token", false, "print the backend token instead of redacting it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}
	payload, err := c.buildOutput(*defaults, *showToken)
	if err != nil {
		return err
	}
	return writeConfigOutput(c.stdout, resolvedFormat, payload)
}

func (c *ConfigCommand) buildOutput(defaults, showToken bool) (configOutput, error) {
	cfg := config.Default()
	out := configOutput{}
	if !defaults {
		path, err := config.ConfigPath()
		if err != nil {
			return configOutput{}, err
		}
		cfg, err = c.loadConfig()
		if err != nil {
			return configOutput{}, err
		}
		out.ConfigPath = path
	}
	if cfg.Backend.Token != "" && !showToken {
		cfg.Backend.Token = redactedToken
	}
	out.Config = cfg
	out.BaseURL = cfg.BaseURL()
	if agents := cfg.AgentTypes(); len(agents) > 0 {
		out.Roles = make(map[string]string, len(agents))
		for _, agent := range agents {
			out.Roles[agent] = cfg.RoleFor(agent)
		}
	}
	return out, nil
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatTOML:
		return configFormatTOML, nil
	case configFormatJSON:
		return configFormatJSON, nil
	default:
		return "", errors.New("invalid format: must be toml or json")
	}
}
