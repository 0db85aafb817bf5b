package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PipelinePath is a single .hcl file or a directory of .hcl files.
	PipelinePath string

	// EventName, EventRef and EventBase describe the trigger; EventFile, when
	// set, loads all three from a YAML payload instead.
	EventName string
	EventRef  string
	EventBase string
	EventFile string

	LogFormat   string
	LogLevel    string
	WorkerCount int

	// NotifyURL enables the socket.io status stream when non-empty.
	NotifyURL string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.EventFile == "" && cfg.EventName == "" {
		return nil, errors.New("an event is required: set --event or --event-file")
	}
	return &cfg, nil
}
