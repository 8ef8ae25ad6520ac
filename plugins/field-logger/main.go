// Command field-logger is a gesturefield plugin that appends every field
// event it receives to a JSON lines file.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/gesturefield/internal/plugin"
)

// DefaultLogFile is used when the hook config has no path.
const DefaultLogFile = "field-events.jsonl"

type logConfig struct {
	Path string `json:"path"`
}

// entry is one line of the log file.
type entry struct {
	LoggedAt time.Time    `json:"loggedAt"`
	Event    plugin.Event `json:"event"`
}

func main() {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	run(os.Stdin, os.Stdout, dir, time.Now)
}

func run(in io.Reader, out io.Writer, dir string, now func() time.Time) {
	var req plugin.Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		respond(out, fmt.Errorf("decoding request: %w", err), nil)
		return
	}

	switch req.Action {
	case "log":
		path, err := appendEvent(dir, req, now())
		respond(out, err, map[string]string{"path": path})
	default:
		respond(out, fmt.Errorf("unknown action: %s", req.Action), nil)
	}
}

func appendEvent(dir string, req plugin.Request, at time.Time) (string, error) {
	var cfg logConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return "", fmt.Errorf("parsing config: %w", err)
		}
	}
	if cfg.Path == "" {
		cfg.Path = DefaultLogFile
	}
	path := cfg.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	line, err := json.Marshal(entry{LoggedAt: at.UTC(), Event: req.Event})
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("opening log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return "", fmt.Errorf("writing log: %w", err)
	}
	return path, nil
}

func respond(out io.Writer, err error, data any) {
	resp := plugin.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	} else if data != nil {
		resp.Data, _ = json.Marshal(data)
	}
	json.NewEncoder(out).Encode(resp)
}
