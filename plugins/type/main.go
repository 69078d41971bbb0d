// Package main provides a plugin that types recognized words and
// sentences into the focused application.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ayusman/signspeak/internal/plugin"
)

// settings is the binding config accepted by both actions.
type settings struct {
	Text   string  `json:"text"`
	Suffix *string `json:"suffix"`
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	commands, err := typingCommands(runtime.GOOS, &req)
	if err != nil {
		writeResponse(err)
		return
	}
	for _, c := range commands {
		output, err := exec.Command(c[0], c[1:]...).CombinedOutput()
		if err != nil {
			writeResponse(fmt.Errorf("%s: %w: %s", c[0], err, strings.TrimSpace(string(output))))
			return
		}
	}
	writeResponse(nil)
}

// typingCommands returns the commands that type the request on goos.
//
//	text: types the text followed by the suffix (a space by default)
//	line: types the text and presses return
func typingCommands(goos string, req *plugin.Request) ([][]string, error) {
	var s settings
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &s); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	text := s.Text
	if text == "" {
		text = strings.TrimSpace(req.Label)
	}
	if text == "" {
		return nil, fmt.Errorf("nothing to type")
	}

	var enter bool
	switch req.Action {
	case "text":
		suffix := " "
		if s.Suffix != nil {
			suffix = *s.Suffix
		}
		text += suffix
	case "line":
		enter = true
	default:
		return nil, fmt.Errorf("unknown action: %s", req.Action)
	}

	switch goos {
	case "darwin":
		script := fmt.Sprintf(`tell application "System Events" to keystroke %q`, text)
		commands := [][]string{{"osascript", "-e", script}}
		if enter {
			commands = append(commands, []string{"osascript", "-e", `tell application "System Events" to key code 36`})
		}
		return commands, nil
	case "linux":
		commands := [][]string{{"xdotool", "type", "--", text}}
		if enter {
			commands = append(commands, []string{"xdotool", "key", "Return"})
		}
		return commands, nil
	default:
		return nil, fmt.Errorf("typing is not supported on %s", goos)
	}
}

func writeResponse(err error) {
	resp := plugin.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
