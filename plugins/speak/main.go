// Package main provides a plugin that speaks recognized words and
// sentences with the platform speech engine.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/ayusman/signspeak/internal/plugin"
)

// settings is the binding config accepted by the say action.
type settings struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Rate  int    `json:"rate"`
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}
	if req.Action != "say" {
		writeResponse(fmt.Errorf("unknown action: %s", req.Action))
		return
	}

	name, args, err := speechCommand(runtime.GOOS, &req)
	if err != nil {
		writeResponse(err)
		return
	}
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		err = fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	writeResponse(err)
}

// speechCommand returns the command that speaks the request on goos.
func speechCommand(goos string, req *plugin.Request) (string, []string, error) {
	var s settings
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &s); err != nil {
			return "", nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	text := strings.TrimSpace(s.Text)
	if text == "" {
		text = strings.TrimSpace(req.Label)
	}
	if text == "" {
		return "", nil, fmt.Errorf("nothing to say")
	}

	switch goos {
	case "darwin":
		args := []string{}
		if s.Voice != "" {
			args = append(args, "-v", s.Voice)
		}
		if s.Rate > 0 {
			args = append(args, "-r", strconv.Itoa(s.Rate))
		}
		return "say", append(args, text), nil
	case "linux":
		args := []string{}
		if s.Voice != "" {
			args = append(args, "-v", s.Voice)
		}
		if s.Rate > 0 {
			args = append(args, "-s", strconv.Itoa(s.Rate))
		}
		return "espeak", append(args, text), nil
	case "windows":
		script := "Add-Type -AssemblyName System.Speech; " +
			"(New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak('" +
			strings.ReplaceAll(text, "'", "''") + "')"
		return "powershell", []string{"-NoProfile", "-Command", script}, nil
	default:
		return "", nil, fmt.Errorf("speech is not supported on %s", goos)
	}
}

func writeResponse(err error) {
	resp := plugin.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
