package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ayusman/signspeak/internal/plugin"
)

func TestSpeechCommand(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		label    string
		config   string
		wantName string
		wantArgs []string
		wantErr  string
	}{
		{
			name:     "mac label",
			goos:     "darwin",
			label:    "thank you",
			wantName: "say",
			wantArgs: []string{"thank you"},
		},
		{
			name:     "mac voice and rate",
			goos:     "darwin",
			label:    "hello",
			config:   `{"voice":"Samantha","rate":180}`,
			wantName: "say",
			wantArgs: []string{"-v", "Samantha", "-r", "180", "hello"},
		},
		{
			name:     "linux text override",
			goos:     "linux",
			label:    "hello",
			config:   `{"text":"good morning"}`,
			wantName: "espeak",
			wantArgs: []string{"good morning"},
		},
		{
			name:    "empty label",
			goos:    "linux",
			label:   "  ",
			wantErr: "nothing to say",
		},
		{
			name:    "bad config",
			goos:    "linux",
			label:   "hello",
			config:  `{"rate":"fast"}`,
			wantErr: "invalid config",
		},
		{
			name:    "unsupported platform",
			goos:    "plan9",
			label:   "hello",
			wantErr: "not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &plugin.Request{Action: "say", Label: tt.label}
			if tt.config != "" {
				req.Config = json.RawMessage(tt.config)
			}

			name, args, err := speechCommand(tt.goos, req)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("speechCommand() failed: %v", err)
			}
			if name != tt.wantName {
				t.Errorf("command = %q, want %q", name, tt.wantName)
			}
			if strings.Join(args, "|") != strings.Join(tt.wantArgs, "|") {
				t.Errorf("args = %q, want %q", args, tt.wantArgs)
			}
		})
	}
}

func TestSpeechCommand_WindowsQuotes(t *testing.T) {
	_, args, err := speechCommand("windows", &plugin.Request{Label: "it's me"})
	if err != nil {
		t.Fatalf("speechCommand() failed: %v", err)
	}
	if !strings.Contains(args[len(args)-1], "'it''s me'") {
		t.Errorf("expected escaped quote, got %q", args[len(args)-1])
	}
}
