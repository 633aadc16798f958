package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Adda-Baaj/hscide-client/internal/storage"
	"github.com/Adda-Baaj/hscide-client/pkg/api"
	"github.com/Adda-Baaj/hscide-client/pkg/httpclient"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(f string) bool {
	return f == formatText || f == formatJSON || f == formatYAML
}

// encode writes v as JSON or YAML. ok is false for the text format.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return true, enc.Encode(v)
	default:
		return false, nil
	}
}

func renderGreeting(w io.Writer, format string, g api.GreetingResponse) error {
	if ok, err := encode(w, format, g); ok {
		return err
	}
	generator := "an unrecognised backend"
	switch g.Kind() {
	case api.SourceNative:
		generator = "the native library"
	case api.SourceFallback:
		generator = "the fallback implementation"
	}
	_, err := fmt.Fprintf(w, "%s\n[%s] generated by %s\n", g.Message, g.Source, generator)
	return err
}

func renderHealth(w io.Writer, format string, h api.HealthResponse) error {
	if ok, err := encode(w, format, h); ok {
		return err
	}
	_, err := fmt.Fprintf(w, "service: %s\nstatus: %s\nnative available: %t\n", h.Service, h.Status, h.NativeAvailable)
	return err
}

func renderStatus(w io.Writer, format string, s api.ServiceStatus) error {
	if ok, err := encode(w, format, s); ok {
		return err
	}
	if !s.IsRunning {
		_, err := fmt.Fprintln(w, "Backend Status: Not Running")
		return err
	}
	native := "Not Available"
	if s.NativeAvailable {
		native = "Available"
	}
	_, err := fmt.Fprintf(w, "Backend Status: Running\nNative Library: %s\n", native)
	return err
}

func renderHistory(w io.Writer, format string, probes []storage.Probe) error {
	if ok, err := encode(w, format, probes); ok {
		return err
	}
	if len(probes) == 0 {
		_, err := fmt.Fprintln(w, "no probes journaled")
		return err
	}
	for _, p := range probes {
		state := "not running"
		if p.Status.IsRunning {
			state = "running"
			if p.Status.NativeAvailable {
				state += " (native)"
			}
		}
		marker := " "
		if p.Changed {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %s %s %s\n", marker, p.ObservedAt.Format("2006-01-02T15:04:05Z07:00"), p.BaseURL, state); err != nil {
			return err
		}
	}
	return nil
}

// greetingFailureMessage turns a FetchGreeting error into a line for the user.
func greetingFailureMessage(err error) string {
	var ne *httpclient.NetworkError
	switch {
	case errors.As(err, &ne) && ne.StatusCode != 0:
		return fmt.Sprintf("could not get the message: backend answered %d", ne.StatusCode)
	case errors.As(err, &ne):
		return "could not get the message: backend unreachable"
	case api.IsMalformedResponse(err):
		return "could not get the message: backend sent an unreadable response"
	default:
		return fmt.Sprintf("could not get the message: %v", err)
	}
}
