package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// render prints v in the requested format; text falls back to the
// command's own printer.
func render(w io.Writer, format string, v any, text func() error) error {
	switch format {
	case "", "text":
		return text()
	case "json":
		return printJSON(w, v)
	case "yaml", "yml":
		return printYAML(w, v)
	}
	return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func onOffString(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func printStatusText(w io.Writer, s statusView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "state:\t%s\n", s.State)
	if s.LastError != "" {
		fmt.Fprintf(tw, "last error:\t%s\n", s.LastError)
	}
	user := s.User
	if user == "" {
		user = "(not set)"
	}
	if s.UserID != "" {
		user += " (" + s.UserID + ")"
	}
	fmt.Fprintf(tw, "user:\t%s\n", user)
	last := s.LastSyncTime
	if last == "" {
		last = "never"
	}
	fmt.Fprintf(tw, "last sync:\t%s\n", last)
	fmt.Fprintf(tw, "auto sync:\t%s\n", onOffString(s.AutoSync))
	fmt.Fprintf(tw, "local entries:\t%d\n", s.LocalCount)
	if s.RemoteCount != nil {
		fmt.Fprintf(tw, "remote rows:\t%d\n", *s.RemoteCount)
	}
	return tw.Flush()
}

// readAll reads a file, or in when path is "-".
func readAll(in io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(path)
}
