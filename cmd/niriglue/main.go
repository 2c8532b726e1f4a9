package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"niriglue/internal/api"
	"niriglue/internal/config"
	"niriglue/internal/niri"
	"niriglue/internal/tui"
	"niriglue/internal/tui/watch"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	case "start":
		if hasHelpFlag(args) {
			printStartHelp()
			return 0
		}
		return runStart(args)
	case "msg":
		if hasHelpFlag(args) {
			printMsgHelp()
			return 0
		}
		return runMsg(args)
	case "action":
		if hasHelpFlag(args) {
			printActionHelp()
			return 0
		}
		return runAction(args)
	case "status":
		if hasHelpFlag(args) {
			printStatusHelp()
			return 0
		}
		return runStatus(args)
	case "watch":
		if hasHelpFlag(args) {
			printWatchHelp()
			return 0
		}
		return runWatch(args)
	case "windows":
		if hasHelpFlag(args) {
			printWindowsHelp()
			return 0
		}
		return runWindows(args)
	case "check":
		if hasHelpFlag(args) {
			printCheckHelp()
			return 0
		}
		return runCheck(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: niriglue version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("niriglue %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}

	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	resolvedCommit := strings.TrimSpace(gitCommit)
	if resolvedCommit == "" || resolvedCommit == "unknown" {
		resolvedCommit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if resolvedCommit != "" {
		info.Commit = shortenCommit(resolvedCommit)
	}

	resolvedBuildTime := strings.TrimSpace(buildDate)
	if resolvedBuildTime == "" || resolvedBuildTime == "unknown" {
		resolvedBuildTime = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if normalized, ok := normalizeBuildTimeUTC(resolvedBuildTime); ok {
		info.BuildTime = normalized
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func normalizeBuildTimeUTC(raw string) (string, bool) {
	if raw == "" || raw == "unknown" {
		return "", false
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}

	return t.UTC().Format(time.RFC3339), true
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

// resolveSocket prefers the configured override, then $NIRI_SOCKET.
func resolveSocket(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return niri.SocketPath()
}

func runMsg(args []string) int {
	fs := flag.NewFlagSet("msg", flag.ExitOnError)
	socket := fs.String("socket", "", "Compositor socket path (default: $NIRI_SOCKET)")
	compact := fs.Bool("compact", false, "Print the reply on one line")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: niriglue msg <request> [--socket PATH] [--compact]")
		return 1
	}

	path, err := resolveSocket(*socket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// A JSON argument passes through verbatim; anything else is a plain
	// string request like "Windows".
	raw := fs.Arg(0)
	var req any = raw
	if strings.HasPrefix(strings.TrimSpace(raw), "{") {
		if !json.Valid([]byte(raw)) {
			fmt.Fprintln(os.Stderr, "Error: request is not valid JSON")
			return 1
		}
		req = json.RawMessage(raw)
	}

	reply, err := niri.Request(path, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return printReply(reply, *compact)
}

func runAction(args []string) int {
	fs := flag.NewFlagSet("action", flag.ExitOnError)
	socket := fs.String("socket", "", "Compositor socket path (default: $NIRI_SOCKET)")
	params := fs.String("params", "", "Action parameters as a JSON object")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: niriglue action <name> [--params JSON] [--socket PATH]")
		return 1
	}

	path, err := resolveSocket(*socket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var p any
	if *params != "" {
		if !json.Valid([]byte(*params)) {
			fmt.Fprintln(os.Stderr, "Error: --params is not valid JSON")
			return 1
		}
		p = json.RawMessage(*params)
	}

	reply, err := niri.Action(path, fs.Arg(0), p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return printReply(reply, false)
}

func printReply(reply niri.Reply, compact bool) int {
	if !reply.OK {
		fmt.Fprintf(os.Stderr, "Compositor rejected the request: %s\n", reply.Payload)
		return 1
	}
	if len(reply.Payload) == 0 || string(reply.Payload) == "null" {
		fmt.Println("Ok")
		return 0
	}
	if compact {
		fmt.Println(string(reply.Payload))
		return 0
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, reply.Payload, "", "  "); err != nil {
		fmt.Println(string(reply.Payload))
		return 0
	}
	fmt.Println(pretty.String())
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	apiURL := fs.String("api-url", "", "Admin API URL (default: from config)")
	configPath := fs.String("config", "", "Path to configuration file")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	url := *apiURL
	if url == "" {
		cfg, err := loadConfigForTool(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			return 1
		}
		url = "http://" + cfg.API.Listen
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url + "/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Daemon not reachable at %s: %v\n", url, err)
		return 1
	}
	defer resp.Body.Close()

	var status api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Malformed status response: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("status:      %s\n", status.Status)
	fmt.Printf("version:     %s\n", status.Version)
	fmt.Printf("uptime:      %s\n", (time.Duration(status.UptimeSeconds) * time.Second).String())
	fmt.Printf("dispatching: %t\n", status.Dispatching)
	fmt.Printf("events:      %d\n", status.EventsSeen)
	fmt.Printf("config:      %s\n", status.ConfigFingerprint)
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://127.0.0.1:8337", "Admin API URL")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	m := watch.New(*apiURL)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://127.0.0.1:8337", "Admin API URL")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if err := tui.Run(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfigForTool(configPath string) (*config.Config, error) {
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	return config.Load(configPath)
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printUsage() {
	fmt.Print(`niriglue - Event-driven glue daemon for the niri compositor

Usage:
  niriglue <command> [flags]

Commands:
  start     Run the daemon in the foreground
  msg       Send a one-shot IPC request to the compositor
  action    Send a compositor action
  status    Show daemon health via the admin API
  watch     Real-time event monitor TUI
  windows   Window table monitor TUI
  check     Validate configuration and environment
  version   Show version information
  help      Show this help message

Use 'niriglue <command> --help' for command-specific flags.
`)
}

func printStartHelp() {
	fmt.Println("Usage: niriglue start [--config PATH]")
	fmt.Println("Run the daemon in the foreground until SIGINT/SIGTERM.")
}

func printMsgHelp() {
	fmt.Println("Usage: niriglue msg <request> [--socket PATH] [--compact]")
	fmt.Println("Send a one-shot IPC request. Plain words encode as JSON strings;")
	fmt.Println("a JSON object argument passes through verbatim.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  niriglue msg Windows")
	fmt.Println("  niriglue msg '{\"Action\":{\"FocusWindow\":{\"id\":3}}}'")
}

func printActionHelp() {
	fmt.Println("Usage: niriglue action <name> [--params JSON] [--socket PATH]")
	fmt.Println("Send a compositor action, optionally with parameters.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  niriglue action ToggleOverview")
	fmt.Println("  niriglue action FocusWindow --params '{\"id\":3}'")
}

func printStatusHelp() {
	fmt.Println("Usage: niriglue status [--api-url URL | --config PATH] [--json]")
	fmt.Println("Query the running daemon's admin API for health and counters.")
}

func printWatchHelp() {
	fmt.Println("Usage: niriglue watch [--api-url URL]")
	fmt.Println()
	fmt.Println("Real-time event monitor TUI. Shows daemon health, workspaces,")
	fmt.Println("and the live compositor event stream.")
	fmt.Println()
	fmt.Println("Keybindings:")
	fmt.Println("  q, Ctrl+C        Quit")
}

func printWindowsHelp() {
	fmt.Println("Usage: niriglue windows [--api-url URL]")
	fmt.Println("Window table monitor TUI fed by the daemon's event feed.")
}

func printCheckHelp() {
	fmt.Println("Usage: niriglue check [--config PATH] [--json]")
	fmt.Println("Validate configuration and probe the compositor socket.")
	fmt.Println()
	fmt.Println("Exit codes:")
	fmt.Println("  0  All required checks passed")
	fmt.Println("  1  One or more checks failed")
}
