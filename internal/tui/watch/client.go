package watch

import (
	"bufio"
	"encoding/json"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"niriglue/internal/api"
	"niriglue/internal/events"
)

type entryMsg events.Entry

type statusMsg api.StatusResponse

type tickMsg time.Time

type errMsg error

type sseDisconnectedMsg struct{}
type reconnectMsg struct{}

// subscribeToEvents connects to the admin server's SSE feed and forwards
// entries into ch. Returns sseDisconnectedMsg when the connection drops.
func subscribeToEvents(apiURL string, ch chan<- events.Entry) tea.Cmd {
	return func() tea.Msg {
		resp, err := http.Get(apiURL + "/v1/events")
		if err != nil {
			return sseDisconnectedMsg{}
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		var data string
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				if data != "" {
					var entry events.Entry
					if err := json.Unmarshal([]byte(data), &entry); err == nil {
						ch <- entry
					}
					data = ""
				}
				continue
			}
			if len(line) > 6 && line[:6] == "data: " {
				data = line[6:]
			}
		}

		return sseDisconnectedMsg{}
	}
}

// receiveNextEntry waits for the next entry from the channel.
func receiveNextEntry(ch <-chan events.Entry) tea.Cmd {
	return func() tea.Msg {
		return entryMsg(<-ch)
	}
}

// fetchStatus queries the /v1/status endpoint.
func fetchStatus(apiURL string) tea.Msg {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(apiURL + "/v1/status")
	if err != nil {
		return errMsg(err)
	}
	defer resp.Body.Close()

	var s api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return errMsg(err)
	}
	return statusMsg(s)
}
