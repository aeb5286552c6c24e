package browser

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// cdpMessage is one DevTools protocol frame.
type cdpMessage struct {
	ID        int64           `json:"id,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// devtoolsServer speaks enough of the DevTools protocol over a websocket for
// chromedp to open tabs, navigate them and evaluate expressions. Navigation
// never touches the network: the server replays the events Chrome emits for
// a document load.
type devtoolsServer struct {
	srv *httptest.Server

	mu           sync.Mutex
	calls        []cdpMessage
	next         int
	status       map[string]int
	results      map[string]string
	subresources []subresource
	patterns     map[string][]string
}

// subresource is a request the page makes after its document arrives.
type subresource struct {
	URL     string
	Type    string
	Headers map[string]string
}

func newDevtoolsServer(t *testing.T) *devtoolsServer {
	t.Helper()
	d := &devtoolsServer{
		status:   make(map[string]int),
		results:  make(map[string]string),
		patterns: make(map[string][]string),
	}
	d.srv = httptest.NewServer(http.HandlerFunc(d.serve))
	t.Cleanup(d.srv.Close)
	return d
}

// URL returns the browser websocket endpoint.
func (d *devtoolsServer) URL() string {
	return "ws" + strings.TrimPrefix(d.srv.URL, "http") + "/devtools/browser/stub"
}

// SetStatus makes navigations to url answer with status.
func (d *devtoolsServer) SetStatus(url string, status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status[url] = status
}

// SetResult makes Runtime.evaluate of expression return the remote object
// JSON result.
func (d *devtoolsServer) SetResult(expression, result string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results[expression] = result
}

// AddSubresource makes every page request url once it has loaded.
func (d *devtoolsServer) AddSubresource(res subresource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subresources = append(d.subresources, res)
}

// Calls returns the commands received for method.
func (d *devtoolsServer) Calls(method string) []cdpMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []cdpMessage
	for _, c := range d.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (d *devtoolsServer) serve(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(msg cdpMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = wsutil.WriteServerMessage(conn, ws.OpText, data) //nolint:errcheck // The client may be gone.
	}

	for {
		data, op, err := wsutil.ReadClientData(conn)
		if err != nil {
			return
		}
		if op != ws.OpText {
			continue
		}
		var msg cdpMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		result, events := d.handle(msg)
		send(cdpMessage{ID: msg.ID, SessionID: msg.SessionID, Result: result})
		for _, ev := range events {
			ev.SessionID = msg.SessionID
			send(ev)
		}
	}
}

func (d *devtoolsServer) handle(msg cdpMessage) (json.RawMessage, []cdpMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, msg)
	d.next++
	n := d.next

	var params struct {
		TargetID   string `json:"targetId"`
		Expression string `json:"expression"`
		URL        string `json:"url"`
		Patterns   []struct {
			URLPattern string `json:"urlPattern"`
		} `json:"patterns"`
	}
	_ = json.Unmarshal(msg.Params, &params) //nolint:errcheck // Commands without params.

	switch msg.Method {
	case "Target.createBrowserContext":
		return raw(`{"browserContextId":"context-%d"}`, n), nil
	case "Target.createTarget":
		return raw(`{"targetId":"target-%d"}`, n), nil
	case "Target.attachToTarget":
		return raw(`{"sessionId":"session-%s"}`, params.TargetID), nil
	case "Fetch.enable":
		for _, p := range params.Patterns {
			d.patterns[msg.SessionID] = append(d.patterns[msg.SessionID], p.URLPattern)
		}
		return raw(`{}`), nil
	case "Runtime.evaluate":
		return d.evaluate(msg.SessionID, params.Expression), nil
	case "Page.navigate":
		d.results[locationKey(msg.SessionID)] = params.URL
		return raw(`{"frameId":%q,"loaderId":"loader-%d"}`, frameOf(msg.SessionID), n), d.documentEvents(msg.SessionID, params.URL, n)
	default:
		return raw(`{}`), nil
	}
}

func (d *devtoolsServer) evaluate(sessionID, expression string) json.RawMessage {
	switch expression {
	case "self":
		return raw(`{"result":{"type":"object","className":"Window"}}`)
	case "document.location.toString()":
		location, err := json.Marshal(d.results[locationKey(sessionID)])
		if err != nil {
			return raw(`{"result":{"type":"undefined"}}`)
		}
		return raw(`{"result":{"type":"string","value":%s}}`, location)
	}
	if result, ok := d.results[expression]; ok {
		return raw(`{"result":%s}`, result)
	}
	return raw(`{"result":{"type":"undefined"}}`)
}

// documentEvents replays the events of a document load. Requests matching
// the Fetch patterns of the session are paused the way Chrome pauses them.
func (d *devtoolsServer) documentEvents(sessionID, url string, n int) []cdpMessage {
	frame := frameOf(sessionID)
	loader := fmt.Sprintf("loader-%d", n)
	request := fmt.Sprintf("request-%d", n)
	status := d.status[url]
	if status == 0 {
		status = http.StatusOK
	}

	events := []cdpMessage{
		event("Page.lifecycleEvent", `{"frameId":%q,"loaderId":%q,"name":"init"}`, frame, loader),
	}
	events = append(events, d.paused(sessionID, frame, request, subresource{URL: url, Type: "Document"})...)
	events = append(events,
		event("Network.requestWillBeSent",
			`{"requestId":%q,"loaderId":%q,"documentURL":%q,"request":{"url":%q,"method":"GET","headers":{}},"type":"Document","frameId":%q}`,
			request, loader, url, url, frame),
		event("Network.responseReceived",
			`{"requestId":%q,"loaderId":%q,"type":"Document","frameId":%q,"response":{"url":%q,"status":%d,"statusText":%q,"headers":{},"mimeType":"text/html"}}`,
			request, loader, frame, url, status, http.StatusText(status)),
		event("Network.loadingFinished", `{"requestId":%q}`, request),
	)
	for i, res := range d.subresources {
		events = append(events, d.paused(sessionID, frame, fmt.Sprintf("%s-sub-%d", request, i), res)...)
	}
	return append(events, event("Page.loadEventFired", `{}`))
}

func (d *devtoolsServer) paused(sessionID, frame, id string, res subresource) []cdpMessage {
	for _, pattern := range d.patterns[sessionID] {
		if !strings.HasPrefix(res.URL, strings.TrimSuffix(pattern, "*")) {
			continue
		}
		headers, err := json.Marshal(res.Headers)
		if err != nil || res.Headers == nil {
			headers = []byte(`{}`)
		}
		return []cdpMessage{event("Fetch.requestPaused",
			`{"requestId":%q,"frameId":%q,"resourceType":%q,"request":{"url":%q,"method":"GET","headers":%s}}`,
			"fetch-"+id, frame, res.Type, res.URL, headers)}
	}
	return nil
}

func frameOf(sessionID string) string {
	return strings.TrimPrefix(sessionID, "session-")
}

func locationKey(sessionID string) string {
	return "location:" + sessionID
}

func event(method, format string, args ...any) cdpMessage {
	return cdpMessage{Method: method, Params: raw(format, args...)}
}

func raw(format string, args ...any) json.RawMessage {
	if len(args) == 0 {
		return json.RawMessage(format)
	}
	return json.RawMessage(fmt.Sprintf(format, args...))
}
