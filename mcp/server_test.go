package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenny-s51/patternfly-mcp/cache"
	"github.com/jenny-s51/patternfly-mcp/docs"
	"github.com/jenny-s51/patternfly-mcp/logger"
)

type serverFixture struct {
	docRoot string
	agg     *docs.Aggregator
	guard   *cache.ClearGuard
}

func newFixture(t *testing.T) *serverFixture {
	t.Helper()
	root := t.TempDir()
	agg := docs.NewAggregator(docs.Config{
		Reader:  docs.NewReader(root),
		Fetcher: docs.NewFetcher(time.Second),
		Logger:  logger.NewTestLogger(),
	})
	return &serverFixture{
		docRoot: root,
		agg:     agg,
		guard:   cache.NewClearGuard(agg.Store(), cache.DefaultClearCooldown),
	}
}

// drive feeds lines through a fresh server and returns every response keyed
// by its raw id.
func (f *serverFixture) drive(t *testing.T, lines ...string) map[string]*Message {
	t.Helper()
	var out bytes.Buffer
	s := NewServer(ServerConfig{
		Aggregator: f.agg,
		Guard:      f.guard,
		Logger:     logger.NewTestLogger(),
		In:         strings.NewReader(strings.Join(lines, "\n") + "\n"),
		Out:        &out,
	})
	require.NoError(t, s.Run(context.Background()))

	responses := make(map[string]*Message)
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var msg Message
		require.NoError(t, json.Unmarshal([]byte(line), &msg))
		responses[string(msg.ID)] = &msg
	}
	return responses
}

func toolResult(t *testing.T, msg *Message) *ToolResult {
	t.Helper()
	require.NotNil(t, msg)
	require.Nil(t, msg.Error)
	buf, err := json.Marshal(msg.Result)
	require.NoError(t, err)
	var result ToolResult
	require.NoError(t, json.Unmarshal(buf, &result))
	return &result
}

func callLine(id int, tool string, args string) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"tools/call","params":{"name":"%s","arguments":%s}}`, id, tool, args)
}

func TestInitializeAndToolsList(t *testing.T) {
	f := newFixture(t)
	responses := f.drive(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)
	// The notification gets no response.
	require.Len(t, responses, 2)

	init := responses["1"]
	require.NotNil(t, init)
	require.Nil(t, init.Error)
	buf, err := json.Marshal(init.Result)
	require.NoError(t, err)
	assert.Contains(t, string(buf), serverName)
	assert.Contains(t, string(buf), protocolVersion)

	list := responses["2"]
	require.NotNil(t, list)
	buf, err = json.Marshal(list.Result)
	require.NoError(t, err)
	var tools toolsListResult
	require.NoError(t, json.Unmarshal(buf, &tools))
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"fetchDocs", "clearCache", "listSources"}, names)
}

func TestFetchDocsFromLocalFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.docRoot, "button.md"), []byte("button docs"), 0o644))

	responses := f.drive(t, callLine(1, "fetchDocs", `{"sources":["button.md"]}`))
	result := toolResult(t, responses["1"])
	require.Len(t, result.Content, 1)
	assert.False(t, result.IsError)
	assert.Equal(t, "# Documentation from button.md\n\nbutton docs", result.Content[0].Text)
}

func TestFetchDocsPartialFailureIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.docRoot, "ok.md"), []byte("fine"), 0o644))

	responses := f.drive(t, callLine(1, "fetchDocs", fmt.Sprintf(`{"sources":["%s","ok.md"]}`, srv.URL)))
	result := toolResult(t, responses["1"])
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "# Error loading "+srv.URL)
	assert.Contains(t, result.Content[0].Text, "# Documentation from ok.md\n\nfine")
}

func TestFetchDocsInvalidParams(t *testing.T) {
	f := newFixture(t)
	responses := f.drive(t,
		callLine(1, "fetchDocs", `{"sources":"not-an-array"}`),
		callLine(2, "fetchDocs", `{"sources":[1,2,3]}`),
		callLine(3, "fetchDocs", `{"sources":[]}`),
		callLine(4, "fetchDocs", `{"sources":["  ",""]}`),
	)
	for id := 1; id <= 4; id++ {
		msg := responses[fmt.Sprint(id)]
		require.NotNil(t, msg, "response %d", id)
		require.NotNil(t, msg.Error, "response %d", id)
		assert.Equal(t, CodeInvalidParams, msg.Error.Code, "response %d", id)
	}
}

func TestClearCacheCooldown(t *testing.T) {
	f := newFixture(t)
	responses := f.drive(t, callLine(1, "clearCache", `{"scope":"all"}`))
	result := toolResult(t, responses["1"])
	assert.Contains(t, result.Content[0].Text, "Cleared the all cache")

	// Second clear lands inside the cooldown window.
	responses = f.drive(t, callLine(2, "clearCache", `{}`))
	msg := responses["2"]
	require.NotNil(t, msg.Error)
	assert.Equal(t, CodeResourceExhausted, msg.Error.Code)
	assert.Contains(t, msg.Error.Message, "try again in")
	data, ok := msg.Error.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data, "retryAfterSeconds")
}

func TestClearCacheBadScope(t *testing.T) {
	f := newFixture(t)
	responses := f.drive(t, callLine(1, "clearCache", `{"scope":"disk"}`))
	msg := responses["1"]
	require.NotNil(t, msg.Error)
	assert.Equal(t, CodeInvalidParams, msg.Error.Code)
}

func TestListSources(t *testing.T) {
	root := t.TempDir()
	agg := docs.NewAggregator(docs.Config{
		Reader: docs.NewReader(root),
		Sources: docs.NewSourceTable([]docs.Source{
			{Name: "components", Location: "https://www.patternfly.org/components/all-components/llms.txt", Description: "Component guidelines"},
		}),
		Logger: logger.NewTestLogger(),
	})
	f := &serverFixture{docRoot: root, agg: agg, guard: cache.NewClearGuard(agg.Store(), 0)}

	responses := f.drive(t, callLine(1, "listSources", `{}`))
	result := toolResult(t, responses["1"])
	assert.Contains(t, result.Content[0].Text, "- components: https://www.patternfly.org/components/all-components/llms.txt (Component guidelines)")
}

func TestUnknownToolAndMethod(t *testing.T) {
	f := newFixture(t)
	responses := f.drive(t,
		callLine(1, "dropTables", `{}`),
		`{"jsonrpc":"2.0","id":2,"method":"resources/list"}`,
	)
	require.NotNil(t, responses["1"].Error)
	assert.Equal(t, CodeInvalidParams, responses["1"].Error.Code)
	require.NotNil(t, responses["2"].Error)
	assert.Equal(t, CodeMethodNotFound, responses["2"].Error.Code)
}

func TestParseError(t *testing.T) {
	f := newFixture(t)
	responses := f.drive(t, `{"jsonrpc":`)
	require.Len(t, responses, 1)
	for _, msg := range responses {
		require.NotNil(t, msg.Error)
		assert.Equal(t, CodeParseError, msg.Error.Code)
	}
}

func TestPing(t *testing.T) {
	f := newFixture(t)
	responses := f.drive(t, `{"jsonrpc":"2.0","id":7,"method":"ping"}`)
	msg := responses["7"]
	require.NotNil(t, msg)
	assert.Nil(t, msg.Error)
}
