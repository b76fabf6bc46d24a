//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/parser"
	"github.com/jsphweid/midi2mml/sample"
	"github.com/jsphweid/midi2mml/server"
	"github.com/jsphweid/midi2mml/song"
	"github.com/stretchr/testify/assert"
)

var (
	ts           *httptest.Server
	autosavePath string
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "midi2mml-e2e")
	if err != nil {
		panic(err.Error())
	}
	autosavePath = filepath.Join(dir, "song.json")
	ts = httptest.NewServer(server.New(nil, autosavePath).Handler())

	exitVal := m.Run()

	ts.Close()
	os.RemoveAll(dir)
	os.Exit(exitVal)
}

func request(method, path, contentType string, body []byte) (int, []byte) {
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewReader(body))
	if err != nil {
		panic(err.Error())
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err.Error())
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody
}

func loadDemo() []model.TrackSummary {
	dat, err := sample.Bytes(sample.Demo())
	if err != nil {
		panic(err.Error())
	}
	status, body := request(http.MethodPost, "/song", "audio/midi", dat)
	if status != http.StatusOK {
		panic(string(body))
	}
	var tracks []model.TrackSummary
	if err := json.Unmarshal(body, &tracks); err != nil {
		panic(err.Error())
	}
	return tracks
}

func mmlOf(index int) []model.NoteEvent {
	_, body := request(http.MethodGet, fmt.Sprintf("/tracks/%d/mml", index), "", nil)
	var res model.MmlResponse
	if err := json.Unmarshal(body, &res); err != nil {
		panic(err.Error())
	}
	notes, err := parser.Parse(res.Mml)
	if err != nil {
		panic(err.Error())
	}
	return notes
}

func TestMelodyE2E(t *testing.T) {
	tracks := loadDemo()

	assert := assert.New(t)
	assert.Len(tracks, 2)
	assert.Equal("Acoustic Grand Piano", tracks[0].Instrument.Name)

	notes := mmlOf(0)
	assert.Len(notes, 8)
	var keys []uint8
	for _, n := range notes {
		key, ok := n.MidiKey()
		assert.True(ok)
		keys = append(keys, key)
		assert.Equal(uint32(120), n.Tempo)
		assert.Equal(int64(500), n.DurationMs)
		assert.False(n.IsConnectedToPrev)
	}
	assert.Equal([]uint8{60, 62, 64, 65, 67, 69, 71, 72}, keys)
}

func TestChordsE2E(t *testing.T) {
	loadDemo()

	notes := mmlOf(1)

	assert := assert.New(t)
	assert.Len(notes, 12)
	for i, n := range notes {
		assert.Equal(i%3 != 0, n.IsConnectedToPrev, "note %d", i)
		assert.Equal(int64(1000), n.DurationMs)
	}
}

func TestSplitMergeE2E(t *testing.T) {
	loadDemo()
	before := mmlOf(1)

	assert := assert.New(t)
	status, body := request(http.MethodPost, "/tracks/1/split", "", nil)
	assert.Equal(http.StatusOK, status)
	var tracks []model.TrackSummary
	assert.NoError(json.Unmarshal(body, &tracks))
	assert.Len(tracks, 3)

	status, _ = request(http.MethodPost, "/merge", "application/json", []byte(`{"a":1,"b":2}`))
	assert.Equal(http.StatusOK, status)
	assert.Len(mmlOf(1), len(before))
}

func TestAutosaveE2E(t *testing.T) {
	loadDemo()
	status, _ := request(http.MethodPut, "/tracks/0/name", "application/json", []byte(`{"name":"melody"}`))

	assert := assert.New(t)
	assert.Equal(http.StatusOK, status)
	assert.Eventually(func() bool {
		s, err := song.LoadJSON(autosavePath)
		return err == nil && len(s.Tracks) == 2 && s.Tracks[0].Name == "melody"
	}, 5*time.Second, 50*time.Millisecond)
}
