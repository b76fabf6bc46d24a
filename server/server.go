// Package server exposes the song controller and the player over HTTP.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/bep/debounce"
	"github.com/gorilla/mux"
	"github.com/jsphweid/midi2mml/constants"
	"github.com/jsphweid/midi2mml/file"
	"github.com/jsphweid/midi2mml/model"
	"github.com/jsphweid/midi2mml/player"
	"github.com/jsphweid/midi2mml/song"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("source", "server")

type Server struct {
	mu       sync.Mutex
	song     *song.Song
	options  model.SongOptions
	player   *player.Player
	path     string
	autosave func(func())
}

// New creates a server. player may be nil, in which case the playback routes
// fail. An empty autosavePath disables autosaving.
func New(p *player.Player, autosavePath string) *Server {
	return &Server{
		options:  model.DefaultSongOptions(),
		player:   p,
		path:     autosavePath,
		autosave: debounce.New(constants.AutosaveDelay),
	}
}

// Restore loads the autosaved song if there is one.
func (s *Server) Restore() error {
	if s.path == "" {
		return nil
	}
	loaded, err := song.LoadJSON(s.path)
	if err != nil {
		if errors.Is(err, model.ErrIo) {
			return nil
		}
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.song = loaded
	s.options = loaded.Options
	log.Infof("restored %s with %d tracks", s.path, len(loaded.Tracks))
	return nil
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(logRequests)
	router.HandleFunc("/song", s.handleLoad).Methods("POST")
	router.HandleFunc("/tracks", s.handleListTracks).Methods("GET")
	router.HandleFunc("/tracks/{index}/mml", s.handleMml).Methods("GET")
	router.HandleFunc("/tracks/{index}/split", s.handleSplit).Methods("POST")
	router.HandleFunc("/tracks/{index}/name", s.handleRename).Methods("PUT")
	router.HandleFunc("/tracks/{index}/keymap", s.handleKeymap).Methods("PUT")
	router.HandleFunc("/merge", s.handleMerge).Methods("POST")
	router.HandleFunc("/equalize", s.handleEqualize).Methods("POST")
	router.HandleFunc("/options", s.handleGetOptions).Methods("GET")
	router.HandleFunc("/options", s.handleSetOptions).Methods("PUT")
	router.HandleFunc("/play", s.handlePlay).Methods("POST")
	router.HandleFunc("/pause", s.handlePause).Methods("POST")
	router.HandleFunc("/stop", s.handleStop).Methods("POST")
	return router
}

func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.Router())
}

func (s *Server) ListenAndServe(addr string) error {
	log.Infof("listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Debug("request")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("could not encode response: %v", err)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrOutOfRange), errors.Is(err, model.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrState):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: err.Error()})
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.WithKind(model.ErrParse, err, "invalid request body")
	}
	return nil
}

func indexVar(r *http.Request) (int, error) {
	raw := mux.Vars(r)["index"]
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(model.ErrParse, "invalid track index %q", raw)
	}
	return index, nil
}

// withSong runs fn on the loaded song under the lock.
func (s *Server) withSong(fn func(*song.Song) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.song == nil {
		return errors.Wrap(model.ErrState, "no song loaded")
	}
	return fn(s.song)
}

// mutate is withSong for operations that change the song. It schedules an
// autosave and answers with the new track list.
func (s *Server) mutate(w http.ResponseWriter, fn func(*song.Song) error) {
	var tracks []model.TrackSummary
	err := s.withSong(func(sg *song.Song) error {
		if err := fn(sg); err != nil {
			return err
		}
		tracks = sg.ListTracks()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.scheduleSave()
	writeJSON(w, tracks)
}

func (s *Server) scheduleSave() {
	if s.path == "" {
		return
	}
	s.autosave(func() {
		err := s.withSong(func(sg *song.Song) error {
			return sg.Save(s.path)
		})
		if err != nil {
			log.Warnf("autosave failed: %v", err)
			return
		}
		log.Debugf("saved %s", s.path)
	})
}

func kindOf(r *http.Request) file.Kind {
	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		return file.KindJSON
	case strings.HasPrefix(contentType, "audio/midi"), strings.HasPrefix(contentType, "audio/x-midi"):
		return file.KindMidi
	}
	return file.KindUnknown
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	dat, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, model.WithKind(model.ErrIo, err, "could not read body"))
		return
	}

	s.mu.Lock()
	opts := s.options
	s.mu.Unlock()

	loaded, kind, err := file.LoadBytes(dat, kindOf(r), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Infof("loaded %s song with %d tracks", kind, len(loaded.Tracks))

	s.mu.Lock()
	s.song = loaded
	s.options = loaded.Options
	tracks := loaded.ListTracks()
	s.mu.Unlock()

	s.scheduleSave()
	writeJSON(w, tracks)
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	var tracks []model.TrackSummary
	err := s.withSong(func(sg *song.Song) error {
		tracks = sg.ListTracks()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tracks)
}

func (s *Server) handleMml(w http.ResponseWriter, r *http.Request) {
	index, err := indexVar(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var res model.MmlResponse
	err = s.withSong(func(sg *song.Song) error {
		mml, err := sg.Mml(index)
		res = model.MmlResponse{Index: index, Mml: mml}
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	index, err := indexVar(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.mutate(w, func(sg *song.Song) error {
		return sg.Split(index)
	})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	index, err := indexVar(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body model.RenameRequestBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s.mutate(w, func(sg *song.Song) error {
		return sg.Rename(index, body.Name)
	})
}

func (s *Server) handleKeymap(w http.ResponseWriter, r *http.Request) {
	index, err := indexVar(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body model.KeymapRequestBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s.mutate(w, func(sg *song.Song) error {
		return sg.ApplyKeymap(index, body.Keymap)
	})
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var body model.PairRequestBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s.mutate(w, func(sg *song.Song) error {
		return sg.Merge(body.A, body.B)
	})
}

func (s *Server) handleEqualize(w http.ResponseWriter, r *http.Request) {
	var body model.PairRequestBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s.mutate(w, func(sg *song.Song) error {
		return sg.Equalize(body.A, body.B)
	})
}

func (s *Server) handleGetOptions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	opts := s.options
	s.mu.Unlock()
	writeJSON(w, opts)
}

// handleSetOptions stores the options for later loads and recompiles the
// current song, if any.
func (s *Server) handleSetOptions(w http.ResponseWriter, r *http.Request) {
	var opts model.SongOptions
	if err := decode(r, &opts); err != nil {
		writeError(w, err)
		return
	}
	if err := opts.Validate(); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	s.options = opts
	var err error
	if s.song != nil {
		err = s.song.SetOptions(opts)
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	s.scheduleSave()
	writeJSON(w, opts)
}

func (s *Server) requirePlayer() error {
	if s.player == nil {
		return errors.Wrap(model.ErrAudio, "no audio output configured")
	}
	return nil
}

func (s *Server) writeStatus(w http.ResponseWriter) {
	writeJSON(w, model.StatusResponse{Status: s.player.Status().String()})
}

// Sources lists the tracks of sg in the form the player loads them.
func Sources(sg *song.Song) []player.Source {
	res := make([]player.Source, len(sg.Tracks))
	for i, t := range sg.Tracks {
		res[i] = player.Source{Mml: t.Mml(), Instrument: t.Instrument}
	}
	return res
}

// handlePlay starts the current song from the beginning, or resumes it when
// paused.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if err := s.requirePlayer(); err != nil {
		writeError(w, err)
		return
	}
	if s.player.Status() == model.StatusStop {
		var sources []player.Source
		err := s.withSong(func(sg *song.Song) error {
			sources = Sources(sg)
			return nil
		})
		if err == nil {
			err = s.player.Load(sources)
		}
		if err != nil {
			writeError(w, err)
			return
		}
	}
	s.player.Play()
	s.writeStatus(w)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.requirePlayer(); err != nil {
		writeError(w, err)
		return
	}
	s.player.Pause()
	s.writeStatus(w)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.requirePlayer(); err != nil {
		writeError(w, err)
		return
	}
	s.player.Stop()
	s.writeStatus(w)
}
