package model

type TrackSummary struct {
	Index      int        `json:"index"`
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Instrument Instrument `json:"instrument"`
	NoteCount  int        `json:"note_count"`
	NoteLength int        `json:"note_length"`
}

type MmlResponse struct {
	Index int    `json:"index"`
	Mml   string `json:"mml"`
}

type RenameRequestBody struct {
	Name string `json:"name"`
}

type KeymapRequestBody struct {
	Keymap map[uint8]uint8 `json:"keymap"`
}

type PairRequestBody struct {
	A int `json:"a"`
	B int `json:"b"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
