package models

import (
	"encoding/json"
	"fmt"
)

// the top level operating state of the device
type Mode string

const (
	ModeWeather Mode = "WEATHER"
	ModeUser    Mode = "USER"
	ModeParty   Mode = "PARTY"
)

var Modes = []Mode{ModeWeather, ModeUser, ModeParty}

// display animation style
type Pattern string

const (
	PatternSolid   Pattern = "SOLID"
	PatternFlash   Pattern = "FLASH"
	PatternBreathe Pattern = "BREATHE"
	PatternOff     Pattern = "OFF"
)

var Patterns = []Pattern{PatternSolid, PatternFlash, PatternBreathe, PatternOff}

type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// states/control_type
type StateDocument struct {
	Type Mode `json:"type"`
}

// user/config
type UserDocument struct {
	Color RGB `json:"color"`
}

// display/config
type DisplayDocument struct {
	Pattern      Pattern `json:"pattern"`
	BreatheSpeed *int    `json:"breatheSpeed,omitempty"`
	FlashSpeed   *int    `json:"flashSpeed,omitempty"`
	StartTime    *string `json:"startTime,omitempty"`
	StopTime     *string `json:"stopTime,omitempty"`
}

// identifies a single document in the store
type DocumentRef struct {
	Collection string
	ID         string
}

func (r DocumentRef) String() string {
	return fmt.Sprintf("%s/%s", r.Collection, r.ID)
}

// a full document as delivered by the store, both over http and on the event stream
type Document struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
}

func (d Document) Ref() DocumentRef {
	return DocumentRef{Collection: d.Collection, ID: d.ID}
}

// a partial set of fields to merge into a document
type Fields map[string]any

// HSV as produced by a color wheel: hue in degrees [0,360), saturation and value in [0,1]
type HSV struct {
	H float64
	S float64
	V float64
}
