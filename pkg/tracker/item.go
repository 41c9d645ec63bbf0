// Package tracker keeps a local, ordered mirror of the hunt counters stored in
// a remote table and applies point mutations to both.
package tracker

import (
	"strings"
	"time"
)

// Status marks whether a hunt still accepts edits.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Valid reports whether s is one of the two known states.
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusClosed
}

// Toggle returns the opposite state.
func (s Status) Toggle() Status {
	if s == StatusClosed {
		return StatusOpen
	}
	return StatusClosed
}

// Method is the hunting method label. The empty Method means "unset".
type Method string

const (
	MethodNone            Method = ""
	MethodRandomEncounter Method = "Random Encounter"
	MethodSoftReset       Method = "Soft Reset"
	MethodMasuda          Method = "Masuda Method"
	MethodChainFishing    Method = "Chain Fishing"
	MethodPokeRadar       Method = "Poké Radar"
	MethodSOSChain        Method = "SOS Chain"
	MethodDynamaxAdv      Method = "Dynamax Adventure"
	MethodMassOutbreak    Method = "Mass Outbreak"
	MethodSandwich        Method = "Sandwich"
)

// Methods lists the selectable methods in display order, without MethodNone.
var Methods = []Method{
	MethodRandomEncounter,
	MethodSoftReset,
	MethodMasuda,
	MethodChainFishing,
	MethodPokeRadar,
	MethodSOSChain,
	MethodDynamaxAdv,
	MethodMassOutbreak,
	MethodSandwich,
}

// Valid reports whether m is unset or one of Methods.
func (m Method) Valid() bool {
	if m == MethodNone {
		return true
	}
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMethod matches s case-insensitively against Methods.
func ParseMethod(s string) (Method, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MethodNone, true
	}
	for _, known := range Methods {
		if strings.EqualFold(string(known), s) {
			return known, true
		}
	}
	return MethodNone, false
}

// Games are offered as suggestions; the game label itself is free text.
var Games = []string{
	"Red / Blue",
	"Gold / Silver",
	"Crystal",
	"Ruby / Sapphire",
	"Emerald",
	"FireRed / LeafGreen",
	"Diamond / Pearl",
	"Platinum",
	"HeartGold / SoulSilver",
	"Black / White",
	"Black 2 / White 2",
	"X / Y",
	"Omega Ruby / Alpha Sapphire",
	"Sun / Moon",
	"Ultra Sun / Ultra Moon",
	"Let's Go Pikachu / Eevee",
	"Sword / Shield",
	"Brilliant Diamond / Shining Pearl",
	"Legends: Arceus",
	"Scarlet / Violet",
	"Pokémon GO",
}

// Item is one tracked hunt.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
	Method    Method    `json:"method"`
	Status    Status    `json:"status"`
	Game      string    `json:"game"`
}

// Editable reports whether count, method and game may be changed from the
// interaction layer. Closed hunts are read-only until reopened.
func (it Item) Editable() bool {
	return it.Status != StatusClosed
}

// Draft is the row handed to a Remote on creation.
type Draft struct {
	Name      string
	Count     int
	Status    Status
	CreatedAt time.Time
}
