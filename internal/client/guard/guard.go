// Package guard decides whether a protected view may be shown, purely from
// the session status. It keeps no state of its own.
package guard

import (
	"github.com/dmitrijs2005/healthup/internal/client/session"
	"github.com/dmitrijs2005/healthup/internal/common"
)

const Notice = "Authentication Required: Please log in to access this page."

type Outcome int

const (
	// Loading means the status is not known yet; hold navigation.
	Loading Outcome = iota
	// Redirect means send the user to Location and come back to From after sign-in.
	Redirect
	// Render means show the requested view unchanged.
	Render
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "render"
	}
}

type Decision struct {
	Outcome  Outcome
	Location string
	From     string
	Notice   string
}

// Guard protects views behind the sign-in entry point Entry.
type Guard struct {
	Entry string
}

func New(entry string) Guard {
	if entry == "" {
		entry = common.AuthPath
	}
	return Guard{Entry: entry}
}

func (g Guard) Evaluate(status session.Status, requested string) Decision {
	switch status {
	case session.Authenticated:
		return Decision{Outcome: Render, Location: requested}
	case session.Unauthenticated:
		return Decision{Outcome: Redirect, Location: g.Entry, From: requested, Notice: Notice}
	default:
		return Decision{Outcome: Loading, From: requested}
	}
}
