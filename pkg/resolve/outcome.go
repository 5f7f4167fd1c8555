package resolve

import (
	"fmt"

	"github.com/KonishchevDmitry/headlined/pkg/feed"
)

type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusBlocked
	StatusNetworkError
	StatusPanic
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusBlocked:
		return "blocked"
	case StatusNetworkError:
		return "network-error"
	case StatusPanic:
		return "panic"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

type outcomeKind int

const (
	outcomeItems outcomeKind = iota
	outcomeBlocked
	outcomeEmpty
	outcomeNetworkError
)

type fetchOutcome struct {
	kind     outcomeKind
	articles []feed.Article
	body     string
	err      error
}

func (o fetchOutcome) status() Status {
	switch o.kind {
	case outcomeItems:
		return StatusOK
	case outcomeBlocked:
		return StatusBlocked
	case outcomeNetworkError:
		return StatusNetworkError
	default:
		return StatusEmpty
	}
}
