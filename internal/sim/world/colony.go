package world

import (
	"fmt"
	"sort"
)

type Direction uint8

const (
	North Direction = iota
	South
	East
	West
)

var directionNames = [...]string{
	North: "north",
	South: "south",
	East:  "east",
	West:  "west",
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// ParseDirection maps one of the four literal map tokens to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "north":
		return North, true
	case "south":
		return South, true
	case "east":
		return East, true
	case "west":
		return West, true
	}
	return 0, false
}

// Edge is an outgoing road from a colony.
type Edge struct {
	Dir Direction
	To  int
}

// Link is a reverse-index entry: colony From has an edge in Dir pointing here.
type Link struct {
	From int
	Dir  Direction
}

type colony struct {
	name  string
	alive bool
	out   []Edge
	in    map[Link]struct{}
}

func sortLinks(links []Link) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].From != links[j].From {
			return links[i].From < links[j].From
		}
		return links[i].Dir < links[j].Dir
	})
}
