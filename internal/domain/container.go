package domain

import "strings"

// Container identifies the logical bucket a task lives in.
type Container string

// ContainerTaskpad and related constants define the known containers.
const (
	ContainerTaskpad    Container = "taskpad"
	ContainerBackburner Container = "backburner"
	ContainerShelved    Container = "shelved"
	ContainerArchived   Container = "archived"
)

var validContainers = []Container{
	ContainerTaskpad,
	ContainerBackburner,
	ContainerShelved,
	ContainerArchived,
}

// ParseContainer resolves user input into a known container.
func ParseContainer(raw string) (Container, bool) {
	c := Container(strings.TrimSpace(strings.ToLower(raw)))
	for _, known := range validContainers {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether the container is one of the known buckets.
func (c Container) Valid() bool {
	for _, known := range validContainers {
		if c == known {
			return true
		}
	}
	return false
}

// DisplayName returns the lowercase name used in activity messages.
func (c Container) DisplayName() string {
	return string(c)
}
