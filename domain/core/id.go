package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Short returns the last 8 characters, enough to tell exports apart in logs
func (id ID) Short() string {
	s := string(id)
	if len(s) <= 8 {
		return s
	}
	return s[len(s)-8:]
}

// Domain-specific ID types
type (
	DashboardID ID
	ExportID    ID
)

// String conversions for domain IDs
func (id DashboardID) String() string { return ID(id).String() }
func (id ExportID) String() string    { return ID(id).String() }
func (id ExportID) Short() string     { return ID(id).Short() }

// NewDashboardID creates a fresh dashboard identifier
func NewDashboardID() DashboardID { return DashboardID(NewID()) }

// NewExportID creates a fresh export identifier
func NewExportID() ExportID { return ExportID(NewID()) }

// ParseDashboardID parses a string into DashboardID
func ParseDashboardID(s string) (DashboardID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("dashboard ID cannot be empty")
	}
	return DashboardID(s), nil
}
