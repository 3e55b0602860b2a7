package schema

import "fmt"

// Design states reported by the CAD host.
const (
	DesignStateEmpty       = "empty"
	DesignStateHasGeometry = "has_geometry"
	DesignStateNoDesign    = "no_design"
	DesignStateError       = "error"
	DesignStateUnknown     = "unknown"
)

// DesignContext is a descriptive snapshot of the host design state.
// The router renders it into the prompt text; it never branches on the fields.
type DesignContext struct {
	ActiveComponent string         `json:"active_component"`
	Units           string         `json:"units"`
	DesignState     string         `json:"design_state"`
	ActiveSketch    string         `json:"active_sketch,omitempty"`
	Material        string         `json:"material,omitempty"`
	Parameters      map[string]any `json:"parameters,omitempty"`
	GeometryCount   map[string]int `json:"geometry_count,omitempty"`
}

// NewDesignContext returns a context with the host defaults.
func NewDesignContext() *DesignContext {
	return &DesignContext{
		ActiveComponent: "RootComponent",
		Units:           "mm",
		DesignState:     DesignStateEmpty,
	}
}

// PromptPreamble renders the context summary that is prepended to ask_model
// prompts. The rendering is purely textual; structured fields are untouched.
func (c *DesignContext) PromptPreamble() string {
	return fmt.Sprintf(
		"\nDesign Context:\n- Active Component: %s\n- Units: %s\n- Design State: %s\n",
		c.ActiveComponent, c.Units, c.DesignState,
	)
}
