package schema

import (
	"encoding/json"
	"fmt"
)

// Recognized action verbs. The schema stays open: an unknown verb passes
// through untouched, these are the ones the executor dispatches on.
const (
	ActionCreateBox       = "create_box"
	ActionCreateCylinder  = "create_cylinder"
	ActionCreateSphere    = "create_sphere"
	ActionCreateHole      = "create_hole"
	ActionCreateSketch    = "create_sketch"
	ActionExtrude         = "extrude"
	ActionFillet          = "fillet"
	ActionModifyParameter = "modify_parameter"
	ActionApplyMaterial   = "apply_material"
)

// KnownActionType reports whether the verb is one of the recognized set.
func KnownActionType(action string) bool {
	switch action {
	case ActionCreateBox, ActionCreateCylinder, ActionCreateSphere,
		ActionCreateHole, ActionCreateSketch, ActionExtrude, ActionFillet,
		ActionModifyParameter, ActionApplyMaterial:
		return true
	}
	return false
}

// Action is a single executable design step. Params is deliberately open:
// provider responses only need to be a JSON object, and unknown keys survive
// the round trip. The typed *Params structs below are decode hints for
// recognized verbs, never enforced on the wire.
type Action struct {
	Action       string         `json:"action"`
	Params       map[string]any `json:"params"`
	Explanation  string         `json:"explanation,omitempty"`
	SafetyChecks []string       `json:"safety_checks,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
}

// ActionSequence is an ordered list of actions with a declared step count.
// TotalSteps is the model's claim; the list length is authoritative.
type ActionSequence struct {
	Actions              []Action `json:"actions"`
	TotalSteps           int      `json:"total_steps"`
	EstimatedTimeSeconds *float64 `json:"estimated_time_seconds,omitempty"`
}

// StepCountMismatch reports whether the declared step count disagrees with
// the actual list length. A mismatch is a warning signal, never a failure.
func (s *ActionSequence) StepCountMismatch() bool {
	return s.TotalSteps != len(s.Actions)
}

// DecodeAction interprets a parsed payload as a single action.
func DecodeAction(payload map[string]any) (*Action, error) {
	var action Action
	if err := roundTrip(payload, &action); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	if action.Action == "" {
		return nil, fmt.Errorf("decode action: missing action verb")
	}
	return &action, nil
}

// DecodeActionSequence interprets a parsed payload as an action sequence.
func DecodeActionSequence(payload map[string]any) (*ActionSequence, error) {
	var seq ActionSequence
	if err := roundTrip(payload, &seq); err != nil {
		return nil, fmt.Errorf("decode action sequence: %w", err)
	}
	return &seq, nil
}

// DecodeParams decodes an action's open parameter bag into one of the typed
// parameter structs. Extra keys are dropped from the typed view but remain in
// Action.Params.
func DecodeParams[T any](action Action) (T, error) {
	var params T
	if err := roundTrip(action.Params, &params); err != nil {
		return params, fmt.Errorf("decode %s params: %w", action.Action, err)
	}
	return params, nil
}

// roundTrip re-marshals a decoded JSON value into a typed destination.
func roundTrip(src any, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// Typed parameter shapes for the recognized verbs.

// CreateBoxParams sizes a rectangular box.
type CreateBoxParams struct {
	Width    float64            `json:"width"`
	Height   float64            `json:"height"`
	Depth    float64            `json:"depth"`
	Unit     string             `json:"unit,omitempty"`
	Position map[string]float64 `json:"position,omitempty"`
}

// CreateCylinderParams sizes a cylinder.
type CreateCylinderParams struct {
	Radius   float64            `json:"radius"`
	Height   float64            `json:"height"`
	Unit     string             `json:"unit,omitempty"`
	Position map[string]float64 `json:"position,omitempty"`
}

// CreateSphereParams sizes a sphere.
type CreateSphereParams struct {
	Radius   float64            `json:"radius"`
	Unit     string             `json:"unit,omitempty"`
	Position map[string]float64 `json:"position,omitempty"`
}

// CreateHoleParams places a hole. A nil Depth means through-all.
type CreateHoleParams struct {
	Diameter float64            `json:"diameter"`
	Depth    *float64           `json:"depth,omitempty"`
	Position map[string]float64 `json:"position"`
	Unit     string             `json:"unit,omitempty"`
}

// CreateSketchParams starts a sketch on one of the base planes (XY, XZ, YZ).
type CreateSketchParams struct {
	Plane  string           `json:"plane"`
	Shapes []map[string]any `json:"shapes"`
}

// ExtrudeParams extrudes a named profile. Operation is one of
// new, join, cut, intersect.
type ExtrudeParams struct {
	Profile   string  `json:"profile"`
	Distance  float64 `json:"distance"`
	Operation string  `json:"operation,omitempty"`
	Unit      string  `json:"unit,omitempty"`
}

// FilletParams rounds the listed edges.
type FilletParams struct {
	Edges  []string `json:"edges"`
	Radius float64  `json:"radius"`
	Unit   string   `json:"unit,omitempty"`
}

// ModifyParameterParams updates a user parameter. Value may be a number or
// an expression string.
type ModifyParameterParams struct {
	ParameterName string `json:"parameter_name"`
	Value         any    `json:"value"`
	Unit          string `json:"unit,omitempty"`
}

// ApplyMaterialParams assigns a material. Empty Body means all bodies.
type ApplyMaterialParams struct {
	MaterialName string `json:"material_name"`
	Body         string `json:"body,omitempty"`
}
