package protocol

import (
	"errors"
	"fmt"

	"devinput/internal/input"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// JSON is the codec used for every message on the wire.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeAuth is sent by client immediately after connection to authenticate
	TypeAuth MessageType = "auth"

	// TypePlan carries an action plan to execute on the agent
	TypePlan MessageType = "plan"

	// TypePlanResult answers a TypePlan message with the same ID
	TypePlanResult MessageType = "plan_result"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType         `json:"type"`
	ID      string              `json:"id,omitempty"`
	Payload jsoniter.RawMessage `json:"payload,omitempty"`
}

// NewMessage encodes payload into a message of type t.
func NewMessage(t MessageType, id string, payload interface{}) (*Message, error) {
	msg := &Message{Type: t, ID: id}
	if payload != nil {
		raw, err := JSON.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s payload: %w", t, err)
		}
		msg.Payload = raw
	}
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("protocol: %s message has no payload", m.Type)
	}
	return JSON.Unmarshal(m.Payload, v)
}

// AuthPayload is the payload for TypeAuth
type AuthPayload struct {
	Token         string `json:"token"`
	ClientName    string `json:"client_name"`
	ClientVersion string `json:"client_version"`
}

// ActionPayload is the wire form of one input.Action.
type ActionPayload struct {
	Kind   string   `json:"kind"`
	Keys   []uint16 `json:"keys,omitempty"`
	Texts  []string `json:"texts,omitempty"`
	Delta  int      `json:"delta,omitempty"`
	Repeat int      `json:"repeat"`
}

// PlanPayload is the payload for TypePlan
type PlanPayload struct {
	ID      uuid.UUID       `json:"id"`
	Actions []ActionPayload `json:"actions"`
}

// PlanResultPayload is the payload for TypePlanResult
type PlanResultPayload struct {
	ID    uuid.UUID `json:"id"`
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
}

var (
	// ErrInvalidPlan wraps every reason a received plan is refused.
	ErrInvalidPlan = errors.New("protocol: invalid plan")
	// ErrEmptyPlan is returned when a plan carries no actions.
	ErrEmptyPlan = errors.New("protocol: empty plan")
)

// NewPlan wraps actions in a plan with a fresh ID.
func NewPlan(actions []input.Action) *PlanPayload {
	return &PlanPayload{ID: uuid.New(), Actions: FromActions(actions)}
}

// FromActions converts actions to their wire form.
func FromActions(actions []input.Action) []ActionPayload {
	out := make([]ActionPayload, 0, len(actions))
	for _, a := range actions {
		p := ActionPayload{
			Kind:   a.Kind.String(),
			Delta:  a.Delta,
			Repeat: a.Repeat,
		}
		for _, c := range a.Keys {
			p.Keys = append(p.Keys, uint16(c))
		}
		if len(a.Texts) > 0 {
			p.Texts = append([]string(nil), a.Texts...)
		}
		out = append(out, p)
	}
	return out
}

// ToActions converts the plan back into actions. Every action goes through
// the builder, so a plan received from the network is validated exactly like
// one composed locally.
func (p *PlanPayload) ToActions() ([]input.Action, error) {
	if len(p.Actions) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, ErrEmptyPlan)
	}
	b := input.NewBuilder()
	for i, ap := range p.Actions {
		kind, err := input.ParseActionKind(ap.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: action %d: %w", ErrInvalidPlan, i, err)
		}
		a := input.Action{
			Kind:   kind,
			Texts:  ap.Texts,
			Delta:  ap.Delta,
			Repeat: ap.Repeat,
		}
		for _, c := range ap.Keys {
			a.Keys = append(a.Keys, input.KeyCode(c))
		}
		b.Append(a)
		if err := b.Err(); err != nil {
			return nil, fmt.Errorf("%w: action %d: %w", ErrInvalidPlan, i, err)
		}
	}
	return b.Build()
}

// StatusPayload is the body of GET /api/status.
type StatusPayload struct {
	Version       string `json:"version"`
	Engine        string `json:"engine"`
	PlansExecuted uint64 `json:"plans_executed"`
	PlansFailed   uint64 `json:"plans_failed"`
	Clients       int    `json:"clients"`
	Listeners     int    `json:"listeners"`

	Host *HostInfo `json:"host,omitempty"`
}

// HostInfo identifies the machine an agent runs on. MachineID is stable
// across restarts, so scans can tell agents apart behind changing addresses.
type HostInfo struct {
	MachineID string `json:"machine_id,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
	OS        string `json:"os,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Arch      string `json:"arch,omitempty"`
}
