package types

import (
	"fmt"
	"time"
)

// DeliveryOption is the method by which an item changes hands
type DeliveryOption string

const (
	PrivateHand  DeliveryOption = "private_hand"
	HomeDelivery DeliveryOption = "home_delivery"
	Locker       DeliveryOption = "locker"
	SafeZone     DeliveryOption = "safe_zone"
)

// AllOptions lists every delivery option in display order
var AllOptions = []DeliveryOption{PrivateHand, HomeDelivery, Locker, SafeZone}

// ParseDeliveryOption converts a raw string into a known DeliveryOption
func ParseDeliveryOption(s string) (DeliveryOption, error) {
	for _, o := range AllOptions {
		if string(o) == s {
			return o, nil
		}
	}
	return "", &ValidationError{Msg: fmt.Sprintf("unknown delivery option %q", s)}
}

// NeedsLocation reports whether the option is fulfilled at a physical point
// chosen through the location picker.
func (o DeliveryOption) NeedsLocation() bool {
	return o == Locker || o == SafeZone
}

// Phase is the position of a workflow in the selection/confirmation lifecycle
type Phase string

const (
	PhaseSelecting            Phase = "selecting"
	PhaseAwaitingLocationPick Phase = "awaiting_location_pick"
	PhaseConfirmed            Phase = "confirmed"
	PhaseExiting              Phase = "exiting"
)

// Route is the screen a finished workflow navigates to. Empty means the
// session was abandoned before confirmation.
type Route string

const (
	RouteQRArchive Route = "qr-archive"
	RouteMainMenu  Route = "main-menu"
)

// Flow identifies which screen variant the workflow backs
type Flow string

const (
	FlowPurchase     Flow = "purchase"
	FlowSale         Flow = "sale"
	FlowDisposal     Flow = "disposal"
	FlowRepairPickup Flow = "repair-pickup"
)

// Field names a user-editable form field
type Field string

const (
	FieldStreet      Field = "street"
	FieldHouseNumber Field = "house_number"
	FieldUnit        Field = "unit"
	FieldPostalCode  Field = "postal_code"
	FieldLocation    Field = "location"
	FieldPrice       Field = "price"
)

// Address holds the shipping or pickup address fields
type Address struct {
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	Unit        string `json:"unit"`
	PostalCode  string `json:"postal_code"`
}

// Confirmation is the copy shown on the confirmed screen
type Confirmation struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	CodeLabel string `json:"code_label,omitempty"`
}

// WorkflowState is the in-memory state of one delivery workflow instance
type WorkflowState struct {
	SessionID           string         `json:"session_id"`
	Flow                Flow           `json:"flow"`
	UserID              string         `json:"user_id"`
	ItemTitle           string         `json:"item_title"`
	SelectedOption      DeliveryOption `json:"selected_option,omitempty"`
	Address             Address        `json:"address"`
	LocationDescription string         `json:"location_description"`
	Price               string         `json:"price"`
	Phase               Phase          `json:"phase"`
	PickerOption        DeliveryOption `json:"picker_option,omitempty"`
	Valid               bool           `json:"valid"`
	Missing             []Field        `json:"missing,omitempty"`
	ConfirmationCode    string         `json:"confirmation_code,omitempty"`
	Confirmation        Confirmation   `json:"confirmation"`
	TicketID            string         `json:"ticket_id,omitempty"`
	ConfirmedAt         time.Time      `json:"confirmed_at"`
	ExitedAt            time.Time      `json:"exited_at"`
	Route               Route          `json:"route,omitempty"`
}

// HasOption reports whether the user picked a delivery option yet
func (s WorkflowState) HasOption() bool {
	return s.SelectedOption != ""
}

// FieldUpdate is the payload of the set-field signal
type FieldUpdate struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// PickerRequest is the payload of the open-picker signal
type PickerRequest struct{}

// LocationResult is the payload of the location-picked signal. An empty
// description is treated the same as a cancelled pick.
type LocationResult struct {
	Description string `json:"description"`
	Cancelled   bool   `json:"cancelled"`
}

// ConfirmRequest is the payload of the confirm signal
type ConfirmRequest struct{}

// Timing controls the workflow's timers
type Timing struct {
	ConfirmDelay   time.Duration
	ExitDelay      time.Duration
	SessionTimeout time.Duration
}

const (
	DefaultConfirmDelay   = 3 * time.Second
	DefaultExitDelay      = 500 * time.Millisecond
	DefaultSessionTimeout = 30 * time.Minute
)

// WithDefaults fills zero durations with the default values
func (t Timing) WithDefaults() Timing {
	if t.ConfirmDelay <= 0 {
		t.ConfirmDelay = DefaultConfirmDelay
	}
	if t.ExitDelay <= 0 {
		t.ExitDelay = DefaultExitDelay
	}
	if t.SessionTimeout <= 0 {
		t.SessionTimeout = DefaultSessionTimeout
	}
	return t
}

// WorkflowInput starts a delivery workflow
type WorkflowInput struct {
	SessionID string
	Flow      Flow
	UserID    string
	ItemTitle string
	Price     string
	Timing    Timing
}

// WorkflowResult is returned when the workflow leaves its last phase
type WorkflowResult struct {
	SessionID        string
	Flow             Flow
	Option           DeliveryOption
	Route            Route
	ConfirmationCode string
	TicketID         string
	ConfirmedAt      time.Time
	ExitedAt         time.Time
	Abandoned        bool
}

// CodeRequest is the input of the IssueConfirmationCode activity
type CodeRequest struct {
	SessionID string
	Flow      Flow
	Option    DeliveryOption
}

// TicketRequest is the input of the ArchiveTicket activity
type TicketRequest struct {
	SessionID string
	UserID    string
	Title     string
	Item      string
	Code      string
}

// Signal and query names
const (
	SignalSelectOption   = "select-option"
	SignalSetField       = "set-field"
	SignalOpenPicker     = "open-picker"
	SignalLocationPicked = "location-picked"
	SignalConfirm        = "confirm"

	QueryState = "get-state"
	QueryValid = "is-valid"
)
