package booking

import (
	"encoding/json"

	"github.com/tournevent/carrierlink/pkg/shipper"
)

// Stage is a step of an orchestrated operation.
type Stage string

const (
	StageConfigResolved       Stage = "config_resolved"
	StageRequestBuilt         Stage = "request_built"
	StageCarrierCallSucceeded Stage = "carrier_call_succeeded"
	StageResponseParsed       Stage = "response_parsed"
	StagePersisted            Stage = "persisted"
	StageLabelGenerated       Stage = "label_generated"
	StageCompleted            Stage = "completed"
	StageFailed               Stage = "failed"
)

// Side effect names.
const (
	EffectPersistShipment   = "persist_shipment"
	EffectRecordStatus      = "record_status"
	EffectUpdateRate        = "update_rate"
	EffectGenerateLabel     = "generate_label"
	EffectPersistLabel      = "persist_label"
	EffectMarkShipmentError = "mark_shipment_failed"
	EffectMarkRateError     = "mark_rate_failed"
	EffectPersistQuotes     = "persist_quotes"
	EffectLoadShipment      = "load_shipment"
)

// Result is the structured response of every orchestrator.
type Result[T any] struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	ErrorKind shipper.ErrorKind `json:"errorKind,omitempty"`
	Data      T                 `json:"data,omitempty"`
	Messages  []string          `json:"messages,omitempty"`
}

// SideEffect is a best-effort step that ran after the primary operation.
// Err is nil when the step succeeded.
type SideEffect struct {
	Name string
	Err  error
}

// MarshalJSON renders Err as a string.
func (s SideEffect) MarshalJSON() ([]byte, error) {
	out := struct {
		Name  string `json:"name"`
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}{Name: s.Name, OK: s.Err == nil}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return json.Marshal(out)
}

// Outcome carries the result, the stages reached and every side effect.
// Stage is StageCompleted or StageFailed once the operation returns;
// FailedAt names the stage that could not be reached.
type Outcome[T any] struct {
	Result[T]
	Stage       Stage        `json:"stage"`
	FailedAt    Stage        `json:"failedAt,omitempty"`
	Reached     []Stage      `json:"reached"`
	SideEffects []SideEffect `json:"sideEffects,omitempty"`
}

func (o *Outcome[T]) reach(s Stage) {
	o.Reached = append(o.Reached, s)
}

// HasReached reports whether s was reached.
func (o *Outcome[T]) HasReached(s Stage) bool {
	for _, r := range o.Reached {
		if r == s {
			return true
		}
	}
	return false
}

func (o *Outcome[T]) effect(name string, err error) {
	o.SideEffects = append(o.SideEffects, SideEffect{Name: name, Err: err})
}

// FailedSideEffects returns the side effects that returned an error.
func (o *Outcome[T]) FailedSideEffects() []SideEffect {
	var out []SideEffect
	for _, se := range o.SideEffects {
		if se.Err != nil {
			out = append(out, se)
		}
	}
	return out
}

func (o *Outcome[T]) complete(data T) {
	o.Success = true
	o.Data = data
	o.Stage = StageCompleted
	o.reach(StageCompleted)
}

func (o *Outcome[T]) fail(at Stage, err error) {
	o.Success = false
	o.Error = shipper.Message(err)
	o.ErrorKind = kindOf(err)
	o.Stage = StageFailed
	o.FailedAt = at
}

// kindOf defaults unclassified errors to the carrier kind.
func kindOf(err error) shipper.ErrorKind {
	if kind := shipper.KindOf(err); kind != "" {
		return kind
	}
	return shipper.KindCarrier
}

// stageFor maps a carrier call error to the stage it prevented.
func stageFor(err error) Stage {
	switch shipper.KindOf(err) {
	case shipper.KindConfiguration, shipper.KindNotFound:
		return StageConfigResolved
	case shipper.KindValidation:
		return StageRequestBuilt
	case shipper.KindNetwork:
		return StageCarrierCallSucceeded
	case shipper.KindCarrier, shipper.KindProtocol, shipper.KindUnsupported:
		return StageResponseParsed
	}
	return StageResponseParsed
}
