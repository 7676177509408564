package server

import (
	"github.com/tournevent/carrierlink/pkg/shipper"
)

type rateRequest struct {
	CarrierID string `json:"carrierId" validate:"required"`
	RateID    string `json:"rateId"`
	shipper.RateRequest
}

type shopRequest struct {
	CarrierIDs []string `json:"carrierIds" validate:"max=20,dive,required"`
	shipper.RateRequest
}

type bookRequest struct {
	CarrierID string `json:"carrierId" validate:"required"`
	RateID    string `json:"rateId"`
	shipper.RateRequest
}

type shipmentActionRequest struct {
	CarrierID         string `json:"carrierId" validate:"required"`
	CarrierShipmentID string `json:"carrierShipmentId"`
}

// envelope is the body of every non-2xx response that did not come from an
// orchestrator.
type envelope struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	ErrorKind shipper.ErrorKind `json:"errorKind,omitempty"`
}

type healthResponse struct {
	Status   string   `json:"status"`
	Version  string   `json:"version,omitempty"`
	Carriers []string `json:"carriers"`
}
