package canpar

import (
	"encoding/xml"
	"strings"
)

// Namespaces used by the CanShip web services.
const (
	nsSOAPEnv  = "http://schemas.xmlsoap.org/soap/envelope/"
	nsDTO      = "http://dto.canshipws.canpar.com/xsd"
	nsBusiness = "http://ws.business.canshipws.canpar.com"
	nsRating   = "http://ws.onlinerating.canshipws.canpar.com"
	nsAddons   = "http://ws.addons.canshipws.canpar.com"
)

// SOAP operations.
const (
	opRate     = "rateShipment"
	opProcess  = "processShipment"
	opVoid     = "voidShipment"
	opLabels   = "getLabels"
	opTracking = "trackByBarcode"
)

// ============================================================================
// Outgoing envelope
// ============================================================================

// Element names carry their prefix literally so the wire format keeps the
// soapenv/ws/xsd prefixes CanShip expects.
type envelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	SOAPEnv string   `xml:"xmlns:soapenv,attr"`
	WS      string   `xml:"xmlns:ws,attr"`
	XSD     string   `xml:"xmlns:xsd,attr"`
	Header  struct{} `xml:"soapenv:Header"`
	Body    struct {
		Content any
	} `xml:"soapenv:Body"`
}

func newEnvelope(wsNamespace string, content any) *envelope {
	env := &envelope{SOAPEnv: nsSOAPEnv, WS: wsNamespace, XSD: nsDTO}
	env.Body.Content = content
	return env
}

type xmlAddress struct {
	AddressLine1 string `xml:"xsd:address_line_1"`
	AddressLine2 string `xml:"xsd:address_line_2"`
	Attention    string `xml:"xsd:attention"`
	City         string `xml:"xsd:city"`
	Country      string `xml:"xsd:country"`
	Email        string `xml:"xsd:email"`
	Name         string `xml:"xsd:name"`
	Phone        string `xml:"xsd:phone"`
	PostalCode   string `xml:"xsd:postal_code"`
	Province     string `xml:"xsd:province"`
	Residential  bool   `xml:"xsd:residential"`
}

type xmlPackage struct {
	DeclaredValue  float64 `xml:"xsd:declared_value"`
	Height         float64 `xml:"xsd:height"`
	Length         float64 `xml:"xsd:length"`
	Reference      string  `xml:"xsd:reference,omitempty"`
	ReportedWeight float64 `xml:"xsd:reported_weight"`
	Width          float64 `xml:"xsd:width"`
}

type xmlShipment struct {
	DeliveryAddress    xmlAddress   `xml:"xsd:delivery_address"`
	DimentionUnit      string       `xml:"xsd:dimention_unit"`
	Instruction        string       `xml:"xsd:instruction,omitempty"`
	NSR                bool         `xml:"xsd:nsr"`
	OrderID            string       `xml:"xsd:order_id,omitempty"`
	Packages           []xmlPackage `xml:"xsd:packages"`
	PickupAddress      xmlAddress   `xml:"xsd:pickup_address"`
	ReportedWeightUnit string       `xml:"xsd:reported_weight_unit"`
	ServiceType        int          `xml:"xsd:service_type"`
	ShipperNum         string       `xml:"xsd:shipper_num"`
	ShippingDate       string       `xml:"xsd:shipping_date"`
}

type rateShipmentRequest struct {
	XMLName xml.Name `xml:"ws:rateShipment"`
	Request struct {
		ApplyAssociationDiscount bool        `xml:"xsd:apply_association_discount"`
		ApplyIndividualDiscount  bool        `xml:"xsd:apply_individual_discount"`
		Password                 string      `xml:"xsd:password"`
		Shipment                 xmlShipment `xml:"xsd:shipment"`
		UserID                   string      `xml:"xsd:user_id"`
	} `xml:"ws:request"`
}

type processShipmentRequest struct {
	XMLName xml.Name `xml:"ws:processShipment"`
	Request struct {
		Password string      `xml:"xsd:password"`
		Shipment xmlShipment `xml:"xsd:shipment"`
		UserID   string      `xml:"xsd:user_id"`
	} `xml:"ws:request"`
}

type voidShipmentRequest struct {
	XMLName xml.Name `xml:"ws:voidShipment"`
	Request struct {
		ID       string `xml:"xsd:id"`
		Password string `xml:"xsd:password"`
		UserID   string `xml:"xsd:user_id"`
	} `xml:"ws:request"`
}

type getLabelsRequest struct {
	XMLName xml.Name `xml:"ws:getLabels"`
	Request struct {
		Horizontal bool   `xml:"xsd:horizontal"`
		ID         string `xml:"xsd:id"`
		Password   string `xml:"xsd:password"`
		Thermal    bool   `xml:"xsd:thermal"`
		UserID     string `xml:"xsd:user_id"`
	} `xml:"ws:request"`
}

type trackByBarcodeRequest struct {
	XMLName xml.Name `xml:"ws:trackByBarcode"`
	Request struct {
		Barcode  string `xml:"xsd:barcode"`
		Filter   bool   `xml:"xsd:filter"`
		Password string `xml:"xsd:password"`
		TrackSub bool   `xml:"xsd:track_shipment"`
		UserID   string `xml:"xsd:user_id"`
	} `xml:"ws:request"`
}

// ============================================================================
// Incoming envelope
// ============================================================================

// Incoming names are matched on local name only; CanShip rotates its
// response prefixes (ns, ax21, ax23...) between releases.
type responseEnvelope struct {
	Body struct {
		Fault                   *soapFault              `xml:"Fault"`
		RateShipmentResponse    *shipmentResponse       `xml:"rateShipmentResponse"`
		ProcessShipmentResponse *shipmentResponse       `xml:"processShipmentResponse"`
		VoidShipmentResponse    *voidShipmentResponse   `xml:"voidShipmentResponse"`
		GetLabelsResponse       *getLabelsResponse      `xml:"getLabelsResponse"`
		TrackByBarcodeResponse  *trackByBarcodeResponse `xml:"trackByBarcodeResponse"`
	} `xml:"Body"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

// errorNode is the <error> element every CanShip response carries. It is
// either absent, nil (xsi:nil="true") or a message.
type errorNode struct {
	Value string     `xml:",chardata"`
	Attrs []xml.Attr `xml:",any,attr"`
}

func isNil(attrs []xml.Attr) bool {
	for _, a := range attrs {
		if a.Name.Local == "nil" && strings.EqualFold(strings.TrimSpace(a.Value), "true") {
			return true
		}
	}
	return false
}

// Message returns the error text, or "" when the node is absent or nil.
func (e *errorNode) Message() string {
	if e == nil || isNil(e.Attrs) {
		return ""
	}
	return strings.TrimSpace(e.Value)
}

type shipmentResponse struct {
	Return *struct {
		Error  *errorNode `xml:"error"`
		Result *struct {
			Shipment *respShipment `xml:"shipment"`
		} `xml:"processShipmentResult"`
	} `xml:"return"`
}

type respAddress struct {
	Attrs        []xml.Attr `xml:",any,attr"`
	AddressLine1 string     `xml:"address_line_1"`
	AddressLine2 string     `xml:"address_line_2"`
	Attention    string     `xml:"attention"`
	City         string     `xml:"city"`
	Country      string     `xml:"country"`
	Email        string     `xml:"email"`
	Name         string     `xml:"name"`
	Phone        string     `xml:"phone"`
	PostalCode   string     `xml:"postal_code"`
	Province     string     `xml:"province"`
	Residential  string     `xml:"residential"`
}

type respPackage struct {
	Barcode string `xml:"barcode"`
}

type respShipment struct {
	ID                    string        `xml:"id"`
	ShippingDate          string        `xml:"shipping_date"`
	EstimatedDeliveryDate string        `xml:"estimated_delivery_date"`
	Packages              []respPackage `xml:"packages"`
	BilledWeight          string        `xml:"billed_weight"`
	ServiceType           string        `xml:"service_type"`
	TransitTime           string        `xml:"transit_time"`
	TransitTimeGuaranteed string        `xml:"transit_time_guaranteed"`
	Zone                  string        `xml:"zone"`
	FreightCharge         string        `xml:"freight_charge"`
	FuelSurcharge         string        `xml:"fuel_surcharge"`
	TaxCharge1            string        `xml:"tax_charge_1"`
	TaxCharge2            string        `xml:"tax_charge_2"`
	Total                 string        `xml:"total"`
	PickupAddress         *respAddress  `xml:"pickup_address"`
	DeliveryAddress       *respAddress  `xml:"delivery_address"`
}

type voidShipmentResponse struct {
	Return *struct {
		Error *errorNode `xml:"error"`
	} `xml:"return"`
}

type getLabelsResponse struct {
	Return *struct {
		Error  *errorNode `xml:"error"`
		Labels []string   `xml:"labels"`
	} `xml:"return"`
}

type respTrackingEvent struct {
	Code          string `xml:"code"`
	Description   string `xml:"code_description_en"`
	LocalDateTime string `xml:"local_date_time"`
	Address       struct {
		City     string `xml:"city"`
		Province string `xml:"province"`
	} `xml:"address"`
}

type trackByBarcodeResponse struct {
	Return *struct {
		Error  *errorNode `xml:"error"`
		Result []struct {
			Barcode string              `xml:"barcode"`
			Events  []respTrackingEvent `xml:"events"`
		} `xml:"result"`
	} `xml:"return"`
}
