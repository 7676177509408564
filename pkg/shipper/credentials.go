package shipper

// Operation names a carrier API operation.
type Operation string

const (
	OpRate    Operation = "rate"
	OpBook    Operation = "book"
	OpCancel  Operation = "cancel"
	OpLabel   Operation = "label"
	OpHistory Operation = "history"
)

// EndpointKey returns the key under which the operation's endpoint is
// registered in a carrier's endpoints map.
func (o Operation) EndpointKey() string {
	switch o {
	case OpRate:
		return "ratingEndpoint"
	case OpBook:
		return "bookingEndpoint"
	case OpCancel:
		return "cancelEndpoint"
	case OpLabel:
		return "labelEndpoint"
	case OpHistory:
		return "historyEndpoint"
	}
	return string(o) + "Endpoint"
}

// CarrierCredentials are the API credentials stored for a carrier.
type CarrierCredentials struct {
	Username      string            `json:"username" bson:"username"`
	Password      string            `json:"password" bson:"password"`
	AccountNumber string            `json:"accountNumber" bson:"accountNumber"`
	AccessKey     string            `json:"accessKey,omitempty" bson:"accessKey,omitempty"`
	HostURL       string            `json:"hostURL" bson:"hostURL"`
	Endpoints     map[string]string `json:"endpoints" bson:"endpoints"`
}

// APIConfig is resolved per call from CarrierCredentials. It is never persisted.
type APIConfig struct {
	APIURL      string
	Credentials CarrierCredentials
	CarrierID   string
	CarrierName string
	Endpoint    string
	Operation   Operation
}
