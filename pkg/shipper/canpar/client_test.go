package canpar_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/carrierlink/pkg/shipper"
	"github.com/tournevent/carrierlink/pkg/shipper/canpar"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(cfg canpar.Config) *canpar.Client {
	logger := otelzap.New(zap.NewNop())
	return canpar.New(cfg, logger, nil)
}

type capturedRequest struct {
	mu          sync.Mutex
	action      string
	contentType string
	body        string
}

func (c *capturedRequest) get() (action, contentType, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.action, c.contentType, c.body
}

func canShipServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured.mu.Lock()
		captured.action = r.Header.Get("SOAPAction")
		captured.contentType = r.Header.Get("Content-Type")
		captured.body = string(body)
		captured.mu.Unlock()
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestClient_NameAndMode(t *testing.T) {
	client := newTestClient(canpar.Config{})
	assert.Equal(t, "canpar", client.Name())
	assert.Equal(t, shipper.ModeCourier, client.Mode())
}

func TestClient_Book_Success(t *testing.T) {
	srv, captured := canShipServer(t, http.StatusOK, string(soap(processShipmentOK)))
	client := newTestClient(canpar.Config{})

	result, err := client.Book(context.Background(), apiConfig(srv.URL), sampleShipment())
	require.NoError(t, err)

	action, contentType, body := captured.get()
	assert.Equal(t, "D420352470000000001001", result.TrackingNumber)
	assert.Equal(t, "urn:processShipment", action)
	assert.Equal(t, "text/xml; charset=utf-8", contentType)
	assert.Contains(t, body, "<xsd:postal_code>M5V2H1</xsd:postal_code>")
}

func TestClient_Book_ValidationBeforeNetwork(t *testing.T) {
	srv, captured := canShipServer(t, http.StatusOK, "")
	client := newTestClient(canpar.Config{})

	_, err := client.Book(context.Background(), apiConfig(srv.URL), nil)
	assert.True(t, errors.Is(err, shipper.ErrValidation))
	action, _, _ := captured.get()
	assert.Empty(t, action)
}

func TestClient_Book_HTTPFault(t *testing.T) {
	fault := soap(`<soapenv:Fault><faultcode>soapenv:Client</faultcode><faultstring>Invalid user</faultstring></soapenv:Fault>`)
	srv, _ := canShipServer(t, http.StatusInternalServerError, string(fault))
	client := newTestClient(canpar.Config{})

	_, err := client.Book(context.Background(), apiConfig(srv.URL), sampleShipment())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrier))
	assert.Equal(t, "Invalid user", shipper.Message(err))

	var se *shipper.ShipperError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestClient_Book_HTTPErrorWithoutFault(t *testing.T) {
	srv, _ := canShipServer(t, http.StatusServiceUnavailable, "maintenance")
	client := newTestClient(canpar.Config{})

	_, err := client.Book(context.Background(), apiConfig(srv.URL), sampleShipment())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrier))
	assert.True(t, shipper.IsRetryable(err))
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestClient_Book_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := newTestClient(canpar.Config{Timeout: 20 * time.Millisecond})
	_, err := client.Book(context.Background(), apiConfig(srv.URL), sampleShipment())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrNetwork))
	assert.Equal(t, shipper.KindNetwork, shipper.KindOf(err))
}

func TestClient_Rate(t *testing.T) {
	response := soap(`<ns:rateShipmentResponse><ns:return><ax:error xsi:nil="true"/>
<ax:processShipmentResult><ax:shipment><ax:service_type>1</ax:service_type><ax:total>20.00</ax:total></ax:shipment></ax:processShipmentResult>
</ns:return></ns:rateShipmentResponse>`)
	srv, captured := canShipServer(t, http.StatusOK, string(response))
	client := newTestClient(canpar.Config{})

	result, err := client.Rate(context.Background(), apiConfig(srv.URL), sampleShipment())
	require.NoError(t, err)
	require.Len(t, result.Quotes, 1)
	assert.InDelta(t, 20.0, result.Quotes[0].Charges.Total, 0.001)
	action, _, _ := captured.get()
	assert.Equal(t, "urn:rateShipment", action)
}

func TestClient_Cancel_Policy(t *testing.T) {
	srv, captured := canShipServer(t, http.StatusOK, string(soap(``)))

	result, err := newTestClient(canpar.Config{}).Cancel(context.Background(), apiConfig(srv.URL), "10238841")
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	action, _, body := captured.get()
	assert.Equal(t, "urn:voidShipment", action)
	assert.True(t, strings.Contains(body, "<xsd:id>10238841</xsd:id>"))

	result, err = newTestClient(canpar.Config{CancelPolicy: shipper.ReportUnconfirmed}).Cancel(context.Background(), apiConfig(srv.URL), "10238841")
	require.NoError(t, err)
	assert.False(t, result.Cancelled)
	assert.True(t, result.CanCancel)
}

func TestClient_Label_Thermal(t *testing.T) {
	response := soap(`<ns:getLabelsResponse><ns:return><ax:error xsi:nil="true"/><ax:labels>XlhB</ax:labels></ns:return></ns:getLabelsResponse>`)
	srv, captured := canShipServer(t, http.StatusOK, string(response))

	result, err := newTestClient(canpar.Config{Thermal: true}).Label(context.Background(), apiConfig(srv.URL), "10238841")
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, shipper.LabelZPL, result.Documents[0].Format)
	_, _, body := captured.get()
	assert.Contains(t, body, "<xsd:thermal>true</xsd:thermal>")
}

func TestClient_History(t *testing.T) {
	response := soap(`<ns:trackByBarcodeResponse><ns:return><ax:error xsi:nil="true"/>
<ax:result><ax:events><ax:code>IT</ax:code><ax:code_description_en>In transit</ax:code_description_en></ax:events></ax:result>
</ns:return></ns:trackByBarcodeResponse>`)
	srv, captured := canShipServer(t, http.StatusOK, string(response))

	history, err := newTestClient(canpar.Config{}).History(context.Background(), apiConfig(srv.URL), "D4001")
	require.NoError(t, err)
	assert.Equal(t, "In transit", history.Status)
	action, _, _ := captured.get()
	assert.Equal(t, "urn:trackByBarcode", action)
}
