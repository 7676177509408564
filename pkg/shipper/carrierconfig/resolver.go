// Package carrierconfig resolves carrier credentials and endpoints into a
// per-call shipper.APIConfig.
package carrierconfig

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tournevent/carrierlink/pkg/shipper"
)

// StatusActive is the only record status the resolver accepts.
const StatusActive = "active"

// ErrRecordNotFound is returned by a CredentialStore when no record matches.
var ErrRecordNotFound = errors.New("carrier record not found")

// CarrierRecord is the stored carrier document.
type CarrierRecord struct {
	ID             string                     `json:"id" bson:"_id"`
	Name           string                     `json:"name" bson:"name"`
	Type           string                     `json:"type" bson:"type"`
	Enabled        bool                       `json:"enabled" bson:"enabled"`
	Status         string                     `json:"status" bson:"status"`
	APICredentials shipper.CarrierCredentials `json:"apiCredentials" bson:"apiCredentials"`
}

// Usable reports whether the record is enabled and active.
func (r *CarrierRecord) Usable() bool {
	return r != nil && r.Enabled && strings.EqualFold(r.Status, StatusActive)
}

// CredentialStore looks carrier records up. FindByName must match
// case-insensitively. Both return ErrRecordNotFound when nothing matches.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (*CarrierRecord, error)
	FindByName(ctx context.Context, name string) (*CarrierRecord, error)
}

// DefaultAliases are the known spellings of each carrier in stored records.
var DefaultAliases = map[string][]string{
	"canpar":    {"Canpar", "Canpar Express", "CANPAR", "Canpar Courier"},
	"eshipplus": {"eShipPlus", "EShipPlus", "eShip Plus", "ESHIPPLUS", "eship-plus"},
}

// Resolver builds APIConfigs from a CredentialStore.
type Resolver struct {
	store   CredentialStore
	aliases map[string][]string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAliases replaces the alias groups used for name fallback.
func WithAliases(aliases map[string][]string) Option {
	return func(r *Resolver) {
		r.aliases = aliases
	}
}

// NewResolver creates a Resolver backed by store.
func NewResolver(store CredentialStore, opts ...Option) *Resolver {
	r := &Resolver{store: store, aliases: DefaultAliases}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds the carrier identified by carrierID (an ID, a name, or any
// alias of a known carrier) and returns the config for op. It fails with a
// not-found error when no usable record matches and with a configuration
// error when the record lacks the endpoint for op.
func (r *Resolver) Resolve(ctx context.Context, carrierID string, op shipper.Operation) (*shipper.APIConfig, error) {
	record, err := r.Lookup(ctx, carrierID)
	if err != nil {
		return nil, err
	}
	return BuildAPIConfig(record, op)
}

// Lookup returns the first usable record for carrierID: by ID, then by
// case-insensitive name, then by every alias in the identifier's group.
func (r *Resolver) Lookup(ctx context.Context, carrierID string) (*CarrierRecord, error) {
	id := strings.TrimSpace(carrierID)
	if id == "" {
		return nil, shipper.NewNotFoundError("", "carrier identifier is empty")
	}

	record, err := r.store.FindByID(ctx, id)
	if usable, lookupErr := check(record, err); lookupErr != nil {
		return nil, lookupErr
	} else if usable {
		return record, nil
	}

	for _, name := range r.candidates(id) {
		record, err := r.store.FindByName(ctx, name)
		if usable, lookupErr := check(record, err); lookupErr != nil {
			return nil, lookupErr
		} else if usable {
			return record, nil
		}
	}

	return nil, shipper.NewNotFoundError(id, fmt.Sprintf("no enabled, active carrier matches %q", id))
}

func check(record *CarrierRecord, err error) (bool, error) {
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return false, nil
		}
		return false, shipper.NewPersistenceError("carrier lookup failed", err)
	}
	return record.Usable(), nil
}

// candidates returns id followed by every alias of the groups id belongs
// to, groups taken in key order.
func (r *Resolver) candidates(id string) []string {
	out := []string{id}
	seen := map[string]bool{strings.ToLower(id): true}
	for _, key := range slices.Sorted(maps.Keys(r.aliases)) {
		group := r.aliases[key]
		if !inGroup(id, key, group) {
			continue
		}
		for _, alias := range group {
			if !seen[strings.ToLower(alias)] {
				seen[strings.ToLower(alias)] = true
				out = append(out, alias)
			}
		}
	}
	return out
}

func inGroup(id, key string, group []string) bool {
	if strings.EqualFold(id, key) {
		return true
	}
	for _, alias := range group {
		if strings.EqualFold(id, alias) {
			return true
		}
	}
	return false
}

// BuildAPIConfig validates the record's endpoint for op and builds the
// fully-qualified API URL.
func BuildAPIConfig(record *CarrierRecord, op shipper.Operation) (*shipper.APIConfig, error) {
	creds := record.APICredentials
	if len(creds.Endpoints) == 0 {
		return nil, shipper.NewConfigurationError(record.Name, "carrier has no endpoints configured")
	}
	endpoint := strings.TrimSpace(creds.Endpoints[op.EndpointKey()])
	if endpoint == "" {
		return nil, shipper.NewConfigurationError(record.Name, fmt.Sprintf("carrier has no %s configured", op.EndpointKey()))
	}

	apiURL, err := JoinURL(creds.HostURL, endpoint)
	if err != nil {
		return nil, shipper.NewConfigurationError(record.Name, err.Error())
	}

	return &shipper.APIConfig{
		APIURL:      apiURL,
		Credentials: creds,
		CarrierID:   record.ID,
		CarrierName: record.Name,
		Endpoint:    endpoint,
		Operation:   op,
	}, nil
}

// JoinURL returns endpoint verbatim when it is absolute, otherwise host and
// endpoint joined by exactly one slash.
func JoinURL(host, endpoint string) (string, error) {
	lower := strings.ToLower(endpoint)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return endpoint, nil
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("relative endpoint %q requires a host URL", endpoint)
	}
	return strings.TrimRight(host, "/") + "/" + strings.TrimLeft(endpoint, "/"), nil
}
