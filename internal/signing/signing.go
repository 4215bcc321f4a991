// Package signing builds canonical request strings for the Lazada Open Platform
// and signs them with HMAC-SHA256.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ErrMissingSecret is returned when a signer is built without an app secret.
var ErrMissingSecret = errors.New("signing: app secret is required")

// SignKey is the parameter that carries the signature. It never takes part in
// canonicalization.
const SignKey = "sign"

// Scheme selects how sorted parameters are joined before digesting.
type Scheme int

const (
	// SchemePath prefixes the API path and concatenates key+value pairs with no
	// separator and no encoding.
	SchemePath Scheme = iota
	// SchemeQuery joins key=urlencode(value) pairs with "&".
	SchemeQuery
)

// ParseScheme maps a config value to a Scheme. Empty means SchemePath.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "path":
		return SchemePath, nil
	case "query":
		return SchemeQuery, nil
	default:
		return SchemePath, fmt.Errorf("signing: unknown scheme %q (want path or query)", s)
	}
}

func (s Scheme) String() string {
	switch s {
	case SchemeQuery:
		return "query"
	default:
		return "path"
	}
}

// Param is a single named request parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered set of named parameters. Setting an existing key
// replaces its value in place.
type Params struct {
	items []Param
}

// NewParams builds a Params from alternating key/value pairs.
func NewParams(kv ...string) *Params {
	p := &Params{}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}

// Set adds or replaces a parameter.
func (p *Params) Set(key, value string) {
	for i := range p.items {
		if p.items[i].Key == key {
			p.items[i].Value = value
			return
		}
	}
	p.items = append(p.items, Param{Key: key, Value: value})
}

// SetIfNotEmpty adds the parameter only when value is non-empty.
func (p *Params) SetIfNotEmpty(key, value string) {
	if value != "" {
		p.Set(key, value)
	}
}

// Get returns the value for key.
func (p *Params) Get(key string) (string, bool) {
	for _, it := range p.items {
		if it.Key == key {
			return it.Value, true
		}
	}
	return "", false
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	return len(p.items)
}

// Sorted returns a copy of the parameters ordered by key.
func (p *Params) Sorted() []Param {
	out := make([]Param, len(p.items))
	copy(out, p.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Values converts the set into url.Values for the wire.
func (p *Params) Values() url.Values {
	v := make(url.Values, len(p.items))
	for _, it := range p.items {
		v.Set(it.Key, it.Value)
	}
	return v
}

// Canonicalize renders params into the string that gets signed.
func Canonicalize(scheme Scheme, apiPath string, params *Params) string {
	var b strings.Builder
	sorted := params.Sorted()

	switch scheme {
	case SchemeQuery:
		first := true
		for _, it := range sorted {
			if it.Key == SignKey {
				continue
			}
			if !first {
				b.WriteByte('&')
			}
			first = false
			b.WriteString(it.Key)
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(it.Value))
		}
	default:
		b.WriteString(apiPath)
		for _, it := range sorted {
			if it.Key == SignKey {
				continue
			}
			b.WriteString(it.Key)
			b.WriteString(it.Value)
		}
	}
	return b.String()
}

// Digest returns the uppercase hex HMAC-SHA256 of message keyed by secret.
func Digest(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// Signer signs parameter sets for one call family.
type Signer struct {
	secret string
	scheme Scheme
}

// NewSigner creates a signer. The secret must be non-empty.
func NewSigner(secret string, scheme Scheme) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Signer{secret: secret, scheme: scheme}, nil
}

// Scheme returns the canonical form this signer uses.
func (s *Signer) Scheme() Scheme {
	return s.scheme
}

// Sign computes the signature for params under apiPath.
func (s *Signer) Sign(apiPath string, params *Params) string {
	return Digest(s.secret, Canonicalize(s.scheme, apiPath, params))
}

// SignInto computes the signature and stores it under SignKey.
func (s *Signer) SignInto(apiPath string, params *Params) {
	params.Set(SignKey, s.Sign(apiPath, params))
}
