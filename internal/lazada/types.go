package lazada

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Gateway codes that mean the access token must be refreshed.
var tokenExpiredCodes = map[string]bool{
	"IllegalAccessToken": true,
	"AccessTokenExpired": true,
	"InvalidAccessToken": true,
}

// APIError is a non-success answer from the gateway.
type APIError struct {
	Code      string
	Type      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("lazada: %s: %s (request_id=%s)", e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("lazada: %s: %s", e.Code, e.Message)
}

// IsTokenExpired reports whether the gateway rejected the access token.
func (e *APIError) IsTokenExpired() bool {
	return tokenExpiredCodes[e.Code]
}

// IsTokenExpired reports whether err carries a token-expiry APIError.
func IsTokenExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsTokenExpired()
}

// flexString accepts JSON strings, numbers and null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string {
	return string(f)
}

type envelope struct {
	Code      flexString      `json:"code"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Result    *resultBlock    `json:"result"`
}

type resultBlock struct {
	Success bool            `json:"success"`
	Code    flexString      `json:"error_code"`
	Message string          `json:"error_msg"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) err() error {
	if code := e.Code.String(); code != "" && code != "0" {
		return &APIError{Code: code, Type: e.Type, Message: e.Message, RequestID: e.RequestID}
	}
	if e.Result != nil && !e.Result.Success {
		code := e.Result.Code.String()
		if code == "" {
			code = "ResultFailed"
		}
		return &APIError{Code: code, Message: e.Result.Message, RequestID: e.RequestID}
	}
	return nil
}

func (e envelope) payload() json.RawMessage {
	if len(e.Data) > 0 && !bytes.Equal(e.Data, []byte("null")) {
		return e.Data
	}
	if e.Result != nil {
		return e.Result.Data
	}
	return nil
}

type linkInfo struct {
	ProductID               flexString `json:"productId"`
	ProductName             string     `json:"productName"`
	RegularPromotionLink    string     `json:"regularPromotionLink"`
	MMCampaignPromotionLink string     `json:"mmCampaignPromotionLink"`
	PromotionLink           string     `json:"promotionLink"`
}

func (l linkInfo) bestLink(campaignID string) string {
	if campaignID != "" && l.MMCampaignPromotionLink != "" {
		return l.MMCampaignPromotionLink
	}
	if l.RegularPromotionLink != "" {
		return l.RegularPromotionLink
	}
	return l.PromotionLink
}

type refreshResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	Account          string `json:"account"`
}
