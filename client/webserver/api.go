// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package webserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/skip2/go-qrcode"
	"paywaila.org/waila/client/payreq"
	"paywaila.org/waila/wallet"
	"paywaila.org/waila/wallet/msgjson"
)

const (
	minQRSize     = 128
	maxQRSize     = 1024
	defaultQRSize = 256
	maxQRData     = 4096
)

// standardResponse is a basic API response when no data needs to be returned.
type standardResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg,omitempty"`
}

// inFlightResponse is the response to the '/checkinflight' API request.
type inFlightResponse struct {
	OK       bool `json:"ok"`
	InFlight bool `json:"inflight"`
}

// apiResolve is the handler for the '/resolve' API request.
func (s *WebServer) apiResolve(w http.ResponseWriter, r *http.Request) {
	req := new(msgjson.ResolveRequest)
	if !s.readPost(w, r, req) {
		return
	}
	desc, err := s.resolve(req)
	if err != nil {
		s.writeAPIError(w, "%v", err)
		return
	}
	s.writeJSON(w, desc)
}

// apiCheckInFlight is the handler for the '/checkinflight' API request.
func (s *WebServer) apiCheckInFlight(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, &inFlightResponse{
		OK:       true,
		InFlight: s.core.CheckInFlight(r.Context()),
	})
}

// apiQR is the handler for the '/qr' API request. It renders the data query
// parameter as a PNG QR code.
func (s *WebServer) apiQR(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := q.Get("data")
	if data == "" {
		http.Error(w, "no data", http.StatusBadRequest)
		return
	}
	if len(data) > maxQRData {
		http.Error(w, "data too long", http.StatusBadRequest)
		return
	}
	size := defaultQRSize
	if sizeStr := q.Get("size"); sizeStr != "" {
		var err error
		size, err = strconv.Atoi(sizeStr)
		if err != nil {
			http.Error(w, "invalid size", http.StatusBadRequest)
			return
		}
	}
	png, err := qrcode.Encode(data, qrcode.Medium, clampQRSize(size))
	if err != nil {
		s.log.Errorf("error encoding QR code: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func clampQRSize(size int) int {
	switch {
	case size < minQRSize:
		return minQRSize
	case size > maxQRSize:
		return maxQRSize
	}
	return size
}

// resolve validates the request and resolves the payment string for the
// requested network, or the wallet network if none is given.
func (s *WebServer) resolve(req *msgjson.ResolveRequest) (*payreq.Descriptor, error) {
	if err := validate.Struct(req); err != nil {
		return nil, requestError(err)
	}
	net := s.core.Network()
	if req.Network != "" {
		var err error
		if net, err = wallet.NetFromString(req.Network); err != nil {
			return nil, wallet.NewError(errInvalidRequest, err.Error())
		}
	}
	return s.core.ResolveFor(req.Raw, net)
}

// errInvalidRequest is the error kind for requests that fail validation.
const errInvalidRequest = wallet.ErrorKind("invalid request")

// requestError converts a validation error into a user-facing message.
func requestError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return wallet.NewError(errInvalidRequest, err.Error())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return wallet.NewErrorf(errInvalidRequest, "%s is required", fe.Field())
	case "max":
		return wallet.NewErrorf(errInvalidRequest, "%s is too long", fe.Field())
	case "oneof":
		return wallet.NewErrorf(errInvalidRequest, "unknown %s %q", fe.Field(), fe.Value())
	}
	return wallet.NewErrorf(errInvalidRequest, "%s failed %s", fe.Field(), fe.Tag())
}

// rpcError maps a resolve error to the msgjson error code.
func rpcError(err error) *msgjson.Error {
	code := msgjson.RPCErrorUnspecified
	switch {
	case errors.Is(err, payreq.ErrNetworkMismatch):
		code = msgjson.RPCNetworkMismatch
	case errors.Is(err, payreq.ErrInvalidPaymentRequest):
		code = msgjson.RPCInvalidPaymentReq
	case errors.Is(err, errInvalidRequest):
		code = msgjson.RPCParseError
	}
	return msgjson.NewError(code, "%v", err)
}

// writeAPIError logs the formatted error and sends a standardResponse with
// the error message.
func (s *WebServer) writeAPIError(w http.ResponseWriter, format string, a ...any) {
	errMsg := fmt.Sprintf(format, a...)
	s.log.Debug(errMsg)
	resp := &standardResponse{
		OK:  false,
		Msg: errMsg,
	}
	s.writeJSON(w, resp)
}
