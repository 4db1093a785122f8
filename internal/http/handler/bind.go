package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

// bind decodes a strict JSON request body into obj.
func bind(req *http.Request, obj any) error {
	if req == nil || req.Body == nil {
		return errors.New("invalid request")
	}
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(obj)
}
