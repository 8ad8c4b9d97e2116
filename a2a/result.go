package a2a

// RawResponse holds a remote reply that was either valid JSON or plain
// text. Exactly one case is set.
type RawResponse struct {
	json   interface{}
	text   string
	isJSON bool
}

// JSONResponse wraps a decoded JSON value.
func JSONResponse(v interface{}) RawResponse {
	return RawResponse{json: v, isJSON: true}
}

// TextResponse wraps an undecodable body as plain text.
func TextResponse(s string) RawResponse {
	return RawResponse{text: s}
}

// Value returns the decoded JSON value or, for the text case, the string.
func (r RawResponse) Value() interface{} {
	if r.isJSON {
		return r.json
	}
	return r.text
}

// Normalize unwraps conventional result envelopes: a JSON object with a
// "result" key yields that sub-value, else one with an "output" key
// yields that, else the value passes through unchanged. Text responses
// always pass through.
func (r RawResponse) Normalize() interface{} {
	if !r.isJSON {
		return r.text
	}

	obj, ok := r.json.(map[string]interface{})
	if !ok {
		return r.json
	}
	if v, ok := obj["result"]; ok {
		return v
	}
	if v, ok := obj["output"]; ok {
		return v
	}
	return r.json
}

// decodeBody turns a response body into a RawResponse, degrading to text
// when the body is not JSON.
func decodeBody(body []byte) RawResponse {
	var v interface{}
	if err := jsonCodec.Unmarshal(body, &v); err != nil {
		return TextResponse(string(body))
	}
	return JSONResponse(v)
}
