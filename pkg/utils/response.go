package utils

// ResponseData is the JSON envelope every REST handler returns. Status drives
// the HTTP code only and is not serialized.
type ResponseData struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics on a non-nil error so the recovery middleware can turn
// typed application errors into their HTTP envelope.
func PanicIfNeeded(err error) {
	if err != nil {
		panic(err)
	}
}
