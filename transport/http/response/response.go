package response

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/axis/errors"
)

const (
	defaultSuccessMessage = "success"
	successCode           = http.StatusOK

	defaultErrorMessage = "service temporarily unavailable"
)

type Response struct {
	Code     int               `json:"code"`               // business code, errors.Code for failures
	Data     any               `json:"data,omitempty"`     // omitted when nil
	Message  string            `json:"message,omitempty"`  // omitted when empty
	Metadata map[string]string `json:"metadata,omitempty"` // error metadata
}

// reset clears every field before the value goes back to the pool
func (r *Response) reset() {
	r.Code = 0
	r.Data = nil
	r.Message = ""
	r.Metadata = nil
}

func (r *Response) setSuccess(data any) {
	r.Code = successCode
	r.Data = data
	r.Message = defaultSuccessMessage
}

func (r *Response) setError(e *errors.Error) {
	r.Code = int(e.Code)
	r.Data = nil
	r.Message = e.Message
	r.Metadata = e.Metadata
}

var responsePool = sync.Pool{
	New: func() any {
		return &Response{}
	},
}

func acquireResponse() *Response {
	return responsePool.Get().(*Response)
}

func releaseResponse(r *Response) {
	if r != nil {
		r.reset()
		responsePool.Put(r)
	}
}

func NewResponse(code int, data any, message string) *Response {
	return &Response{
		Code:    code,
		Data:    data,
		Message: message,
	}
}

// GinJSON writes a success response
func GinJSON(c *gin.Context, data any) {
	if c == nil {
		return
	}

	resp := acquireResponse()
	defer releaseResponse(resp)

	resp.setSuccess(data)
	c.JSON(successCode, resp)
}

// GinJSONE writes err with the given HTTP status and aborts the chain
func GinJSONE(c *gin.Context, status int, err error) {
	if c == nil {
		return
	}

	defer c.Abort()

	if err == nil {
		err = errors.New(errors.CodeUnknown, defaultErrorMessage)
	}

	resp := acquireResponse()
	defer releaseResponse(resp)

	resp.setError(errors.FromError(err))
	c.JSON(status, resp)
}
