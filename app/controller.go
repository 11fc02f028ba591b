package app

import (
	"net/http"

	gohttp "github.com/km-arc/go-sofaboot/framework/http"
)

// Controller is an embeddable base for controllers,
// providing Req/Res factory methods.
type Controller struct{}

func (c *Controller) Request(r *http.Request) *gohttp.Request {
	return gohttp.NewRequest(r)
}

func (c *Controller) Response(w http.ResponseWriter) *gohttp.Response {
	return gohttp.NewResponse(w)
}
