package handler

import (
	"net/http"

	"github.com/clubm8/clubm8api/internal/render"
)

// Resources lists the resource names served under APIRoot, in
// registration order.
var Resources = []string{"tag", "event", "occurence", "special", "plan", "slot", "news"}

// Root describes every resource's list endpoint.
func Root(w http.ResponseWriter, r *http.Request) {
	resp := render.Response{}
	for _, name := range Resources {
		resp[name] = render.Object{
			"list_endpoint": APIRoot + name + "/",
		}
	}
	render.Write(w, r, http.StatusOK, resp)
}
