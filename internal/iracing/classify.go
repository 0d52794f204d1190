package iracing

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/Herbstein/iracing-driver-data-dump/lib/htmlutil"

	"github.com/go-resty/resty/v2"
)

// classifyResponse must be called before the body of a response is decoded,
// a maintenance response does not have the shape of any api payload.
func classifyResponse(res *resty.Response) error {
	status := res.StatusCode()
	if status == http.StatusServiceUnavailable {
		return &MaintenanceError{Detail: maintenanceDetail(res)}
	}
	if status >= 400 {
		return &HttpStatusError{
			StatusCode: status,
			Status:     res.Status(),
			Url:        res.Request.URL,
		}
	}
	return nil
}

// maintenanceDetail returns the title of an html maintenance page, or "".
func maintenanceDetail(res *resty.Response) string {
	if !strings.Contains(res.Header().Get("Content-Type"), "html") {
		return ""
	}
	title, err := htmlutil.Title(bytes.NewReader(res.Body()))
	if err != nil {
		return ""
	}
	return title
}
